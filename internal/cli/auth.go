package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/idilsaglam/royaltodo/internal/auth"
	"github.com/idilsaglam/royaltodo/internal/ui"
)

func (a *App) newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the token used to reach the royal API",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageErr("usage: royal auth <login|logout|status|whoami>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return usageErr("usage: royal auth <login|logout|status|whoami>")
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "login [token]",
		Short: "Save a token (prompts when not given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.authLogin(args)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Forget the saved token",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return a.authLogout() },
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show where the token comes from and when it expires",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return a.authStatus() },
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "whoami",
		Short: "Decode the token's claims locally",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return a.authWhoAmI() },
	})
	return cmd
}

func (a *App) authLogin(args []string) error {
	var token string
	if len(args) == 1 {
		token = args[0]
	} else {
		t, err := a.readToken()
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		token = t
	}
	if strings.TrimSpace(token) == "" {
		return usageErr("login: empty token")
	}
	if err := auth.SetToken(token, nil); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	ui.OK("logged in, welcome back Your Highness")
	if ti, _ := auth.GetToken(); ti != nil && ti.Source == "env" {
		ui.Warn(auth.EnvToken + " is set and takes precedence over the saved token")
	}
	return nil
}

// readToken prompts without echo on a terminal, else reads one line.
func (a *App) readToken() (string, error) {
	fmt.Fprint(a.Err, "Paste your token: ")
	if f, ok := a.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.Err)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(a.In).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *App) authLogout() error {
	ti, _ := auth.GetToken()
	if ti != nil && ti.Source == "env" {
		ui.OK("token is provided by " + auth.EnvToken + " env var (nothing to delete)")
		return nil
	}
	if err := auth.DeleteToken(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	ui.OK("logged out")
	return nil
}

func (a *App) authStatus() error {
	ti, err := auth.GetToken()
	if err != nil {
		return err
	}
	if ti == nil {
		fmt.Fprintln(a.Out, ui.C(ui.Current().Muted, "not logged in"))
		fmt.Fprintln(a.Out, "Run: royal auth login")
		return nil
	}
	fmt.Fprintf(a.Out, "source: %s\n", ti.Source)
	if ti.ExpiresAt != nil {
		exp := ti.ExpiresAt.UTC()
		state := ""
		if exp.Before(time.Now()) {
			state = ui.C(ui.Current().Error, " (expired)")
		}
		fmt.Fprintf(a.Out, "expires: %s%s\n", exp.Format(time.RFC3339), state)
	} else {
		fmt.Fprintln(a.Out, "expires: (unknown)")
	}
	fmt.Fprintln(a.Out, "env override: "+auth.EnvToken)
	return nil
}

// whoami decodes a JWT locally (unverified); opaque tokens print basic info.
func (a *App) authWhoAmI() error {
	ti, _ := auth.GetToken()
	if ti == nil {
		return usageErr("not logged in. Run: royal auth login")
	}
	claims, err := auth.Claims(ti.Token)
	if errors.Is(err, auth.ErrOpaqueToken) {
		fmt.Fprintln(a.Out, "Opaque token (cannot introspect locally).")
		fmt.Fprintln(a.Out, "source:", ti.Source)
		return nil
	}
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(claims))
	for k := range claims {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintln(a.Out, ui.C(ui.Current().Title, "JWT claims:"))
	for _, k := range keys {
		fmt.Fprintf(a.Out, "  %s: %s\n", k, claimString(k, claims[k]))
	}
	return nil
}

func claimString(key string, v any) string {
	switch key {
	case "exp", "iat", "nbf":
		if f, ok := v.(float64); ok {
			return time.Unix(int64(f), 0).UTC().Format(time.RFC3339)
		}
	}
	return fmt.Sprint(v)
}
