// Package cli wires configuration, stores and the controller into the royal
// command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/idilsaglam/royaltodo/internal/config"
	"github.com/idilsaglam/royaltodo/internal/logging"
	"github.com/idilsaglam/royaltodo/internal/ui"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// exitError carries an exit code for a failure that was already reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func exitCode(code int) error { return &exitError{code: code} }

func usageErr(format string, args ...any) error {
	return &exitError{code: ExitUsage, err: fmt.Errorf(format, args...)}
}

// App holds what every command needs. The zero value plus New's defaults
// talks to the real terminal.
type App struct {
	In    io.Reader
	Out   io.Writer
	Err   io.Writer
	Paths config.Paths

	cfg       *config.Config
	log       *log.Logger
	logCloser io.Closer
}

// New returns an App bound to the process stdio and default config paths.
func New() *App {
	return &App{
		In:    os.Stdin,
		Out:   os.Stdout,
		Err:   os.Stderr,
		Paths: config.DefaultPaths(),
	}
}

// Run executes args and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string) int {
	return New().Execute(context.Background(), args)
}

// Execute runs the command tree with args.
func (a *App) Execute(ctx context.Context, args []string) int {
	ui.SetOutput(a.Out, a.Err)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.closeLog()

	root := a.newRootCmd()
	root.SetArgs(args)
	root.SetIn(a.In)
	root.SetOut(a.Out)
	root.SetErr(a.Err)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			ui.Fail(ee.err.Error())
		}
		return ee.code
	}
	ui.Fail(err.Error())
	if strings.HasPrefix(err.Error(), "unknown command") || strings.HasPrefix(err.Error(), "accepts ") {
		fmt.Fprintln(a.Err, ui.C(ui.Current().Muted, "Run `royal help` for usage."))
		return ExitUsage
	}
	return ExitError
}

func (a *App) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "royal",
		Short:         "A princess-themed todo kingdom",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Open the kingdom
  royal

  # One-shot commands
  royal add "Attend the royal ball"
  royal ls --plain
  royal done 2
  royal rm 3
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(cmd.Context(), listOptions{})
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &exitError{code: ExitUsage, err: err}
	})

	config.RegisterFlags(cmd.PersistentFlags())
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.setup(cmd)
	}

	cmd.AddCommand(a.newListCmd())
	cmd.AddCommand(a.newAddCmd())
	cmd.AddCommand(a.newDoneCmd())
	cmd.AddCommand(a.newRemoveCmd())
	cmd.AddCommand(a.newAuthCmd())
	cmd.AddCommand(a.newServeCmd())
	cmd.SetHelpCommand(a.newHelpCmd())

	return cmd
}

// setup loads configuration and builds the logger once flags are parsed.
func (a *App) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.Paths, cmd.Flags())
	if err != nil {
		return &exitError{code: ExitUsage, err: fmt.Errorf("config: %w", err)}
	}
	a.cfg = cfg
	ui.SetTheme(cfg.Theme)

	opts := logging.DefaultOptions()
	opts.Level = logging.ParseLevel(cfg.LogLevel)
	opts.Formatter = logging.ParseFormat(cfg.LogFormat)

	var w io.Writer = a.Err
	if cfg.LogFile != "" {
		f, err := logging.OpenFile(cfg.LogFile)
		if err != nil {
			return err
		}
		a.logCloser = f
		w = f
		opts.ReportTimestamp = true
	}
	a.log = logging.New(w, opts)
	return nil
}

func (a *App) closeLog() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
		a.logCloser = nil
	}
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
