package cli

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

const guide = `# royal

A princess-themed todo kingdom. Tasks live in an item store: a remote API
(the default), a local JSON file, SQLite or Postgres.

## Commands

| Command | What it does |
| --- | --- |
| ` + "`royal`" + ` | open the interactive kingdom |
| ` + "`royal ls [--plain] [--group]`" + ` | show your royal tasks |
| ` + "`royal add <title...>`" + ` | add a royal task |
| ` + "`royal done <index>`" + ` | toggle completion at a 1-based index |
| ` + "`royal rm <index>`" + ` | dismiss a task |
| ` + "`royal auth login\\|logout\\|status\\|whoami`" + ` | manage the API token |
| ` + "`royal serve`" + ` | run the item API over a local backend |

## Keys in the kingdom

- **a** add, **enter** to crown it, **esc** to cancel
- **space** toggle, **d** dismiss, **y** copy the title
- **q** quit

## Configuration

Settings come from ` + "`~/.royal/config.toml`" + `, then ` + "`royal.toml`" + ` in the
working directory, then ` + "`.env`" + `, then ` + "`ROYAL_*`" + ` variables, then flags.

## Examples

    royal add "Attend the royal ball"
    royal ls --plain
    royal done 2
    royal --backend json rm 3
`

func (a *App) newHelpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "help [command]",
		Short: "Show the royal guide or help for a command",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				target, _, err := cmd.Root().Find(args)
				if err != nil || target == nil {
					return usageErr("unknown help topic %q", args)
				}
				return target.Help()
			}
			fmt.Fprint(a.Out, a.renderGuide())
			return nil
		},
	}
}

// renderGuide styles the guide for terminals and falls back to plain
// markdown when rendering fails.
func (a *App) renderGuide() string {
	style := "notty"
	if isTerminal(a.Out) {
		style = "pink"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return guide
	}
	out, err := r.Render(guide)
	if err != nil {
		return guide
	}
	return out
}
