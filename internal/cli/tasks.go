package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/royaltodo/internal/config"
	"github.com/idilsaglam/royaltodo/internal/controller"
	"github.com/idilsaglam/royaltodo/internal/logging"
	"github.com/idilsaglam/royaltodo/internal/model"
	"github.com/idilsaglam/royaltodo/internal/tui"
	"github.com/idilsaglam/royaltodo/internal/ui"
)

type listOptions struct {
	plain bool
	group bool
}

func (a *App) newListCmd() *cobra.Command {
	var opts listOptions
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "Show your royal tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "print a panel instead of opening the interactive view")
	cmd.Flags().BoolVar(&opts.group, "group", false, "group the panel by pending/done")
	return cmd
}

func (a *App) newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a royal task (title can be multiple words)",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usageErr("usage: royal add <title...>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			return a.withController(cmd.Context(), func(ctx context.Context, c *controller.Controller) (controller.Notification, error) {
				c.SetInput(title)
				return c.AddTask(ctx, title), nil
			})
		},
	}
}

func (a *App) newDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <index>",
		Short: "Toggle completion for the task at a 1-based index",
		Args:  indexArgs("done"),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, _ := strconv.Atoi(args[0])
			return a.withController(cmd.Context(), func(ctx context.Context, c *controller.Controller) (controller.Notification, error) {
				t, err := a.taskAt(c, n)
				if err != nil {
					return controller.Notification{}, err
				}
				return c.ToggleTask(ctx, t.ID, t.Completed), nil
			})
		},
	}
}

func (a *App) newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <index>",
		Aliases: []string{"dismiss"},
		Short:   "Dismiss the task at a 1-based index",
		Args:    indexArgs("rm"),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, _ := strconv.Atoi(args[0])
			return a.withController(cmd.Context(), func(ctx context.Context, c *controller.Controller) (controller.Notification, error) {
				t, err := a.taskAt(c, n)
				if err != nil {
					return controller.Notification{}, err
				}
				return c.DeleteTask(ctx, t.ID), nil
			})
		},
	}
}

func indexArgs(name string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return usageErr("usage: royal %s <index>", name)
		}
		if _, err := strconv.Atoi(args[0]); err != nil {
			return usageErr("%s: not a number: %s", name, args[0])
		}
		return nil
	}
}

func (a *App) taskAt(c *controller.Controller, userIndex int) (model.Task, error) {
	tasks := c.Snapshot().Tasks
	if userIndex < 1 || userIndex > len(tasks) {
		ui.Fail(fmt.Sprintf("index out of range: have %d, got %d", len(tasks), userIndex))
		fmt.Fprintln(a.Err, ui.C(ui.Current().Muted, "Hint: run `royal ls --plain` to see valid indexes"))
		return model.Task{}, exitCode(ExitUsage)
	}
	return tasks[userIndex-1], nil
}

// withController opens the configured store, loads the list and runs op.
// The resulting notification decides the exit code.
func (a *App) withController(ctx context.Context, op func(context.Context, *controller.Controller) (controller.Notification, error)) error {
	c, closeFn, err := a.loadController(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	n, err := op(ctx, c)
	if err != nil {
		return err
	}
	return a.report(n)
}

func (a *App) loadController(ctx context.Context) (*controller.Controller, func(), error) {
	st, closeFn, err := openStore(ctx, a.cfg.Backend, a.cfg, a.log)
	if err != nil {
		return nil, closeFn, err
	}
	c := controller.New(st, controller.WithLogger(a.log))
	if n := c.Initialize(ctx); n.Failed() {
		closeFn()
		_ = a.report(n)
		if a.cfg.Backend == config.BackendHTTP {
			fmt.Fprintln(a.Err, ui.C(ui.Current().Muted,
				fmt.Sprintf("Hint: is the API at %s up? Protected kingdoms need `royal auth login`.", a.cfg.APIURL)))
		}
		return nil, func() {}, exitCode(ExitError)
	}
	return c, closeFn, nil
}

// report prints n and maps its kind to an exit code.
func (a *App) report(n controller.Notification) error {
	switch n.Kind {
	case controller.KindError:
		ui.Fail(n.Text)
		return exitCode(ExitError)
	case controller.KindWarning:
		ui.Warn(n.Text)
		return exitCode(ExitUsage)
	case controller.KindInfo:
		ui.Info(n.Text)
	default:
		ui.OK(n.Text)
	}
	return nil
}

func (a *App) runList(ctx context.Context, opts listOptions) error {
	if opts.plain || opts.group || !isTerminal(a.Out) {
		c, closeFn, err := a.loadController(ctx)
		if err != nil {
			return err
		}
		defer closeFn()
		renderPanel(c.Snapshot(), opts.group)
		return nil
	}
	return a.runTUI(ctx)
}

// runTUI owns the terminal, so logs go to the log file or nowhere.
func (a *App) runTUI(ctx context.Context) error {
	logger := logging.Discard()
	if a.logCloser != nil {
		logger = a.log
	}
	st, closeFn, err := openStore(ctx, a.cfg.Backend, a.cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()
	c := controller.New(st, controller.WithLogger(logger))
	return tui.Run(ctx, c, tui.Options{})
}

// -------------- rendering helpers --------------

func renderPanel(s controller.Snapshot, group bool) {
	t := ui.Current()
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		ui.C(t.Title, "Princess Todo Kingdom"),
		ui.C(t.Success, t.SymDone), s.CompletedCount,
		ui.C(t.Pending, t.SymUnchecked), s.TotalCount-s.CompletedCount,
		ui.C(t.Accent, "Total"), s.TotalCount,
	)

	lines := []string{header}
	if s.TotalCount > 0 {
		lines = append(lines, ui.C(t.Muted, ui.ProgressBar(s.CompletedCount, s.TotalCount, 28)+
			fmt.Sprintf("  %d / %d completed", s.CompletedCount, s.TotalCount)))
	}
	lines = append(lines, "")

	switch {
	case s.TotalCount == 0:
		lines = append(lines, ui.C(t.Accent, "Your kingdom is peaceful, Your Highness!"))
		lines = append(lines, ui.C(t.Muted, "Add your first royal task to begin your quest ✨"))
	case group:
		lines = append(lines, groupLines(s.Tasks)...)
	default:
		lines = append(lines, flatLines(s.Tasks, nil)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Muted, "Tip: add with `royal add \"Attend the royal ball\"`"))
	ui.Panel(lines)
}

// flatLines renders tasks with their 1-based index in the full list. When
// indexes is nil the position in tasks is used.
func flatLines(tasks []model.Task, indexes []int) []string {
	t := ui.Current()
	out := make([]string, 0, len(tasks))
	for i, task := range tasks {
		n := i + 1
		if indexes != nil {
			n = indexes[i]
		}
		box, color := t.BoxUnchecked, t.Pending
		if task.Completed {
			box, color = t.BoxChecked, t.Success
		}
		out = append(out, fmt.Sprintf("%s %s %s",
			ui.C(ui.Dim(), fmt.Sprintf("%2d.", n)), ui.C(color, box), ui.Truncate(task.Title, 80)))
	}
	return out
}

func groupLines(tasks []model.Task) []string {
	var pend, done []model.Task
	var pendIdx, doneIdx []int
	for i, task := range tasks {
		if task.Completed {
			done, doneIdx = append(done, task), append(doneIdx, i+1)
		} else {
			pend, pendIdx = append(pend, task), append(pendIdx, i+1)
		}
	}
	t := ui.Current()
	var lines []string
	lines = append(lines, ui.C(t.Accent, "Royal duties"))
	if len(pend) == 0 {
		lines = append(lines, ui.C(t.Muted, "(none)"))
	} else {
		lines = append(lines, flatLines(pend, pendIdx)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Accent, "Conquered"))
	if len(done) == 0 {
		lines = append(lines, ui.C(t.Muted, "(none)"))
	} else {
		lines = append(lines, flatLines(done, doneIdx)...)
	}
	return lines
}
