// Package tui is the interactive kingdom view. It renders controller
// snapshots and turns key presses into controller calls; it never touches
// the item store itself.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/royaltodo/internal/controller"
	"github.com/idilsaglam/royaltodo/internal/ui"
)

const (
	headerText   = "👑 Princess Todo Kingdom 👑"
	subtitleText = "Rule your day with grace and sparkle"
	emptyTitle   = "Your kingdom is peaceful, Your Highness!"
	emptyHint    = "Add your first royal task to begin your quest ✨"
	placeholder  = "Add a new royal task... 👑"
	loadingText  = "Summoning your royal tasks..."
	copiedText   = "Royal task copied to your clipboard!"
	copyFailText = "Could not reach the royal clipboard!"

	noticeTTL = 3 * time.Second
)

type (
	snapshotMsg    controller.Snapshot
	noticeMsg      controller.Notification
	clearNoticeMsg struct{ seq int }

	// opDoneMsg reports the outcome of a controller call back to Update.
	opDoneMsg struct {
		op     string
		notice controller.Notification
	}
)

// Options tune the model. Zero values use the system clipboard.
type Options struct {
	Copy func(string) error
}

// Model is the bubbletea model for the task list.
type Model struct {
	ctx  context.Context
	ctrl *controller.Controller
	copy func(string) error

	snap    controller.Snapshot
	list    list.Model
	input   textinput.Model
	spinner spinner.Model
	adding  bool

	notice    controller.Notification
	noticeSeq int

	width, height int
}

// New builds a model bound to ctrl. ctx bounds every store call it triggers.
func New(ctx context.Context, ctrl *controller.Controller, opts Options) Model {
	if opts.Copy == nil {
		opts.Copy = clipboard.WriteAll
	}

	l := list.New(nil, taskDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowPagination(true)
	l.Styles.PaginationStyle = helpStyle
	l.DisableQuitKeybindings()

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = placeholder
	ti.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle

	m := Model{
		ctx:     ctx,
		ctrl:    ctrl,
		copy:    opts.Copy,
		list:    l,
		input:   ti,
		spinner: sp,
		width:   80,
		height:  24,
	}
	m.applySnapshot(ctrl.Snapshot())
	m.resize()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run("init", m.ctrl.Initialize))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case snapshotMsg:
		cmd := m.applySnapshot(controller.Snapshot(msg))
		return m, cmd

	case noticeMsg:
		cmd := m.showNotice(controller.Notification(msg))
		return m, cmd

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = controller.Notification{}
		}
		return m, nil

	case opDoneMsg:
		if msg.op == "add" && !msg.notice.Failed() {
			m.adding = false
			m.input.SetValue("")
			m.input.Blur()
			m.resize()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.adding {
			return m.updateAdding(msg)
		}
		return m.updateBrowsing(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.adding = false
		m.input.Blur()
		m.resize()
		return m, nil
	case "enter":
		raw := m.input.Value()
		return m, m.run("add", func(ctx context.Context) controller.Notification {
			return m.ctrl.AddTask(ctx, raw)
		})
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.ctrl.SetInput(m.input.Value())
	return m, cmd
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit

	case "a":
		m.adding = true
		m.input.SetValue(m.snap.Input)
		m.input.CursorEnd()
		m.resize()
		cmd := m.input.Focus()
		return m, cmd

	case " ":
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		id, done := it.task.ID, it.task.Completed
		return m, m.run("toggle", func(ctx context.Context) controller.Notification {
			return m.ctrl.ToggleTask(ctx, id, done)
		})

	case "d":
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		id := it.task.ID
		return m, m.run("delete", func(ctx context.Context) controller.Notification {
			return m.ctrl.DeleteTask(ctx, id)
		})

	case "y":
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		n := controller.Notification{Kind: controller.KindInfo, Text: copiedText}
		if err := m.copy(it.task.Title); err != nil {
			n = controller.Notification{Kind: controller.KindWarning, Text: copyFailText}
		}
		cmd := m.showNotice(n)
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// run wraps a controller call in a command.
func (m Model) run(op string, fn func(context.Context) controller.Notification) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, notice: fn(ctx)}
	}
}

func (m *Model) applySnapshot(s controller.Snapshot) tea.Cmd {
	m.snap = s
	return m.list.SetItems(toItems(s.Tasks))
}

func (m *Model) showNotice(n controller.Notification) tea.Cmd {
	m.notice = n
	m.noticeSeq++
	seq := m.noticeSeq
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg { return clearNoticeMsg{seq: seq} })
}

func (m Model) selected() (taskItem, bool) {
	it, ok := m.list.SelectedItem().(taskItem)
	return it, ok
}

func (m *Model) resize() {
	// frame, header, subtitle, progress, blank, notice, help
	reserved := 10
	if m.adding {
		reserved += 3
	}
	h := m.height - reserved
	if h < 3 {
		h = 3
	}
	m.list.SetSize(m.width-4, h)
	m.input.Width = m.width - 10
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(headerText))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render(subtitleText))
	b.WriteString("\n\n")

	switch {
	case m.snap.Loading:
		b.WriteString(m.spinner.View() + " " + mutedStyle.Render(loadingText))
		b.WriteString("\n")
	case m.snap.TotalCount == 0:
		b.WriteString(accentStyle.Render(emptyTitle))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(emptyHint))
		b.WriteString("\n")
	default:
		bar := ui.ProgressBar(m.snap.CompletedCount, m.snap.TotalCount, 24)
		b.WriteString(successStyle.Render(bar) + "  ")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%d / %d completed", m.snap.CompletedCount, m.snap.TotalCount)))
		b.WriteString("\n\n")
		b.WriteString(m.list.View())
		b.WriteString("\n")
	}

	if m.adding {
		b.WriteString(inputStyle.Render(m.input.View()))
		b.WriteString("\n")
	}

	if m.notice.Text != "" {
		b.WriteString(noticeStyle(m.notice.Kind).Render(m.notice.Text))
		b.WriteString("\n")
	}

	help := "a add • space toggle • d dismiss • y copy • q quit"
	if m.adding {
		help = "enter crown it • esc cancel"
	}
	b.WriteString(helpStyle.Render(help))

	return frameStyle.Render(b.String())
}

func noticeStyle(k controller.Kind) lipgloss.Style {
	switch k {
	case controller.KindError:
		return errorStyle
	case controller.KindWarning:
		return warnStyle
	case controller.KindSuccess:
		return successStyle
	}
	return accentStyle
}
