package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/idilsaglam/royaltodo/internal/model"
)

// taskItem adapts model.Task to bubbles/list.Item.
type taskItem struct {
	task model.Task
}

func (i taskItem) Title() string       { return i.task.Title }
func (i taskItem) Description() string { return "" }
func (i taskItem) FilterValue() string { return i.task.Title }

func toItems(tasks []model.Task) []list.Item {
	out := make([]list.Item, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskItem{task: t})
	}
	return out
}

// taskDelegate renders one task per line.
type taskDelegate struct{}

func (d taskDelegate) Height() int                         { return 1 }
func (d taskDelegate) Spacing() int                        { return 0 }
func (d taskDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }
func (d taskDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(taskItem)
	if !ok {
		return
	}
	title := it.task.Title
	if width := m.Width() - 8; width > 10 {
		title = ansi.Truncate(title, width, "...")
	}

	box := pendingStyle.Render(boxUnchecked)
	text := title
	if it.task.Completed {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(title)
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
		if !it.task.Completed {
			text = selectedStyle.Render(title)
		}
	}
	fmt.Fprint(w, prefix+box+" "+text)
}
