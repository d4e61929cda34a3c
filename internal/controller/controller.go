// Package controller keeps the local task list in sync with an item store.
//
// The list is only mutated after a store call resolves. The one exception is
// DeleteTask, which drops the task locally even when the tombstone write
// fails. Every outcome is reported as a Notification; no store error escapes.
package controller

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/royaltodo/internal/logging"
	"github.com/idilsaglam/royaltodo/internal/model"
	"github.com/idilsaglam/royaltodo/internal/store"
)

const defaultNoticeBuffer = 32

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	Tasks          []model.Task
	Loading        bool
	Input          string
	TotalCount     int
	CompletedCount int
}

// ProgressRatio is CompletedCount/TotalCount, or 0 for an empty list.
func (s Snapshot) ProgressRatio() float64 {
	if s.TotalCount == 0 {
		return 0
	}
	return float64(s.CompletedCount) / float64(s.TotalCount)
}

// Controller mediates between UI intent and the item store.
type Controller struct {
	store store.ItemStore
	log   *log.Logger

	mu      sync.Mutex
	tasks   []model.Task
	loading bool
	input   string

	obsMu     sync.Mutex
	observers map[int]func(Snapshot)
	nextObs   int

	notices chan Notification
}

type Option func(*Controller)

func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithNoticeBuffer sets how many undelivered notifications are kept.
func WithNoticeBuffer(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.notices = make(chan Notification, n)
		}
	}
}

func New(s store.ItemStore, opts ...Option) *Controller {
	c := &Controller{
		store:     s,
		log:       logging.Discard(),
		tasks:     []model.Task{},
		observers: map[int]func(Snapshot){},
		notices:   make(chan Notification, defaultNoticeBuffer),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Initialize replaces the local list with the store's contents.
func (c *Controller) Initialize(ctx context.Context) Notification {
	c.mutate(func() { c.loading = true })

	var items []model.Task
	err := guard(func() error {
		var err error
		items, err = c.store.List(ctx)
		return err
	})
	if err != nil {
		c.log.Error("load tasks failed", "err", err)
		c.mutate(func() {
			c.tasks = []model.Task{}
			c.loading = false
		})
		return c.emit(KindError, TextLoadFailed)
	}

	live := liveTasks(items)
	c.log.Debug("tasks loaded", "count", len(live))
	c.mutate(func() {
		c.tasks = live
		c.loading = false
	})
	return c.emit(KindInfo, loadedText(len(live)))
}

// SetInput replaces the pending add text.
func (c *Controller) SetInput(text string) {
	c.mutate(func() { c.input = text })
}

// AddTask creates a task from rawTitle and appends it on success.
func (c *Controller) AddTask(ctx context.Context, rawTitle string) Notification {
	title, err := model.NormalizeTitle(rawTitle)
	if err != nil {
		return c.emit(KindWarning, TextTitleRequired)
	}

	var created model.Task
	err = guard(func() error {
		var err error
		created, err = c.store.Create(ctx, model.NewTaskFields(title))
		return err
	})
	if err != nil {
		c.log.Error("add task failed", "title", title, "err", err)
		return c.emit(KindError, TextAddFailed)
	}

	c.log.Debug("task added", "id", created.ID)
	c.mutate(func() {
		if i := c.indexOf(created.ID); i >= 0 {
			c.tasks[i] = created
		} else {
			c.tasks = append(c.tasks, created)
		}
		c.input = ""
	})
	return c.emit(KindSuccess, TextAdded)
}

// ToggleTask asks the store to flip completion and mirrors the confirmed value.
func (c *Controller) ToggleTask(ctx context.Context, id string, currentCompleted bool) Notification {
	next := !currentCompleted
	err := guard(func() error {
		_, err := c.store.Update(ctx, id, model.CompletedFields(next))
		return err
	})
	if err != nil {
		c.log.Error("toggle task failed", "id", id, "err", err)
		return c.emit(KindError, TextUpdateFailed)
	}

	c.mutate(func() {
		if i := c.indexOf(id); i >= 0 {
			c.tasks[i].Completed = next
		}
	})
	if next {
		return c.emit(KindSuccess, TextCompleted)
	}
	return c.emit(KindSuccess, TextReopened)
}

// DeleteTask writes a tombstone and drops the task locally whatever the outcome.
func (c *Controller) DeleteTask(ctx context.Context, id string) Notification {
	err := guard(func() error {
		_, err := c.store.Update(ctx, id, model.TombstoneFields())
		return err
	})

	c.mutate(func() {
		if i := c.indexOf(id); i >= 0 {
			c.tasks = append(c.tasks[:i:i], c.tasks[i+1:]...)
		}
	})
	if err != nil {
		c.log.Warn("tombstone write failed, removed locally only", "id", id, "err", err)
		return c.emit(KindSuccess, TextDismissedOnly)
	}
	c.log.Debug("task dismissed", "id", id)
	return c.emit(KindSuccess, TextDismissed)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned func removes the observer.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.obsMu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.obsMu.Lock()
			delete(c.observers, id)
			c.obsMu.Unlock()
		})
	}
}

// Notifications is the stream of one-shot messages. When nobody drains it
// the oldest pending notifications are dropped.
func (c *Controller) Notifications() <-chan Notification {
	return c.notices
}

func (c *Controller) snapshotLocked() Snapshot {
	tasks := make([]model.Task, len(c.tasks))
	copy(tasks, c.tasks)
	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	return Snapshot{
		Tasks:          tasks,
		Loading:        c.loading,
		Input:          c.input,
		TotalCount:     len(tasks),
		CompletedCount: done,
	}
}

// mutate applies fn under the state lock and then notifies observers.
func (c *Controller) mutate(fn func()) {
	c.mu.Lock()
	fn()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.obsMu.Lock()
	obs := make([]func(Snapshot), 0, len(c.observers))
	for _, o := range c.observers {
		obs = append(obs, o)
	}
	c.obsMu.Unlock()

	for _, o := range obs {
		o(snap)
	}
}

func (c *Controller) indexOf(id string) int {
	for i, t := range c.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) emit(kind Kind, text string) Notification {
	n := Notification{Kind: kind, Text: text}
	for {
		select {
		case c.notices <- n:
			return n
		default:
		}
		select {
		case dropped := <-c.notices:
			c.log.Debug("notification dropped", "text", dropped.Text)
		default:
		}
	}
}

// guard runs a store call, turning a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("store panic: %v", r)
		}
	}()
	return fn()
}

// liveTasks drops tombstones and repeated IDs, keeping the first occurrence.
func liveTasks(items []model.Task) []model.Task {
	out := make([]model.Task, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.Deleted {
			continue
		}
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}
