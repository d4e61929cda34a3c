package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/idilsaglam/royaltodo/internal/model"
	"github.com/idilsaglam/royaltodo/internal/store"
)

var errOffline = errors.New("kingdom offline")

// fakeStore is an in-memory store whose calls can be made to fail or panic.
type fakeStore struct {
	mu      sync.Mutex
	items   []model.Task
	nextID  int
	calls   map[string]int
	fail    map[string]error
	panics  map[string]bool
	updates []model.Fields
}

func newFakeStore(items ...model.Task) *fakeStore {
	return &fakeStore{
		items:  items,
		nextID: 100,
		calls:  map[string]int{},
		fail:   map[string]error{},
		panics: map[string]bool{},
	}
}

func (f *fakeStore) enter(op string) error {
	f.calls[op]++
	if f.panics[op] {
		panic(op + " exploded")
	}
	return f.fail[op]
}

func (f *fakeStore) List(ctx context.Context) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("list"); err != nil {
		return nil, err
	}
	out := make([]model.Task, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *fakeStore) Create(ctx context.Context, fl model.Fields) (model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("create"); err != nil {
		return model.Task{}, err
	}
	f.nextID++
	t := fl.Apply(model.Task{ID: fmt.Sprint(f.nextID)})
	f.items = append(f.items, t)
	return t, nil
}

func (f *fakeStore) Update(ctx context.Context, id string, fl model.Fields) (model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, fl)
	if err := f.enter("update"); err != nil {
		return model.Task{}, err
	}
	for i, it := range f.items {
		if it.ID == id {
			f.items[i] = fl.Apply(it)
			return f.items[i], nil
		}
	}
	return model.Task{}, store.ErrNotFound
}

func (f *fakeStore) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func task(id, title string, completed bool) model.Task {
	return model.Task{ID: id, Title: title, Completed: completed}
}

func newLoaded(t *testing.T, items ...model.Task) (*Controller, *fakeStore) {
	t.Helper()
	fs := newFakeStore(items...)
	c := New(fs)
	if n := c.Initialize(context.Background()); n.Kind != KindInfo {
		t.Fatalf("initialize: %+v", n)
	}
	return c, fs
}

func ids(s Snapshot) []string {
	out := make([]string, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestInitializeLoadsList(t *testing.T) {
	c, _ := newLoaded(t, task("1", "A", false), task("2", "B", true))

	s := c.Snapshot()
	if s.TotalCount != 2 || s.CompletedCount != 1 {
		t.Errorf("counts = %d/%d, want 1/2", s.CompletedCount, s.TotalCount)
	}
	if s.Loading {
		t.Error("loading should be cleared")
	}
	if got := ids(s); got[0] != "1" || got[1] != "2" {
		t.Errorf("order = %v", got)
	}
}

func TestInitializeFailure(t *testing.T) {
	fs := newFakeStore(task("1", "A", false))
	fs.fail["list"] = errOffline
	c := New(fs)

	n := c.Initialize(context.Background())
	if n.Kind != KindError || n.Text != TextLoadFailed {
		t.Errorf("notification = %+v", n)
	}
	s := c.Snapshot()
	if s.TotalCount != 0 || s.Loading {
		t.Errorf("expected empty idle state, got %+v", s)
	}
	if fs.count("list") != 1 {
		t.Errorf("list should not be retried, called %d times", fs.count("list"))
	}

	// still usable afterwards
	fs.fail["list"] = nil
	if n := c.AddTask(context.Background(), "Retry later"); n.Kind != KindSuccess {
		t.Errorf("add after failed load: %+v", n)
	}
}

func TestInitializePanicIsContained(t *testing.T) {
	fs := newFakeStore()
	fs.panics["list"] = true
	c := New(fs)

	n := c.Initialize(context.Background())
	if n.Kind != KindError {
		t.Errorf("expected error notification, got %+v", n)
	}
	if c.Snapshot().Loading {
		t.Error("loading flag stuck after panic")
	}
}

func TestInitializeLoadingFlag(t *testing.T) {
	fs := newFakeStore(task("1", "A", false))
	c := New(fs)

	var seen []bool
	unsubscribe := c.Subscribe(func(s Snapshot) { seen = append(seen, s.Loading) })
	defer unsubscribe()

	c.Initialize(context.Background())
	if len(seen) != 2 || !seen[0] || seen[1] {
		t.Errorf("loading transitions = %v, want [true false]", seen)
	}
}

func TestInitializeDropsTombstonesAndDuplicates(t *testing.T) {
	dead := task("2", "gone", false)
	dead.Deleted = true
	c, _ := newLoaded(t, task("1", "A", false), dead, task("1", "A again", true), task("3", "C", false))

	got := ids(c.Snapshot())
	if len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Errorf("ids = %v, want [1 3]", got)
	}
}

func TestAddTaskAppends(t *testing.T) {
	c, _ := newLoaded(t)

	// Scenario: [] + "Slay the dragon"
	c.SetInput("Slay the dragon")
	n := c.AddTask(context.Background(), "Slay the dragon")
	if n.Kind != KindSuccess || n.Text != TextAdded {
		t.Fatalf("notification = %+v", n)
	}
	s := c.Snapshot()
	if s.TotalCount != 1 || s.CompletedCount != 0 {
		t.Fatalf("counts = %d/%d", s.CompletedCount, s.TotalCount)
	}
	got := s.Tasks[0]
	if got.Title != "Slay the dragon" || got.Completed || got.ID == "" {
		t.Errorf("task = %+v", got)
	}
	if s.Input != "" {
		t.Errorf("input buffer not cleared: %q", s.Input)
	}
}

func TestAddTaskAppendsToEndAndTrims(t *testing.T) {
	titles := []string{"Polish the crown", "  Feed the dragon\t", "Write to the duke"}
	c, _ := newLoaded(t, task("1", "A", true))

	for i, raw := range titles {
		before := c.Snapshot().TotalCount
		c.AddTask(context.Background(), raw)
		s := c.Snapshot()
		if s.TotalCount != before+1 {
			t.Fatalf("step %d: length %d -> %d", i, before, s.TotalCount)
		}
		last := s.Tasks[len(s.Tasks)-1]
		want, _ := model.NormalizeTitle(raw)
		if last.Title != want || last.Completed {
			t.Errorf("step %d: last = %+v", i, last)
		}
	}
	if c.Snapshot().Tasks[0].ID != "1" {
		t.Error("existing task moved")
	}
}

func TestAddTaskRejectsBlankTitles(t *testing.T) {
	for _, raw := range []string{"", " ", "\t\n  "} {
		c, fs := newLoaded(t, task("1", "A", false))
		n := c.AddTask(context.Background(), raw)
		if n.Kind != KindWarning || n.Text != TextTitleRequired {
			t.Errorf("%q: notification = %+v", raw, n)
		}
		if fs.count("create") != 0 {
			t.Errorf("%q: store called", raw)
		}
		if c.Snapshot().TotalCount != 1 {
			t.Errorf("%q: list changed", raw)
		}
	}
}

func TestAddTaskFailureKeepsInput(t *testing.T) {
	c, fs := newLoaded(t, task("1", "A", false))
	fs.fail["create"] = errOffline

	c.SetInput("Slay the dragon")
	n := c.AddTask(context.Background(), "Slay the dragon")
	if n.Kind != KindError || n.Text != TextAddFailed {
		t.Errorf("notification = %+v", n)
	}
	s := c.Snapshot()
	if s.TotalCount != 1 {
		t.Errorf("list changed on failure: %v", ids(s))
	}
	if s.Input != "Slay the dragon" {
		t.Errorf("input buffer cleared on failure: %q", s.Input)
	}
}

func TestToggleTask(t *testing.T) {
	// Scenario: [{1,A,false}] toggle(1,false)
	c, fs := newLoaded(t, task("1", "A", false))

	n := c.ToggleTask(context.Background(), "1", false)
	if n.Kind != KindSuccess || n.Text != TextCompleted {
		t.Errorf("notification = %+v", n)
	}
	s := c.Snapshot()
	if got := s.Tasks[0]; got.ID != "1" || got.Title != "A" || !got.Completed {
		t.Errorf("task = %+v", got)
	}
	if s.CompletedCount != 1 {
		t.Errorf("completed = %d", s.CompletedCount)
	}
	if last := fs.updates[len(fs.updates)-1]; last.Completed == nil || !*last.Completed || last.Deleted != nil {
		t.Errorf("update payload = %+v", last)
	}

	n = c.ToggleTask(context.Background(), "1", true)
	if n.Text != TextReopened {
		t.Errorf("notification = %+v", n)
	}
	if c.Snapshot().Tasks[0].Completed {
		t.Error("toggling twice should restore the original value")
	}
}

func TestToggleTaskFailureLeavesState(t *testing.T) {
	c, fs := newLoaded(t, task("1", "A", false), task("2", "B", true))
	fs.fail["update"] = errOffline

	n := c.ToggleTask(context.Background(), "1", false)
	if n.Kind != KindError || n.Text != TextUpdateFailed {
		t.Errorf("notification = %+v", n)
	}
	s := c.Snapshot()
	if s.Tasks[0].Completed || s.CompletedCount != 1 {
		t.Errorf("state changed on failure: %+v", s.Tasks)
	}
}

func TestDeleteTaskSuccess(t *testing.T) {
	c, fs := newLoaded(t, task("1", "A", false), task("2", "B", false), task("3", "C", true))

	n := c.DeleteTask(context.Background(), "2")
	if n.Kind != KindSuccess || n.Text != TextDismissed {
		t.Errorf("notification = %+v", n)
	}
	got := ids(c.Snapshot())
	if len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Errorf("ids = %v", got)
	}
	if last := fs.updates[len(fs.updates)-1]; last.Deleted == nil || !*last.Deleted {
		t.Errorf("expected tombstone payload, got %+v", last)
	}
}

func TestDeleteTaskFailureStillRemoves(t *testing.T) {
	// Scenario: [{1},{2}] delete(1) fails at the store
	c, fs := newLoaded(t, task("1", "A", false), task("2", "B", false))
	fs.fail["update"] = errOffline

	n := c.DeleteTask(context.Background(), "1")
	if n.Kind != KindSuccess || n.Text != TextDismissedOnly {
		t.Errorf("notification = %+v", n)
	}
	s := c.Snapshot()
	if got := ids(s); len(got) != 1 || got[0] != "2" {
		t.Errorf("ids = %v, want [2]", got)
	}
	if s.Tasks[0].Title != "B" {
		t.Errorf("other task affected: %+v", s.Tasks[0])
	}
}

func TestDeleteTaskPanicStillRemoves(t *testing.T) {
	c, fs := newLoaded(t, task("1", "A", false))
	fs.panics["update"] = true

	n := c.DeleteTask(context.Background(), "1")
	if n.Text != TextDismissedOnly {
		t.Errorf("notification = %+v", n)
	}
	if c.Snapshot().TotalCount != 0 {
		t.Error("task not removed after panicking store")
	}
}

func TestRemovedTaskReturnsOnlyAfterInitialize(t *testing.T) {
	c, fs := newLoaded(t, task("1", "A", false))
	fs.fail["update"] = errOffline
	c.DeleteTask(context.Background(), "1")
	if c.Snapshot().TotalCount != 0 {
		t.Fatal("expected local removal")
	}

	// the server never saw the tombstone, so a fresh load brings it back
	c.Initialize(context.Background())
	if got := ids(c.Snapshot()); len(got) != 1 || got[0] != "1" {
		t.Errorf("ids after reload = %v", got)
	}
}

func TestProgressRatio(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want float64
	}{
		{name: "empty", snap: Snapshot{}, want: 0},
		{name: "none done", snap: Snapshot{TotalCount: 3}, want: 0},
		{name: "half", snap: Snapshot{TotalCount: 4, CompletedCount: 2}, want: 0.5},
		{name: "all", snap: Snapshot{TotalCount: 2, CompletedCount: 2}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snap.ProgressRatio(); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCountsStayBounded(t *testing.T) {
	c, _ := newLoaded(t, task("1", "A", false), task("2", "B", false))
	ctx := context.Background()

	check := func(step string) {
		s := c.Snapshot()
		if s.CompletedCount > s.TotalCount {
			t.Fatalf("%s: completed %d > total %d", step, s.CompletedCount, s.TotalCount)
		}
		if r := s.ProgressRatio(); r < 0 || r > 1 {
			t.Fatalf("%s: ratio %v out of range", step, r)
		}
	}
	c.ToggleTask(ctx, "1", false)
	check("toggle 1")
	c.ToggleTask(ctx, "2", false)
	check("toggle 2")
	c.DeleteTask(ctx, "1")
	check("delete 1")
	c.DeleteTask(ctx, "2")
	check("delete 2")
	if r := c.Snapshot().ProgressRatio(); r != 0 {
		t.Errorf("empty list ratio = %v", r)
	}
}

func TestNotificationsStream(t *testing.T) {
	c, _ := newLoaded(t, task("1", "A", false))
	ctx := context.Background()

	c.AddTask(ctx, "")
	c.ToggleTask(ctx, "1", false)

	want := []Notification{
		{Kind: KindInfo, Text: loadedText(1)},
		{Kind: KindWarning, Text: TextTitleRequired},
		{Kind: KindSuccess, Text: TextCompleted},
	}
	for i, w := range want {
		select {
		case got := <-c.Notifications():
			if got != w {
				t.Errorf("notification %d = %+v, want %+v", i, got, w)
			}
		default:
			t.Fatalf("notification %d missing", i)
		}
	}
}

func TestNotificationsDropOldestWhenFull(t *testing.T) {
	fs := newFakeStore()
	c := New(fs, WithNoticeBuffer(2))
	ctx := context.Background()

	c.AddTask(ctx, "")    // dropped
	c.AddTask(ctx, "one") // kept
	c.AddTask(ctx, "two") // kept
	first := <-c.Notifications()
	second := <-c.Notifications()
	if first.Text != TextAdded || second.Text != TextAdded {
		t.Errorf("got %+v, %+v", first, second)
	}
	select {
	case n := <-c.Notifications():
		t.Errorf("unexpected extra notification %+v", n)
	default:
	}
}

func TestUnsubscribe(t *testing.T) {
	c, _ := newLoaded(t)
	calls := 0
	unsubscribe := c.Subscribe(func(Snapshot) { calls++ })
	c.SetInput("x")
	unsubscribe()
	unsubscribe()
	c.SetInput("y")
	if calls != 1 {
		t.Errorf("observer called %d times, want 1", calls)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	c, _ := newLoaded(t, task("1", "A", false))
	s := c.Snapshot()
	s.Tasks[0].Title = "mutated"
	if c.Snapshot().Tasks[0].Title != "A" {
		t.Error("snapshot aliases controller state")
	}
}

func TestConcurrentOperations(t *testing.T) {
	c, _ := newLoaded(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.AddTask(ctx, fmt.Sprintf("task %d", i))
		}(i)
	}
	wg.Wait()

	s := c.Snapshot()
	if s.TotalCount != 20 {
		t.Fatalf("total = %d, want 20", s.TotalCount)
	}
	seen := map[string]bool{}
	for _, id := range ids(s) {
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
