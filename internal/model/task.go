package model

import (
	"errors"
	"strings"
	"time"
)

// ErrEmptyTitle is returned when a title is blank after trimming.
var ErrEmptyTitle = errors.New("empty title")

// Task is the domain model for a royal todo entry.
// IDs are assigned by the item store and never by the client.
type Task struct {
	ID        string     `json:"_id"`
	Title     string     `json:"title"`
	Completed bool       `json:"completed"`
	Deleted   bool       `json:"deleted,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Fields is a partial Task used for create and update calls.
// Nil pointers mean "leave as is".
type Fields struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
	Deleted   *bool   `json:"deleted,omitempty"`
}

// Apply returns t with every set field of f copied over.
func (f Fields) Apply(t Task) Task {
	if f.Title != nil {
		t.Title = *f.Title
	}
	if f.Completed != nil {
		t.Completed = *f.Completed
	}
	if f.Deleted != nil {
		t.Deleted = *f.Deleted
	}
	return t
}

// IsEmpty reports whether no field is set.
func (f Fields) IsEmpty() bool {
	return f.Title == nil && f.Completed == nil && f.Deleted == nil
}

// NewTaskFields is the create payload for a fresh, open task.
func NewTaskFields(title string) Fields {
	return Fields{Title: &title, Completed: Bool(false)}
}

// CompletedFields sets the completion flag.
func CompletedFields(completed bool) Fields {
	return Fields{Completed: Bool(completed)}
}

// TombstoneFields marks a task as logically removed.
func TombstoneFields() Fields {
	return Fields{Deleted: Bool(true)}
}

// NormalizeTitle trims raw and rejects blank titles.
func NormalizeTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", ErrEmptyTitle
	}
	return title, nil
}

func Bool(v bool) *bool { return &v }

func String(v string) *string { return &v }
