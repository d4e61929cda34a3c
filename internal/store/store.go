// Package store defines the item-store contract consumed by the controller
// and shared by the local backends, the HTTP client and the API server.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/idilsaglam/royaltodo/internal/model"
)

// Store errors.
var (
	ErrNotFound     = errors.New("item not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalid      = errors.New("invalid item")
)

// ItemStore is the remote CRUD collaborator.
type ItemStore interface {
	// List returns every live (non-tombstoned) item in insertion order.
	List(ctx context.Context) ([]model.Task, error)

	// Create stores a new item and returns it with its assigned ID.
	Create(ctx context.Context, f model.Fields) (model.Task, error)

	// Update merges f into the item with the given ID and returns the result.
	Update(ctx context.Context, id string, f model.Fields) (model.Task, error)
}

// Error wraps a failed store call.
type Error struct {
	Op  string // "list" | "create" | "update"
	ID  string
	Err error
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("store %s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap returns nil for a nil err, otherwise an *Error.
func Wrap(op, id string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, ID: id, Err: err}
}

// ValidateCreate checks a create payload and returns the normalized title.
func ValidateCreate(f model.Fields) (string, error) {
	if f.Title == nil {
		return "", fmt.Errorf("%w: title is required", ErrInvalid)
	}
	title, err := model.NormalizeTitle(*f.Title)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return title, nil
}

// ValidateUpdate rejects empty patches and blank titles.
func ValidateUpdate(f model.Fields) (model.Fields, error) {
	if f.IsEmpty() {
		return f, fmt.Errorf("%w: no fields to update", ErrInvalid)
	}
	if f.Title != nil {
		title, err := model.NormalizeTitle(*f.Title)
		if err != nil {
			return f, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		f.Title = &title
	}
	return f, nil
}

// Response is the JSON envelope used on the wire between the API server and
// the HTTP client.
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}
