package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/idilsaglam/royaltodo/internal/model"
	"github.com/idilsaglam/royaltodo/internal/store"
)

// JSON-backed item store. Single file, human-readable, portable.
// Tombstoned items stay in the file; List hides them.

const DataFileName = "todos.json"

const schemaURL = "royaltodo://todos.schema.json"

const fileSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["_id", "title", "completed"],
    "properties": {
      "_id": {"type": "string", "minLength": 1},
      "title": {"type": "string"},
      "completed": {"type": "boolean"},
      "deleted": {"type": "boolean"},
      "createdAt": {"type": "string", "format": "date-time"},
      "updatedAt": {"type": "string", "format": "date-time"}
    }
  }
}`

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(schemaURL, strings.NewReader(fileSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile(schemaURL)
})

// Store implements store.ItemStore on top of a JSON file.
type Store struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

var _ store.ItemStore = (*Store)(nil)

// DefaultPath is todos.json in the working directory.
func DefaultPath() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}
	return filepath.Join(wd, DataFileName), nil
}

func New(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Load reads every record, tombstones included.
func (s *Store) Load() ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() ([]model.Task, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Task{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return []model.Task{}, nil
	}
	if err := validate(s.path, b); err != nil {
		return nil, err
	}
	var items []model.Task
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return items, nil
}

func validate(path string, b []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("json unmarshal: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("invalid %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Save replaces the file contents. The write goes through a temp file so a
// crash never leaves a truncated store behind.
func (s *Store) Save(items []model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(items)
}

func (s *Store) save(items []model.Task) error {
	if items == nil {
		items = []model.Task{}
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]model.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.Wrap("list", "", err)
	}
	items, err := s.Load()
	if err != nil {
		return nil, store.Wrap("list", "", err)
	}
	out := make([]model.Task, 0, len(items))
	for _, it := range items {
		if !it.Deleted {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, f model.Fields) (model.Task, error) {
	if err := ctx.Err(); err != nil {
		return model.Task{}, store.Wrap("create", "", err)
	}
	title, err := store.ValidateCreate(f)
	if err != nil {
		return model.Task{}, store.Wrap("create", "", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load()
	if err != nil {
		return model.Task{}, store.Wrap("create", "", err)
	}
	now := s.now().UTC()
	task := model.Task{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: &now,
		UpdatedAt: &now,
	}
	if f.Completed != nil {
		task.Completed = *f.Completed
	}
	items = append(items, task)
	if err := s.save(items); err != nil {
		return model.Task{}, store.Wrap("create", "", err)
	}
	return task, nil
}

func (s *Store) Update(ctx context.Context, id string, f model.Fields) (model.Task, error) {
	if err := ctx.Err(); err != nil {
		return model.Task{}, store.Wrap("update", id, err)
	}
	f, err := store.ValidateUpdate(f)
	if err != nil {
		return model.Task{}, store.Wrap("update", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load()
	if err != nil {
		return model.Task{}, store.Wrap("update", id, err)
	}
	for i, it := range items {
		if it.ID != id || it.Deleted {
			continue
		}
		now := s.now().UTC()
		updated := f.Apply(it)
		updated.UpdatedAt = &now
		items[i] = updated
		if err := s.save(items); err != nil {
			return model.Task{}, store.Wrap("update", id, err)
		}
		return updated, nil
	}
	return model.Task{}, store.Wrap("update", id, store.ErrNotFound)
}
