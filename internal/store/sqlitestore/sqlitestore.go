// Package sqlitestore keeps items in a local SQLite database.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/idilsaglam/royaltodo/internal/model"
	"github.com/idilsaglam/royaltodo/internal/store"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS items (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	title      TEXT NOT NULL,
	completed  INTEGER NOT NULL DEFAULT 0,
	deleted    INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

// Store implements store.ItemStore with modernc.org/sqlite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.ItemStore = (*Store)(nil)

// Open creates the database file and schema if missing.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir: %w", err)
		}
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) List(ctx context.Context) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, completed, deleted, created_at, updated_at FROM items WHERE deleted = 0 ORDER BY seq`)
	if err != nil {
		return nil, store.Wrap("list", "", err)
	}
	defer rows.Close()

	out := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, store.Wrap("list", "", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("list", "", err)
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, f model.Fields) (model.Task, error) {
	title, err := store.ValidateCreate(f)
	if err != nil {
		return model.Task{}, store.Wrap("create", "", err)
	}
	now := s.now().UTC()
	t := model.Task{ID: uuid.NewString(), Title: title, CreatedAt: &now, UpdatedAt: &now}
	if f.Completed != nil {
		t.Completed = *f.Completed
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO items (id, title, completed, deleted, created_at, updated_at) VALUES (?, ?, ?, 0, ?, ?)`,
		t.ID, t.Title, t.Completed, formatTime(now), formatTime(now))
	if err != nil {
		return model.Task{}, store.Wrap("create", "", err)
	}
	return t, nil
}

func (s *Store) Update(ctx context.Context, id string, f model.Fields) (model.Task, error) {
	f, err := store.ValidateUpdate(f)
	if err != nil {
		return model.Task{}, store.Wrap("update", id, err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Task{}, store.Wrap("update", id, err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT id, title, completed, deleted, created_at, updated_at FROM items WHERE id = ? AND deleted = 0`, id)
	cur, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, store.Wrap("update", id, store.ErrNotFound)
	}
	if err != nil {
		return model.Task{}, store.Wrap("update", id, err)
	}

	now := s.now().UTC()
	next := f.Apply(cur)
	next.UpdatedAt = &now
	_, err = tx.ExecContext(ctx,
		`UPDATE items SET title = ?, completed = ?, deleted = ?, updated_at = ? WHERE id = ?`,
		next.Title, next.Completed, next.Deleted, formatTime(now), id)
	if err != nil {
		return model.Task{}, store.Wrap("update", id, err)
	}
	if err := tx.Commit(); err != nil {
		return model.Task{}, store.Wrap("update", id, err)
	}
	return next, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(sc scanner) (model.Task, error) {
	var (
		t                  model.Task
		created, updated   string
		completed, deleted bool
	)
	if err := sc.Scan(&t.ID, &t.Title, &completed, &deleted, &created, &updated); err != nil {
		return model.Task{}, err
	}
	t.Completed, t.Deleted = completed, deleted
	if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
		t.CreatedAt = &ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		t.UpdatedAt = &ts
	}
	return t, nil
}

func formatTime(t time.Time) string { return t.Format(time.RFC3339Nano) }
