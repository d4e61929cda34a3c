// Package pgstore keeps items in PostgreSQL through a pgx connection pool.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/idilsaglam/royaltodo/internal/model"
	"github.com/idilsaglam/royaltodo/internal/store"
)

const migration = `
CREATE TABLE IF NOT EXISTS items (
    seq        BIGSERIAL PRIMARY KEY,
    id         TEXT NOT NULL UNIQUE,
    title      TEXT NOT NULL,
    completed  BOOLEAN NOT NULL DEFAULT FALSE,
    deleted    BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type Store struct {
	db *pgxpool.Pool
}

var _ store.ItemStore = (*Store)(nil)

// Connect opens a pool and pings the database.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an existing pool.
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Migrate creates the items table if missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, migration); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return s.db.Ping(ctx) }

func (s *Store) Close() { s.db.Close() }

func (s *Store) List(ctx context.Context) ([]model.Task, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, title, completed, deleted, created_at, updated_at FROM items WHERE NOT deleted ORDER BY seq`)
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
	completed := f.Completed != nil && *f.Completed
	row := s.db.QueryRow(ctx,
		`INSERT INTO items (id, title, completed) VALUES ($1, $2, $3)
		 RETURNING id, title, completed, deleted, created_at, updated_at`,
		uuid.NewString(), title, completed)
	t, err := scanTask(row)
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
	// COALESCE keeps columns whose patch field is unset.
	row := s.db.QueryRow(ctx,
		`UPDATE items SET
		    title = COALESCE($2, title),
		    completed = COALESCE($3, completed),
		    deleted = COALESCE($4, deleted),
		    updated_at = now()
		 WHERE id = $1 AND NOT deleted
		 RETURNING id, title, completed, deleted, created_at, updated_at`,
		id, f.Title, f.Completed, f.Deleted)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Task{}, store.Wrap("update", id, store.ErrNotFound)
	}
	if err != nil {
		return model.Task{}, store.Wrap("update", id, err)
	}
	return t, nil
}

func scanTask(row pgx.Row) (model.Task, error) {
	var (
		t                model.Task
		created, updated time.Time
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Completed, &t.Deleted, &created, &updated); err != nil {
		return model.Task{}, err
	}
	t.CreatedAt, t.UpdatedAt = &created, &updated
	return t, nil
}
