// Package sqlite persists saved projects in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/chazu/memorial/pkg/logging"
	"github.com/chazu/memorial/pkg/store"
	"github.com/chazu/memorial/pkg/store/sqlite/migrations"
)

// Store implements store.Projects on SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Projects = (*Store)(nil)

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// Open opens the database at path and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logging.Logger().Debug("project store opened", "path", path)
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save inserts or replaces a project. An empty ID gets a fresh UUID.
// CreatedAt is kept from the first save; UpdatedAt is always set to now.
func (s *Store) Save(ctx context.Context, p store.Project) (store.Project, error) {
	if err := ctx.Err(); err != nil {
		return store.Project{}, err
	}
	p.ID = strings.TrimSpace(p.ID)
	p.Title = strings.TrimSpace(p.Title)
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if len(p.Snapshot) == 0 || !json.Valid(p.Snapshot) {
		return store.Project{}, fmt.Errorf("save project %q: snapshot is not valid JSON: %w", p.ID, store.ErrInvalidProject)
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.CreatedAt = p.CreatedAt.UTC().Truncate(time.Millisecond)
	p.UpdatedAt = now

	var created int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO projects (id, title, snapshot_json, screenshot_ref, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title,
		   snapshot_json = excluded.snapshot_json,
		   screenshot_ref = excluded.screenshot_ref,
		   updated_at = excluded.updated_at
		 RETURNING created_at`,
		p.ID, p.Title, p.Snapshot, p.ScreenshotRef, toMillis(p.CreatedAt), toMillis(p.UpdatedAt),
	).Scan(&created)
	if err != nil {
		return store.Project{}, fmt.Errorf("save project %q: %w", p.ID, err)
	}
	p.CreatedAt = fromMillis(created)
	return p, nil
}

// Get returns the project with the given id or store.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (store.Project, error) {
	if err := ctx.Err(); err != nil {
		return store.Project{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return store.Project{}, store.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, snapshot_json, screenshot_ref, created_at, updated_at
		   FROM projects
		  WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Project{}, store.ErrNotFound
	}
	if err != nil {
		return store.Project{}, fmt.Errorf("get project %q: %w", id, err)
	}
	return p, nil
}

// List returns every project, most recently updated first.
func (s *Store) List(ctx context.Context) ([]store.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, snapshot_json, screenshot_ref, created_at, updated_at
		   FROM projects
		  ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []store.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// Delete removes a project. Deleting a missing project returns store.ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("delete project %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete project %q: %w", id, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (store.Project, error) {
	var (
		p                store.Project
		created, updated int64
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Snapshot, &p.ScreenshotRef, &created, &updated); err != nil {
		return store.Project{}, err
	}
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	return p, nil
}
