// Package store defines saved-project records and the errors storage
// implementations return.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no project has the requested id.
	ErrNotFound = errors.New("project not found")
	// ErrInvalidProject is returned when a project is missing required fields.
	ErrInvalidProject = errors.New("invalid project")
)

// Project is one saved design. Snapshot holds the encoded snapshot JSON.
type Project struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Snapshot      []byte    `json:"-"`
	ScreenshotRef string    `json:"screenshotRef,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Projects is the persistence contract the API and desktop app depend on.
type Projects interface {
	Save(ctx context.Context, p Project) (Project, error)
	Get(ctx context.Context, id string) (Project, error)
	List(ctx context.Context) ([]Project, error)
	Delete(ctx context.Context, id string) error
}
