package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/chazu/memorial/pkg/snapshot"
	"github.com/chazu/memorial/pkg/store"
)

type saveProjectRequest struct {
	ID            string          `json:"id,omitempty"`
	Title         string          `json:"title"`
	ScreenshotRef string          `json:"screenshotRef,omitempty"`
	Snapshot      json.RawMessage `json:"snapshot"`
}

type projectView struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	ScreenshotRef string          `json:"screenshotRef,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Snapshot      json.RawMessage `json:"snapshot,omitempty"`
}

func viewOf(p store.Project, withSnapshot bool) projectView {
	v := projectView{
		ID:            p.ID,
		Title:         p.Title,
		ScreenshotRef: p.ScreenshotRef,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if withSnapshot {
		v.Snapshot = json.RawMessage(p.Snapshot)
	}
	return v
}

// SaveProject stores a snapshot, migrated to the current version. A missing
// id gets a fresh UUID; id and title are copied into the snapshot metadata.
func (h *Handler) SaveProject(c fiber.Ctx) error {
	var req saveProjectRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid json")
	}
	if len(req.Snapshot) == 0 {
		return fiber.NewError(http.StatusBadRequest, "snapshot is required")
	}
	snap, err := snapshot.Decode(req.Snapshot)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	snap = snapshot.Migrate(snap)

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = snap.Metadata.Title
	}
	shot := req.ScreenshotRef
	if shot == "" {
		shot = snap.Metadata.ScreenshotRef
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = snap.Metadata.CurrentProjectID
	}
	if id == "" {
		id = uuid.NewString()
	}
	snap.Metadata = snapshot.Metadata{CurrentProjectID: id, Title: title, ScreenshotRef: shot}
	data, err := snapshot.Encode(snap)
	if err != nil {
		return err
	}
	p := store.Project{ID: id, Title: title, ScreenshotRef: shot, Snapshot: data}
	saved, err := h.projects.Save(c.Context(), p)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(viewOf(saved, true))
}

// GetProject returns one project with its snapshot.
func (h *Handler) GetProject(c fiber.Ctx) error {
	p, err := h.projects.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(viewOf(p, true))
}

// ListProjects returns project summaries without snapshots.
func (h *Handler) ListProjects(c fiber.Ctx) error {
	list, err := h.projects.List(c.Context())
	if err != nil {
		return err
	}
	out := make([]projectView, 0, len(list))
	for _, p := range list {
		out = append(out, viewOf(p, false))
	}
	return c.JSON(out)
}

// DeleteProject removes a project.
func (h *Handler) DeleteProject(c fiber.Ctx) error {
	if err := h.projects.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
