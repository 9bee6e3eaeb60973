// Package api exposes catalog lookup, price quotes and saved projects over
// HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"golang.org/x/text/language"

	"github.com/chazu/memorial/pkg/catalog"
	"github.com/chazu/memorial/pkg/design"
	"github.com/chazu/memorial/pkg/fetch"
	"github.com/chazu/memorial/pkg/logging"
	"github.com/chazu/memorial/pkg/pricing"
	"github.com/chazu/memorial/pkg/session"
	"github.com/chazu/memorial/pkg/snapshot"
	"github.com/chazu/memorial/pkg/store"
)

// Catalog is what the handlers need from a catalog loader.
type Catalog interface {
	session.Catalog
	Load(ctx context.Context) (*catalog.Catalog, error)
}

// Handler serves the HTTP routes.
type Handler struct {
	catalog  Catalog
	projects store.Projects
	limits   design.Limits
	timeout  time.Duration
}

// NewHandler returns a handler. timeout bounds catalog fetches.
func NewHandler(cat Catalog, projects store.Projects, limits design.Limits, timeout time.Duration) *Handler {
	return &Handler{catalog: cat, projects: projects, limits: limits, timeout: timeout}
}

// New builds a fiber app with every route registered.
func New(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "memorial",
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(requestLogger)
	Register(app, h)
	return app
}

// Register mounts the routes on app.
func Register(app *fiber.App, h *Handler) {
	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})
	app.Get("/health/ready", h.Ready)

	app.Get("/catalog", h.GetCatalog)
	app.Get("/catalog/:category/:slug", h.ResolveSlug)

	app.Post("/price", h.Price)
	app.Post("/validate", h.Validate)

	app.Get("/projects", h.ListProjects)
	app.Post("/projects", h.SaveProject)
	app.Get("/projects/:id", h.GetProject)
	app.Delete("/projects/:id", h.DeleteProject)
}

func requestLogger(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	logging.Logger().Debug("http request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"latency", time.Since(start),
	)
	return err
}

// errorHandler maps domain errors to status codes and writes {"error": msg}.
func errorHandler(c fiber.Ctx, err error) error {
	code := http.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, store.ErrNotFound), errors.Is(err, catalog.ErrProductNotFound):
		code = http.StatusNotFound
	case errors.Is(err, store.ErrInvalidProject):
		code = http.StatusBadRequest
	case errors.Is(err, catalog.ErrUnavailable):
		code = http.StatusServiceUnavailable
	case errors.Is(err, fetch.ErrTimeout):
		code = http.StatusGatewayTimeout
	}
	if code >= http.StatusInternalServerError {
		logging.Logger().Error("request failed", "path", c.Path(), "status", code, "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// Ready reports whether a catalog has been loaded.
func (h *Handler) Ready(c fiber.Ctx) error {
	if _, ok := h.catalog.Current(); !ok {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"status": "catalog not loaded"})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

// GetCatalog returns the cached catalog, loading it if none is cached yet.
func (h *Handler) GetCatalog(c fiber.Ctx) error {
	cat, err := h.currentCatalog(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(cat)
}

// ResolveSlug resolves a slug within one catalog category.
func (h *Handler) ResolveSlug(c fiber.Ctx) error {
	cat, err := h.currentCatalog(c.Context())
	if err != nil {
		return err
	}
	category := catalog.Category(strings.ToLower(c.Params("category")))
	entry, ok := cat.Lookup(category, c.Params("slug"))
	if !ok {
		return fiber.NewError(http.StatusNotFound, "no "+string(category)+" matches "+c.Params("slug"))
	}
	return c.JSON(entry)
}

func (h *Handler) currentCatalog(ctx context.Context) (*catalog.Catalog, error) {
	if cat, ok := h.catalog.Current(); ok {
		return cat, nil
	}
	cat, err := fetch.Run(ctx, h.timeout, h.catalog.Load)
	if errors.Is(err, fetch.ErrSuperseded) {
		if cat, ok := h.catalog.Current(); ok {
			return cat, nil
		}
	}
	return cat, err
}

type priceRequest struct {
	Snapshot json.RawMessage `json:"snapshot"`
	Locale   string          `json:"locale,omitempty"`
}

type priceResponse struct {
	pricing.Breakdown
	Formatted  string        `json:"formatted"`
	Validation design.Result `json:"validation"`
}

// Price quotes a design snapshot against its product's price model.
func (h *Handler) Price(c fiber.Ctx) error {
	var req priceRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid json")
	}
	sess, err := h.sessionFor(c.Context(), req.Snapshot)
	if err != nil {
		return err
	}
	b, err := sess.Quote()
	if errors.Is(err, session.ErrNoProduct) {
		return fiber.NewError(http.StatusBadRequest, "snapshot names no product")
	}
	if err != nil {
		return err
	}
	return c.JSON(priceResponse{
		Breakdown:  b,
		Formatted:  pricing.Format(b.Total, b.Currency, parseLocale(req.Locale)),
		Validation: sess.Validate(),
	})
}

// Validate returns the findings for a design snapshot.
func (h *Handler) Validate(c fiber.Ctx) error {
	var req priceRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid json")
	}
	sess, err := h.sessionFor(c.Context(), req.Snapshot)
	if err != nil {
		return err
	}
	res := sess.Validate()
	return c.JSON(fiber.Map{"ok": res.OK(), "errors": res.Errors, "warnings": res.Warnings})
}

func (h *Handler) sessionFor(ctx context.Context, raw json.RawMessage) (*session.Session, error) {
	if len(raw) == 0 {
		return nil, fiber.NewError(http.StatusBadRequest, "snapshot is required")
	}
	snap, err := snapshot.Decode(raw)
	if err != nil {
		return nil, fiber.NewError(http.StatusBadRequest, err.Error())
	}
	sess := session.New(h.catalog, h.limits, h.timeout)
	if err := sess.ApplySnapshot(ctx, snap); err != nil {
		return nil, err
	}
	return sess, nil
}

func parseLocale(s string) language.Tag {
	if tag, err := language.Parse(s); err == nil {
		return tag
	}
	return language.AmericanEnglish
}
