package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/chazu/memorial/pkg/catalog"
	"github.com/chazu/memorial/pkg/config"
	"github.com/chazu/memorial/pkg/design"
	"github.com/chazu/memorial/pkg/fetch"
	"github.com/chazu/memorial/pkg/kernel"
	"github.com/chazu/memorial/pkg/kernel/manifold"
	"github.com/chazu/memorial/pkg/kernel/sdfx"
	"github.com/chazu/memorial/pkg/logging"
	"github.com/chazu/memorial/pkg/placement"
	"github.com/chazu/memorial/pkg/preview"
	"github.com/chazu/memorial/pkg/pricing"
	"github.com/chazu/memorial/pkg/session"
	"github.com/chazu/memorial/pkg/snapshot"
	"github.com/chazu/memorial/pkg/store"
)

// colorPalette assigns a display colour to each preview part.
var colorPalette = map[string]string{
	"headstone":   "#3A3A3A",
	"base":        "#5B5B5B",
	"addition":    "#C9A227",
	"motif":       "#D9D9D9",
	"image":       "#4A90D9",
	"inscription": "#F2F2F2",
}

// App is the Wails backend. Its exported methods are the frontend bindings.
type App struct {
	ctx      context.Context
	loader   *catalog.Loader
	session  *session.Session
	projects store.Projects
	kernel   kernel.Kernel
	locale   language.Tag
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices  []float32 `json:"vertices"`
	Normals   []float32 `json:"normals"`
	Indices   []uint32  `json:"indices"`
	PartName  string    `json:"partName"`
	ElementID string    `json:"elementId,omitempty"`
	Color     string    `json:"color"`
}

// PreviewResult is the tessellated design returned to the frontend.
type PreviewResult struct {
	Meshes []MeshData `json:"meshes"`
	Errors []string   `json:"errors"`
}

// QuoteResult is a price breakdown plus its display string.
type QuoteResult struct {
	pricing.Breakdown
	Formatted string `json:"formatted"`
}

// NewApp wires a session, catalog loader and project store from cfg.
func NewApp(cfg config.Config, projects store.Projects) *App {
	loader := catalog.NewLoader(catalog.FileSource{Path: cfg.CatalogPath}, cfg.FetchTimeout)
	return &App{
		ctx:      context.Background(),
		loader:   loader,
		session:  session.New(loader, cfg.Limits(), cfg.FetchTimeout),
		projects: projects,
		kernel:   newKernel(cfg),
		locale:   language.AmericanEnglish,
	}
}

// newKernel returns the configured geometry kernel, falling back to sdfx when
// Manifold was not compiled in.
func newKernel(cfg config.Config) kernel.Kernel {
	if cfg.Kernel == config.KernelManifold {
		k, err := manifold.New()
		if err == nil {
			return k
		}
		logging.Logger().Warn("manifold kernel unavailable, using sdfx", "error", err)
	}
	return sdfx.New(cfg.MeshCells)
}

// startup is called by Wails on app startup. The catalog is loaded eagerly
// so the first product pick does not wait on it.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	if _, err := a.loader.Load(ctx); err != nil {
		logging.Logger().Warn("initial catalog load failed", "error", err)
	}
}

// shutdown is called by Wails when the window closes.
func (a *App) shutdown(context.Context) {
	if c, ok := a.projects.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logging.Logger().Error("close project store", "error", err)
		}
	}
}

func (a *App) update(fn func(*design.State) error) error {
	return a.session.Update(fn)
}

func parseKind(s string) (placement.Kind, error) {
	k, ok := placement.ParseKind(strings.ToLower(strings.TrimSpace(s)))
	if !ok {
		return 0, fmt.Errorf("%w: %q", design.ErrUnknownKind, s)
	}
	return k, nil
}

// SetLocale sets the locale used to format prices, e.g. "en-GB".
func (a *App) SetLocale(tag string) error {
	t, err := language.Parse(tag)
	if err != nil {
		return fmt.Errorf("set locale: %w", err)
	}
	a.locale = t
	return nil
}

// Catalog returns the cached catalog, loading it if necessary.
func (a *App) Catalog() (*catalog.Catalog, error) {
	if c, ok := a.loader.Current(); ok {
		return c, nil
	}
	return a.loader.Load(a.ctx)
}

// Design returns a snapshot of the current design.
func (a *App) Design() snapshot.Snapshot {
	return a.session.Capture()
}

// SelectProduct switches the product. A switch overtaken by a newer one is
// not an error; the newer one wins.
func (a *App) SelectProduct(ref string) error {
	err := a.session.SetProductID(a.ctx, ref)
	if errors.Is(err, fetch.ErrSuperseded) {
		return nil
	}
	return err
}

// NewDesign discards the current design.
func (a *App) NewDesign() {
	a.session.Reset()
}

func (a *App) SetDimensions(widthMm, heightMm int) error {
	return a.update(func(s *design.State) error { s.SetDimensions(widthMm, heightMm); return nil })
}

func (a *App) SetBaseDimensions(widthMm, heightMm, thicknessMm int) error {
	return a.update(func(s *design.State) error {
		s.SetBaseDimensions(widthMm, heightMm, thicknessMm)
		return nil
	})
}

func (a *App) SetShape(ref string) error {
	return a.update(func(s *design.State) error { s.SetShape(ref); return nil })
}

func (a *App) SetBorder(ref string) error {
	return a.update(func(s *design.State) error { s.SetBorder(ref); return nil })
}

func (a *App) SetMaterial(ref string) error {
	return a.update(func(s *design.State) error { s.SetMaterial(ref); return nil })
}

func (a *App) SetBaseMaterial(ref string) error {
	return a.update(func(s *design.State) error { s.SetBaseMaterial(ref); return nil })
}

func (a *App) SetHeadstoneStyle(style string) error {
	return a.update(func(s *design.State) error { s.SetHeadstoneStyle(design.Style(style)); return nil })
}

func (a *App) SetSlantRatio(r float64) error {
	return a.update(func(s *design.State) error { s.SetSlantRatio(r); return nil })
}

func (a *App) SetShowBase(show bool) error {
	return a.update(func(s *design.State) error { s.SetShowBase(show); return nil })
}

// AddElement adds an addition or motif from the catalog.
func (a *App) AddElement(kind, ref string) (string, error) {
	k, err := parseKind(kind)
	if err != nil {
		return "", err
	}
	var id string
	err = a.update(func(s *design.State) error {
		id, err = s.AddElement(k, ref)
		return err
	})
	return id, err
}

func (a *App) AddImage(typeRef, assetURL string, widthMm, heightMm float64) (string, error) {
	var id string
	err := a.update(func(s *design.State) (err error) {
		id, err = s.AddImage(typeRef, assetURL, widthMm, heightMm)
		return err
	})
	return id, err
}

func (a *App) AddInscription(text, font string) (string, error) {
	var id string
	err := a.update(func(s *design.State) (err error) {
		id, err = s.AddInscription(text, font)
		return err
	})
	return id, err
}

func (a *App) RemoveElement(kind, id string) error {
	k, err := parseKind(kind)
	if err != nil {
		return err
	}
	return a.update(func(s *design.State) error { return s.RemoveElement(k, id) })
}

func (a *App) ClearElements(kind string) error {
	k, err := parseKind(kind)
	if err != nil {
		return err
	}
	return a.update(func(s *design.State) error { s.ClearElements(k); return nil })
}

func (a *App) DuplicateElement(kind, id string) (string, error) {
	k, err := parseKind(kind)
	if err != nil {
		return "", err
	}
	var dup string
	err = a.update(func(s *design.State) (err error) {
		dup, err = s.DuplicateElement(k, id)
		return err
	})
	return dup, err
}

// SelectElement selects an addition or motif; an empty id clears the selection.
func (a *App) SelectElement(kind, id string) error {
	k, err := parseKind(kind)
	if err != nil {
		return err
	}
	return a.update(func(s *design.State) error { return s.SetSelected(k, id) })
}

// MoveElement applies a partial offset change and returns the normalized
// offset. On non-finite input the previous offset is returned with the error.
func (a *App) MoveElement(kind, id string, patch design.OffsetPatch) (placement.Offset, error) {
	k, err := parseKind(kind)
	if err != nil {
		return placement.Offset{}, err
	}
	var out placement.Offset
	err = a.update(func(s *design.State) (err error) {
		out, err = s.UpdateOffset(k, id, patch)
		return err
	})
	return out, err
}

func (a *App) SetMotifColor(id, colorRef string) error {
	return a.update(func(s *design.State) error { return s.SetMotifColor(id, colorRef) })
}

func (a *App) SetImageColorMode(id, mode string) error {
	return a.update(func(s *design.State) error { return s.SetImageColorMode(id, design.ColorMode(mode)) })
}

func (a *App) SetImageSize(id string, widthMm, heightMm float64) error {
	return a.update(func(s *design.State) error { return s.SetImageSize(id, widthMm, heightMm) })
}

func (a *App) SetInscriptionText(id, text string) error {
	return a.update(func(s *design.State) error { return s.SetInscriptionText(id, text) })
}

func (a *App) SetInscriptionFont(id, font string) error {
	return a.update(func(s *design.State) error { return s.SetInscriptionFont(id, font) })
}

func (a *App) SetInscriptionColor(id, color string) error {
	return a.update(func(s *design.State) error { return s.SetInscriptionColor(id, color) })
}

func (a *App) SetInscriptionSize(id string, sizeMm float64) error {
	return a.update(func(s *design.State) error { return s.SetInscriptionSize(id, sizeMm) })
}

// Quote prices the current design.
func (a *App) Quote() (QuoteResult, error) {
	b, err := a.session.Quote()
	if err != nil {
		return QuoteResult{}, err
	}
	return QuoteResult{Breakdown: b, Formatted: pricing.Format(b.Total, b.Currency, a.locale)}, nil
}

// Validate returns the design's findings.
func (a *App) Validate() design.Result {
	return a.session.Validate()
}

// Preview tessellates the design for the 3D view. Failures are reported in
// the result rather than returned, so the view can keep its last good mesh.
func (a *App) Preview() PreviewResult {
	result := PreviewResult{Meshes: []MeshData{}, Errors: []string{}}

	var meshes []*kernel.Mesh
	var err error
	a.session.View(func(s *design.State) {
		meshes, err = preview.Build(s, a.kernel, preview.Options{})
	})
	if err != nil {
		logging.Logger().Error("preview failed", "error", err)
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	for _, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices:  m.Vertices,
			Normals:   m.Normals,
			Indices:   m.Indices,
			PartName:  m.Part,
			ElementID: m.ElementID,
			Color:     colorPalette[m.Part],
		})
	}
	return result
}

// SaveProject stores the current design under its project id, creating one
// on first save.
func (a *App) SaveProject(title string) (store.Project, error) {
	meta := a.session.Metadata()
	if meta.CurrentProjectID == "" {
		meta.CurrentProjectID = uuid.NewString()
	}
	if t := strings.TrimSpace(title); t != "" {
		meta.Title = t
	}
	snap := a.session.Capture()
	snap.Metadata = meta
	data, err := snapshot.Encode(snap)
	if err != nil {
		return store.Project{}, err
	}
	p, err := a.projects.Save(a.ctx, store.Project{
		ID:            meta.CurrentProjectID,
		Title:         meta.Title,
		ScreenshotRef: meta.ScreenshotRef,
		Snapshot:      data,
	})
	if err != nil {
		return store.Project{}, fmt.Errorf("save project: %w", err)
	}
	a.session.SetMetadata(meta)
	return p, nil
}

// OpenProject replaces the design with a saved project.
func (a *App) OpenProject(id string) error {
	p, err := a.projects.Get(a.ctx, id)
	if err != nil {
		return fmt.Errorf("open project: %w", err)
	}
	return a.ImportSnapshot(string(p.Snapshot))
}

// ListProjects returns saved projects, most recent first.
func (a *App) ListProjects() ([]store.Project, error) {
	return a.projects.List(a.ctx)
}

// DeleteProject removes a saved project.
func (a *App) DeleteProject(id string) error {
	return a.projects.Delete(a.ctx, id)
}

// ExportSnapshot returns the design as snapshot JSON for sharing.
func (a *App) ExportSnapshot() (string, error) {
	data, err := snapshot.Encode(a.session.Capture())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ImportSnapshot replaces the design with snapshot JSON.
func (a *App) ImportSnapshot(data string) error {
	snap, err := snapshot.Decode([]byte(data))
	if err != nil {
		return err
	}
	err = a.session.ApplySnapshot(a.ctx, snap)
	if errors.Is(err, fetch.ErrSuperseded) {
		return nil
	}
	return err
}
