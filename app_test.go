package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/chazu/memorial/pkg/config"
	"github.com/chazu/memorial/pkg/store/sqlite"
)

// newTestApp builds the same App main wires, reading config from the
// environment, with the test catalog and a throwaway database.
func newTestApp(t *testing.T) *App {
	t.Helper()
	t.Setenv("MEMORIAL_CATALOG_PATH", "pkg/catalog/testdata/catalog.yaml")
	t.Setenv("MEMORIAL_MESH_CELLS", "16")
	t.Setenv("MEMORIAL_FETCH_TIMEOUT", "2s")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	projects, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	app := NewApp(cfg, projects)
	app.startup(context.Background())
	t.Cleanup(func() { app.shutdown(context.Background()) })
	return app
}

// TestE2EDesignPipeline exercises the path the frontend takes: pick a
// product, size the headstone, place elements, quote and preview.
func TestE2EDesignPipeline(t *testing.T) {
	app := newTestApp(t)

	if err := app.SelectProduct("laser-etched-headstone"); err != nil {
		t.Fatalf("select product: %v", err)
	}
	if err := app.SetDimensions(600, 900); err != nil {
		t.Fatalf("set dimensions: %v", err)
	}
	addID, err := app.AddElement("addition", "B1134S")
	if err != nil {
		t.Fatalf("add addition: %v", err)
	}
	lineID, err := app.AddInscription("In loving memory", "font-garamond")
	if err != nil {
		t.Fatalf("add inscription: %v", err)
	}

	q, err := app.Quote()
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	// 450 + 0.0012*540000 = 1098, cross 95, 14 letters at 2 each.
	if q.Total != 1221 {
		t.Errorf("total = %v, want 1221 (%+v)", q.Total, q.Breakdown)
	}
	if q.Formatted == "" {
		t.Error("formatted price is empty")
	}

	result := app.Preview()
	if len(result.Errors) > 0 {
		t.Fatalf("preview errors: %v", result.Errors)
	}
	want := []struct{ part, id string }{
		{"base", ""},
		{"headstone", ""},
		{"addition", addID},
		{"inscription", lineID},
	}
	if len(result.Meshes) != len(want) {
		t.Fatalf("expected %d meshes, got %d", len(want), len(result.Meshes))
	}
	for i, m := range result.Meshes {
		if m.PartName != want[i].part || m.ElementID != want[i].id {
			t.Errorf("mesh %d = %s/%s, want %s/%s", i, m.PartName, m.ElementID, want[i].part, want[i].id)
		}
		if len(m.Vertices) == 0 || len(m.Normals) == 0 || len(m.Indices) == 0 {
			t.Errorf("part %q: empty geometry", m.PartName)
		}
		if m.Color == "" {
			t.Errorf("part %q: no color assigned", m.PartName)
		}
	}
}

// TestE2EEmptyDesign ensures a fresh design previews as a bare monument.
func TestE2EEmptyDesign(t *testing.T) {
	app := newTestApp(t)

	result := app.Preview()
	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for empty design: %v", result.Errors)
	}
	if len(result.Meshes) != 2 {
		t.Errorf("expected headstone and base, got %d meshes", len(result.Meshes))
	}
	if v := app.Validate(); v.OK() {
		t.Error("expected a missing-product error for an empty design")
	}
}

// TestE2ESaveAndOpenProject round-trips a design through the project store.
func TestE2ESaveAndOpenProject(t *testing.T) {
	app := newTestApp(t)

	if err := app.SelectProduct("4"); err != nil {
		t.Fatalf("select product: %v", err)
	}
	if err := app.SetDimensions(900, 900); err != nil {
		t.Fatalf("set dimensions: %v", err)
	}
	addID, err := app.AddElement("addition", "B1134S")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	before := app.Design()

	first, err := app.SaveProject("Smith")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := app.SaveProject("")
	if err != nil {
		t.Fatalf("resave: %v", err)
	}
	if first.ID != second.ID || second.Title != "Smith" {
		t.Errorf("resave = %s/%q, want %s/%q", second.ID, second.Title, first.ID, "Smith")
	}

	app.NewDesign()
	if len(app.Design().Additions) != 0 {
		t.Fatal("new design kept additions")
	}

	if err := app.OpenProject(first.ID); err != nil {
		t.Fatalf("open: %v", err)
	}
	after := app.Design()
	if *after.WidthMm != 900 || *after.HeightMm != 900 {
		t.Errorf("dimensions = %dx%d, want 900x900", *after.WidthMm, *after.HeightMm)
	}
	if len(after.Additions) != 1 || after.Additions[0].ID != addID {
		t.Fatalf("additions = %+v", after.Additions)
	}
	if !after.Additions[0].Offset.Equal(before.Additions[0].Offset) {
		t.Errorf("offset = %+v, want %+v", after.Additions[0].Offset, before.Additions[0].Offset)
	}
	if after.Metadata.CurrentProjectID != first.ID {
		t.Errorf("project id = %q, want %q", after.Metadata.CurrentProjectID, first.ID)
	}

	list, err := app.ListProjects()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 project, got %d", len(list))
	}
}
