package design

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/chazu/memorial/pkg/catalog"
	"github.com/chazu/memorial/pkg/placement"
)

// newTestState returns a state with deterministic element ids.
func newTestState(t *testing.T) *State {
	t.Helper()
	s := New(DefaultLimits())
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("%d", n)
	}
	return s
}

func mustAdd(t *testing.T, s *State, k placement.Kind, ref string) string {
	t.Helper()
	id, err := s.AddElement(k, ref)
	if err != nil {
		t.Fatalf("AddElement(%s, %q): %v", k, ref, err)
	}
	return id
}

func ptr[T any](v T) *T { return &v }

type fixedSizer struct{ w, h float64 }

func (f fixedSizer) Footprint(placement.Kind, string) (float64, float64, bool) {
	return f.w, f.h, true
}

func TestNewStateDefaults(t *testing.T) {
	s := New(DefaultLimits())

	if w, h := s.Dimensions(); w != DefaultWidthMm || h != DefaultHeightMm {
		t.Errorf("Dimensions = %dx%d, want %dx%d", w, h, DefaultWidthMm, DefaultHeightMm)
	}
	if s.HeadstoneStyle() != StyleUpright {
		t.Errorf("style = %q, want upright", s.HeadstoneStyle())
	}
	if !s.ShowBase() {
		t.Error("base should be shown by default")
	}
	if s.Additions() == nil || len(s.Additions()) != 0 {
		t.Errorf("Additions = %#v, want empty non-nil", s.Additions())
	}
	if s.AdditionPolicy() != catalog.AdditionsMulti {
		t.Errorf("policy = %q, want multi", s.AdditionPolicy())
	}
}

func TestSetDimensionsClamps(t *testing.T) {
	s := newTestState(t)

	s.SetDimensions(50, 9000)
	if w, h := s.Dimensions(); w != 100 || h != 2000 {
		t.Errorf("Dimensions = %dx%d, want 100x2000", w, h)
	}

	s.SetDimensions(900, 700)
	if w, h := s.Dimensions(); w != 900 || h != 700 {
		t.Errorf("Dimensions = %dx%d, want 900x700", w, h)
	}

	s.SetBaseDimensions(10, 10000, 300)
	if w, h, d := s.BaseDimensions(); w != 100 || h != 600 || d != 300 {
		t.Errorf("BaseDimensions = %dx%dx%d, want 100x600x300", w, h, d)
	}
}

func TestAddElementUsesDefaultOffset(t *testing.T) {
	s := newTestState(t)

	for _, k := range placement.Kinds {
		id := mustAdd(t, s, k, "ref")
		got, ok := s.Offset(k, id)
		if !ok {
			t.Fatalf("%s %q not found after add", k, id)
		}
		if !got.Equal(placement.Default(k)) {
			t.Errorf("%s offset = %+v, want default %+v", k, got, placement.Default(k))
		}
	}
	if s.SelectedAdditionID() != "add-1" {
		t.Errorf("selected addition = %q, want add-1", s.SelectedAdditionID())
	}
	if s.SelectedMotifID() != "motif-2" {
		t.Errorf("selected motif = %q, want motif-2", s.SelectedMotifID())
	}
}

func TestAddElementUniqueIDs(t *testing.T) {
	s := New(DefaultLimits())
	ids := []string{"same", "same", "other"}
	s.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	a := mustAdd(t, s, placement.KindMotif, "dove")
	b := mustAdd(t, s, placement.KindMotif, "dove")
	if a != "motif-same" || b != "motif-other" {
		t.Errorf("ids = %q, %q; want motif-same, motif-other", a, b)
	}
}

func TestAddElementUnknownKind(t *testing.T) {
	s := newTestState(t)
	if _, err := s.AddElement(placement.Kind(42), "x"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("err = %v, want ErrUnknownKind", err)
	}
}

func TestRemoveSelectedAdditionClearsSelection(t *testing.T) {
	s := newTestState(t)
	first := mustAdd(t, s, placement.KindAddition, "vase")
	second := mustAdd(t, s, placement.KindAddition, "cross")

	// second is selected; removing the other one keeps it.
	if err := s.RemoveElement(placement.KindAddition, first); err != nil {
		t.Fatal(err)
	}
	if s.SelectedAdditionID() != second {
		t.Errorf("selected = %q, want %q", s.SelectedAdditionID(), second)
	}

	if err := s.RemoveElement(placement.KindAddition, second); err != nil {
		t.Fatal(err)
	}
	if s.SelectedAdditionID() != "" {
		t.Errorf("selected = %q after removing it, want empty", s.SelectedAdditionID())
	}
}

func TestRemoveMissingElement(t *testing.T) {
	s := newTestState(t)
	err := s.RemoveElement(placement.KindMotif, "nope")
	if !errors.Is(err, ErrElementNotFound) {
		t.Errorf("err = %v, want ErrElementNotFound", err)
	}
}

func TestClearElementsClearsSelection(t *testing.T) {
	s := newTestState(t)
	mustAdd(t, s, placement.KindMotif, "dove")
	mustAdd(t, s, placement.KindMotif, "rose")

	s.ClearElements(placement.KindMotif)
	if len(s.Motifs()) != 0 || s.SelectedMotifID() != "" {
		t.Errorf("motifs = %d, selected = %q; want 0 and empty", len(s.Motifs()), s.SelectedMotifID())
	}
}

func TestSingleAdditionPolicyReplaces(t *testing.T) {
	s := newTestState(t)
	s.SetAdditionPolicy(catalog.AdditionsSingle)
	mustAdd(t, s, placement.KindAddition, "vase")
	id := mustAdd(t, s, placement.KindAddition, "cross")

	adds := s.Additions()
	if len(adds) != 1 || adds[0].ID != id || adds[0].CatalogRef != "cross" {
		t.Fatalf("additions = %+v, want only the cross", adds)
	}
	if s.SelectedAdditionID() != id {
		t.Errorf("selected = %q, want %q", s.SelectedAdditionID(), id)
	}
	if _, err := s.DuplicateElement(placement.KindAddition, id); !errors.Is(err, ErrAdditionLimit) {
		t.Errorf("duplicate err = %v, want ErrAdditionLimit", err)
	}
}

func TestMotifsAreMultiSelect(t *testing.T) {
	s := newTestState(t)
	s.SetAdditionPolicy(catalog.AdditionsSingle)
	mustAdd(t, s, placement.KindMotif, "dove")
	mustAdd(t, s, placement.KindMotif, "rose")
	if n := len(s.Motifs()); n != 2 {
		t.Errorf("motifs = %d, want 2", n)
	}
}

func TestDuplicateNudgesCopy(t *testing.T) {
	s := newTestState(t)
	src := mustAdd(t, s, placement.KindImage, "ceramic")

	dup, err := s.DuplicateElement(placement.KindImage, src)
	if err != nil {
		t.Fatal(err)
	}
	if dup == src {
		t.Fatal("duplicate reused the source id")
	}
	o, _ := s.Offset(placement.KindImage, dup)
	if o.XPos != 10 || o.YPos != -10 {
		t.Errorf("duplicate at (%v, %v), want (10, -10)", o.XPos, o.YPos)
	}
	imgs := s.Images()
	if len(imgs) != 2 || imgs[1].TypeRef != "ceramic" {
		t.Errorf("images = %+v", imgs)
	}
}

func TestDuplicateAtEdgeMovesOtherWay(t *testing.T) {
	s := newTestState(t)
	src := mustAdd(t, s, placement.KindImage, "ceramic")
	// 600 mm surface, 100 mm image: the corner is (250, -250).
	if _, err := s.UpdateOffset(placement.KindImage, src, OffsetPatch{XPos: ptr(400.0), YPos: ptr(-400.0)}); err != nil {
		t.Fatal(err)
	}

	dup, err := s.DuplicateElement(placement.KindImage, src)
	if err != nil {
		t.Fatal(err)
	}
	o, _ := s.Offset(placement.KindImage, dup)
	if o.XPos != 240 || o.YPos != -240 {
		t.Errorf("duplicate at (%v, %v), want (240, -240)", o.XPos, o.YPos)
	}
}

func TestDuplicateSelectsCopy(t *testing.T) {
	s := newTestState(t)
	src := mustAdd(t, s, placement.KindMotif, "dove")
	dup, err := s.DuplicateElement(placement.KindMotif, src)
	if err != nil {
		t.Fatal(err)
	}
	if s.SelectedMotifID() != dup {
		t.Errorf("selected = %q, want %q", s.SelectedMotifID(), dup)
	}
}

func TestUpdateOffsetRejectsNonFinite(t *testing.T) {
	s := newTestState(t)
	id := mustAdd(t, s, placement.KindInscription, "garamond")
	before, _ := s.Offset(placement.KindInscription, id)

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		got, err := s.UpdateOffset(placement.KindInscription, id, OffsetPatch{XPos: ptr(bad)})
		if !errors.Is(err, placement.ErrNonFinite) {
			t.Errorf("UpdateOffset(%v) err = %v, want ErrNonFinite", bad, err)
		}
		if !got.Equal(before) {
			t.Errorf("UpdateOffset(%v) returned %+v, want previous %+v", bad, got, before)
		}
	}
	after, _ := s.Offset(placement.KindInscription, id)
	if !after.Equal(before) {
		t.Errorf("offset changed to %+v after rejected update", after)
	}
}

func TestUpdateOffsetConvertsSpace(t *testing.T) {
	s := newTestState(t)
	id := mustAdd(t, s, placement.KindImage, "ceramic")
	if _, err := s.UpdateOffset(placement.KindImage, id, OffsetPatch{XPos: ptr(150.0)}); err != nil {
		t.Fatal(err)
	}

	got, err := s.UpdateOffset(placement.KindImage, id, OffsetPatch{CoordinateSpace: ptr(placement.SpaceOffset)})
	if err != nil {
		t.Fatal(err)
	}
	if got.CoordinateSpace != placement.SpaceOffset || got.XPos != 0.5 {
		t.Errorf("offset = %+v, want x=0.5 in offset space", got)
	}
}

func TestUpdateOffsetClampsScale(t *testing.T) {
	s := newTestState(t)
	id := mustAdd(t, s, placement.KindMotif, "dove")
	got, err := s.UpdateOffset(placement.KindMotif, id, OffsetPatch{Scale: ptr(50.0), RotationZ: ptr(450.0)})
	if err != nil {
		t.Fatal(err)
	}
	if got.Scale != placement.DefaultMaxScale || got.RotationZ != 90 {
		t.Errorf("scale/rotation = %v/%v, want %v/90", got.Scale, got.RotationZ, placement.DefaultMaxScale)
	}
}

func TestSetDimensionsReclampsElements(t *testing.T) {
	s := newTestState(t)
	head := mustAdd(t, s, placement.KindImage, "ceramic")
	base := mustAdd(t, s, placement.KindImage, "plate")
	if _, err := s.UpdateOffset(placement.KindImage, head, OffsetPatch{XPos: ptr(250.0)}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpdateOffset(placement.KindImage, base, OffsetPatch{
		XPos: ptr(250.0), TargetSurface: ptr(placement.SurfaceBase),
	}); err != nil {
		t.Fatal(err)
	}

	s.SetDimensions(300, 600)

	if o, _ := s.Offset(placement.KindImage, head); o.XPos != 100 {
		t.Errorf("headstone image x = %v, want 100", o.XPos)
	}
	if o, _ := s.Offset(placement.KindImage, base); o.XPos != 250 {
		t.Errorf("base image x = %v, want 250 (untouched)", o.XPos)
	}
	if n := len(s.Images()); n != 2 {
		t.Errorf("images = %d, want 2 (clamped, not removed)", n)
	}

	s.SetBaseDimensions(200, 150, 250)
	if o, _ := s.Offset(placement.KindImage, base); o.XPos != 50 {
		t.Errorf("base image x = %v, want 50", o.XPos)
	}
}

func TestSizerFootprint(t *testing.T) {
	s := newTestState(t)
	s.SetSizer(fixedSizer{w: 200, h: 50})
	id := mustAdd(t, s, placement.KindMotif, "dove")

	got, err := s.UpdateOffset(placement.KindMotif, id, OffsetPatch{
		CoordinateSpace: ptr(placement.SpaceAbsolute), XPos: ptr(1000.0), YPos: ptr(1000.0),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.XPos != 200 || got.YPos != 275 {
		t.Errorf("position = (%v, %v), want (200, 275)", got.XPos, got.YPos)
	}
}

func TestInscriptionFootprintFollowsText(t *testing.T) {
	s := newTestState(t)
	id, err := s.AddInscription("ABCDE", "garamond")
	if err != nil {
		t.Fatal(err)
	}
	// 5 characters at 40 mm: 120 mm wide.
	got, _ := s.UpdateOffset(placement.KindInscription, id, OffsetPatch{XPos: ptr(1000.0)})
	if got.XPos != 240 {
		t.Errorf("x = %v, want 240", got.XPos)
	}

	if err := s.SetInscriptionText(id, "ABCDEFGHIJ"); err != nil {
		t.Fatal(err)
	}
	if o, _ := s.Offset(placement.KindInscription, id); o.XPos != 180 {
		t.Errorf("x after longer text = %v, want 180", o.XPos)
	}
}

func TestInscriptionEditing(t *testing.T) {
	s := newTestState(t)
	id, _ := s.AddInscription("In Loving Memory", "garamond")

	if err := s.SetInscriptionFont(id, "copperplate"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetInscriptionColor(id, "gold"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetInscriptionSize(id, 1000); err != nil {
		t.Fatal(err)
	}
	l := s.Inscriptions()[0]
	if l.Font != "copperplate" || l.Color != "gold" || l.SizeMm != 300 {
		t.Errorf("line = %+v", l)
	}
	if err := s.SetInscriptionText("missing", "x"); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("err = %v, want ErrElementNotFound", err)
	}
}

func TestImageSettings(t *testing.T) {
	s := newTestState(t)
	id, err := s.AddImage("ceramic-oval", "https://cdn.example.com/u/1.jpg", 80, 120)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetImageColorMode(id, "psychedelic"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetImageSize(id, -1, 150); err != nil {
		t.Fatal(err)
	}
	img := s.Images()[0]
	if img.ColorMode != ColorFull || img.WidthMm != 80 || img.HeightMm != 150 {
		t.Errorf("image = %+v", img)
	}
	if err := s.SetImageColorMode(id, ColorSepia); err != nil {
		t.Fatal(err)
	}
	if s.Images()[0].ColorMode != ColorSepia {
		t.Error("colour mode not applied")
	}
}

func TestSetMotifColor(t *testing.T) {
	s := newTestState(t)
	id := mustAdd(t, s, placement.KindMotif, "dove")
	if err := s.SetMotifColor(id, " gold "); err != nil {
		t.Fatal(err)
	}
	if s.Motifs()[0].ColorRef != "gold" {
		t.Errorf("colour = %q", s.Motifs()[0].ColorRef)
	}
}

func TestSetSelected(t *testing.T) {
	s := newTestState(t)
	a := mustAdd(t, s, placement.KindAddition, "vase")
	mustAdd(t, s, placement.KindAddition, "cross")

	if err := s.SetSelected(placement.KindAddition, a); err != nil {
		t.Fatal(err)
	}
	if s.SelectedAdditionID() != a {
		t.Errorf("selected = %q, want %q", s.SelectedAdditionID(), a)
	}
	if err := s.SetSelected(placement.KindAddition, "ghost"); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("err = %v, want ErrElementNotFound", err)
	}
	if s.SelectedAdditionID() != a {
		t.Error("failed selection changed the selected id")
	}
	if err := s.SetSelected(placement.KindImage, ""); !errors.Is(err, ErrNotSelectable) {
		t.Errorf("err = %v, want ErrNotSelectable", err)
	}
	if err := s.SetSelected(placement.KindAddition, ""); err != nil || s.SelectedAdditionID() != "" {
		t.Errorf("clearing selection: err=%v selected=%q", err, s.SelectedAdditionID())
	}
}

func TestGettersReturnCopies(t *testing.T) {
	s := newTestState(t)
	mustAdd(t, s, placement.KindAddition, "vase")

	adds := s.Additions()
	*adds[0].Offset.ZPos = 99
	adds[0].CatalogRef = "changed"

	again := s.Additions()
	if *again[0].Offset.ZPos != 0 || again[0].CatalogRef != "vase" {
		t.Errorf("state mutated through a returned copy: %+v", again[0])
	}
}

func TestSlantAndStyle(t *testing.T) {
	s := newTestState(t)
	s.SetHeadstoneStyle("pyramid")
	if s.HeadstoneStyle() != StyleUpright {
		t.Errorf("style = %q, want upright", s.HeadstoneStyle())
	}
	s.SetHeadstoneStyle(StyleSlant)
	s.SetSlantRatio(3)
	if s.SlantRatio() != 1 {
		t.Errorf("ratio = %v, want 1", s.SlantRatio())
	}
	s.SetSlantRatio(-2)
	if s.SlantRatio() != MinSlantRatio {
		t.Errorf("ratio = %v, want %v", s.SlantRatio(), MinSlantRatio)
	}
	s.SetSlantRatio(math.NaN())
	if s.SlantRatio() != MinSlantRatio {
		t.Errorf("NaN changed ratio to %v", s.SlantRatio())
	}
}

func TestProductChangeKeepsElements(t *testing.T) {
	s := newTestState(t)
	s.SetProductID("4")
	mustAdd(t, s, placement.KindMotif, "dove")
	s.SetProductID("5")
	if s.ProductID() != "5" || len(s.Motifs()) != 1 {
		t.Errorf("product=%q motifs=%d, want 5 and 1", s.ProductID(), len(s.Motifs()))
	}
}

func TestReset(t *testing.T) {
	s := newTestState(t)
	s.SetProductID("4")
	s.SetShape("serpentine")
	s.SetDimensions(900, 900)
	mustAdd(t, s, placement.KindAddition, "vase")
	s.AddInscription("RIP", "garamond")

	s.Reset()

	if s.ProductID() != "" || s.ShapeRef() != "" || len(s.Additions()) != 0 ||
		len(s.Inscriptions()) != 0 || s.SelectedAdditionID() != "" {
		t.Error("Reset left state behind")
	}
	if w, _ := s.Dimensions(); w != DefaultWidthMm {
		t.Errorf("width = %d, want %d", w, DefaultWidthMm)
	}
}

func TestReplaceElements(t *testing.T) {
	s := newTestState(t)
	old := mustAdd(t, s, placement.KindAddition, "vase")

	bad := placement.Default(placement.KindImage)
	bad.XPos = math.NaN()
	s.ReplaceElements(Elements{
		Motifs: []Motif{
			{ID: "m", CatalogRef: "dove", Offset: placement.Default(placement.KindMotif)},
			{ID: "m", CatalogRef: "rose", Offset: placement.Default(placement.KindMotif)},
		},
		Images: []Image{{TypeRef: "ceramic", Offset: bad, ColorMode: "weird"}},
	})

	if len(s.Additions()) != 0 {
		t.Error("additions were merged, not replaced")
	}
	if s.SelectedAdditionID() != "" {
		t.Errorf("selection %q survived replacement of %q", s.SelectedAdditionID(), old)
	}
	motifs := s.Motifs()
	if len(motifs) != 2 || motifs[0].ID == motifs[1].ID || motifs[0].CatalogRef != "dove" {
		t.Errorf("motifs = %+v, want two distinct ids in order", motifs)
	}
	img := s.Images()[0]
	if img.ID == "" || !img.Offset.Equal(placement.Default(placement.KindImage)) || img.ColorMode != ColorFull {
		t.Errorf("image = %+v, want fresh id, default offset and full colour", img)
	}
}
