// Package design holds the canonical in-memory model of one memorial design:
// product selection, dimensions, finish options and the placed additions,
// motifs, images and inscription lines.
//
// A State is a single-writer aggregate. It is mutated only through its
// methods, each of which leaves the state consistent: dimensions stay within
// Limits, every offset is normalized against its target surface, and a
// selected id always names an element that exists. State is not safe for
// concurrent use; session.Session serializes access.
package design

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/chazu/memorial/pkg/catalog"
	"github.com/chazu/memorial/pkg/placement"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

var (
	ErrElementNotFound = errors.New("design: element not found")
	ErrUnknownKind     = errors.New("design: unknown element kind")
	ErrNotSelectable   = errors.New("design: kind has no selection")
	ErrAdditionLimit   = errors.New("design: product allows a single addition")
)

// Style is the headstone form.
type Style string

const (
	StyleUpright Style = "upright"
	StyleSlant   Style = "slant"
)

// Sizer reports the catalog footprint of an addition or motif at scale 1.
// *catalog.Catalog implements it.
type Sizer interface {
	Footprint(k placement.Kind, ref string) (widthMm, heightMm float64, ok bool)
}

// State is one design. The zero value is not usable; call New.
type State struct {
	limits Limits
	sizer  Sizer
	newID  func() string

	productID       string
	additionPolicy  catalog.AdditionPolicy
	shapeRef        string
	borderRef       string
	materialRef     string
	baseMaterialRef string

	widthMm         int
	heightMm        int
	baseWidthMm     int
	baseHeightMm    int
	baseThicknessMm int
	style           Style
	slantRatio      float64
	showBase        bool

	additions    []Addition
	motifs       []Motif
	images       []Image
	inscriptions []InscriptionLine

	selectedAdditionID string
	selectedMotifID    string
}

// New returns an empty design clamped to limits.
func New(limits Limits) *State {
	s := &State{limits: limits, newID: uuid.NewString}
	s.Reset()
	return s
}

// Reset discards every selection, dimension and element and returns the
// state to its initial configuration. Limits and the sizer are kept.
func (s *State) Reset() {
	s.productID = ""
	s.additionPolicy = catalog.AdditionsMulti
	s.shapeRef, s.borderRef, s.materialRef, s.baseMaterialRef = "", "", "", ""
	s.widthMm = s.limits.Width.Clamp(DefaultWidthMm)
	s.heightMm = s.limits.Height.Clamp(DefaultHeightMm)
	s.baseWidthMm = s.limits.BaseWidth.Clamp(DefaultBaseWidthMm)
	s.baseHeightMm = s.limits.BaseHeight.Clamp(DefaultBaseHeightMm)
	s.baseThicknessMm = s.limits.BaseThickness.Clamp(DefaultBaseThicknessMm)
	s.style = StyleUpright
	s.slantRatio = DefaultSlantRatio
	s.showBase = true
	for _, ops := range kinds {
		ops.clear(s)
	}
	s.selectedAdditionID, s.selectedMotifID = "", ""
}

// Limits returns the limits the state clamps against.
func (s *State) Limits() Limits { return s.limits }

// SetSizer installs the catalog footprint source and re-normalizes every
// element against the new footprints.
func (s *State) SetSizer(sz Sizer) {
	s.sizer = sz
	s.renormalize(allSurfaces)
}

func (s *State) ProductID() string                      { return s.productID }
func (s *State) AdditionPolicy() catalog.AdditionPolicy { return s.additionPolicy }
func (s *State) ShapeRef() string                       { return s.shapeRef }
func (s *State) BorderRef() string                      { return s.borderRef }
func (s *State) MaterialRef() string                    { return s.materialRef }
func (s *State) BaseMaterialRef() string                { return s.baseMaterialRef }
func (s *State) HeadstoneStyle() Style                  { return s.style }
func (s *State) SlantRatio() float64                    { return s.slantRatio }
func (s *State) ShowBase() bool                         { return s.showBase }
func (s *State) SelectedAdditionID() string             { return s.selectedAdditionID }
func (s *State) SelectedMotifID() string                { return s.selectedMotifID }

// Dimensions returns the headstone width and height in millimetres.
func (s *State) Dimensions() (widthMm, heightMm int) { return s.widthMm, s.heightMm }

// BaseDimensions returns the base width, height and thickness in millimetres.
func (s *State) BaseDimensions() (widthMm, heightMm, thicknessMm int) {
	return s.baseWidthMm, s.baseHeightMm, s.baseThicknessMm
}

// Additions returns a copy of the placed additions.
func (s *State) Additions() []Addition { return cloneAll(s.additions) }

// Motifs returns a copy of the placed motifs in order.
func (s *State) Motifs() []Motif { return cloneAll(s.motifs) }

// Images returns a copy of the placed images in order.
func (s *State) Images() []Image { return cloneAll(s.images) }

// Inscriptions returns a copy of the inscription lines in order.
func (s *State) Inscriptions() []InscriptionLine { return cloneAll(s.inscriptions) }

// SetProductID records the active product. Elements are kept; the caller is
// responsible for reloading the price model.
func (s *State) SetProductID(id string) {
	s.productID = strings.TrimSpace(id)
}

// SetAdditionPolicy records how many additions the active product allows.
// Unknown policies are treated as multi.
func (s *State) SetAdditionPolicy(p catalog.AdditionPolicy) {
	if p != catalog.AdditionsSingle {
		p = catalog.AdditionsMulti
	}
	s.additionPolicy = p
}

func (s *State) SetShape(ref string)        { s.shapeRef = strings.TrimSpace(ref) }
func (s *State) SetBorder(ref string)       { s.borderRef = strings.TrimSpace(ref) }
func (s *State) SetMaterial(ref string)     { s.materialRef = strings.TrimSpace(ref) }
func (s *State) SetBaseMaterial(ref string) { s.baseMaterialRef = strings.TrimSpace(ref) }

// SetDimensions clamps and applies the headstone size, then re-normalizes
// every element placed on the headstone. Elements are clamped, never removed.
func (s *State) SetDimensions(widthMm, heightMm int) {
	s.widthMm = s.limits.Width.Clamp(widthMm)
	s.heightMm = s.limits.Height.Clamp(heightMm)
	s.renormalize(placement.SurfaceHeadstone)
}

// SetBaseDimensions clamps and applies the base size, then re-normalizes
// every element placed on the base.
func (s *State) SetBaseDimensions(widthMm, heightMm, thicknessMm int) {
	s.baseWidthMm = s.limits.BaseWidth.Clamp(widthMm)
	s.baseHeightMm = s.limits.BaseHeight.Clamp(heightMm)
	s.baseThicknessMm = s.limits.BaseThickness.Clamp(thicknessMm)
	s.renormalize(placement.SurfaceBase)
}

// SetHeadstoneStyle sets upright or slant. Unknown styles become upright.
func (s *State) SetHeadstoneStyle(st Style) {
	if st != StyleSlant {
		st = StyleUpright
	}
	s.style = st
}

// SetSlantRatio sets the slant face ratio, clamped to [MinSlantRatio, 1].
// Non-finite input is ignored.
func (s *State) SetSlantRatio(r float64) {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return
	}
	s.slantRatio = math.Max(MinSlantRatio, math.Min(1, r))
}

// SetShowBase toggles the base. Base dimensions are kept while hidden.
func (s *State) SetShowBase(show bool) { s.showBase = show }

func (s *State) ops(k placement.Kind) (kindOps, error) {
	ops, ok := kinds[k]
	if !ok {
		return kindOps{}, fmt.Errorf("%w: %v", ErrUnknownKind, k)
	}
	return ops, nil
}

// ElementIDs returns the ids of kind k in collection order.
func (s *State) ElementIDs(k placement.Kind) []string {
	ops, err := s.ops(k)
	if err != nil {
		return nil
	}
	return ops.ids(s)
}

// Offset returns a copy of an element's offset.
func (s *State) Offset(k placement.Kind, id string) (placement.Offset, bool) {
	ops, err := s.ops(k)
	if err != nil {
		return placement.Offset{}, false
	}
	return ops.get(s, id)
}

func (s *State) has(k placement.Kind, id string) bool {
	_, ok := s.Offset(k, id)
	return ok
}

// newElementID returns an id unique within kind k's collection.
func (s *State) newElementID(k placement.Kind, ops kindOps) string {
	taken := lo.Keyify(ops.ids(s))
	for {
		id := ops.prefix + "-" + s.newID()
		if _, dup := taken[id]; !dup {
			return id
		}
	}
}

// AddElement places a new element of kind k at the kind's default offset and
// returns its id. ref is the catalog reference: the addition or motif id,
// the image type, or the inscription font. New additions and motifs become
// selected. When the product allows a single addition, adding one replaces
// any already mounted.
func (s *State) AddElement(k placement.Kind, ref string) (string, error) {
	ops, err := s.ops(k)
	if err != nil {
		return "", err
	}
	if k == placement.KindAddition && s.additionPolicy == catalog.AdditionsSingle {
		s.ClearElements(placement.KindAddition)
	}
	id := s.newElementID(k, ops)
	ops.add(s, id, strings.TrimSpace(ref), placement.Default(k))
	s.normalizeElement(k, id)
	s.selectNew(k, id)
	return id, nil
}

// AddImage places a new image with its own print size.
func (s *State) AddImage(typeRef, assetURL string, widthMm, heightMm float64) (string, error) {
	id, err := s.AddElement(placement.KindImage, typeRef)
	if err != nil {
		return "", err
	}
	i := s.indexOfImage(id)
	s.images[i].AssetURL = assetURL
	s.images[i].WidthMm, s.images[i].HeightMm = positive(widthMm, DefaultElementMm), positive(heightMm, DefaultElementMm)
	s.normalizeElement(placement.KindImage, id)
	return id, nil
}

// AddInscription appends a text line in the given font.
func (s *State) AddInscription(text, font string) (string, error) {
	id, err := s.AddElement(placement.KindInscription, font)
	if err != nil {
		return "", err
	}
	s.inscriptions[s.indexOfLine(id)].Text = text
	s.normalizeElement(placement.KindInscription, id)
	return id, nil
}

func (s *State) selectNew(k placement.Kind, id string) {
	switch k {
	case placement.KindAddition:
		s.selectedAdditionID = id
	case placement.KindMotif:
		s.selectedMotifID = id
	}
}

// RemoveElement deletes an element. Removing the selected element clears the
// selection.
func (s *State) RemoveElement(k placement.Kind, id string) error {
	ops, err := s.ops(k)
	if err != nil {
		return err
	}
	if !ops.remove(s, id) {
		return fmt.Errorf("remove %s %q: %w", k, id, ErrElementNotFound)
	}
	s.dropSelection(k, id)
	return nil
}

// ClearElements empties one collection and its selection.
func (s *State) ClearElements(k placement.Kind) {
	ops, err := s.ops(k)
	if err != nil {
		return
	}
	ops.clear(s)
	switch k {
	case placement.KindAddition:
		s.selectedAdditionID = ""
	case placement.KindMotif:
		s.selectedMotifID = ""
	}
}

func (s *State) dropSelection(k placement.Kind, id string) {
	switch {
	case k == placement.KindAddition && s.selectedAdditionID == id:
		s.selectedAdditionID = ""
	case k == placement.KindMotif && s.selectedMotifID == id:
		s.selectedMotifID = ""
	}
}

// DuplicateElement copies an element under a new id, nudged so it does not
// sit exactly on its source. When clamping would cancel the nudge the copy
// moves the other way. The copy becomes selected.
func (s *State) DuplicateElement(k placement.Kind, id string) (string, error) {
	ops, err := s.ops(k)
	if err != nil {
		return "", err
	}
	src, ok := ops.get(s, id)
	if !ok {
		return "", fmt.Errorf("duplicate %s %q: %w", k, id, ErrElementNotFound)
	}
	if k == placement.KindAddition && s.additionPolicy == catalog.AdditionsSingle {
		return "", ErrAdditionLimit
	}

	newID := s.newElementID(k, ops)
	ops.duplicate(s, id, newID)
	b := s.bounds(k, newID, src.TargetSurface)
	moved := src
	for _, step := range []int{1, -1} {
		if o, err := placement.Normalize(placement.Nudge(src, step), b); err == nil {
			moved = o
			if !o.Equal(src) {
				break
			}
		}
	}
	ops.set(s, newID, moved)
	s.selectNew(k, newID)
	return newID, nil
}

// SetSelected makes id the active addition or motif. An empty id clears the
// selection. Images and inscriptions carry no selection.
func (s *State) SetSelected(k placement.Kind, id string) error {
	if k != placement.KindAddition && k != placement.KindMotif {
		return fmt.Errorf("%w: %s", ErrNotSelectable, k)
	}
	if id != "" && !s.has(k, id) {
		return fmt.Errorf("select %s %q: %w", k, id, ErrElementNotFound)
	}
	if k == placement.KindAddition {
		s.selectedAdditionID = id
	} else {
		s.selectedMotifID = id
	}
	return nil
}
