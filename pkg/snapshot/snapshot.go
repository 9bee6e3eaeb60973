// Package snapshot converts a design.State to and from a flat, versioned
// record for saving, sharing and reloading.
//
// Schema history:
//
//	v1  no images; offsets carry no coordinateSpace (absolute is implied)
//	v2  images; no selection ids; no headstoneStyle (upright is implied)
//	v3  selection ids and headstone style
//
// A record without a version is v1. Records from a newer version are applied
// best effort.
package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/chazu/memorial/pkg/design"
	"github.com/chazu/memorial/pkg/logging"
	"github.com/chazu/memorial/pkg/placement"
)

// Version is the schema version Capture stamps.
const Version = 3

// Metadata identifies the saved project a snapshot belongs to.
type Metadata struct {
	CurrentProjectID string `json:"currentProjectId,omitempty"`
	Title            string `json:"title,omitempty"`
	ScreenshotRef    string `json:"screenshotRef,omitempty"`
}

// Snapshot is the wire and storage record of a design. Scalar fields are
// pointers so that an absent field can be told apart from a zero value;
// Apply keeps the current value for absent fields.
type Snapshot struct {
	Version int `json:"version"`

	ProductID       *string `json:"productId,omitempty"`
	ShapeRef        *string `json:"shapeRef,omitempty"`
	BorderRef       *string `json:"borderRef,omitempty"`
	MaterialRef     *string `json:"materialRef,omitempty"`
	BaseMaterialRef *string `json:"baseMaterialRef,omitempty"`

	WidthMm         *int          `json:"widthMm,omitempty"`
	HeightMm        *int          `json:"heightMm,omitempty"`
	BaseWidthMm     *int          `json:"baseWidthMm,omitempty"`
	BaseHeightMm    *int          `json:"baseHeightMm,omitempty"`
	BaseThicknessMm *int          `json:"baseThicknessMm,omitempty"`
	HeadstoneStyle  *design.Style `json:"headstoneStyle,omitempty"`
	SlantRatio      *float64      `json:"slantRatio,omitempty"`
	ShowBase        *bool         `json:"showBase,omitempty"`

	Additions    []design.Addition        `json:"additions"`
	Motifs       []design.Motif           `json:"motifs"`
	Images       []design.Image           `json:"images"`
	Inscriptions []design.InscriptionLine `json:"inscriptions"`

	SelectedAdditionID *string `json:"selectedAdditionId,omitempty"`
	SelectedMotifID    *string `json:"selectedMotifId,omitempty"`

	Metadata Metadata `json:"metadata"`
}

func ref[T any](v T) *T { return &v }

// Capture projects s into a new snapshot. Every collection is deep-copied,
// so later changes to s never reach the snapshot and vice versa.
func Capture(s *design.State, meta Metadata) Snapshot {
	w, h := s.Dimensions()
	bw, bh, bt := s.BaseDimensions()
	return Snapshot{
		Version:            Version,
		ProductID:          ref(s.ProductID()),
		ShapeRef:           ref(s.ShapeRef()),
		BorderRef:          ref(s.BorderRef()),
		MaterialRef:        ref(s.MaterialRef()),
		BaseMaterialRef:    ref(s.BaseMaterialRef()),
		WidthMm:            ref(w),
		HeightMm:           ref(h),
		BaseWidthMm:        ref(bw),
		BaseHeightMm:       ref(bh),
		BaseThicknessMm:    ref(bt),
		HeadstoneStyle:     ref(s.HeadstoneStyle()),
		SlantRatio:         ref(s.SlantRatio()),
		ShowBase:           ref(s.ShowBase()),
		Additions:          s.Additions(),
		Motifs:             s.Motifs(),
		Images:             s.Images(),
		Inscriptions:       s.Inscriptions(),
		SelectedAdditionID: ref(s.SelectedAdditionID()),
		SelectedMotifID:    ref(s.SelectedMotifID()),
		Metadata:           meta,
	}
}

// Clone returns a deep copy of snap.
func (snap Snapshot) Clone() Snapshot {
	out := snap
	out.ProductID = clonePtr(snap.ProductID)
	out.ShapeRef = clonePtr(snap.ShapeRef)
	out.BorderRef = clonePtr(snap.BorderRef)
	out.MaterialRef = clonePtr(snap.MaterialRef)
	out.BaseMaterialRef = clonePtr(snap.BaseMaterialRef)
	out.WidthMm = clonePtr(snap.WidthMm)
	out.HeightMm = clonePtr(snap.HeightMm)
	out.BaseWidthMm = clonePtr(snap.BaseWidthMm)
	out.BaseHeightMm = clonePtr(snap.BaseHeightMm)
	out.BaseThicknessMm = clonePtr(snap.BaseThicknessMm)
	out.HeadstoneStyle = clonePtr(snap.HeadstoneStyle)
	out.SlantRatio = clonePtr(snap.SlantRatio)
	out.ShowBase = clonePtr(snap.ShowBase)
	out.SelectedAdditionID = clonePtr(snap.SelectedAdditionID)
	out.SelectedMotifID = clonePtr(snap.SelectedMotifID)

	out.Additions = make([]design.Addition, len(snap.Additions))
	for i, a := range snap.Additions {
		a.Offset = a.Offset.Clone()
		out.Additions[i] = a
	}
	out.Motifs = make([]design.Motif, len(snap.Motifs))
	for i, m := range snap.Motifs {
		m.Offset = m.Offset.Clone()
		out.Motifs[i] = m
	}
	out.Images = make([]design.Image, len(snap.Images))
	for i, img := range snap.Images {
		img.Offset = img.Offset.Clone()
		out.Images[i] = img
	}
	out.Inscriptions = make([]design.InscriptionLine, len(snap.Inscriptions))
	for i, l := range snap.Inscriptions {
		l.Offset = l.Offset.Clone()
		out.Inscriptions[i] = l
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Migrate returns a copy of snap upgraded to Version, filling defaults only for
// fields the record leaves out. Newer versions are
// passed through unchanged apart from a warning.
func Migrate(snap Snapshot) Snapshot {
	out := snap.Clone()
	from := out.Version
	if from <= 0 {
		from = 1
	}
	if from > Version {
		logging.Logger().Warn("snapshot from a newer schema, applying best effort",
			"version", from, "supported", Version)
		return out
	}

	if from < 2 {
		if out.Images == nil {
			out.Images = []design.Image{}
		}
		for i := range out.Additions {
			out.Additions[i].Offset = defaultSpace(out.Additions[i].Offset)
		}
		for i := range out.Motifs {
			out.Motifs[i].Offset = defaultSpace(out.Motifs[i].Offset)
		}
		for i := range out.Inscriptions {
			out.Inscriptions[i].Offset = defaultSpace(out.Inscriptions[i].Offset)
		}
	}
	if from < 3 {
		if out.HeadstoneStyle == nil {
			out.HeadstoneStyle = ref(design.StyleUpright)
		}
	}
	if from != Version {
		logging.Logger().Debug("migrated snapshot", "from", from, "to", Version)
	}
	out.Version = Version
	return out
}

func defaultSpace(o placement.Offset) placement.Offset {
	if o.CoordinateSpace == "" {
		o.CoordinateSpace = placement.SpaceAbsolute
	}
	return o
}

// Apply writes snap into s. Scalar fields the snapshot provides replace the
// current value; absent fields and empty references keep it. The four
// element collections are always replaced, never merged, and an absent
// collection empties its counterpart.
//
// Apply does not reload the price model for a changed product. Callers that
// price the design reload it before calling Apply; session.Session does.
func Apply(snap Snapshot, s *design.State) {
	snap = Migrate(snap)

	if v := nonEmpty(snap.ProductID); v != nil {
		s.SetProductID(*v)
	}
	if v := nonEmpty(snap.ShapeRef); v != nil {
		s.SetShape(*v)
	}
	if v := nonEmpty(snap.BorderRef); v != nil {
		s.SetBorder(*v)
	}
	if v := nonEmpty(snap.MaterialRef); v != nil {
		s.SetMaterial(*v)
	}
	if v := nonEmpty(snap.BaseMaterialRef); v != nil {
		s.SetBaseMaterial(*v)
	}

	w, h := s.Dimensions()
	s.SetDimensions(orValue(snap.WidthMm, w), orValue(snap.HeightMm, h))
	bw, bh, bt := s.BaseDimensions()
	s.SetBaseDimensions(orValue(snap.BaseWidthMm, bw), orValue(snap.BaseHeightMm, bh), orValue(snap.BaseThicknessMm, bt))

	if snap.HeadstoneStyle != nil {
		s.SetHeadstoneStyle(*snap.HeadstoneStyle)
	}
	if snap.SlantRatio != nil {
		s.SetSlantRatio(*snap.SlantRatio)
	}
	if snap.ShowBase != nil {
		s.SetShowBase(*snap.ShowBase)
	}

	s.ReplaceElements(design.Elements{
		Additions:    snap.Additions,
		Motifs:       snap.Motifs,
		Images:       snap.Images,
		Inscriptions: snap.Inscriptions,
	})

	selectIfPresent(s, placement.KindAddition, snap.SelectedAdditionID)
	selectIfPresent(s, placement.KindMotif, snap.SelectedMotifID)
}

// selectIfPresent applies a provided selection. An explicit empty id clears
// it; an id that no longer resolves is dropped.
func selectIfPresent(s *design.State, k placement.Kind, id *string) {
	if id == nil {
		return
	}
	if err := s.SetSelected(k, *id); err != nil {
		logging.Logger().Debug("snapshot selection dropped", "kind", k.String(), "id", *id, "error", err)
	}
}

func nonEmpty(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	return p
}

func orValue[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

// Encode marshals snap to JSON.
func Encode(snap Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode unmarshals a JSON snapshot. Unknown fields are ignored and the
// record is not migrated; Apply migrates.
func Decode(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
