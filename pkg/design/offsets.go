package design

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/memorial/pkg/placement"
	"github.com/samber/lo"
)

// allSurfaces selects every element in renormalize.
const allSurfaces placement.Surface = ""

// OffsetPatch updates selected fields of an offset. Nil fields keep their
// current value. Changing CoordinateSpace without supplying a position
// converts the current position into the new space.
type OffsetPatch struct {
	XPos            *float64           `json:"xPos,omitempty"`
	YPos            *float64           `json:"yPos,omitempty"`
	ZPos            *float64           `json:"zPos,omitempty"`
	Scale           *float64           `json:"scale,omitempty"`
	RotationZ       *float64           `json:"rotationZ,omitempty"`
	TargetSurface   *placement.Surface `json:"targetSurface,omitempty"`
	CoordinateSpace *placement.Space   `json:"coordinateSpace,omitempty"`
}

// UpdateOffset applies patch to an element's offset and normalizes the
// result against the element's target surface. Non-finite input is rejected
// with placement.ErrNonFinite and the previous offset is kept.
func (s *State) UpdateOffset(k placement.Kind, id string, patch OffsetPatch) (placement.Offset, error) {
	ops, err := s.ops(k)
	if err != nil {
		return placement.Offset{}, err
	}
	cur, ok := ops.get(s, id)
	if !ok {
		return placement.Offset{}, fmt.Errorf("update %s %q: %w", k, id, ErrElementNotFound)
	}

	next := cur.Clone()
	if patch.CoordinateSpace != nil && *patch.CoordinateSpace != cur.CoordinateSpace &&
		patch.XPos == nil && patch.YPos == nil {
		next, err = placement.Convert(next, cur.CoordinateSpace, *patch.CoordinateSpace,
			s.bounds(k, id, cur.TargetSurface))
		if err != nil {
			return cur, fmt.Errorf("update %s %q: %w", k, id, err)
		}
	}
	if patch.CoordinateSpace != nil {
		next.CoordinateSpace = *patch.CoordinateSpace
	}
	if patch.XPos != nil {
		next.XPos = *patch.XPos
	}
	if patch.YPos != nil {
		next.YPos = *patch.YPos
	}
	if patch.ZPos != nil {
		z := *patch.ZPos
		next.ZPos = &z
	}
	if patch.Scale != nil {
		next.Scale = *patch.Scale
	}
	if patch.RotationZ != nil {
		next.RotationZ = *patch.RotationZ
	}
	if patch.TargetSurface != nil {
		next.TargetSurface = *patch.TargetSurface
	}
	return s.SetOffset(k, id, next)
}

// SetOffset replaces an element's offset after normalizing it. Non-finite
// input is rejected and the previous offset is kept.
func (s *State) SetOffset(k placement.Kind, id string, o placement.Offset) (placement.Offset, error) {
	ops, err := s.ops(k)
	if err != nil {
		return placement.Offset{}, err
	}
	cur, ok := ops.get(s, id)
	if !ok {
		return placement.Offset{}, fmt.Errorf("set %s %q offset: %w", k, id, ErrElementNotFound)
	}
	norm, err := placement.Normalize(o, s.bounds(k, id, o.TargetSurface))
	if err != nil {
		return cur, fmt.Errorf("set %s %q offset: %w", k, id, err)
	}
	ops.set(s, id, norm)
	return norm.Clone(), nil
}

// Bounds returns the bounds an element is normalized against.
func (s *State) Bounds(k placement.Kind, id string) (placement.Bounds, error) {
	o, ok := s.Offset(k, id)
	if !ok {
		return placement.Bounds{}, fmt.Errorf("bounds %s %q: %w", k, id, ErrElementNotFound)
	}
	return s.bounds(k, id, o.TargetSurface), nil
}

// SurfaceSize returns the width and height of a surface in millimetres.
// Unknown surfaces resolve to the headstone.
func (s *State) SurfaceSize(surface placement.Surface) (widthMm, heightMm int) {
	if surface == placement.SurfaceBase {
		return s.baseWidthMm, s.baseHeightMm
	}
	return s.widthMm, s.heightMm
}

func (s *State) bounds(k placement.Kind, id string, surface placement.Surface) placement.Bounds {
	w, h := s.SurfaceSize(surface)
	ew, eh := kinds[k].footprint(s, id)
	return placement.Bounds{
		Width:         float64(w),
		Height:        float64(h),
		ElementWidth:  ew,
		ElementHeight: eh,
		MinScale:      s.limits.MinScale,
		MaxScale:      s.limits.MaxScale,
	}
}

func (s *State) catalogSize(k placement.Kind, ref string) (float64, float64) {
	if s.sizer != nil {
		if w, h, ok := s.sizer.Footprint(k, ref); ok {
			return w, h
		}
	}
	return DefaultElementMm, DefaultElementMm
}

// normalizeElement re-clamps one element in place. Stored offsets are always
// finite, so the error path only guards corrupt input.
func (s *State) normalizeElement(k placement.Kind, id string) {
	ops := kinds[k]
	o, ok := ops.get(s, id)
	if !ok {
		return
	}
	if norm, err := placement.Normalize(o, s.bounds(k, id, o.TargetSurface)); err == nil {
		ops.set(s, id, norm)
	}
}

func (s *State) renormalize(surface placement.Surface) {
	for _, k := range placement.Kinds {
		for _, id := range kinds[k].ids(s) {
			o, _ := kinds[k].get(s, id)
			if surface == allSurfaces || o.TargetSurface == surface {
				s.normalizeElement(k, id)
			}
		}
	}
}

// SetMotifColor sets a motif's colour reference.
func (s *State) SetMotifColor(id, colorRef string) error {
	_, i, ok := lo.FindIndexOf(s.motifs, func(m Motif) bool { return m.ID == id })
	if !ok {
		return fmt.Errorf("motif %q: %w", id, ErrElementNotFound)
	}
	s.motifs[i].ColorRef = strings.TrimSpace(colorRef)
	return nil
}

// SetImageColorMode sets how an image prints. Unknown modes become full
// colour.
func (s *State) SetImageColorMode(id string, mode ColorMode) error {
	i := s.indexOfImage(id)
	if i < 0 {
		return fmt.Errorf("image %q: %w", id, ErrElementNotFound)
	}
	if !mode.valid() {
		mode = ColorFull
	}
	s.images[i].ColorMode = mode
	return nil
}

// SetImageSize sets an image's print size and re-clamps its position.
// Non-positive or non-finite sizes keep the current value.
func (s *State) SetImageSize(id string, widthMm, heightMm float64) error {
	i := s.indexOfImage(id)
	if i < 0 {
		return fmt.Errorf("image %q: %w", id, ErrElementNotFound)
	}
	s.images[i].WidthMm = positive(widthMm, s.images[i].WidthMm)
	s.images[i].HeightMm = positive(heightMm, s.images[i].HeightMm)
	s.normalizeElement(placement.KindImage, id)
	return nil
}

// SetInscriptionText replaces a line's text and re-clamps it, since the
// footprint grows with the text.
func (s *State) SetInscriptionText(id, text string) error {
	i := s.indexOfLine(id)
	if i < 0 {
		return fmt.Errorf("inscription %q: %w", id, ErrElementNotFound)
	}
	s.inscriptions[i].Text = text
	s.normalizeElement(placement.KindInscription, id)
	return nil
}

// SetInscriptionFont sets a line's font reference.
func (s *State) SetInscriptionFont(id, font string) error {
	i := s.indexOfLine(id)
	if i < 0 {
		return fmt.Errorf("inscription %q: %w", id, ErrElementNotFound)
	}
	s.inscriptions[i].Font = strings.TrimSpace(font)
	return nil
}

// SetInscriptionColor sets a line's colour.
func (s *State) SetInscriptionColor(id, color string) error {
	i := s.indexOfLine(id)
	if i < 0 {
		return fmt.Errorf("inscription %q: %w", id, ErrElementNotFound)
	}
	s.inscriptions[i].Color = strings.TrimSpace(color)
	return nil
}

// SetInscriptionSize sets a line's letter height, clamped to 5..300 mm.
func (s *State) SetInscriptionSize(id string, sizeMm float64) error {
	i := s.indexOfLine(id)
	if i < 0 {
		return fmt.Errorf("inscription %q: %w", id, ErrElementNotFound)
	}
	if math.IsNaN(sizeMm) || math.IsInf(sizeMm, 0) {
		return nil
	}
	s.inscriptions[i].SizeMm = math.Max(minInscriptionMm, math.Min(maxInscriptionMm, sizeMm))
	s.normalizeElement(placement.KindInscription, id)
	return nil
}

func (s *State) indexOfImage(id string) int {
	_, i, _ := lo.FindIndexOf(s.images, func(e Image) bool { return e.ID == id })
	return i
}

func (s *State) indexOfLine(id string) int {
	_, i, _ := lo.FindIndexOf(s.inscriptions, func(e InscriptionLine) bool { return e.ID == id })
	return i
}

func positive(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fallback
	}
	return v
}
