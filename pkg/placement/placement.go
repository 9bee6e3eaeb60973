// Package placement defines where a placed element sits on a memorial
// surface: position, scale, rotation, target surface and the coordinate space
// the position is expressed in.
//
// Conventions:
//   - Absolute coordinates are millimetres with the origin at the centre of
//     the target surface, +x to the right and +y up.
//   - Offset coordinates are fractions of the surface half-extent, so -1 is
//     the left (or bottom) edge and +1 the right (or top) edge.
//   - RotationZ is always degrees, normalized to [-180, 180].
package placement

import (
	"errors"
	"fmt"
	"math"
)

// ErrNonFinite is returned when an offset carries NaN or infinite values.
// Callers keep their previous offset when they see it.
var ErrNonFinite = errors.New("placement: non-finite value")

// Kind enumerates the placeable element kinds.
type Kind int

const (
	KindAddition Kind = iota
	KindMotif
	KindImage
	KindInscription
)

// Kinds lists every placeable kind in a stable order.
var Kinds = []Kind{KindAddition, KindMotif, KindImage, KindInscription}

func (k Kind) String() string {
	switch k {
	case KindAddition:
		return "addition"
	case KindMotif:
		return "motif"
	case KindImage:
		return "image"
	case KindInscription:
		return "inscription"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Surface names the body an element is positioned against.
type Surface string

const (
	SurfaceHeadstone Surface = "headstone"
	SurfaceBase      Surface = "base"
)

// Space is the coordinate space of an offset's position.
type Space string

const (
	SpaceAbsolute Space = "absolute"
	SpaceOffset   Space = "offset"
)

// Offset is the placement record shared by additions, motifs, images and
// inscription lines.
type Offset struct {
	XPos            float64  `json:"xPos"`
	YPos            float64  `json:"yPos"`
	ZPos            *float64 `json:"zPos,omitempty"`
	Scale           float64  `json:"scale"`
	RotationZ       float64  `json:"rotationZ"` // degrees
	TargetSurface   Surface  `json:"targetSurface"`
	CoordinateSpace Space    `json:"coordinateSpace"`
}

// Clone returns a copy that shares no pointers with o.
func (o Offset) Clone() Offset {
	if o.ZPos != nil {
		z := *o.ZPos
		o.ZPos = &z
	}
	return o
}

// Equal reports whether a and b hold the same values, comparing ZPos by value.
func (o Offset) Equal(b Offset) bool {
	if (o.ZPos == nil) != (b.ZPos == nil) {
		return false
	}
	if o.ZPos != nil && *o.ZPos != *b.ZPos {
		return false
	}
	return o.XPos == b.XPos && o.YPos == b.YPos && o.Scale == b.Scale &&
		o.RotationZ == b.RotationZ && o.TargetSurface == b.TargetSurface &&
		o.CoordinateSpace == b.CoordinateSpace
}

// Check reports ErrNonFinite if any numeric field is NaN or infinite.
func (o Offset) Check() error {
	vals := []float64{o.XPos, o.YPos, o.Scale, o.RotationZ}
	if o.ZPos != nil {
		vals = append(vals, *o.ZPos)
	}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNonFinite
		}
	}
	return nil
}

// Default returns the canonical offset for a new element of kind k: centred on
// the headstone at scale 1 with no rotation. Additions stand off the surface
// and carry a z position; they and motifs are positioned in offset space,
// images and inscriptions in millimetres.
func Default(k Kind) Offset {
	o := Offset{
		Scale:           1,
		TargetSurface:   SurfaceHeadstone,
		CoordinateSpace: SpaceAbsolute,
	}
	switch k {
	case KindAddition:
		z := 0.0
		o.ZPos = &z
		o.CoordinateSpace = SpaceOffset
	case KindMotif:
		o.CoordinateSpace = SpaceOffset
	case KindImage, KindInscription:
	}
	return o
}
