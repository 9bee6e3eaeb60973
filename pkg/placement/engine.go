package placement

import "math"

// Default scale limits used when Bounds leaves them unset.
const (
	DefaultMinScale = 0.1
	DefaultMaxScale = 5.0
)

// Bounds describes the surface an offset is validated against. Width and
// Height are the target surface extent in millimetres; ElementWidth and
// ElementHeight are the element's footprint at scale 1.
type Bounds struct {
	Width         float64
	Height        float64
	ElementWidth  float64
	ElementHeight float64
	MinScale      float64
	MaxScale      float64
}

func (b Bounds) scaleRange() (lo, hi float64) {
	lo, hi = b.MinScale, b.MaxScale
	if lo <= 0 {
		lo = DefaultMinScale
	}
	if hi <= 0 {
		hi = DefaultMaxScale
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Normalize clamps o into b. Scale is clamped to the configured range.
// In absolute space the position is clamped so the scaled footprint stays on
// the surface (an element larger than the surface is centred); in offset space
// the position is clamped to [-1, 1]. Unknown surfaces and spaces fall back to
// headstone and absolute. Non-finite input returns o unchanged with
// ErrNonFinite.
//
// Normalize is idempotent.
func Normalize(o Offset, b Bounds) (Offset, error) {
	if err := o.Check(); err != nil {
		return o, err
	}
	out := o.Clone()

	switch out.TargetSurface {
	case SurfaceHeadstone, SurfaceBase:
	default:
		out.TargetSurface = SurfaceHeadstone
	}
	switch out.CoordinateSpace {
	case SpaceAbsolute, SpaceOffset:
	default:
		out.CoordinateSpace = SpaceAbsolute
	}

	lo, hi := b.scaleRange()
	out.Scale = clamp(out.Scale, lo, hi)
	out.RotationZ = math.Remainder(out.RotationZ, 360)

	switch out.CoordinateSpace {
	case SpaceOffset:
		out.XPos = clamp(out.XPos, -1, 1)
		out.YPos = clamp(out.YPos, -1, 1)
	case SpaceAbsolute:
		hx := math.Max(0, (b.Width-b.ElementWidth*out.Scale)/2)
		hy := math.Max(0, (b.Height-b.ElementHeight*out.Scale)/2)
		out.XPos = clamp(out.XPos, -hx, hx)
		out.YPos = clamp(out.YPos, -hy, hy)
	}
	return out, nil
}

// Convert re-expresses o's position from one coordinate space to another
// against the surface extent in b. Only XPos, YPos and CoordinateSpace change.
// A surface with no extent on an axis maps that axis to 0.
//
// Convert(Convert(o, a, b), b, a) reproduces o within floating-point tolerance
// for any surface with positive extent.
func Convert(o Offset, from, to Space, b Bounds) (Offset, error) {
	if err := o.Check(); err != nil {
		return o, err
	}
	out := o.Clone()
	out.CoordinateSpace = to
	if from == to {
		return out, nil
	}

	hw, hh := b.Width/2, b.Height/2
	switch {
	case from == SpaceAbsolute && to == SpaceOffset:
		out.XPos = ratio(o.XPos, hw)
		out.YPos = ratio(o.YPos, hh)
	case from == SpaceOffset && to == SpaceAbsolute:
		out.XPos = o.XPos * math.Max(hw, 0)
		out.YPos = o.YPos * math.Max(hh, 0)
	}
	return out, nil
}

func ratio(v, half float64) float64 {
	if half <= 0 {
		return 0
	}
	return v / half
}

// Absolute returns o's position in millimetres regardless of its space.
func Absolute(o Offset, b Bounds) (x, y float64) {
	if o.CoordinateSpace == SpaceOffset {
		return o.XPos * math.Max(b.Width/2, 0), o.YPos * math.Max(b.Height/2, 0)
	}
	return o.XPos, o.YPos
}

// Nudge returns o shifted by step deterministic increments so a duplicate does
// not sit exactly on top of its source. One increment is 10 mm right and down
// in absolute space, or 0.05 of the half-extent in offset space. A negative
// step moves the other way.
func Nudge(o Offset, step int) Offset {
	out := o.Clone()
	d := 10.0
	if out.CoordinateSpace == SpaceOffset {
		d = 0.05
	}
	out.XPos += d * float64(step)
	out.YPos -= d * float64(step)
	return out
}
