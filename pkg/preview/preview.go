// Package preview turns a design into triangle meshes for the external 3D
// renderer: one mesh for the headstone, one for the base when shown, and one
// per placed element. Positions follow the design's conventions: x right,
// y up, z out of the headstone face, origin at the bottom centre of the
// monument. The builder never mutates the design.
package preview

import (
	"fmt"
	"math"

	"github.com/chazu/memorial/pkg/design"
	"github.com/chazu/memorial/pkg/kernel"
	"github.com/chazu/memorial/pkg/placement"
)

const (
	DefaultHeadstoneThicknessMm = 80.0

	imageDepthMm  = 5.0
	reliefDepthMm = 2.0
)

// Options tunes the generated geometry.
type Options struct {
	HeadstoneThicknessMm float64
}

func (o Options) thickness() float64 {
	if o.HeadstoneThicknessMm <= 0 {
		return DefaultHeadstoneThicknessMm
	}
	return o.HeadstoneThicknessMm
}

// Part is one solid awaiting tessellation.
type Part struct {
	Name      string
	ElementID string
	Solid     kernel.Solid
}

// surface is the front face an element is mounted on.
type surface struct {
	centreY float64 // world y of the surface centre
	frontZ  float64 // world z of the face at the surface centre
	height  float64
	slope   float64 // dz/dy of the face; zero for vertical faces
}

func (sf surface) faceZ(localY float64) float64 {
	return sf.frontZ - sf.slope*localY
}

// tilt is the rotation about X that lays an element flat on the face.
func (sf surface) tilt() float64 {
	return -math.Atan(sf.slope) * 180 / math.Pi
}

// Build tessellates every part of st.
func Build(st *design.State, k kernel.Kernel, opts Options) ([]*kernel.Mesh, error) {
	parts, err := Parts(st, k, opts)
	if err != nil {
		return nil, err
	}
	meshes := make([]*kernel.Mesh, 0, len(parts))
	for _, p := range parts {
		mesh, err := k.ToMesh(p.Solid)
		if err != nil {
			return nil, fmt.Errorf("preview: tessellate %s %s: %w", p.Name, p.ElementID, err)
		}
		mesh.Part, mesh.ElementID = p.Name, p.ElementID
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// Parts builds the positioned solids of st without tessellating them.
func Parts(st *design.State, k kernel.Kernel, opts Options) ([]Part, error) {
	w, h := st.Dimensions()
	bw, bh, bt := st.BaseDimensions()
	t := opts.thickness()

	var parts []Part
	baseTop := 0.0
	if st.ShowBase() {
		base, err := k.Box(float64(bw), float64(bh), float64(bt))
		if err != nil {
			return nil, fmt.Errorf("preview: base: %w", err)
		}
		parts = append(parts, Part{Name: "base", Solid: k.Translate(base, 0, float64(bh)/2, 0)})
		baseTop = float64(bh)
	}

	head, err := headstone(k, float64(w), float64(h), t, st)
	if err != nil {
		return nil, fmt.Errorf("preview: headstone: %w", err)
	}
	parts = append(parts, Part{Name: "headstone", Solid: k.Translate(head, 0, baseTop+float64(h)/2, 0)})

	faces := map[placement.Surface]surface{
		placement.SurfaceHeadstone: {centreY: baseTop + float64(h)/2, frontZ: t / 2, height: float64(h)},
		placement.SurfaceBase:      {centreY: float64(bh) / 2, frontZ: float64(bt) / 2, height: float64(bh)},
	}
	if st.HeadstoneStyle() == design.StyleSlant {
		hs := faces[placement.SurfaceHeadstone]
		hs.slope = slope(float64(h), t, st.SlantRatio())
		// The face is cut through the bottom front edge, so at the centre it
		// sits half the set-back behind the front.
		hs.frontZ = t/2 - hs.slope*float64(h)/2
		faces[placement.SurfaceHeadstone] = hs
	}

	for _, kind := range placement.Kinds {
		for _, id := range st.ElementIDs(kind) {
			p, ok, err := element(st, k, kind, id, faces)
			if err != nil {
				return nil, fmt.Errorf("preview: %s %s: %w", kind, id, err)
			}
			if ok {
				parts = append(parts, p)
			}
		}
	}
	return parts, nil
}

// slope returns dz/dy of a slant face that keeps ratio of the thickness at
// the top.
func slope(h, t, ratio float64) float64 {
	if h <= 0 {
		return 0
	}
	return t * (1 - ratio) / h
}

// headstone returns the headstone body centred on the origin. A slant
// headstone has its front cut back so the top keeps SlantRatio of the
// thickness.
func headstone(k kernel.Kernel, w, h, t float64, st *design.State) (kernel.Solid, error) {
	body, err := k.Box(w, h, t)
	if err != nil {
		return nil, err
	}
	if st.HeadstoneStyle() != design.StyleSlant {
		return body, nil
	}
	a := slope(h, t, st.SlantRatio())
	if a == 0 {
		return body, nil
	}

	size := 4 * (h + t)
	cutter, err := k.Box(w+20, size, size)
	if err != nil {
		return nil, err
	}
	n := math.Hypot(a, 1)
	tilt := -math.Atan(a) * 180 / math.Pi
	// Put the cutter's back face through the bottom front edge (0, -h/2, t/2).
	cx := 0.0
	cy := -h/2 + size/2*a/n
	cz := t/2 + size/2/n
	cutter = k.Translate(k.Rotate(cutter, tilt, 0, 0), cx, cy, cz)
	return k.Difference(body, cutter), nil
}

func element(st *design.State, k kernel.Kernel, kind placement.Kind, id string, faces map[placement.Surface]surface) (Part, bool, error) {
	o, _ := st.Offset(kind, id)
	if o.TargetSurface == placement.SurfaceBase && !st.ShowBase() {
		return Part{}, false, nil
	}
	b, err := st.Bounds(kind, id)
	if err != nil {
		return Part{}, false, err
	}
	ew, eh := b.ElementWidth*o.Scale, b.ElementHeight*o.Scale
	if ew <= 0 || eh <= 0 {
		return Part{}, false, nil
	}

	var (
		solid kernel.Solid
		depth float64
	)
	switch kind {
	case placement.KindAddition:
		// Additions stand proud of the face as upright cylinders.
		depth = ew
		solid, err = k.Cylinder(eh, ew/2)
		if err == nil {
			solid = k.Rotate(solid, 90, 0, 0)
		}
	case placement.KindImage:
		depth = imageDepthMm
		solid, err = k.Box(ew, eh, depth)
	default:
		depth = reliefDepthMm
		solid, err = k.Box(ew, eh, depth)
	}
	if err != nil {
		return Part{}, false, err
	}

	sf, ok := faces[o.TargetSurface]
	if !ok {
		sf = faces[placement.SurfaceHeadstone]
	}
	x, y := placement.Absolute(o, b)
	z := sf.faceZ(y) + depth/2
	if o.ZPos != nil {
		z += *o.ZPos
	}

	if o.RotationZ != 0 {
		solid = k.Rotate(solid, 0, 0, o.RotationZ)
	}
	if tilt := sf.tilt(); tilt != 0 {
		solid = k.Rotate(solid, tilt, 0, 0)
	}
	return Part{Name: kind.String(), ElementID: id, Solid: k.Translate(solid, x, sf.centreY+y, z)}, true, nil
}
