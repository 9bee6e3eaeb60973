// Package kernel defines the geometry kernel the preview builder draws
// memorial parts with. Solids are centred on the origin; the preview places
// them with Translate and Rotate.
package kernel

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel builds and tessellates solids. All lengths are millimetres.
type Kernel interface {
	// Box returns a box of the given size centred on the origin.
	Box(x, y, z float64) (Solid, error)
	// Cylinder returns a cylinder along Z centred on the origin.
	Cylinder(height, radius float64) (Solid, error)

	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid

	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	ToMesh(s Solid) (*Mesh, error)
}
