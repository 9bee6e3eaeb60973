package kernel

import "math"

// Mesh is a triangle mesh for the external renderer. Vertices and Normals
// hold 3 floats per vertex, Indices 3 per triangle.
type Mesh struct {
	Vertices  []float32 `json:"vertices"`
	Normals   []float32 `json:"normals"`
	Indices   []uint32  `json:"indices"`
	Part      string    `json:"part"`                // headstone, base, addition, motif, image, inscription
	ElementID string    `json:"elementId,omitempty"` // set for placed elements
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty reports whether the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Bounds returns the axis-aligned bounds of the vertices. An empty mesh
// returns zero bounds.
func (m *Mesh) Bounds() (min, max [3]float64) {
	if m.IsEmpty() {
		return min, max
	}
	for i := range 3 {
		min[i], max[i] = math.Inf(1), math.Inf(-1)
	}
	for i := 0; i+2 < len(m.Vertices); i += 3 {
		for axis := range 3 {
			v := float64(m.Vertices[i+axis])
			min[axis] = math.Min(min[axis], v)
			max[axis] = math.Max(max[axis], v)
		}
	}
	return min, max
}
