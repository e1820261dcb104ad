// Package surface builds height-mapped meshes from scalar grids and owns the live surface.
package surface

import (
	"github.com/Faultbox/rfsurface/internal/grid"
	"github.com/Faultbox/rfsurface/pkg/math"
)

// HeightScale maps a normalised value to world height. Picks divide by it.
const HeightScale = 0.6

// Vertex is one surface vertex ready for GPU upload.
type Vertex struct {
	Position [3]float32 `json:"position"`
	Normal   [3]float32 `json:"normal"`
	UV       [2]float32 `json:"uv"`
	Color    [4]float32 `json:"color"`
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min [3]float32 `json:"min"`
	Max [3]float32 `json:"max"`
}

// Mesh is a unit-footprint plane of (W-1)x(H-1) quads centred on the origin.
type Mesh struct {
	Dims     grid.Dimensions `json:"dims"`
	Vertices []Vertex        `json:"vertices"`
	Indices  []uint32        `json:"indices"`
	Bounds   Bounds          `json:"bounds"`
}

// TriangleCount returns the number of triangles in the mesh.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Triangle returns the vertex positions of triangle i.
func (m *Mesh) Triangle(i int) (a, b, c math.Vec3) {
	return vec(m.Vertices[m.Indices[3*i]].Position),
		vec(m.Vertices[m.Indices[3*i+1]].Position),
		vec(m.Vertices[m.Indices[3*i+2]].Position)
}

// VertexAt returns the vertex for grid cell (x, z).
func (m *Mesh) VertexAt(x, z int) Vertex {
	return m.Vertices[z*m.Dims.Width+x]
}

func vec(p [3]float32) math.Vec3 {
	return math.Vec3{X: p[0], Y: p[1], Z: p[2]}
}

func arr(v math.Vec3) [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

func emptyBounds() Bounds {
	return Bounds{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}
}

func (b *Bounds) extend(p [3]float32) {
	for i := range 3 {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
}
