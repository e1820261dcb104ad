package picking

import (
	"github.com/Faultbox/rfsurface/internal/surface"
	"github.com/Faultbox/rfsurface/pkg/math"
)

// Barycentric tolerance so hits exactly on shared edges are not lost.
const edgeEpsilon = 1e-6

// Hit is the nearest intersection of a ray with a mesh.
type Hit struct {
	Point    math.Vec3  `json:"point"`
	UV       [2]float32 `json:"uv"`
	Distance float32    `json:"distance"`
	Triangle int        `json:"triangle"`
}

// IntersectTriangle runs the Moller-Trumbore test. u and v weight b and c.
func (r Ray) IntersectTriangle(a, b, c math.Vec3) (t, u, v float32, ok bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if det > -1e-12 && det < 1e-12 {
		return 0, 0, 0, false
	}
	inv := 1 / det

	s := r.Origin.Sub(a)
	u = s.Dot(p) * inv
	if u < -edgeEpsilon || u > 1+edgeEpsilon {
		return 0, 0, 0, false
	}
	q := s.Cross(e1)
	v = r.Direction.Dot(q) * inv
	if v < -edgeEpsilon || u+v > 1+edgeEpsilon {
		return 0, 0, 0, false
	}
	t = e2.Dot(q) * inv
	if t < 0 {
		return 0, 0, 0, false
	}
	return t, u, v, true
}

// IntersectMesh returns the nearest hit of r with m. Both faces of each triangle are tested.
func IntersectMesh(r Ray, m *surface.Mesh) (Hit, bool) {
	if m == nil || len(m.Indices) == 0 {
		return Hit{}, false
	}
	if _, ok := r.IntersectBounds(m.Bounds); !ok {
		return Hit{}, false
	}

	best := Hit{Triangle: -1}
	for i := range m.TriangleCount() {
		a, b, c := m.Triangle(i)
		t, u, v, ok := r.IntersectTriangle(a, b, c)
		if !ok || (best.Triangle >= 0 && t >= best.Distance) {
			continue
		}
		ua := m.Vertices[m.Indices[3*i]].UV
		ub := m.Vertices[m.Indices[3*i+1]].UV
		uc := m.Vertices[m.Indices[3*i+2]].UV
		w := 1 - u - v
		best = Hit{
			Point:    r.At(t),
			Distance: t,
			Triangle: i,
			UV: [2]float32{
				w*ua[0] + u*ub[0] + v*uc[0],
				w*ua[1] + u*ub[1] + v*uc[1],
			},
		}
	}
	return best, best.Triangle >= 0
}
