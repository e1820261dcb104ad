package surface

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Faultbox/rfsurface/internal/grid"
	"github.com/Faultbox/rfsurface/pkg/math"
)

// ErrDegenerateGrid is returned when a grid has fewer than two cells along an axis.
var ErrDegenerateGrid = errors.New("grid needs at least 2x2 cells")

// Build creates the surface mesh for g. Vertex i sits at cell (i mod W, i / W).
func Build(g grid.Grid) (*Mesh, error) {
	w, h := g.Dims.Width, g.Dims.Height
	if w < 2 || h < 2 {
		return nil, fmt.Errorf("%w: got %s", ErrDegenerateGrid, g.Dims)
	}
	if len(g.Values) != g.Dims.Len() {
		return nil, fmt.Errorf("%w: %s", grid.ErrLengthMismatch, g.Dims)
	}

	vertices := make([]Vertex, w*h)
	bounds := emptyBounds()
	fw, fh := float32(w-1), float32(h-1)

	for i := range vertices {
		x, z := i%w, i/w
		v := grid.Clamp01(g.Values[i])
		u, t := float32(x)/fw, float32(z)/fh

		vertices[i] = Vertex{
			Position: [3]float32{u - 0.5, v * HeightScale, t - 0.5},
			UV:       [2]float32{u, 1 - t},
			Color:    Color(v),
		}
		bounds.extend(vertices[i].Position)
	}

	indices := make([]uint32, 0, (w-1)*(h-1)*6)
	for z := range h - 1 {
		for x := range w - 1 {
			a := uint32(x + w*z)
			b := uint32(x + w*(z+1))
			c := uint32(x + 1 + w*(z+1))
			d := uint32(x + 1 + w*z)
			indices = append(indices, a, b, d, b, c, d)
		}
	}

	mesh := &Mesh{
		Dims:     g.Dims,
		Vertices: vertices,
		Indices:  indices,
		Bounds:   bounds,
	}
	SmoothNormals(mesh)
	return mesh, nil
}

// SmoothNormals recomputes per-vertex normals from final positions.
// Each vertex gets the normalised sum of its adjacent face normals, weighted by face area.
func SmoothNormals(m *Mesh) {
	acc := make([]math.Vec3, len(m.Vertices))
	for i := range m.TriangleCount() {
		ia, ib, ic := m.Indices[3*i], m.Indices[3*i+1], m.Indices[3*i+2]
		a, b, c := m.Triangle(i)
		n := b.Sub(a).Cross(c.Sub(a))
		acc[ia] = acc[ia].Add(n)
		acc[ib] = acc[ib].Add(n)
		acc[ic] = acc[ic].Add(n)
	}
	for i, n := range acc {
		n = n.Normalize()
		if n == (math.Vec3{}) {
			n = math.Vec3{Y: 1}
		}
		m.Vertices[i].Normal = arr(n)
	}
}

// Surface is a built mesh bundled with the layout needed to invert picks.
type Surface struct {
	ID      uuid.UUID    `json:"id"`
	Mesh    *Mesh        `json:"mesh"`
	Layout  Layout       `json:"-"`
	Grid    grid.Grid    `json:"-"`
	Stats   grid.Summary `json:"stats"`
	BuiltAt time.Time    `json:"built_at"`
}

func newSurface(mesh *Mesh, layout Layout, sampled grid.Grid) *Surface {
	return &Surface{
		ID:      uuid.New(),
		Mesh:    mesh,
		Layout:  layout,
		Grid:    sampled,
		Stats:   grid.Summarize(sampled),
		BuiltAt: time.Now(),
	}
}

// BuildSingle samples g by ds and builds a single-image surface.
func BuildSingle(g grid.Grid, ds int) (*Surface, error) {
	ds = max(1, ds)
	sampled := grid.Sample(g, ds)
	mesh, err := Build(sampled)
	if err != nil {
		return nil, err
	}
	layout := SingleLayout{Width: g.Dims.Width, Height: g.Dims.Height, Downsample: ds}
	return newSurface(mesh, layout, sampled), nil
}

// BuildMulti builds a time-series surface with one row per stack entry.
// No downsampling is applied.
func BuildMulti(stack *grid.Stack) (*Surface, error) {
	g := stack.Grid()
	mesh, err := Build(g)
	if err != nil {
		return nil, fmt.Errorf("multi mode: %w", err)
	}
	layout := MultiLayout{Width: stack.Width, Time: stack.Len()}
	return newSurface(mesh, layout, g), nil
}
