// Package debug provides helper geometry and screenshot capture for the viewer.
package debug

// LineVertex is one endpoint of a coloured line segment.
type LineVertex struct {
	Position [3]float32
	Color    [3]float32
}

// LineFloats is the number of float32 values per LineVertex.
const LineFloats = 6

// Axis colours.
var (
	AxisXColor = [3]float32{0.9, 0.25, 0.25}
	AxisYColor = [3]float32{0.25, 0.9, 0.25}
	AxisZColor = [3]float32{0.3, 0.45, 1}
	TickColor  = [3]float32{0.8, 0.8, 0.8}
	BoxColor   = [3]float32{0.45, 0.5, 0.55}
)

// Axes returns three segments of the given length from the origin along +X, +Y and +Z.
func Axes(length float32) []LineVertex {
	return []LineVertex{
		{[3]float32{0, 0, 0}, AxisXColor}, {[3]float32{length, 0, 0}, AxisXColor},
		{[3]float32{0, 0, 0}, AxisYColor}, {[3]float32{0, length, 0}, AxisYColor},
		{[3]float32{0, 0, 0}, AxisZColor}, {[3]float32{0, 0, length}, AxisZColor},
	}
}

// Ticks marks the surface footprint edges at every 1/divisions step.
// X ticks run along the front edge (z = +0.5), Z ticks along the left edge (x = -0.5),
// and height ticks up the back-left corner to maxHeight.
func Ticks(divisions int, size, maxHeight float32) []LineVertex {
	if divisions < 1 {
		return nil
	}
	out := make([]LineVertex, 0, 6*(divisions+1))
	for i := range divisions + 1 {
		f := float32(i) / float32(divisions)
		p := f - 0.5
		out = append(out,
			LineVertex{[3]float32{p, 0, 0.5}, TickColor},
			LineVertex{[3]float32{p, 0, 0.5 + size}, TickColor},
			LineVertex{[3]float32{-0.5, 0, p}, TickColor},
			LineVertex{[3]float32{-0.5 - size, 0, p}, TickColor},
			LineVertex{[3]float32{-0.5, f * maxHeight, -0.5}, TickColor},
			LineVertex{[3]float32{-0.5 - size, f * maxHeight, -0.5}, TickColor},
		)
	}
	return out
}

// Box returns the 12 edges of an axis-aligned box.
func Box(lo, hi [3]float32) []LineVertex {
	c := func(x, y, z float32) LineVertex {
		return LineVertex{[3]float32{x, y, z}, BoxColor}
	}
	x0, y0, z0 := lo[0], lo[1], lo[2]
	x1, y1, z1 := hi[0], hi[1], hi[2]
	return []LineVertex{
		c(x0, y0, z0), c(x1, y0, z0),
		c(x1, y0, z0), c(x1, y0, z1),
		c(x1, y0, z1), c(x0, y0, z1),
		c(x0, y0, z1), c(x0, y0, z0),
		c(x0, y1, z0), c(x1, y1, z0),
		c(x1, y1, z0), c(x1, y1, z1),
		c(x1, y1, z1), c(x0, y1, z1),
		c(x0, y1, z1), c(x0, y1, z0),
		c(x0, y0, z0), c(x0, y1, z0),
		c(x1, y0, z0), c(x1, y1, z0),
		c(x1, y0, z1), c(x1, y1, z1),
		c(x0, y0, z1), c(x0, y1, z1),
	}
}

// Flatten interleaves vertices as position then colour, ready for a vertex buffer.
func Flatten(lines []LineVertex) []float32 {
	out := make([]float32, 0, len(lines)*LineFloats)
	for _, v := range lines {
		out = append(out, v.Position[:]...)
		out = append(out, v.Color[:]...)
	}
	return out
}
