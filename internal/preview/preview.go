// Package preview renders scalar grids as heatmap images.
package preview

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Faultbox/rfsurface/internal/grid"
	"github.com/Faultbox/rfsurface/internal/surface"
)

// Options control the rendered figure.
type Options struct {
	Title  string
	XLabel string
	YLabel string
	Width  vg.Length
	Height vg.Length
}

// DefaultOptions labels the axes the way the surface is laid out.
func DefaultOptions() Options {
	return Options{
		Title:  "power",
		XLabel: "freq bin",
		YLabel: "time",
		Width:  8 * vg.Inch,
		Height: 5 * vg.Inch,
	}
}

// gridXYZ adapts a grid to plotter.GridXYZ. Row z is plotted at Y = z.
type gridXYZ struct {
	g grid.Grid
}

func (g gridXYZ) Dims() (c, r int)   { return g.g.Dims.Width, g.g.Dims.Height }
func (g gridXYZ) Z(c, r int) float64 { return float64(g.g.At(c, r)) }
func (g gridXYZ) X(c int) float64    { return float64(c) }
func (g gridXYZ) Y(r int) float64    { return float64(r) }

// ramp is the surface hue ramp sampled into n colours.
type ramp []color.Color

func (r ramp) Colors() []color.Color { return r }

func newRamp(n int) ramp {
	colors := make(ramp, n)
	for i := range colors {
		c := surface.Color(float32(i) / float32(n-1))
		colors[i] = color.NRGBA{
			R: uint8(c[0]*255 + 0.5),
			G: uint8(c[1]*255 + 0.5),
			B: uint8(c[2]*255 + 0.5),
			A: 255,
		}
	}
	return colors
}

// Plot builds a heatmap of g coloured with the surface hue ramp.
func Plot(g grid.Grid, opts Options) (*plot.Plot, error) {
	if !g.Dims.Valid() || len(g.Values) != g.Dims.Len() {
		return nil, fmt.Errorf("preview: %w: %s", grid.ErrInvalidDimensions, g.Dims)
	}
	if g.Dims.Width < grid.MinSampledExtent || g.Dims.Height < grid.MinSampledExtent {
		g = grid.Sample(g, 1)
	}

	hm := plotter.NewHeatMap(gridXYZ{g}, newRamp(256))
	hm.Min, hm.Max = 0, 1

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel
	p.Add(hm)
	return p, nil
}

// WritePNG renders g as PNG into w.
func WritePNG(w io.Writer, g grid.Grid, opts Options) error {
	p, err := Plot(g, opts)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(opts.Width, opts.Height, "png")
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("preview: writing png: %w", err)
	}
	return nil
}

// SavePNG renders g into a PNG file.
func SavePNG(path string, g grid.Grid, opts Options) error {
	p, err := Plot(g, opts)
	if err != nil {
		return err
	}
	if err := p.Save(opts.Width, opts.Height, path); err != nil {
		return fmt.Errorf("preview: saving %s: %w", path, err)
	}
	return nil
}
