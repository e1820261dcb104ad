package picking

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/rfsurface/internal/grid"
	"github.com/Faultbox/rfsurface/internal/surface"
)

// Placeholder is the readout text when nothing is under the pointer.
const Placeholder = "hover the surface to inspect"

// indexEpsilon absorbs float error when a hit lands exactly on a vertex.
const indexEpsilon = 1e-4

// Readout is the data under the pointer. The zero value means no data.
type Readout struct {
	Valid bool         `json:"valid"`
	Mode  surface.Mode `json:"mode"`
	X     int          `json:"freq_bin"`
	Z     int          `json:"row"`
	Value float32      `json:"power"`
}

func (r Readout) String() string {
	if !r.Valid {
		return Placeholder
	}
	switch r.Mode {
	case surface.ModeMulti:
		return fmt.Sprintf("freq_bin=%d image=%d power=%.3f", r.X, r.Z, r.Value)
	default:
		return fmt.Sprintf("freq_bin=%d time_row=%d power=%.3f", r.X, r.Z, r.Value)
	}
}

// Invert maps a hit back to grid coordinates and the estimated value.
func Invert(hit Hit, layout surface.Layout) Readout {
	var dims grid.Dimensions
	switch l := layout.(type) {
	case surface.SingleLayout:
		dims = l.Dims()
	case surface.MultiLayout:
		dims = l.Dims()
	default:
		return Readout{}
	}

	return Readout{
		Valid: true,
		Mode:  layout.Mode(),
		X:     cellIndex(hit.UV[0], dims.Width),
		Z:     cellIndex(1-hit.UV[1], dims.Height),
		Value: grid.Clamp01(hit.Point.Y / surface.HeightScale),
	}
}

func cellIndex(f float32, n int) int {
	i := int(gomath.Floor(float64(f)*float64(n-1) + indexEpsilon))
	return max(0, min(n-1, i))
}

// Pick intersects r with s and inverts the hit. A miss returns the zero Readout.
func Pick(r Ray, s *surface.Surface) Readout {
	if s == nil {
		return Readout{}
	}
	hit, ok := IntersectMesh(r, s.Mesh)
	if !ok {
		return Readout{}
	}
	return Invert(hit, s.Layout)
}
