// Package lighting describes the ambient plus directional light applied to the surface.
package lighting

import (
	stdmath "math"

	"github.com/Faultbox/rfsurface/pkg/math"
)

// Light is a single directional light with an ambient floor.
// The fragment shader computes color * min(1, Ambient + Directional*max(0, n.L)).
type Light struct {
	// Position is where the light sits; it shines toward the origin.
	Position    math.Vec3
	Ambient     float32
	Directional float32
}

// Angles of Default's position (2,3,2) seen from the origin, in degrees.
const (
	DefaultAzimuth   = 45
	DefaultElevation = 46.686
)

// Default returns the light used by the viewer.
func Default() Light {
	return Light{
		Position:    math.Vec3{X: 2, Y: 3, Z: 2},
		Ambient:     0.4,
		Directional: 1.2,
	}
}

// FromAngles places a unit-distance light at the given azimuth (degrees around +Y,
// 0 along +Z) and elevation (degrees above the XZ plane).
func FromAngles(azimuth, elevation float64, ambient, directional float32) Light {
	az := azimuth * stdmath.Pi / 180
	el := elevation * stdmath.Pi / 180
	return Light{
		Position: math.Vec3{
			X: float32(stdmath.Cos(el) * stdmath.Sin(az)),
			Y: float32(stdmath.Sin(el)),
			Z: float32(stdmath.Cos(el) * stdmath.Cos(az)),
		},
		Ambient:     ambient,
		Directional: directional,
	}
}

// Direction is the unit vector from the origin toward the light.
func (l Light) Direction() math.Vec3 {
	return l.Position.Normalize()
}

// Intensity is the brightness factor for a surface with unit normal n.
func (l Light) Intensity(n math.Vec3) float32 {
	diffuse := max(n.Dot(l.Direction()), 0)
	return min(l.Ambient+l.Directional*diffuse, 1)
}
