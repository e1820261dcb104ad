package surface

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Hue ramp constants. Value 0 maps to blue, value 1 towards red.
const (
	BaseHue = 0.65
	HueSpan = 0.6
)

// Hue returns the hue in turns for a normalised value.
func Hue(v float32) float64 {
	return BaseHue - float64(v)*HueSpan
}

// Color returns the RGBA vertex colour for v at full saturation and half lightness.
func Color(v float32) [4]float32 {
	c := colorful.Hsl(Hue(v)*360, 1, 0.5).Clamped()
	return [4]float32{float32(c.R), float32(c.G), float32(c.B), 1}
}
