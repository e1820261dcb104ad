// Package camera provides the orbit camera used to inspect surfaces.
package camera

import (
	gomath "math"

	"github.com/Faultbox/rfsurface/pkg/math"
)

// Projection defaults.
const (
	DefaultFOV  = 60
	DefaultNear = 0.1
	DefaultFar  = 200
)

// DefaultEye is the initial camera position, looking at the origin.
var DefaultEye = math.Vec3{X: 1.5, Y: 1.2, Z: 1.5}

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	// Center point to orbit around
	Center math.Vec3

	// Spherical coordinates
	Distance  float32
	RotationX float32 // Pitch (radians)
	RotationY float32 // Yaw (radians)

	FOV       float32 // Vertical field of view in degrees
	Near, Far float32

	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	DragSensitivity float32
	ZoomSensitivity float32
	PanSensitivity  float32
}

// NewOrbitCamera creates a camera at DefaultEye looking at the origin.
func NewOrbitCamera(fov float32) *OrbitCamera {
	if fov <= 0 {
		fov = DefaultFOV
	}
	c := &OrbitCamera{
		FOV:             fov,
		Near:            DefaultNear,
		Far:             DefaultFar,
		MinDistance:     0.3,
		MaxDistance:     20,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		PanSensitivity:  0.002,
	}
	c.LookFrom(DefaultEye)
	return c
}

// LookFrom places the camera at eye, keeping the current center.
func (c *OrbitCamera) LookFrom(eye math.Vec3) {
	d := eye.Sub(c.Center)
	c.Distance = d.Length()
	if c.Distance == 0 {
		return
	}
	c.RotationX = float32(gomath.Asin(float64(d.Y / c.Distance)))
	c.RotationY = float32(gomath.Atan2(float64(d.X), float64(d.Z)))
}

// Reset restores the initial view.
func (c *OrbitCamera) Reset() {
	c.Center = math.Vec3{}
	c.LookFrom(DefaultEye)
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	pitch, yaw := float64(c.RotationX), float64(c.RotationY)
	return c.Center.Add(math.Vec3{
		X: c.Distance * float32(gomath.Cos(pitch)*gomath.Sin(yaw)),
		Y: c.Distance * float32(gomath.Sin(pitch)),
		Z: c.Distance * float32(gomath.Cos(pitch)*gomath.Cos(yaw)),
	})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{Y: 1})
}

// ProjectionMatrix returns the perspective projection for the given aspect ratio.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) math.Mat4 {
	return math.Perspective(math.Radians(c.FOV), aspect, c.Near, c.Far)
}

// ViewProjection returns projection * view.
func (c *OrbitCamera) ViewProjection(aspect float32) math.Mat4 {
	return c.ProjectionMatrix(aspect).Mul(c.ViewMatrix())
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX += deltaY * c.DragSensitivity
	c.RotationX = max(c.MinPitch, min(c.MaxPitch, c.RotationX))
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = max(c.MinDistance, min(c.MaxDistance, c.Distance))
}

// HandlePan moves the center in the camera's ground plane.
func (c *OrbitCamera) HandlePan(deltaX, deltaY float32) {
	speed := c.Distance * c.PanSensitivity
	yaw := float64(c.RotationY)
	right := math.Vec3{X: float32(gomath.Cos(yaw)), Z: float32(-gomath.Sin(yaw))}
	forward := math.Vec3{X: float32(-gomath.Sin(yaw)), Z: float32(-gomath.Cos(yaw))}
	c.Center = c.Center.Add(right.Scale(-deltaX * speed)).Add(forward.Scale(deltaY * speed))
}
