// Package picking casts pointer rays into the live surface and recovers grid coordinates.
package picking

import (
	gomath "math"

	"github.com/Faultbox/rfsurface/internal/surface"
	"github.com/Faultbox/rfsurface/pkg/math"
)

// Ray is a half-line with a normalised direction.
type Ray struct {
	Origin    math.Vec3 `json:"origin"`
	Direction math.Vec3 `json:"direction"`
}

// NewRay builds a ray from array coordinates, normalising the direction.
func NewRay(origin, direction [3]float32) Ray {
	return Ray{
		Origin:    math.Vec3{X: origin[0], Y: origin[1], Z: origin[2]},
		Direction: math.Vec3{X: direction[0], Y: direction[1], Z: direction[2]}.Normalize(),
	}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// NDC converts pixel coordinates to normalised device coordinates, Y up.
func NDC(screenX, screenY, viewportW, viewportH float32) (x, y float32) {
	return 2*screenX/viewportW - 1, 1 - 2*screenY/viewportH
}

// ScreenToRay unprojects a pixel position through the inverse view-projection matrix.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj math.Mat4) Ray {
	ndcX, ndcY := NDC(screenX, screenY, viewportW, viewportH)
	return NDCToRay(ndcX, ndcY, invViewProj)
}

// NDCToRay unprojects an NDC position onto the near and far planes.
func NDCToRay(ndcX, ndcY float32, invViewProj math.Mat4) Ray {
	near := unproject(invViewProj, math.Vec4{ndcX, ndcY, -1, 1})
	far := unproject(invViewProj, math.Vec4{ndcX, ndcY, 1, 1})
	return Ray{Origin: near, Direction: far.Sub(near).Normalize()}
}

func unproject(inv math.Mat4, p math.Vec4) math.Vec3 {
	w := inv.MulVec4(p)
	if w[3] != 0 {
		w[0] /= w[3]
		w[1] /= w[3]
		w[2] /= w[3]
	}
	return math.Vec3{X: w[0], Y: w[1], Z: w[2]}
}

// IntersectBounds runs the slab test against b.
// A ray starting inside the box reports the exit distance.
func (r Ray) IntersectBounds(b surface.Bounds) (t float32, hit bool) {
	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)
	origin := [3]float32{r.Origin.X, r.Origin.Y, r.Origin.Z}
	dir := [3]float32{r.Direction.X, r.Direction.Y, r.Direction.Z}

	for i := range 3 {
		if dir[i] == 0 {
			if origin[i] < b.Min[i] || origin[i] > b.Max[i] {
				return 0, false
			}
			continue
		}
		t1 := (b.Min[i] - origin[i]) / dir[i]
		t2 := (b.Max[i] - origin[i]) / dir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}
