package math

import "math"

// Mat4 is a column-major 4x4 matrix, the layout glUniformMatrix4fv expects
// with transpose=false. Element (row r, col c) lives at index c*4+r.
type Mat4 [16]float32

// at returns the element at row r, column c.
func (m Mat4) at(r, c int) float32 {
	return m[c*4+r]
}

// Perspective builds an OpenGL clip-space projection. fovY is in radians.
func Perspective(fovY, aspect, near, far float32) Mat4 {
	var m Mat4
	f := float32(1 / math.Tan(float64(fovY)/2))
	depth := near - far
	m[0] = f / aspect
	m[5] = f
	m[10] = (far + near) / depth
	m[11] = -1
	m[14] = 2 * far * near / depth
	return m
}

// LookAt builds a right-handed view matrix for a camera at eye facing center.
func LookAt(eye, center, up Vec3) Mat4 {
	fwd := center.Sub(eye).Normalize()
	right := fwd.Cross(up).Normalize()
	camUp := right.Cross(fwd)

	var m Mat4
	for i, axis := range [3]Vec3{right, camUp, fwd.Scale(-1)} {
		m[0*4+i] = axis.X
		m[1*4+i] = axis.Y
		m[2*4+i] = axis.Z
		m[3*4+i] = -axis.Dot(eye)
	}
	m[15] = 1
	return m
}

// Mul returns m * other, so other is applied first.
func (m Mat4) Mul(other Mat4) Mat4 {
	var out Mat4
	for c := range 4 {
		for r := range 4 {
			var sum float32
			for k := range 4 {
				sum += m.at(r, k) * other.at(k, c)
			}
			out[c*4+r] = sum
		}
	}
	return out
}

// MulVec4 returns m * v.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	var out Vec4
	for r := range 4 {
		out[r] = m.at(r, 0)*v[0] + m.at(r, 1)*v[1] + m.at(r, 2)*v[2] + m.at(r, 3)*v[3]
	}
	return out
}

// Ptr returns the address of the first element for GL uniform uploads.
func (m *Mat4) Ptr() *float32 {
	return &m[0]
}

// Inverse inverts m by Gauss-Jordan elimination with partial pivoting in
// float64. A singular matrix yields the identity.
func (m Mat4) Inverse() Mat4 {
	var a, inv [4][4]float64
	for r := range 4 {
		for c := range 4 {
			a[r][c] = float64(m.at(r, c))
		}
		inv[r][r] = 1
	}

	for col := range 4 {
		pivot := col
		for r := col + 1; r < 4; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			var id Mat4
			id[0], id[5], id[10], id[15] = 1, 1, 1, 1
			return id
		}
		a[col], a[pivot] = a[pivot], a[col]
		inv[col], inv[pivot] = inv[pivot], inv[col]

		scale := 1 / a[col][col]
		for c := range 4 {
			a[col][c] *= scale
			inv[col][c] *= scale
		}
		for r := range 4 {
			if r == col || a[r][col] == 0 {
				continue
			}
			k := a[r][col]
			for c := range 4 {
				a[r][c] -= k * a[col][c]
				inv[r][c] -= k * inv[col][c]
			}
		}
	}

	var out Mat4
	for r := range 4 {
		for c := range 4 {
			out[c*4+r] = float32(inv[r][c])
		}
	}
	return out
}
