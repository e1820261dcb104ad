package math

import (
	"math"
	"testing"
)

func identity() Mat4 {
	var id Mat4
	id[0], id[5], id[10], id[15] = 1, 1, 1, 1
	return id
}

func TestMulIdentity(t *testing.T) {
	m := LookAt(Vec3{1, 2, 3}, Vec3{}, Vec3{Y: 1})
	if got := m.Mul(identity()); got != m {
		t.Errorf("M * I should equal M: got %v", got)
	}
	if got := identity().Mul(m); got != m {
		t.Errorf("I * M should equal M: got %v", got)
	}
}

func TestMulOrder(t *testing.T) {
	// Column-major translation by (10,20,30) and uniform scale by 2.
	translate := identity()
	translate[12], translate[13], translate[14] = 10, 20, 30
	scale := identity()
	scale[0], scale[5], scale[10] = 2, 2, 2

	got := translate.Mul(scale).MulVec4(Vec4{1, 2, 3, 1})
	want := Vec4{12, 24, 36, 1}
	if got != want {
		t.Errorf("translate*scale applied to point = %v, want %v", got, want)
	}
}

func TestPerspective(t *testing.T) {
	m := Perspective(Radians(60), 1, 0.1, 200)
	if m[15] != 0 {
		t.Errorf("Perspective [15] should be 0, got %f", m[15])
	}
	if m[11] != -1 {
		t.Errorf("Perspective [11] should be -1, got %f", m[11])
	}
	want := float32(1 / math.Tan(math.Pi/6))
	if abs(m[5]-want) > 1e-5 {
		t.Errorf("Perspective focal length: got %f, want %f", m[5], want)
	}

	// The near plane maps to NDC z = -1.
	clip := m.MulVec4(Vec4{0, 0, -0.1, 1})
	if abs(clip[2]/clip[3]+1) > 1e-4 {
		t.Errorf("near plane z = %f, want -1", clip[2]/clip[3])
	}
}

func TestLookAtMovesEyeToOrigin(t *testing.T) {
	eye := Vec3{1.5, 1.2, 1.5}
	view := LookAt(eye, Vec3{}, Vec3{Y: 1})
	got := view.MulVec4(Vec4{eye.X, eye.Y, eye.Z, 1})
	for i := range 3 {
		if abs(got[i]) > 1e-5 {
			t.Fatalf("eye in view space = %v, want origin", got)
		}
	}
	// The target lies straight ahead on -Z.
	ahead := view.MulVec4(Vec4{0, 0, 0, 1})
	if abs(ahead[0]) > 1e-5 || abs(ahead[1]) > 1e-5 || ahead[2] >= 0 {
		t.Errorf("target in view space = %v, want on -Z", ahead)
	}
}

func TestInverse(t *testing.T) {
	view := LookAt(Vec3{1.5, 1.2, 1.5}, Vec3{}, Vec3{Y: 1})
	vp := Perspective(Radians(60), 1.5, 0.1, 200).Mul(view)
	got := vp.Mul(vp.Inverse())

	id := identity()
	for i := range got {
		if abs(got[i]-id[i]) > 1e-4 {
			t.Fatalf("M * M^-1 element %d = %f, want %f", i, got[i], id[i])
		}
	}
}

func TestInverseSingular(t *testing.T) {
	var zero Mat4
	if got := zero.Inverse(); got != identity() {
		t.Errorf("singular inverse = %v, want identity", got)
	}
}

func TestVec3Cross(t *testing.T) {
	got := Vec3{1, 0, 0}.Cross(Vec3{0, 1, 0})
	if want := (Vec3{0, 0, 1}); got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
	if n := (Vec3{3, 0, 4}).Normalize(); abs(n.Length()-1) > 1e-6 {
		t.Errorf("Normalize length = %f", n.Length())
	}
	if (Vec3{}).Normalize() != (Vec3{}) {
		t.Error("zero vector should normalise to zero")
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
