package math

import (
	"math"
	"testing"
)

func rotation(axis Vec3, angle float64) Mat4 {
	return QuatFromAxisAngle(axis, angle).ToMat4()
}

func TestIdentity(t *testing.T) {
	m := Identity()
	// Diagonal should be 1
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	// Off-diagonal should be 0
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTransformVec3(t *testing.T) {
	m := Translate(10, 20, 30)
	got := m.TransformVec3(Vec3{1, 2, 3})
	want := Vec3{11, 22, 33}
	if got != want {
		t.Errorf("TransformVec3: got %v, want %v", got, want)
	}

	got = Scale(2, 2, 2).TransformVec3(Vec3{1, 2, 3})
	want = Vec3{2, 4, 6}
	if got != want {
		t.Errorf("TransformVec3 with scale: got %v, want %v", got, want)
	}
}

func TestRotationY90(t *testing.T) {
	m := rotation(Vec3{0, 1, 0}, math.Pi/2)
	result := m.TransformVec3(Vec3{1, 0, 0})

	// After 90 degree Y rotation, (1,0,0) should become approximately (0,0,-1)
	if math.Abs(result.X) > 1e-9 || math.Abs(result.Z+1) > 1e-9 {
		t.Errorf("rotation Y 90: got %v, want (0,0,-1)", result)
	}
}

func TestTransformDirectionIgnoresTranslation(t *testing.T) {
	m := Translate(5, 5, 5).Mul(rotation(Vec3{0, 0, 1}, math.Pi/2))
	got := m.TransformDirection(Vec3{1, 0, 0})
	if math.Abs(got.X) > 1e-9 || math.Abs(got.Y-1) > 1e-9 || math.Abs(got.Z) > 1e-9 {
		t.Errorf("TransformDirection: got %v, want (0,1,0)", got)
	}
}

func TestInverse(t *testing.T) {
	m := Translate(1, -2, 3).Mul(rotation(Vec3{1, 0, 0}, 0.4)).Mul(Scale(2, 3, 4))
	inv, ok := m.Inverse()
	if !ok {
		t.Fatal("Inverse reported singular matrix")
	}
	p := m.Mul(inv)
	id := Identity()
	for i := 0; i < 16; i++ {
		if math.Abs(p[i]-id[i]) > 1e-9 {
			t.Errorf("M * M^-1 element %d: got %f, want %f", i, p[i], id[i])
		}
	}

	if _, ok := Scale(1, 0, 1).Inverse(); ok {
		t.Error("Inverse of singular matrix should report false")
	}
}
