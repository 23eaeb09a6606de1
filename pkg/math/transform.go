package math

import "math"

// Transform is an object placement: scale, then rotate, then translate.
type Transform struct {
	Location Vec3
	Rotation Quat
	Scale    Vec3
}

// IdentityTransform returns a transform that leaves points in place.
func IdentityTransform() Transform {
	return Transform{Rotation: QuatIdentity(), Scale: Vec3{1, 1, 1}}
}

// QuatFromEuler builds the rotation for XYZ Euler angles in radians: X is
// applied first, then Y, then Z.
func QuatFromEuler(x, y, z float64) Quat {
	qx := QuatFromAxisAngle(Vec3{1, 0, 0}, x)
	qy := QuatFromAxisAngle(Vec3{0, 1, 0}, y)
	qz := QuatFromAxisAngle(Vec3{0, 0, 1}, z)
	return qz.Mul(qy).Mul(qx)
}

// Matrix returns the object-to-world matrix.
func (t Transform) Matrix() Mat4 {
	return Translate(t.Location.X, t.Location.Y, t.Location.Z).
		Mul(t.Rotation.ToMat4()).
		Mul(Scale(t.Scale.X, t.Scale.Y, t.Scale.Z))
}

// Apply maps an object-space point to world space.
func (t Transform) Apply(p Vec3) Vec3 {
	s := Vec3{p.X * t.Scale.X, p.Y * t.Scale.Y, p.Z * t.Scale.Z}
	return t.Rotation.Rotate(s).Add(t.Location)
}

// IsIdentity reports whether t leaves every point in place.
func (t Transform) IsIdentity() bool {
	q := t.Rotation.Normalize()
	return t.Location.IsZero() && t.Scale == (Vec3{1, 1, 1}) &&
		math.Abs(math.Abs(q.W)-1) < 1e-12
}
