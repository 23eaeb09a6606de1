// Package math provides the float64 vector, matrix and quaternion types
// shared by the geometry packages.
package math

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec3 is a 3D vector.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Scale returns v * scalar.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the cross product.
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		v.Y*other.Z - v.Z*other.Y,
		v.Z*other.X - v.X*other.Z,
		v.X*other.Y - v.Y*other.X,
	}
}

// LengthSq returns the squared magnitude.
func (v Vec3) LengthSq() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Length returns the magnitude.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.LengthSq())
}

// Normalize returns a unit vector, or the zero vector when v is shorter
// than eps.
func (v Vec3) Normalize(eps float64) Vec3 {
	l := v.Length()
	if l < eps || l == 0 {
		return Vec3{}
	}
	return Vec3{v.X / l, v.Y / l, v.Z / l}
}

// Distance returns the distance to another point.
func (v Vec3) Distance(other Vec3) float64 {
	return v.Sub(other).Length()
}

// IsZero reports whether all components are exactly zero.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// R3 converts v to a gonum spatial vector.
func (v Vec3) R3() r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

// FromR3 converts a gonum spatial vector.
func FromR3(v r3.Vec) Vec3 {
	return Vec3{v.X, v.Y, v.Z}
}

// Mean returns the arithmetic mean of points, or the zero vector for an
// empty slice.
func Mean(points []Vec3) Vec3 {
	if len(points) == 0 {
		return Vec3{}
	}
	var sum r3.Vec
	for _, p := range points {
		sum = r3.Add(sum, p.R3())
	}
	return FromR3(r3.Scale(1/float64(len(points)), sum))
}
