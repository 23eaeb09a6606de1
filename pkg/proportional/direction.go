package proportional

import (
	"fmt"
	"strings"

	"github.com/Faultbox/meshprep/pkg/math"
)

// Axis selects a signed coordinate axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
	AxisNegX
	AxisNegY
	AxisNegZ
)

var axisNames = [...]string{"X", "Y", "Z", "-X", "-Y", "-Z"}

func (a Axis) String() string {
	if a < 0 || int(a) >= len(axisNames) {
		return fmt.Sprintf("Axis(%d)", int(a))
	}
	return axisNames[a]
}

// ParseAxis converts "X", "-y" and so on.
func ParseAxis(s string) (Axis, error) {
	for i, n := range axisNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return Axis(i), nil
		}
	}
	return 0, fmt.Errorf("%w: axis %q", ErrInvalidConfig, s)
}

// Next cycles X → Y → Z → -X → -Y → -Z → X.
func (a Axis) Next() Axis {
	return (a + 1) % Axis(len(axisNames))
}

// Row returns the matrix column/vector component the axis reads.
func (a Axis) Row() int {
	return int(a) % 3
}

// Sign returns +1 for positive axes and -1 for negative ones.
func (a Axis) Sign() float64 {
	if a >= AxisNegX {
		return -1
	}
	return 1
}

// Unit returns the signed world-space unit vector.
func (a Axis) Unit() math.Vec3 {
	var v math.Vec3
	switch a.Row() {
	case 0:
		v.X = a.Sign()
	case 1:
		v.Y = a.Sign()
	case 2:
		v.Z = a.Sign()
	}
	return v
}

// of returns the axis taken from a transform's local basis.
func (a Axis) of(m math.Mat4) math.Vec3 {
	return m.TransformDirection(a.Unit())
}

// Direction produces one displacement direction per point. The concrete
// types below form a closed set.
type Direction interface {
	vectors(origins []math.Vec3) ([]math.Vec3, error)
}

// GlobalAxis moves every point along a world axis.
type GlobalAxis struct {
	Axis Axis
}

// LocalAxis moves every point along an axis of one object transform.
type LocalAxis struct {
	Transform math.Mat4
	Axis      Axis
}

// PerPointAxis moves each point along an axis of its own transform, for
// example one per bone.
type PerPointAxis struct {
	Transforms []math.Mat4
	Axis       Axis
}

// FromViewpoint moves points along the ray from Eye through each point.
type FromViewpoint struct {
	Eye math.Vec3
}

// FromCursor moves points away from a fixed 3D cursor.
type FromCursor struct {
	Cursor math.Vec3
}

// FromOrigin moves points away from an object origin.
type FromOrigin struct {
	Origin math.Vec3
}

func fill(n int, v math.Vec3) []math.Vec3 {
	out := make([]math.Vec3, n)
	v = v.Normalize(Epsilon)
	for i := range out {
		out[i] = v
	}
	return out
}

func radial(origins []math.Vec3, from math.Vec3) []math.Vec3 {
	out := make([]math.Vec3, len(origins))
	for i, p := range origins {
		out[i] = p.Sub(from).Normalize(Epsilon)
	}
	return out
}

func (d GlobalAxis) vectors(origins []math.Vec3) ([]math.Vec3, error) {
	return fill(len(origins), d.Axis.Unit()), nil
}

func (d LocalAxis) vectors(origins []math.Vec3) ([]math.Vec3, error) {
	return fill(len(origins), d.Axis.of(d.Transform)), nil
}

func (d PerPointAxis) vectors(origins []math.Vec3) ([]math.Vec3, error) {
	if len(d.Transforms) != len(origins) {
		return nil, fmt.Errorf("%w: %d transforms for %d points", ErrLengthMismatch, len(d.Transforms), len(origins))
	}
	out := make([]math.Vec3, len(origins))
	for i, m := range d.Transforms {
		out[i] = d.Axis.of(m).Normalize(Epsilon)
	}
	return out, nil
}

func (d FromViewpoint) vectors(origins []math.Vec3) ([]math.Vec3, error) {
	return radial(origins, d.Eye), nil
}

func (d FromCursor) vectors(origins []math.Vec3) ([]math.Vec3, error) {
	return radial(origins, d.Cursor), nil
}

func (d FromOrigin) vectors(origins []math.Vec3) ([]math.Vec3, error) {
	return radial(origins, d.Origin), nil
}
