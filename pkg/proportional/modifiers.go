package proportional

import (
	gomath "math"

	"github.com/Faultbox/meshprep/pkg/math"
)

// ClampDistance limits how far any point may travel from its origin.
// A negative limit leaves positions unchanged.
func (s *State) ClampDistance(limit float64) Modifier {
	origins := s.origins
	return func(pos []math.Vec3, moved []bool) ([]math.Vec3, []bool) {
		if limit < 0 {
			return pos, moved
		}
		for i := range pos {
			if !moved[i] {
				continue
			}
			delta := pos[i].Sub(origins[i])
			if l := delta.Length(); l > limit {
				pos[i] = origins[i].Add(delta.Scale(limit / l))
			}
		}
		return pos, moved
	}
}

// SnapToGrid rounds moved positions to multiples of step.
func SnapToGrid(step float64) Modifier {
	return func(pos []math.Vec3, moved []bool) ([]math.Vec3, []bool) {
		if step <= 0 {
			return pos, moved
		}
		snap := func(v float64) float64 { return gomath.Round(v/step) * step }
		for i := range pos {
			if moved[i] {
				pos[i] = math.Vec3{X: snap(pos[i].X), Y: snap(pos[i].Y), Z: snap(pos[i].Z)}
			}
		}
		return pos, moved
	}
}

// LockAxis restores one coordinate of every moved point to its original
// value. Points that end up back at their origin are marked unmoved.
func (s *State) LockAxis(axis Axis) Modifier {
	origins := s.origins
	row := axis.Row()
	return func(pos []math.Vec3, moved []bool) ([]math.Vec3, []bool) {
		for i := range pos {
			if !moved[i] {
				continue
			}
			switch row {
			case 0:
				pos[i].X = origins[i].X
			case 1:
				pos[i].Y = origins[i].Y
			case 2:
				pos[i].Z = origins[i].Z
			}
			if pos[i] == origins[i] {
				moved[i] = false
			}
		}
		return pos, moved
	}
}
