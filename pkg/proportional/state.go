// Package proportional computes falloff-weighted displacements: selected
// points move by the full amount and nearby unselected points follow with an
// influence that decays with their distance to the selection.
package proportional

import (
	"errors"
	"fmt"
	gomath "math"
	"math/rand"

	"github.com/Faultbox/meshprep/pkg/falloff"
	"github.com/Faultbox/meshprep/pkg/math"
)

// Epsilon is the threshold below which direction vectors are treated as zero
// and factors as "not moved".
const Epsilon = 1e-9

var (
	ErrLengthMismatch = errors.New("length mismatch")
	ErrEmptySelection = errors.New("no points selected")
	ErrInvalidConfig  = errors.New("invalid proportional configuration")
)

// DefaultSeed seeds the random falloff stream.
const DefaultSeed = 0

// Modifier adjusts the result of a move. It receives the proposed positions
// and moved mask and returns the adjusted pair.
type Modifier func(positions []math.Vec3, moved []bool) ([]math.Vec3, []bool)

// State holds one interactive move: the original positions, each point's
// distance to the selection, the active direction and falloff settings, and
// the memoized per-point factors.
type State struct {
	origins    []math.Vec3
	distances  []float64
	directions []math.Vec3
	center     math.Vec3

	radius  float64
	falloff falloff.Kind
	seed    int64

	factors   []float64 // nil when stale
	modifiers []Modifier
}

// Setup captures positions and the selection. The center is the mean of the
// selected points and each point's distance is its distance to the nearest
// selected point. The initial direction is the global Z axis, the radius 1
// and the falloff Smooth.
func Setup(positions []math.Vec3, selected []bool) (*State, error) {
	if len(positions) != len(selected) {
		return nil, fmt.Errorf("%w: %d positions, %d selection flags", ErrLengthMismatch, len(positions), len(selected))
	}
	var sel []math.Vec3
	for i, s := range selected {
		if s {
			sel = append(sel, positions[i])
		}
	}
	if len(sel) == 0 {
		return nil, ErrEmptySelection
	}

	s := &State{
		origins:   append([]math.Vec3(nil), positions...),
		distances: make([]float64, len(positions)),
		center:    math.Mean(sel),
		radius:    1,
		falloff:   falloff.Smooth,
		seed:      DefaultSeed,
	}
	for i, p := range positions {
		if selected[i] {
			continue
		}
		best := gomath.Inf(1)
		for _, q := range sel {
			if d := p.Distance(q); d < best {
				best = d
			}
		}
		s.distances[i] = best
	}
	s.directions, _ = GlobalAxis{Axis: AxisZ}.vectors(s.origins)
	return s, nil
}

// Center returns the mean of the selected points.
func (s *State) Center() math.Vec3 { return s.center }

// Distances returns each point's distance to the selection.
func (s *State) Distances() []float64 { return s.distances }

// Directions returns the current per-point unit directions.
func (s *State) Directions() []math.Vec3 { return s.directions }

// Radius returns the influence radius.
func (s *State) Radius() float64 { return s.radius }

// Falloff returns the falloff curve.
func (s *State) Falloff() falloff.Kind { return s.falloff }

// SetDirection recomputes the per-point directions.
func (s *State) SetDirection(d Direction) error {
	if d == nil {
		return fmt.Errorf("%w: nil direction", ErrInvalidConfig)
	}
	dirs, err := d.vectors(s.origins)
	if err != nil {
		return err
	}
	s.directions = dirs
	return nil
}

// SetRadius changes the influence radius. The factor cache is dropped only
// when the value changes.
func (s *State) SetRadius(r float64) error {
	if gomath.IsNaN(r) || gomath.IsInf(r, 0) || r <= 0 {
		return fmt.Errorf("%w: radius %v", ErrInvalidConfig, r)
	}
	if r != s.radius {
		s.radius = r
		s.factors = nil
	}
	return nil
}

// SetFalloff changes the falloff curve.
func (s *State) SetFalloff(k falloff.Kind) error {
	if !k.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, k)
	}
	if k != s.falloff {
		s.falloff = k
		s.factors = nil
	}
	return nil
}

// SetSeed changes the seed of the random falloff stream.
func (s *State) SetSeed(seed int64) {
	if seed != s.seed {
		s.seed = seed
		s.factors = nil
	}
}

// AddModifier appends a stage to the modifier chain.
func (s *State) AddModifier(m Modifier) {
	s.modifiers = append(s.modifiers, m)
}

// Factors returns the per-point influence, recomputing it if the radius,
// falloff or seed changed since the last call. The returned slice must not
// be modified.
func (s *State) Factors() []float64 {
	if s.factors != nil {
		return s.factors
	}
	rng := rand.New(rand.NewSource(s.seed))
	f := make([]float64, len(s.distances))
	for i, d := range s.distances {
		v := d / s.radius
		if v > 1 {
			continue
		}
		f[i] = s.falloff.Eval(v, rng)
	}
	s.factors = f
	return f
}

// ComputeMove displaces every point by direction*factor*amount. Points
// whose factor is below Epsilon, or whose moveMask entry is false, keep
// their original position exactly. A nil moveMask allows every point. The
// modifier chain runs after the base computation.
func (s *State) ComputeMove(amount float64, moveMask []bool) ([]math.Vec3, []bool, error) {
	if moveMask != nil && len(moveMask) != len(s.origins) {
		return nil, nil, fmt.Errorf("%w: %d mask entries for %d points", ErrLengthMismatch, len(moveMask), len(s.origins))
	}
	factors := s.Factors()
	pos := make([]math.Vec3, len(s.origins))
	moved := make([]bool, len(s.origins))
	for i, o := range s.origins {
		pos[i] = o
		if factors[i] < Epsilon || (moveMask != nil && !moveMask[i]) {
			continue
		}
		pos[i] = o.Add(s.directions[i].Scale(factors[i] * amount))
		moved[i] = true
	}
	for _, m := range s.modifiers {
		pos, moved = m(pos, moved)
	}
	return pos, moved, nil
}

// Origins returns the positions captured at Setup.
func (s *State) Origins() []math.Vec3 { return s.origins }
