// Package loops finds dividing edge loops: edge paths that cut across a
// strip of quads, running from boundary to boundary or closing on
// themselves.
package loops

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/emirpasic/gods/sets/linkedhashset"

	"github.com/Faultbox/meshprep/pkg/mesh"
)

// ErrInvalidOptions is returned by NewFinder for unusable thresholds.
var ErrInvalidOptions = errors.New("invalid loop finder options")

// Reason classifies a candidate loop.
type Reason int

const (
	// Valid loops are true dividing loops.
	Valid Reason = iota
	// Abnormal loops ran into non-quad or non-manifold topology.
	Abnormal
	// Excluded loops are structurally sound but contain an edge rejected by
	// an attribute threshold.
	Excluded
)

func (r Reason) String() string {
	switch r {
	case Valid:
		return "valid"
	case Abnormal:
		return "abnormal"
	case Excluded:
		return "excluded"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// Options holds the edge exclusion thresholds. An edge whose value exceeds a
// ceiling, or which carries an excluded flag, disqualifies its whole loop.
type Options struct {
	MaxFaceAngle   float64 // radians
	ExcludeSeam    bool
	ExcludeSharp   bool
	MaxBevelWeight float64
	MaxCrease      float64
}

// DefaultOptions excludes nothing.
func DefaultOptions() Options {
	return Options{
		MaxFaceAngle:   gomath.Pi,
		MaxBevelWeight: 1,
		MaxCrease:      1,
	}
}

// Loop is one discovered candidate.
type Loop struct {
	// Edges in discovery order: the seed first, then each walked side.
	Edges  []int
	Closed bool
	Reason Reason
}

// ChooseFunc decides whether the index-th valid loop gets selected.
// selected is the number of loops chosen so far and total the number of
// valid loops found.
type ChooseFunc func(index int, loop Loop, selected, total int) bool

// SelectAll chooses every valid loop.
func SelectAll(int, Loop, int, int) bool { return true }

// SelectEvery chooses every n-th valid loop starting with the first.
func SelectEvery(n int) ChooseFunc {
	if n < 1 {
		n = 1
	}
	return func(index int, _ Loop, _, _ int) bool {
		return index%n == 0
	}
}

// Finder scans a mesh for dividing loops.
type Finder struct {
	opts Options
}

// NewFinder validates opts and returns a Finder.
func NewFinder(opts Options) (*Finder, error) {
	for name, v := range map[string]float64{
		"max face angle":   opts.MaxFaceAngle,
		"max bevel weight": opts.MaxBevelWeight,
		"max crease":       opts.MaxCrease,
	} {
		if gomath.IsNaN(v) || v < 0 {
			return nil, fmt.Errorf("%w: %s = %v", ErrInvalidOptions, name, v)
		}
	}
	return &Finder{opts: opts}, nil
}

// Options returns the finder's thresholds.
func (f *Finder) Options() Options {
	return f.opts
}

// FindDividingLoops scans m, offers every valid loop to choose in discovery
// order and marks the edges of chosen loops as selected. It returns the
// number of selected loops and the number of valid loops found.
func (f *Finder) FindDividingLoops(m *mesh.Mesh, choose ChooseFunc) (selected, found int) {
	var valid []Loop
	for _, l := range f.Loops(m) {
		if l.Reason == Valid {
			valid = append(valid, l)
		}
	}
	if choose == nil {
		choose = SelectAll
	}
	for i, l := range valid {
		if !choose(i, l, selected, len(valid)) {
			continue
		}
		for _, e := range l.Edges {
			m.Edges[e].Selected = true
		}
		selected++
	}
	return selected, len(valid)
}

// Loops returns every candidate loop of m with its classification. Each
// edge belongs to at most one candidate. The scan does not modify m.
func (f *Finder) Loops(m *mesh.Mesh) []Loop {
	visited := make([]bool, len(m.Edges))
	var out []Loop
	for seed := range m.Edges {
		if visited[seed] {
			continue
		}
		out = append(out, f.grow(m, seed, visited))
	}
	return out
}

// walkResult is the outcome of walking one side of a loop.
type walkResult int

const (
	walkOpen   walkResult = iota // ended on a boundary vertex
	walkClosed                   // came back to an edge already in the loop
	walkAbnormal
)

// grow builds the candidate seeded at edge seed.
func (f *Finder) grow(m *mesh.Mesh, seed int, visited []bool) Loop {
	set := linkedhashset.New()
	set.Add(seed)
	visited[seed] = true

	loop := Loop{Reason: Valid}
	if !f.regular(m, seed) {
		loop.Reason = Abnormal
		loop.Edges = []int{seed}
		return loop
	}
	excluded := f.excluded(m, seed)

	closed := false
	for _, start := range m.Edges[seed].V {
		res, ex := f.walk(m, seed, start, set, visited)
		excluded = excluded || ex
		switch res {
		case walkAbnormal:
			loop.Reason = Abnormal
		case walkClosed:
			closed = true
		}
		// A closed ring is fully walked from one side.
		if res == walkClosed {
			break
		}
	}

	loop.Closed = closed && loop.Reason != Abnormal
	if loop.Reason == Valid && excluded {
		loop.Reason = Excluded
	}
	loop.Edges = make([]int, 0, set.Size())
	for _, v := range set.Values() {
		loop.Edges = append(loop.Edges, v.(int))
	}
	return loop
}

// walk advances from edge cur through vertex v until it reaches a boundary
// vertex, closes the loop or hits abnormal topology. Walked edges are added
// to set and marked visited. The second result reports whether any walked
// edge is excluded by the attribute thresholds.
func (f *Finder) walk(m *mesh.Mesh, cur, v int, set *linkedhashset.Set, visited []bool) (walkResult, bool) {
	excluded := false
	for {
		edges := m.Verts[v].Edges
		switch len(edges) {
		case 3:
			if m.IsBoundaryVertex(v) {
				return walkOpen, excluded
			}
			return walkAbnormal, excluded
		case 4:
		default:
			return walkAbnormal, excluded
		}

		next := -1
		for _, e := range edges {
			if e == cur || m.SharesFace(e, cur) {
				continue
			}
			if next != -1 {
				return walkAbnormal, excluded
			}
			next = e
		}
		if next == -1 {
			return walkAbnormal, excluded
		}
		if set.Contains(next) {
			return walkClosed, excluded
		}
		if visited[next] {
			// Claimed by an earlier candidate.
			return walkAbnormal, excluded
		}

		set.Add(next)
		visited[next] = true
		if !f.regular(m, next) {
			return walkAbnormal, excluded
		}
		if f.excluded(m, next) {
			excluded = true
		}
		cur, v = next, m.OtherVertex(next, v)
	}
}

// regular reports whether e can be part of a dividing loop: both endpoints
// manifold and not wire, exactly two incident faces, both quads.
func (f *Finder) regular(m *mesh.Mesh, e int) bool {
	ed := m.Edges[e]
	for _, v := range ed.V {
		if m.IsWireVertex(v) || !m.IsManifoldVertex(v) {
			return false
		}
	}
	if len(ed.Faces) != 2 {
		return false
	}
	for _, fi := range ed.Faces {
		if len(m.Faces[fi].Edges) != 4 {
			return false
		}
	}
	return true
}

// excluded applies the attribute thresholds to e.
func (f *Finder) excluded(m *mesh.Mesh, e int) bool {
	ed := m.Edges[e]
	switch {
	case f.opts.ExcludeSeam && ed.Seam:
		return true
	case f.opts.ExcludeSharp && ed.Sharp:
		return true
	case ed.BevelWeight > f.opts.MaxBevelWeight:
		return true
	case ed.Crease > f.opts.MaxCrease:
		return true
	case m.FaceAngle(e) > f.opts.MaxFaceAngle:
		return true
	}
	return false
}
