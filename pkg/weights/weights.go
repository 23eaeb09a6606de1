// Package weights reads, writes and smooths per-vertex group weights held in
// a dense vertex × group matrix.
package weights

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// DefaultLimit is the weight below which a vertex is detached from a group.
const DefaultLimit = 1e-4

var (
	ErrShape         = errors.New("weight matrix shape mismatch")
	ErrNoGroups      = errors.New("no vertices or no groups")
	ErrInvalidConfig = errors.New("invalid smoothing configuration")
)

// Source is a read-only view of vertex group assignments.
type Source interface {
	NumVertices() int
	NumGroups() int
	// Weight returns the weight of vertex v in group g and whether v is
	// assigned to g at all.
	Weight(v, g int) (float64, bool)
}

// Sink accepts vertex group assignments.
type Sink interface {
	Source
	Assign(v, g int, w float64)
	Remove(v, g int)
}

// Groups is an in-memory Sink: named groups with sparse per-vertex
// membership.
type Groups struct {
	names   []string
	members []map[int]float64
}

// NewGroups returns groups for numVerts vertices with no assignments.
func NewGroups(numVerts int, names ...string) *Groups {
	g := &Groups{
		names:   append([]string(nil), names...),
		members: make([]map[int]float64, numVerts),
	}
	for i := range g.members {
		g.members[i] = make(map[int]float64)
	}
	return g
}

func (g *Groups) NumVertices() int { return len(g.members) }
func (g *Groups) NumGroups() int   { return len(g.names) }

// Names returns the group names in column order.
func (g *Groups) Names() []string { return g.names }

// Index returns the column of the named group.
func (g *Groups) Index(name string) (int, bool) {
	for i, n := range g.names {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

func (g *Groups) Weight(v, grp int) (float64, bool) {
	w, ok := g.members[v][grp]
	return w, ok
}

func (g *Groups) Assign(v, grp int, w float64) {
	g.members[v][grp] = w
}

func (g *Groups) Remove(v, grp int) {
	delete(g.members[v], grp)
}

// Memberships returns the groups v belongs to, in column order.
func (g *Groups) Memberships(v int) []int {
	out := make([]int, 0, len(g.members[v]))
	for grp := range g.members[v] {
		out = append(out, grp)
	}
	sort.Ints(out)
	return out
}

// Get reads src into a dense matrix. Unassigned entries are zero.
func Get(src Source) (*mat.Dense, error) {
	nv, ng := src.NumVertices(), src.NumGroups()
	if nv == 0 || ng == 0 {
		return nil, ErrNoGroups
	}
	w := mat.NewDense(nv, ng, nil)
	for v := 0; v < nv; v++ {
		for g := 0; g < ng; g++ {
			if x, ok := src.Weight(v, g); ok {
				w.Set(v, g, x)
			}
		}
	}
	return w, nil
}

// SetOptions controls Set.
type SetOptions struct {
	// Normalize scales each written row to sum to 1.
	Normalize bool
	// Limit detaches a vertex from any group where its weight is below it.
	Limit float64
	// Selected restricts writing to these vertices; nil writes all.
	Selected []bool
}

// Set writes w into dst after optionally normalizing, then clipping and
// detaching each row.
func Set(dst Sink, w mat.Matrix, opts SetOptions) error {
	nv, ng := w.Dims()
	if nv != dst.NumVertices() || ng != dst.NumGroups() {
		return fmt.Errorf("%w: matrix %dx%d, target %dx%d", ErrShape, nv, ng, dst.NumVertices(), dst.NumGroups())
	}
	if opts.Selected != nil && len(opts.Selected) != nv {
		return fmt.Errorf("%w: %d selection flags for %d vertices", ErrShape, len(opts.Selected), nv)
	}
	row := make([]float64, ng)
	for v := 0; v < nv; v++ {
		if opts.Selected != nil && !opts.Selected[v] {
			continue
		}
		mat.Row(row, v, w)
		postprocess(row, opts.Normalize, opts.Limit)
		for g, x := range row {
			if x == 0 || x < opts.Limit {
				dst.Remove(v, g)
				continue
			}
			dst.Assign(v, g, x)
		}
	}
	return nil
}
