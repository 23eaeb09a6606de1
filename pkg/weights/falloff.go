package weights

import (
	"fmt"
	gomath "math"

	"gonum.org/v1/gonum/mat"

	"github.com/Faultbox/meshprep/pkg/falloff"
	"github.com/Faultbox/meshprep/pkg/mesh"
)

type influence struct {
	v      int
	factor float64
}

// Falloff spreads weights between selected vertices that share a face. Each
// iteration sets every group weight of a vertex to the largest
// neighbour weight scaled by (1 - d/radius)², where d is the shortest
// distance along the boundary of a shared face. A vertex counts as its own
// neighbour at distance zero, so weights never shrink.
func (s *Smoother) Falloff(w mat.Matrix, m *mesh.Mesh, selected []bool, count int, radius float64, normalize bool) (*mat.Dense, error) {
	if err := s.validate(w, m, selected, count); err != nil {
		return nil, err
	}
	if gomath.IsNaN(radius) || gomath.IsInf(radius, 0) || radius <= 0 {
		return nil, fmt.Errorf("%w: radius %v", ErrInvalidConfig, radius)
	}

	infl := influences(m, selected, radius)
	cur := restrict(w, selected)
	rows, cols := cur.Dims()
	next := mat.NewDense(rows, cols, nil)
	for it := 0; it < count; it++ {
		for v, sel := range selected {
			if !sel {
				continue
			}
			out := next.RawRowView(v)
			copy(out, cur.RawRowView(v))
			for _, in := range infl[v] {
				src := cur.RawRowView(in.v)
				for g, x := range src {
					if y := x * in.factor; y > out[g] {
						out[g] = y
					}
				}
			}
		}
		cur, next = next, cur
	}
	s.finish(cur, selected, normalize)
	return cur, nil
}

// influences returns, per selected vertex, the other selected vertices
// within radius of it along a shared face boundary and their falloff
// factors.
func influences(m *mesh.Mesh, selected []bool, radius float64) [][]influence {
	dist := faceDistances(m, selected)
	out := make([][]influence, len(m.Verts))
	for v, row := range dist {
		for u, d := range row {
			if d > radius {
				continue
			}
			if f := falloff.Sharp.Eval(d/radius, nil); f > 0 {
				out[v] = append(out[v], influence{v: u, factor: f})
			}
		}
	}
	return out
}

// faceDistances returns, for each selected vertex, the shortest distance to
// every other selected vertex on a common face, walking either way around
// the face boundary. Pairs with no common face are absent.
func faceDistances(m *mesh.Mesh, selected []bool) []map[int]float64 {
	dist := make([]map[int]float64, len(m.Verts))
	var cum []float64
	for _, f := range m.Faces {
		n := len(f.Verts)
		cum = cum[:0]
		var perim float64
		for i := 0; i < n; i++ {
			cum = append(cum, perim)
			perim += m.Verts[f.Verts[i]].Pos.Distance(m.Verts[f.Verts[(i+1)%n]].Pos)
		}
		for i := 0; i < n; i++ {
			a := f.Verts[i]
			if !selected[a] {
				continue
			}
			for j := i + 1; j < n; j++ {
				b := f.Verts[j]
				if !selected[b] || a == b {
					continue
				}
				along := cum[j] - cum[i]
				d := gomath.Min(along, perim-along)
				setMin(dist, a, b, d)
				setMin(dist, b, a, d)
			}
		}
	}
	return dist
}

func setMin(dist []map[int]float64, a, b int, d float64) {
	if dist[a] == nil {
		dist[a] = make(map[int]float64)
	}
	if old, ok := dist[a][b]; !ok || d < old {
		dist[a][b] = d
	}
}
