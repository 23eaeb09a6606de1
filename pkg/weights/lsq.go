package weights

import (
	"fmt"
	gomath "math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/Faultbox/meshprep/pkg/math"
	"github.com/Faultbox/meshprep/pkg/mesh"
)

// rcond is the relative singular value cutoff for the affine fits.
const rcond = 1e-10

// LeastSquares relaxes each group towards a piecewise linear field. An
// iteration first estimates a value at the weighted centroid of every face
// touching the selection, by fitting an affine function to the face corners,
// then refits each selected vertex from its faces' centroid values. The
// result is blended with the previous weights by strength. Groups are
// independent and relaxed concurrently.
func (s *Smoother) LeastSquares(w mat.Matrix, m *mesh.Mesh, selected []bool, count int, strength float64, normalize bool) (*mat.Dense, error) {
	if err := s.validate(w, m, selected, count); err != nil {
		return nil, err
	}
	if gomath.IsNaN(strength) || strength < 0 || strength > 1 {
		return nil, fmt.Errorf("%w: strength %v outside [0,1]", ErrInvalidConfig, strength)
	}

	faces := touchedFaces(m, selected)
	cur := restrict(w, selected)
	_, cols := cur.Dims()

	var g errgroup.Group
	if s.Workers > 0 {
		g.SetLimit(s.Workers)
	}
	for grp := 0; grp < cols; grp++ {
		grp := grp
		g.Go(func() error {
			col := mat.Col(nil, grp, cur)
			r := newRelaxer(m, selected, faces, strength)
			for it := 0; it < count; it++ {
				col = r.step(col)
			}
			// Each goroutine owns one column.
			cur.SetCol(grp, col)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.finish(cur, selected, normalize)
	return cur, nil
}

// touchedFaces lists the faces with at least one selected corner.
func touchedFaces(m *mesh.Mesh, selected []bool) []int {
	var out []int
	for f, face := range m.Faces {
		for _, v := range face.Verts {
			if selected[v] {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// relaxer holds the per-group scratch state of LeastSquares.
type relaxer struct {
	m        *mesh.Mesh
	selected []bool
	faces    []int
	strength float64

	centroid map[int]math.Vec3
	value    map[int]float64
	pts      []math.Vec3
	vals     []float64
}

func newRelaxer(m *mesh.Mesh, selected []bool, faces []int, strength float64) *relaxer {
	return &relaxer{
		m:        m,
		selected: selected,
		faces:    faces,
		strength: strength,
		centroid: make(map[int]math.Vec3, len(faces)),
		value:    make(map[int]float64, len(faces)),
	}
}

// step runs one face pass and one vertex pass over col and returns the
// blended column. col is read only.
func (r *relaxer) step(col []float64) []float64 {
	for _, f := range r.faces {
		r.centroid[f], r.value[f] = r.faceValue(f, col)
	}

	next := make([]float64, len(col))
	for v, sel := range r.selected {
		if !sel {
			continue
		}
		fresh := col[v]
		r.pts, r.vals = r.pts[:0], r.vals[:0]
		for _, f := range r.m.Verts[v].Faces {
			r.pts = append(r.pts, r.centroid[f])
			r.vals = append(r.vals, r.value[f])
		}
		if len(r.pts) > 0 {
			fresh, _ = affineFit(r.pts, r.vals, r.m.Verts[v].Pos)
			fresh = clamp01(fresh)
		}
		next[v] = r.strength*fresh + (1-r.strength)*col[v]
	}
	return next
}

// faceValue returns the weighted centroid of face f and the fitted weight
// there. Without any weight on the face the unweighted center and the mean
// corner weight are used.
func (r *relaxer) faceValue(f int, col []float64) (math.Vec3, float64) {
	verts := r.m.Faces[f].Verts
	r.pts, r.vals = r.pts[:0], r.vals[:0]
	var sum float64
	var weighted math.Vec3
	for _, v := range verts {
		p := r.m.Verts[v].Pos
		x := col[v]
		r.pts = append(r.pts, p)
		r.vals = append(r.vals, x)
		sum += x
		weighted = weighted.Add(p.Scale(x))
	}
	if sum < 1e-12 {
		return math.Mean(r.pts), sum / float64(len(verts))
	}
	at := weighted.Scale(1 / sum)
	val, _ := affineFit(r.pts, r.vals, at)
	return at, clamp01(val)
}

// affineFit fits vals ≈ c + g·p over pts in the least-squares sense, taking
// the minimum-norm gradient when the points do not span space, and
// evaluates the fit at q. When no gradient can be determined it returns
// the mean value and false.
func affineFit(pts []math.Vec3, vals []float64, q math.Vec3) (float64, bool) {
	n := len(pts)
	meanP := math.Mean(pts)
	var meanV float64
	for _, x := range vals {
		meanV += x
	}
	meanV /= float64(n)
	if n < 2 {
		return meanV, false
	}

	a := mat.NewDense(n, 3, nil)
	b := mat.NewVecDense(n, nil)
	var spread float64
	for i, p := range pts {
		d := p.Sub(meanP)
		a.SetRow(i, []float64{d.X, d.Y, d.Z})
		b.SetVec(i, vals[i]-meanV)
		spread += d.LengthSq()
	}
	if spread < 1e-24 {
		return meanV, false
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFull) {
		return meanV, false
	}
	rank := svd.Rank(rcond)
	if rank == 0 {
		return meanV, false
	}
	var grad mat.VecDense
	svd.SolveVecTo(&grad, b, rank)
	d := q.Sub(meanP)
	val := meanV + grad.AtVec(0)*d.X + grad.AtVec(1)*d.Y + grad.AtVec(2)*d.Z
	if gomath.IsNaN(val) || gomath.IsInf(val, 0) {
		return meanV, false
	}
	return val, true
}

func clamp01(x float64) float64 {
	return gomath.Max(0, gomath.Min(1, x))
}
