package sphere

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// CircumcenterN returns the center and radius of the hypersphere through
// dim+1 points in dim dimensions. Each point must have the same length and
// there must be exactly one more point than dimensions. Degenerate
// configurations report false.
func CircumcenterN(points [][]float64) (center []float64, radius float64, ok bool) {
	if len(points) < 2 {
		return nil, 0, false
	}
	dim := len(points[0])
	if dim == 0 || len(points) != dim+1 {
		return nil, 0, false
	}
	for _, p := range points {
		if len(p) != dim {
			return nil, 0, false
		}
	}

	m := mat.NewDense(dim, dim, nil)
	d := mat.NewVecDense(dim, nil)
	for i := 0; i < dim; i++ {
		a, b := points[i], points[i+1]
		var rhs float64
		for k := 0; k < dim; k++ {
			m.Set(i, k, 2*(a[k]-b[k]))
			rhs += a[k]*a[k] - b[k]*b[k]
		}
		d.SetVec(i, rhs)
	}

	if cond := mat.Cond(m, 2); math.IsInf(cond, 0) || math.IsNaN(cond) || cond > MaxCondition {
		return nil, 0, false
	}
	var x mat.VecDense
	if err := x.SolveVec(m, d); err != nil {
		return nil, 0, false
	}

	center = make([]float64, dim)
	var sq float64
	for k := 0; k < dim; k++ {
		center[k] = x.AtVec(k)
		diff := center[k] - points[0][k]
		sq += diff * diff
	}
	return center, math.Sqrt(sq), true
}
