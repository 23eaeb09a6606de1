package weights

import (
	"fmt"
	gomath "math"

	"gonum.org/v1/gonum/mat"

	"github.com/Faultbox/meshprep/pkg/mesh"
)

// Smoother holds the settings shared by both smoothing algorithms.
type Smoother struct {
	// Limit detaches weights below it after smoothing.
	Limit float64
	// Workers bounds the number of groups relaxed concurrently by
	// LeastSquares. Zero or less means one goroutine per group.
	Workers int
}

// DefaultSmoother is used by SmoothFalloff and SmoothLeastSquares.
var DefaultSmoother = &Smoother{Limit: DefaultLimit}

// SmoothFalloff runs Falloff on DefaultSmoother.
func SmoothFalloff(w mat.Matrix, m *mesh.Mesh, selected []bool, count int, radius float64, normalize bool) (*mat.Dense, error) {
	return DefaultSmoother.Falloff(w, m, selected, count, radius, normalize)
}

// SmoothLeastSquares runs LeastSquares on DefaultSmoother.
func SmoothLeastSquares(w mat.Matrix, m *mesh.Mesh, selected []bool, count int, strength float64, normalize bool) (*mat.Dense, error) {
	return DefaultSmoother.LeastSquares(w, m, selected, count, strength, normalize)
}

func (s *Smoother) validate(w mat.Matrix, m *mesh.Mesh, selected []bool, count int) error {
	if m == nil {
		return fmt.Errorf("%w: nil mesh", ErrInvalidConfig)
	}
	r, c := w.Dims()
	if r != len(m.Verts) || len(selected) != r {
		return fmt.Errorf("%w: %d weight rows, %d vertices, %d selection flags", ErrShape, r, len(m.Verts), len(selected))
	}
	if c == 0 {
		return ErrNoGroups
	}
	if count < 0 {
		return fmt.Errorf("%w: negative iteration count %d", ErrInvalidConfig, count)
	}
	if gomath.IsNaN(s.Limit) || s.Limit < 0 {
		return fmt.Errorf("%w: limit %v", ErrInvalidConfig, s.Limit)
	}
	return nil
}

// restrict copies w with the rows of unselected vertices zeroed.
func restrict(w mat.Matrix, selected []bool) *mat.Dense {
	out := mat.DenseCopyOf(w)
	_, c := out.Dims()
	zero := make([]float64, c)
	for v, sel := range selected {
		if !sel {
			out.SetRow(v, zero)
		}
	}
	return out
}

// finish applies the postprocessing to every selected row in place.
func (s *Smoother) finish(w *mat.Dense, selected []bool, normalize bool) {
	for v, sel := range selected {
		if sel {
			postprocess(w.RawRowView(v), normalize, s.Limit)
		}
	}
}
