// Package sphere fits spheres to point sets: the exact circumsphere of four
// points and a closed-form least-squares fit for larger sets.
package sphere

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	vmath "github.com/Faultbox/meshprep/pkg/math"
)

// MaxCondition is the largest condition number accepted for the linear
// systems solved here. Anything above it is treated as degenerate input
// (coplanar or coincident points).
const MaxCondition = 1e12

// Fit is the result of a sphere fit.
type Fit struct {
	Radius float64
	Center vmath.Vec3
}

// Circumcenter returns the sphere passing exactly through four points.
// It reports false when the points are coplanar or otherwise degenerate.
func Circumcenter(points [4]vmath.Vec3) (Fit, bool) {
	m := mat.NewDense(3, 3, nil)
	d := mat.NewVecDense(3, nil)
	for i := 0; i < 3; i++ {
		a, b := points[i], points[i+1]
		diff := a.Sub(b).Scale(2)
		m.SetRow(i, []float64{diff.X, diff.Y, diff.Z})
		d.SetVec(i, a.LengthSq()-b.LengthSq())
	}

	c, ok := solve3(m, d)
	if !ok {
		return Fit{}, false
	}
	return Fit{Radius: c.Distance(points[0]), Center: c}, true
}

// FitSphere fits a sphere to points. Four points give the exact
// circumsphere; more points use the closed-form least-squares solution built
// from the first three raw moments of the set. The radius is the mean
// distance from the fitted center to the points. Fewer than four points or a
// degenerate configuration report false.
func FitSphere(points []vmath.Vec3) (Fit, bool) {
	switch n := len(points); {
	case n < 4:
		return Fit{}, false
	case n == 4:
		return Circumcenter([4]vmath.Vec3{points[0], points[1], points[2], points[3]})
	}

	var (
		sum    r3.Vec     // Σv
		sumSq  float64    // Σ(v·v)
		sumSqV r3.Vec     // Σ(v·v)v
		outer  [9]float64 // Σ v⊗v, row-major
	)
	for _, p := range points {
		v := p.R3()
		sq := r3.Dot(v, v)
		sum = r3.Add(sum, v)
		sumSq += sq
		sumSqV = r3.Add(sumSqV, r3.Scale(sq, v))
		c := [3]float64{v.X, v.Y, v.Z}
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				outer[i*3+j] += c[i] * c[j]
			}
		}
	}

	inv := 1 / float64(len(points))
	mean := r3.Scale(inv, sum)
	meanSq := sumSq * inv
	m := [3]float64{mean.X, mean.Y, mean.Z}

	a := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			a.Set(i, j, 2*(outer[i*3+j]*inv-m[i]*m[j]))
		}
	}
	rhs := r3.Sub(r3.Scale(inv, sumSqV), r3.Scale(meanSq, mean))
	b := mat.NewVecDense(3, []float64{rhs.X, rhs.Y, rhs.Z})

	c, ok := solve3(a, b)
	if !ok {
		return Fit{}, false
	}

	var total float64
	for _, p := range points {
		total += c.Distance(p)
	}
	return Fit{Radius: total * inv, Center: c}, true
}

// solve3 solves a·x = b for a 3x3 system, rejecting singular or
// ill-conditioned matrices.
func solve3(a *mat.Dense, b *mat.VecDense) (vmath.Vec3, bool) {
	if cond := mat.Cond(a, 2); math.IsInf(cond, 0) || math.IsNaN(cond) || cond > MaxCondition {
		return vmath.Vec3{}, false
	}
	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return vmath.Vec3{}, false
	}
	c := vmath.Vec3{X: x.AtVec(0), Y: x.AtVec(1), Z: x.AtVec(2)}
	if math.IsNaN(c.X) || math.IsNaN(c.Y) || math.IsNaN(c.Z) {
		return vmath.Vec3{}, false
	}
	return c, true
}
