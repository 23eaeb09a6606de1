package mesh

import (
	gomath "math"

	"github.com/Faultbox/meshprep/pkg/math"
)

// Grid returns an nx by ny grid of unit quads in the XY plane. Vertex
// (i, j) has index j*(nx+1)+i.
func Grid(nx, ny int) *Mesh {
	var pos []math.Vec3
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			pos = append(pos, math.Vec3{X: float64(i), Y: float64(j)})
		}
	}
	idx := func(i, j int) int { return j*(nx+1) + i }
	var faces [][]int
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			faces = append(faces, []int{idx(i, j), idx(i+1, j), idx(i+1, j+1), idx(i, j+1)})
		}
	}
	m, err := New(pos, faces)
	if err != nil {
		panic(err) // unreachable: indices are generated in range
	}
	return m
}

// Cylinder returns an open tube of quads with the given number of segments
// around the Z axis and rings stacked along it. Vertex (s, r) has index
// r*segments+s.
func Cylinder(segments, rings int) *Mesh {
	var pos []math.Vec3
	for r := 0; r <= rings; r++ {
		for s := 0; s < segments; s++ {
			a := 2 * gomath.Pi * float64(s) / float64(segments)
			pos = append(pos, math.Vec3{X: gomath.Cos(a), Y: gomath.Sin(a), Z: float64(r)})
		}
	}
	idx := func(s, r int) int { return r*segments + s%segments }
	var faces [][]int
	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			faces = append(faces, []int{idx(s, r), idx(s+1, r), idx(s+1, r+1), idx(s, r+1)})
		}
	}
	m, err := New(pos, faces)
	if err != nil {
		panic(err)
	}
	return m
}
