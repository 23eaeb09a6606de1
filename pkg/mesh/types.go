// Package mesh provides an adjacency snapshot of a polygon mesh: vertices,
// edges and faces with the per-edge attributes the editing tools consult.
// A snapshot is built fresh from host data for one operation and discarded
// afterwards.
package mesh

import (
	"errors"

	"github.com/Faultbox/meshprep/pkg/math"
)

var (
	ErrFaceTooSmall   = errors.New("face has fewer than 3 vertices")
	ErrBadVertex      = errors.New("vertex index out of range")
	ErrRepeatedVert   = errors.New("face repeats a vertex")
	ErrDegenerateEdge = errors.New("edge joins a vertex to itself")
)

// Vertex is a mesh vertex with its incident edges and faces.
type Vertex struct {
	Pos   math.Vec3
	Edges []int
	Faces []int
}

// Edge joins two vertices and carries the attributes used by edge tools.
type Edge struct {
	V     [2]int
	Faces []int

	Seam        bool
	Sharp       bool
	BevelWeight float64
	Crease      float64
	Selected    bool
}

// Face is a polygon with its boundary vertices and edges in winding order.
// Edges[i] joins Verts[i] and Verts[(i+1)%n].
type Face struct {
	Verts []int
	Edges []int
}

// Mesh is the adjacency snapshot.
type Mesh struct {
	Verts []Vertex
	Edges []Edge
	Faces []Face

	edgeIndex map[[2]int]int
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}
