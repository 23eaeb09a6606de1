package mesh

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/meshprep/pkg/math"
)

// New builds a snapshot from vertex positions and faces given as vertex
// index lists. Edges are created in first-seen order while walking faces.
func New(positions []math.Vec3, faces [][]int) (*Mesh, error) {
	m := &Mesh{
		Verts:     make([]Vertex, len(positions)),
		edgeIndex: make(map[[2]int]int),
	}
	for i, p := range positions {
		m.Verts[i].Pos = p
	}
	for fi, f := range faces {
		if _, err := m.AddFace(f); err != nil {
			return nil, fmt.Errorf("face %d: %w", fi, err)
		}
	}
	return m, nil
}

// AddEdge returns the edge joining a and b, creating a wire edge if none
// exists yet.
func (m *Mesh) AddEdge(a, b int) (int, error) {
	if a < 0 || b < 0 || a >= len(m.Verts) || b >= len(m.Verts) {
		return -1, ErrBadVertex
	}
	if a == b {
		return -1, ErrDegenerateEdge
	}
	if m.edgeIndex == nil {
		m.edgeIndex = make(map[[2]int]int)
	}
	key := edgeKey(a, b)
	if e, ok := m.edgeIndex[key]; ok {
		return e, nil
	}
	e := len(m.Edges)
	m.Edges = append(m.Edges, Edge{V: [2]int{a, b}})
	m.edgeIndex[key] = e
	m.Verts[a].Edges = append(m.Verts[a].Edges, e)
	m.Verts[b].Edges = append(m.Verts[b].Edges, e)
	return e, nil
}

// AddFace appends a polygon and links it into the adjacency.
func (m *Mesh) AddFace(verts []int) (int, error) {
	n := len(verts)
	if n < 3 {
		return -1, ErrFaceTooSmall
	}
	seen := make(map[int]bool, n)
	for _, v := range verts {
		if v < 0 || v >= len(m.Verts) {
			return -1, ErrBadVertex
		}
		if seen[v] {
			return -1, ErrRepeatedVert
		}
		seen[v] = true
	}

	fi := len(m.Faces)
	face := Face{Verts: append([]int(nil), verts...), Edges: make([]int, n)}
	for i := 0; i < n; i++ {
		e, err := m.AddEdge(verts[i], verts[(i+1)%n])
		if err != nil {
			return -1, err
		}
		face.Edges[i] = e
		m.Edges[e].Faces = append(m.Edges[e].Faces, fi)
		m.Verts[verts[i]].Faces = append(m.Verts[verts[i]].Faces, fi)
	}
	m.Faces = append(m.Faces, face)
	return fi, nil
}

// EdgeBetween returns the edge joining a and b.
func (m *Mesh) EdgeBetween(a, b int) (int, bool) {
	e, ok := m.edgeIndex[edgeKey(a, b)]
	return e, ok
}

// OtherVertex returns the endpoint of e that is not v.
func (m *Mesh) OtherVertex(e, v int) int {
	ed := m.Edges[e]
	if ed.V[0] == v {
		return ed.V[1]
	}
	return ed.V[0]
}

// SharesFace reports whether edges a and b border a common face.
func (m *Mesh) SharesFace(a, b int) bool {
	for _, fa := range m.Edges[a].Faces {
		for _, fb := range m.Edges[b].Faces {
			if fa == fb {
				return true
			}
		}
	}
	return false
}

// FaceNormal returns the unit normal of face f using Newell's method, which
// tolerates non-planar polygons.
func (m *Mesh) FaceNormal(f int) math.Vec3 {
	verts := m.Faces[f].Verts
	var n math.Vec3
	for i, vi := range verts {
		a := m.Verts[vi].Pos
		b := m.Verts[verts[(i+1)%len(verts)]].Pos
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n.Normalize(1e-12)
}

// FaceCenter returns the mean of the face's vertex positions.
func (m *Mesh) FaceCenter(f int) math.Vec3 {
	verts := m.Faces[f].Verts
	pts := make([]math.Vec3, len(verts))
	for i, v := range verts {
		pts[i] = m.Verts[v].Pos
	}
	return math.Mean(pts)
}

// FaceAngle returns the angle in radians between the normals of the two
// faces bordering e. Edges without exactly two faces report 0.
func (m *Mesh) FaceAngle(e int) float64 {
	faces := m.Edges[e].Faces
	if len(faces) != 2 {
		return 0
	}
	d := m.FaceNormal(faces[0]).Dot(m.FaceNormal(faces[1]))
	d = gomath.Max(-1, gomath.Min(1, d))
	return gomath.Acos(d)
}

// EdgeLength returns the length of e.
func (m *Mesh) EdgeLength(e int) float64 {
	ed := m.Edges[e]
	return m.Verts[ed.V[0]].Pos.Distance(m.Verts[ed.V[1]].Pos)
}

// Positions returns a copy of all vertex positions.
func (m *Mesh) Positions() []math.Vec3 {
	out := make([]math.Vec3, len(m.Verts))
	for i, v := range m.Verts {
		out[i] = v.Pos
	}
	return out
}

// SelectedEdges returns the indices of all selected edges.
func (m *Mesh) SelectedEdges() []int {
	var out []int
	for i, e := range m.Edges {
		if e.Selected {
			out = append(out, i)
		}
	}
	return out
}

// ClearSelection deselects every edge.
func (m *Mesh) ClearSelection() {
	for i := range m.Edges {
		m.Edges[i].Selected = false
	}
}
