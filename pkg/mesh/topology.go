package mesh

// IsWireEdge reports whether e borders no face.
func (m *Mesh) IsWireEdge(e int) bool {
	return len(m.Edges[e].Faces) == 0
}

// IsBoundaryEdge reports whether e borders exactly one face.
func (m *Mesh) IsBoundaryEdge(e int) bool {
	return len(m.Edges[e].Faces) == 1
}

// IsWireVertex reports whether any edge at v borders no face.
func (m *Mesh) IsWireVertex(v int) bool {
	for _, e := range m.Verts[v].Edges {
		if m.IsWireEdge(e) {
			return true
		}
	}
	return false
}

// IsBoundaryVertex reports whether v lies on an open boundary.
func (m *Mesh) IsBoundaryVertex(v int) bool {
	for _, e := range m.Verts[v].Edges {
		if m.IsBoundaryEdge(e) {
			return true
		}
	}
	return false
}

// IsManifoldVertex reports whether the faces around v form a single fan:
// every incident edge borders one or two faces, there are no wire edges, at
// most two boundary edges, and all faces are reachable from each other by
// crossing edges incident to v.
func (m *Mesh) IsManifoldVertex(v int) bool {
	vert := m.Verts[v]
	if len(vert.Edges) == 0 || len(vert.Faces) == 0 {
		return false
	}
	boundary := 0
	for _, e := range vert.Edges {
		switch n := len(m.Edges[e].Faces); {
		case n == 0 || n > 2:
			return false
		case n == 1:
			boundary++
		}
	}
	if boundary != 0 && boundary != 2 {
		return false
	}

	// Flood the fan across edges incident to v.
	inFan := make(map[int]bool, len(vert.Faces))
	stack := []int{vert.Faces[0]}
	inFan[vert.Faces[0]] = true
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range m.Faces[f].Edges {
			ed := m.Edges[e]
			if ed.V[0] != v && ed.V[1] != v {
				continue
			}
			for _, nf := range ed.Faces {
				if !inFan[nf] {
					inFan[nf] = true
					stack = append(stack, nf)
				}
			}
		}
	}
	return len(inFan) == len(vert.Faces)
}

// VertexNeighbors returns the vertices sharing a face with v, excluding v.
func (m *Mesh) VertexNeighbors(v int) []int {
	seen := map[int]bool{v: true}
	var out []int
	for _, f := range m.Verts[v].Faces {
		for _, u := range m.Faces[f].Verts {
			if !seen[u] {
				seen[u] = true
				out = append(out, u)
			}
		}
	}
	return out
}
