package ops

import (
	"bytes"
	"fmt"
	gomath "math"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/meshprep/internal/scene"
	"github.com/Faultbox/meshprep/pkg/encoding"
	"github.com/Faultbox/meshprep/pkg/formats"
	"github.com/Faultbox/meshprep/pkg/math"
	"github.com/Faultbox/meshprep/pkg/mesh"
	"github.com/Faultbox/meshprep/pkg/weights"
)

// FromSnapshot builds a mesh object from a snapshot. Listed edges that no
// face uses become wire edges.
func FromSnapshot(s *formats.Snapshot) (*scene.MeshObject, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	pos := make([]math.Vec3, len(s.Vertices))
	for i, v := range s.Vertices {
		pos[i] = math.Vec3{X: v[0], Y: v[1], Z: v[2]}
	}
	m, err := mesh.New(pos, s.Faces)
	if err != nil {
		return nil, err
	}

	for _, a := range s.Edges {
		e, err := m.AddEdge(a.V[0], a.V[1])
		if err != nil {
			return nil, err
		}
		edge := &m.Edges[e]
		edge.Seam = a.Seam
		edge.Sharp = a.Sharp
		edge.BevelWeight = a.Bevel
		edge.Crease = a.Crease
		edge.Selected = a.Selected
	}

	obj := scene.NewMeshObject(m)
	if s.Transform != nil {
		obj.Transform = transformFromSnapshot(s.Transform)
	}
	for _, v := range s.Selected {
		obj.Selected[v] = true
	}
	obj.Groups = weights.NewGroups(len(pos), s.Groups...)
	for _, vw := range s.Weights {
		for name, w := range vw.Groups {
			g, _ := obj.Groups.Index(name)
			obj.Groups.Assign(vw.Vertex, g, w)
		}
	}
	return obj, nil
}

// ToSnapshot captures a mesh object. Only edges with attributes or without
// faces are listed.
func ToSnapshot(name string, obj *scene.MeshObject) *formats.Snapshot {
	m := obj.Mesh
	s := &formats.Snapshot{
		Name:     name,
		Vertices: make([][3]float64, len(m.Verts)),
		Faces:    make([][]int, len(m.Faces)),
	}
	if !obj.Transform.IsIdentity() {
		s.Transform = transformToSnapshot(obj.Transform)
	}
	for i, v := range m.Verts {
		s.Vertices[i] = [3]float64{v.Pos.X, v.Pos.Y, v.Pos.Z}
	}
	for i, f := range m.Faces {
		s.Faces[i] = append([]int(nil), f.Verts...)
	}
	for _, e := range m.Edges {
		if len(e.Faces) > 0 && !e.Seam && !e.Sharp && e.BevelWeight == 0 && e.Crease == 0 && !e.Selected {
			continue
		}
		s.Edges = append(s.Edges, formats.EdgeAttrs{
			V:        e.V,
			Seam:     e.Seam,
			Sharp:    e.Sharp,
			Bevel:    e.BevelWeight,
			Crease:   e.Crease,
			Selected: e.Selected,
		})
	}
	for v, sel := range obj.Selected {
		if sel {
			s.Selected = append(s.Selected, v)
		}
	}

	if obj.Groups != nil && obj.Groups.NumGroups() > 0 {
		names := obj.Groups.Names()
		s.Groups = append([]string(nil), names...)
		for v := 0; v < obj.Groups.NumVertices(); v++ {
			member := obj.Groups.Memberships(v)
			if len(member) == 0 {
				continue
			}
			vw := formats.VertexWeights{Vertex: v, Groups: make(map[string]float64, len(member))}
			for _, g := range member {
				w, _ := obj.Groups.Weight(v, g)
				vw.Groups[names[g]] = w
			}
			s.Weights = append(s.Weights, vw)
		}
	}
	return s
}

// FromArmature builds an armature object from its file form.
func FromArmature(a *formats.Armature) (*scene.ArmatureObject, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	obj := &scene.ArmatureObject{
		Bones:     make([]scene.Bone, len(a.Bones)),
		Transform: math.IdentityTransform(),
	}
	if a.Transform != nil {
		obj.Transform = transformFromSnapshot(a.Transform)
	}
	for i, b := range a.Bones {
		obj.Bones[i] = scene.Bone{
			Name:   b.Name,
			Parent: b.Parent,
			Head:   math.Vec3{X: b.Head[0], Y: b.Head[1], Z: b.Head[2]},
			Tail:   math.Vec3{X: b.Tail[0], Y: b.Tail[1], Z: b.Tail[2]},
		}
	}
	return obj, nil
}

// LoadArmatureFile reads an armature object from a .yaml or .yml file. The
// returned name is the one stored in the file, or the file's base name.
func LoadArmatureFile(path string) (*scene.ArmatureObject, string, error) {
	a, err := formats.LoadArmature(path)
	if err != nil {
		return nil, "", err
	}
	obj, err := FromArmature(a)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	name := a.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return obj, name, nil
}

func transformFromSnapshot(st *formats.SnapshotTransform) math.Transform {
	t := math.IdentityTransform()
	t.Location = math.Vec3{X: st.Location[0], Y: st.Location[1], Z: st.Location[2]}
	switch {
	case st.Rotation != nil:
		q := st.Rotation
		t.Rotation = math.Quat{W: q[0], X: q[1], Y: q[2], Z: q[3]}.Normalize()
	case st.Euler != nil:
		e := st.Euler
		rad := gomath.Pi / 180
		t.Rotation = math.QuatFromEuler(e[0]*rad, e[1]*rad, e[2]*rad)
	}
	if sc := st.Scale; sc != nil {
		t.Scale = math.Vec3{X: sc[0], Y: sc[1], Z: sc[2]}
	}
	return t
}

// transformToSnapshot always writes the quaternion form.
func transformToSnapshot(t math.Transform) *formats.SnapshotTransform {
	q := t.Rotation
	st := &formats.SnapshotTransform{
		Location: [3]float64{t.Location.X, t.Location.Y, t.Location.Z},
		Rotation: &[4]float64{q.W, q.X, q.Y, q.Z},
	}
	if t.Scale != (math.Vec3{X: 1, Y: 1, Z: 1}) {
		st.Scale = &[3]float64{t.Scale.X, t.Scale.Y, t.Scale.Z}
	}
	return st
}

// FromOBJ builds a mesh object from OBJ geometry. Polylines become wire
// edges and every vertex starts selected.
func FromOBJ(o *formats.OBJ) (*scene.MeshObject, error) {
	m, err := mesh.New(o.Vertices, o.Faces)
	if err != nil {
		return nil, err
	}
	for _, l := range o.Lines {
		if _, err := m.AddEdge(l[0], l[1]); err != nil {
			return nil, err
		}
	}
	obj := scene.NewMeshObject(m)
	for i := range obj.Selected {
		obj.Selected[i] = true
	}
	return obj, nil
}

// LoadFile reads a mesh object from a .obj or .yaml/.yml file. OBJ files
// are decoded from the labelled text encoding; snapshots are always UTF-8.
// The returned name is the one stored in the file, or the file's base name.
func LoadFile(path, enc string) (*scene.MeshObject, string, error) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		o, err := formats.ParseOBJFile(path, enc)
		if err != nil {
			return nil, "", err
		}
		obj, err := FromOBJ(o)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", path, err)
		}
		if o.Name != "" {
			base = o.Name
		}
		return obj, base, nil
	case ".yaml", ".yml":
		s, err := formats.LoadSnapshot(path)
		if err != nil {
			return nil, "", err
		}
		obj, err := FromSnapshot(s)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", path, err)
		}
		if s.Name != "" {
			base = s.Name
		}
		return obj, base, nil
	}
	return nil, "", fmt.Errorf("unsupported mesh file %q: want .obj, .yaml or .yml", path)
}

// SaveFile writes obj to path, choosing the format by extension. OBJ output
// keeps only geometry and is encoded with the labelled text encoding.
func SaveFile(path, name string, obj *scene.MeshObject, enc string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		faces := make([][]int, len(obj.Mesh.Faces))
		for i, face := range obj.Mesh.Faces {
			faces[i] = face.Verts
		}
		var buf bytes.Buffer
		if err := formats.WriteOBJ(&buf, name, obj.Mesh.Positions(), faces); err != nil {
			return err
		}
		data, err := encoding.FromUTF8(buf.Bytes(), enc)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return os.WriteFile(path, data, 0644)
	case ".yaml", ".yml":
		return formats.SaveSnapshot(path, ToSnapshot(name, obj))
	}
	return fmt.Errorf("unsupported mesh file %q: want .obj, .yaml or .yml", path)
}
