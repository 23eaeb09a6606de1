package scene

import (
	gomath "math"

	"github.com/Faultbox/meshprep/pkg/math"
	"github.com/Faultbox/meshprep/pkg/mesh"
	"github.com/Faultbox/meshprep/pkg/weights"
)

// MeshObject is a polygon mesh with vertex groups and a vertex selection.
type MeshObject struct {
	Mesh      *mesh.Mesh
	Groups    *weights.Groups
	Selected  []bool
	Transform math.Transform
}

// NewMeshObject wraps m with an empty selection and no groups.
func NewMeshObject(m *mesh.Mesh) *MeshObject {
	return &MeshObject{
		Mesh:      m,
		Groups:    weights.NewGroups(len(m.Verts)),
		Selected:  make([]bool, len(m.Verts)),
		Transform: math.IdentityTransform(),
	}
}

// SelectedCount returns the number of selected vertices.
func (o *MeshObject) SelectedCount() int {
	n := 0
	for _, s := range o.Selected {
		if s {
			n++
		}
	}
	return n
}

// Bone is an armature bone in armature space.
type Bone struct {
	Name   string
	Parent string
	Head   math.Vec3
	Tail   math.Vec3
}

// Matrix returns the bone frame in armature space: origin at the head, Y
// along the bone, X and Z perpendicular to it. A zero-length bone keeps the
// armature axes.
func (b Bone) Matrix() math.Mat4 {
	y := b.Tail.Sub(b.Head).Normalize(1e-12)
	if y.IsZero() {
		return math.Translate(b.Head.X, b.Head.Y, b.Head.Z)
	}
	ref := math.Vec3{Z: 1}
	if gomath.Abs(y.Z) > 0.999 {
		ref = math.Vec3{Y: -1}
	}
	x := y.Cross(ref).Normalize(1e-12)
	z := x.Cross(y)
	return math.Mat4{
		x.X, x.Y, x.Z, 0,
		y.X, y.Y, y.Z, 0,
		z.X, z.Y, z.Z, 0,
		b.Head.X, b.Head.Y, b.Head.Z, 1,
	}
}

// Distance returns how far p lies from the segment between head and tail.
func (b Bone) Distance(p math.Vec3) float64 {
	d := b.Tail.Sub(b.Head)
	l := d.LengthSq()
	if l == 0 {
		return p.Distance(b.Head)
	}
	t := gomath.Max(0, gomath.Min(1, p.Sub(b.Head).Dot(d)/l))
	return p.Distance(b.Head.Add(d.Scale(t)))
}

// ArmatureObject is a skeleton.
type ArmatureObject struct {
	Bones     []Bone
	Transform math.Transform
}

// NearestBone returns the index of the bone closest to p, given in
// armature space. Ties go to the earlier bone. It returns -1 for an
// armature without bones.
func (a *ArmatureObject) NearestBone(p math.Vec3) int {
	best, bestDist := -1, gomath.Inf(1)
	for i, b := range a.Bones {
		if d := b.Distance(p); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// EmptyObject carries only a transform.
type EmptyObject struct {
	Transform math.Transform
}

func (*MeshObject) sceneObject()     {}
func (*ArmatureObject) sceneObject() {}
func (*EmptyObject) sceneObject()    {}

// KindOf names the object's kind for messages.
func KindOf(obj Object) string {
	switch obj.(type) {
	case *MeshObject:
		return "mesh"
	case *ArmatureObject:
		return "armature"
	case *EmptyObject:
		return "empty"
	}
	return "unknown"
}
