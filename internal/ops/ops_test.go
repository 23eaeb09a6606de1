package ops

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshprep/internal/config"
	"github.com/Faultbox/meshprep/internal/scene"
	"github.com/Faultbox/meshprep/pkg/falloff"
	"github.com/Faultbox/meshprep/pkg/math"
	"github.com/Faultbox/meshprep/pkg/mesh"
	"github.com/Faultbox/meshprep/pkg/proportional"
	"github.com/Faultbox/meshprep/pkg/weights"
)

func addMesh(t *testing.T, sc *scene.Scene, name string, m *mesh.Mesh) (scene.Handle, *scene.MeshObject) {
	t.Helper()
	obj := scene.NewMeshObject(m)
	h, err := sc.Add(name, obj)
	require.NoError(t, err)
	return h, obj
}

func assertObjectMode(t *testing.T, sc *scene.Scene) {
	t.Helper()
	h, mode := sc.Active()
	assert.Equal(t, scene.Handle(0), h)
	assert.Equal(t, scene.ObjectMode, mode)
}

func spherePoints(center math.Vec3, r float64) []math.Vec3 {
	var pts []math.Vec3
	for i := 0; i < 6; i++ {
		theta := gomath.Pi * (float64(i) + 0.5) / 6
		for j := 0; j < 8; j++ {
			phi := 2 * gomath.Pi * float64(j) / 8
			pts = append(pts, center.Add(math.Vec3{
				X: r * gomath.Sin(theta) * gomath.Cos(phi),
				Y: r * gomath.Sin(theta) * gomath.Sin(phi),
				Z: r * gomath.Cos(theta),
			}))
		}
	}
	return pts
}

func TestFitSphere(t *testing.T) {
	sc := scene.New()
	center := math.Vec3{X: 1, Y: 2, Z: 3}
	m, err := mesh.New(spherePoints(center, 2), nil)
	require.NoError(t, err)
	h, obj := addMesh(t, sc, "Ball", m)
	obj.Transform.Location = math.Vec3{X: 10}

	fit, ok, err := New(sc, nil).FitSphere(h)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 2, fit.Radius, 1e-9)
	assert.InDelta(t, 11, fit.Center.X, 1e-9)
	assert.InDelta(t, 2, fit.Center.Y, 1e-9)
	assert.InDelta(t, 3, fit.Center.Z, 1e-9)
	assert.Equal(t, fit.Center, sc.Cursor)
	assertObjectMode(t, sc)
}

func TestFitSphereSelectedOnly(t *testing.T) {
	sc := scene.New()
	pts := append(spherePoints(math.Vec3{}, 1), math.Vec3{X: 50}, math.Vec3{Y: -40})
	m, err := mesh.New(pts, nil)
	require.NoError(t, err)
	h, obj := addMesh(t, sc, "Ball", m)
	for i := 0; i < len(pts)-2; i++ {
		obj.Selected[i] = true
	}

	fit, ok, err := New(sc, nil).FitSphere(h)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 1, fit.Radius, 1e-9)
}

func TestFitSphereDegenerate(t *testing.T) {
	sc := scene.New()
	h, _ := addMesh(t, sc, "Plane", mesh.Grid(1, 1))
	sc.Cursor = math.Vec3{X: 7}

	_, ok, err := New(sc, nil).FitSphere(h)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, math.Vec3{X: 7}, sc.Cursor)
	assertObjectMode(t, sc)
}

func TestFitSphereWrongKind(t *testing.T) {
	sc := scene.New()
	h, err := sc.Add("Rig", &scene.ArmatureObject{})
	require.NoError(t, err)

	_, _, err = New(sc, nil).FitSphere(h)
	assert.ErrorIs(t, err, scene.ErrWrongKind)
	assertObjectMode(t, sc)

	_, _, err = New(sc, nil).FitSphere(scene.Handle(42))
	assert.ErrorIs(t, err, scene.ErrStaleHandle)
}

func TestSelectDividingLoops(t *testing.T) {
	sc := scene.New()
	h, obj := addMesh(t, sc, "Grid", mesh.Grid(4, 4))
	obj.Mesh.Edges[0].Selected = true
	ops := New(sc, nil)

	rep, err := ops.SelectDividingLoops(h)
	require.NoError(t, err)
	assert.Equal(t, LoopReport{Selected: 6, Found: 6, Abnormal: 16}, rep)
	assert.Len(t, obj.Mesh.SelectedEdges(), 24)
	assert.False(t, obj.Mesh.Edges[0].Selected, "boundary edge selection must be cleared")
	assertObjectMode(t, sc)

	ops.Config.Loops.SelectEvery = 2
	rep, err = ops.SelectDividingLoops(h)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Selected)
	assert.Equal(t, 6, rep.Found)
	assert.Len(t, obj.Mesh.SelectedEdges(), 12)
}

func TestSelectDividingLoopsExcluded(t *testing.T) {
	sc := scene.New()
	h, obj := addMesh(t, sc, "Grid", mesh.Grid(4, 4))
	e, ok := obj.Mesh.EdgeBetween(6, 11)
	require.True(t, ok)
	obj.Mesh.Edges[e].Seam = true

	cfg := config.Default()
	cfg.Loops.ExcludeSeam = true
	rep, err := New(sc, cfg).SelectDividingLoops(h)
	require.NoError(t, err)
	assert.Equal(t, 5, rep.Found)
	assert.Equal(t, 1, rep.Excluded)
	assert.False(t, obj.Mesh.Edges[e].Selected)
}

func TestSelectDividingLoopsBadOptions(t *testing.T) {
	sc := scene.New()
	h, _ := addMesh(t, sc, "Grid", mesh.Grid(2, 2))
	cfg := config.Default()
	cfg.Loops.MaxCrease = -1

	_, err := New(sc, cfg).SelectDividingLoops(h)
	assert.Error(t, err)
	assertObjectMode(t, sc)
}

func TestLoopOptions(t *testing.T) {
	opts := LoopOptions(config.LoopsConfig{MaxFaceAngle: 90, ExcludeSharp: true, MaxCrease: 0.5})
	assert.InDelta(t, gomath.Pi/2, opts.MaxFaceAngle, 1e-12)
	assert.True(t, opts.ExcludeSharp)
	assert.Equal(t, 0.5, opts.MaxCrease)
}

func moveConfig() *config.Config {
	cfg := config.Default()
	cfg.Proportional.Radius = 1.5
	cfg.Proportional.Falloff = falloff.Linear
	return cfg
}

func TestProportionalMove(t *testing.T) {
	sc := scene.New()
	h, obj := addMesh(t, sc, "Grid", mesh.Grid(4, 4))
	obj.Selected[12] = true // (2, 2)

	moved, err := New(sc, moveConfig()).ProportionalMove(h, 1, MoveOptions{})
	require.NoError(t, err)

	// The center, its four edge neighbours and four diagonals.
	assert.Equal(t, 9, moved)
	assert.InDelta(t, 1, obj.Mesh.Verts[12].Pos.Z, 1e-12)
	assert.InDelta(t, 1.0/3, obj.Mesh.Verts[13].Pos.Z, 1e-12)
	assert.InDelta(t, 1-gomath.Sqrt2/1.5, obj.Mesh.Verts[18].Pos.Z, 1e-12)
	assert.Equal(t, 0.0, obj.Mesh.Verts[14].Pos.Z)
	assert.Equal(t, 2.0, obj.Mesh.Verts[12].Pos.X)
	assertObjectMode(t, sc)
}

func TestProportionalMoveOptions(t *testing.T) {
	sc := scene.New()
	h, obj := addMesh(t, sc, "Grid", mesh.Grid(4, 4))
	obj.Selected[12] = true
	ops := New(sc, moveConfig())

	_, err := ops.ProportionalMove(h, 3, MoveOptions{
		Direction:   proportional.GlobalAxis{Axis: proportional.AxisNegX},
		MaxDistance: 0.5,
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, obj.Mesh.Verts[12].Pos.X, 1e-12)
	assert.InDelta(t, 2.5, obj.Mesh.Verts[13].Pos.X, 1e-12)

	_, err = ops.ProportionalMove(h, 0.3, MoveOptions{Snap: 0.25})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, obj.Mesh.Verts[12].Pos.Z, 1e-12)
}

func TestProportionalMoveRotatedObject(t *testing.T) {
	sc := scene.New()
	h, obj := addMesh(t, sc, "Grid", mesh.Grid(4, 4))
	obj.Selected[12] = true
	// Local Y points along world Z.
	obj.Transform.Rotation = math.QuatFromEuler(gomath.Pi/2, 0, 0)

	_, err := New(sc, moveConfig()).ProportionalMove(h, 1, MoveOptions{})
	require.NoError(t, err)
	p := obj.Mesh.Verts[12].Pos
	assert.InDelta(t, 2, p.X, 1e-9)
	assert.InDelta(t, 3, p.Y, 1e-9)
	assert.InDelta(t, 0, p.Z, 1e-9)
}

func TestProportionalMoveFromCursor(t *testing.T) {
	sc := scene.New()
	h, obj := addMesh(t, sc, "Grid", mesh.Grid(4, 4))
	obj.Selected[12] = true
	obj.Transform.Location = math.Vec3{X: 10}
	sc.Cursor = math.Vec3{X: 12, Y: 2, Z: -5}

	_, err := New(sc, moveConfig()).ProportionalMove(h, 1, MoveOptions{Mode: AwayFromCursor})
	require.NoError(t, err)
	p := obj.Mesh.Verts[12].Pos
	assert.InDelta(t, 2, p.X, 1e-9)
	assert.InDelta(t, 2, p.Y, 1e-9)
	assert.InDelta(t, 1, p.Z, 1e-9)
	// Neighbours move away from the cursor too.
	assert.Greater(t, obj.Mesh.Verts[13].Pos.X, 3.0)
}

func TestProportionalMoveFromOrigin(t *testing.T) {
	sc := scene.New()
	h, obj := addMesh(t, sc, "Grid", mesh.Grid(4, 4))
	obj.Selected[12] = true
	obj.Transform.Location = math.Vec3{X: 10}

	_, err := New(sc, moveConfig()).ProportionalMove(h, 1, MoveOptions{Mode: AwayFromOrigin})
	require.NoError(t, err)
	p := obj.Mesh.Verts[12].Pos
	assert.InDelta(t, 2+gomath.Sqrt2/2, p.X, 1e-9)
	assert.InDelta(t, 2+gomath.Sqrt2/2, p.Y, 1e-9)
	assert.InDelta(t, 0, p.Z, 1e-9)
}

func TestProportionalMoveFromView(t *testing.T) {
	sc := scene.New()
	h, obj := addMesh(t, sc, "Grid", mesh.Grid(4, 4))
	obj.Selected[12] = true
	obj.Transform.Location = math.Vec3{X: 10}
	sc.Viewpoint = math.Vec3{X: 12, Y: 2, Z: 10}

	_, err := New(sc, moveConfig()).ProportionalMove(h, 1, MoveOptions{Mode: AwayFromView})
	require.NoError(t, err)
	assert.InDelta(t, -1, obj.Mesh.Verts[12].Pos.Z, 1e-9)
	assert.InDelta(t, 2, obj.Mesh.Verts[12].Pos.X, 1e-9)
}

func TestProportionalMoveAlongBone(t *testing.T) {
	sc := scene.New()
	h, obj := addMesh(t, sc, "Grid", mesh.Grid(4, 4))
	obj.Selected[12] = true // (2, 2)
	rig, err := sc.Add("Rig", &scene.ArmatureObject{
		Transform: math.IdentityTransform(),
		Bones: []scene.Bone{
			{Name: "hip", Tail: math.Vec3{X: 1}},
			{Name: "leg", Head: math.Vec3{X: 2, Y: 4}, Tail: math.Vec3{X: 2, Y: 4, Z: 1}},
		},
	})
	require.NoError(t, err)
	cfg := moveConfig()
	cfg.Proportional.Direction = "y"

	_, err = New(sc, cfg).ProportionalMove(h, 1, MoveOptions{Mode: AlongBone, Armature: rig})
	require.NoError(t, err)
	// The selected vertex is nearest the leg and moves up its length.
	p := obj.Mesh.Verts[12].Pos
	assert.InDelta(t, 2, p.X, 1e-9)
	assert.InDelta(t, 2, p.Y, 1e-9)
	assert.InDelta(t, 1, p.Z, 1e-9)
	// Vertex 11 at (1, 2) is nearest the hip and follows it along X.
	p = obj.Mesh.Verts[11].Pos
	assert.InDelta(t, 1+1.0/3, p.X, 1e-9)
	assert.InDelta(t, 0, p.Z, 1e-9)
}

func TestProportionalMoveAlongMovedArmature(t *testing.T) {
	sc := scene.New()
	h, obj := addMesh(t, sc, "Grid", mesh.Grid(4, 4))
	obj.Selected[12] = true
	obj.Transform.Location = math.Vec3{Z: 3}
	arm := &scene.ArmatureObject{
		Transform: math.IdentityTransform(),
		Bones:     []scene.Bone{{Name: "root", Tail: math.Vec3{Z: 1}}},
	}
	// Local Z of the armature points along world -X.
	arm.Transform.Rotation = math.QuatFromEuler(0, -gomath.Pi/2, 0)
	rig, err := sc.Add("Rig", arm)
	require.NoError(t, err)
	cfg := moveConfig()
	cfg.Proportional.Direction = "y"

	_, err = New(sc, cfg).ProportionalMove(h, 1, MoveOptions{Mode: AlongBone, Armature: rig})
	require.NoError(t, err)
	p := obj.Mesh.Verts[12].Pos
	assert.InDelta(t, 1, p.X, 1e-9)
	assert.InDelta(t, 2, p.Y, 1e-9)
	assert.InDelta(t, 0, p.Z, 1e-9)
}

func TestProportionalMoveBoneErrors(t *testing.T) {
	sc := scene.New()
	h, obj := addMesh(t, sc, "Grid", mesh.Grid(2, 2))
	obj.Selected[0] = true
	ops := New(sc, moveConfig())

	_, err := ops.ProportionalMove(h, 1, MoveOptions{Mode: AlongBone})
	assert.ErrorIs(t, err, scene.ErrStaleHandle)

	_, err = ops.ProportionalMove(h, 1, MoveOptions{Mode: AlongBone, Armature: h})
	assert.ErrorIs(t, err, scene.ErrWrongKind)

	rig, err := sc.Add("Rig", &scene.ArmatureObject{Transform: math.IdentityTransform()})
	require.NoError(t, err)
	_, err = ops.ProportionalMove(h, 1, MoveOptions{Mode: AlongBone, Armature: rig})
	assert.ErrorIs(t, err, ErrNoBones)
	assertObjectMode(t, sc)
}

func TestParseDirectionMode(t *testing.T) {
	for _, m := range []DirectionMode{AlongAxis, AwayFromCursor, AwayFromOrigin, AwayFromView, AlongBone} {
		got, err := ParseDirectionMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	got, err := ParseDirectionMode(" Bone ")
	require.NoError(t, err)
	assert.Equal(t, AlongBone, got)

	_, err = ParseDirectionMode("normal")
	assert.ErrorIs(t, err, proportional.ErrInvalidConfig)
}

func TestProportionalMoveErrors(t *testing.T) {
	sc := scene.New()
	h, obj := addMesh(t, sc, "Grid", mesh.Grid(2, 2))
	ops := New(sc, moveConfig())

	_, err := ops.ProportionalMove(h, 1, MoveOptions{})
	assert.ErrorIs(t, err, ErrNothingSelected)

	obj.Selected[0] = true
	ops.Config.Proportional.Direction = "w"
	_, err = ops.ProportionalMove(h, 1, MoveOptions{})
	assert.ErrorIs(t, err, proportional.ErrInvalidConfig)
	assertObjectMode(t, sc)

	ops.Config.Proportional.Direction = "z"
	obj.Transform.Scale = math.Vec3{}
	_, err = ops.ProportionalMove(h, 1, MoveOptions{})
	assert.ErrorIs(t, err, ErrSingularTransform)
}

func weightedGrid(t *testing.T, sc *scene.Scene) (scene.Handle, *scene.MeshObject) {
	t.Helper()
	h, obj := addMesh(t, sc, "Body", mesh.Grid(2, 2))
	obj.Groups = weights.NewGroups(9, "upper", "lower")
	for v := range obj.Mesh.Verts {
		y := obj.Mesh.Verts[v].Pos.Y
		obj.Groups.Assign(v, 0, y/2)
		obj.Groups.Assign(v, 1, 1-y/2)
	}
	obj.Groups.Remove(0, 0)
	obj.Groups.Remove(8, 1)
	for v := 0; v < 6; v++ {
		obj.Selected[v] = true
	}
	return h, obj
}

func TestSmoothWeights(t *testing.T) {
	for _, method := range []string{config.MethodLeastSquares, config.MethodFalloff} {
		t.Run(method, func(t *testing.T) {
			sc := scene.New()
			h, obj := weightedGrid(t, sc)
			cfg := config.Default()
			cfg.Smoothing.Method = method

			rep, err := New(sc, cfg).SmoothWeights(h)
			require.NoError(t, err)
			assert.Equal(t, 2, rep.Groups)
			assert.Equal(t, 6, rep.Selected)
			assert.Equal(t, method, rep.Method)

			for v := 0; v < 6; v++ {
				var sum float64
				for g := 0; g < 2; g++ {
					w, _ := obj.Groups.Weight(v, g)
					assert.GreaterOrEqual(t, w, 0.0)
					sum += w
				}
				assert.InDelta(t, 1, sum, 1e-9, "vertex %d", v)
			}

			// Unselected vertices keep their weights.
			w, ok := obj.Groups.Weight(8, 0)
			assert.True(t, ok)
			assert.Equal(t, 1.0, w)
			_, ok = obj.Groups.Weight(8, 1)
			assert.False(t, ok)
			assertObjectMode(t, sc)
		})
	}
}

func TestSmoothWeightsErrors(t *testing.T) {
	sc := scene.New()
	h, obj := weightedGrid(t, sc)
	cfg := config.Default()
	ops := New(sc, cfg)

	cfg.Smoothing.Method = "blur"
	_, err := ops.SmoothWeights(h)
	assert.ErrorIs(t, err, weights.ErrInvalidConfig)

	cfg.Smoothing.Method = config.MethodFalloff
	cfg.Smoothing.Radius = 0
	_, err = ops.SmoothWeights(h)
	assert.ErrorIs(t, err, weights.ErrInvalidConfig)

	obj.Groups = weights.NewGroups(9)
	_, err = ops.SmoothWeights(h)
	assert.ErrorIs(t, err, weights.ErrNoGroups)

	for i := range obj.Selected {
		obj.Selected[i] = false
	}
	_, err = ops.SmoothWeights(h)
	assert.True(t, errors.Is(err, ErrNothingSelected))

	rig, err := sc.Add("Rig", &scene.ArmatureObject{})
	require.NoError(t, err)
	_, err = ops.SmoothWeights(rig)
	assert.ErrorIs(t, err, scene.ErrModeNotValid)
	assertObjectMode(t, sc)
}
