// Package ops runs the geometry tools against scene objects: it resolves
// the target, enters the mode the tool needs, extracts arrays from the
// object, runs the tool and writes the results back.
package ops

import (
	"errors"
	"fmt"
	gomath "math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshprep/internal/config"
	"github.com/Faultbox/meshprep/internal/logger"
	"github.com/Faultbox/meshprep/internal/scene"
	"github.com/Faultbox/meshprep/pkg/loops"
	"github.com/Faultbox/meshprep/pkg/math"
	"github.com/Faultbox/meshprep/pkg/proportional"
	"github.com/Faultbox/meshprep/pkg/sphere"
	"github.com/Faultbox/meshprep/pkg/weights"
)

// Operator errors.
var (
	ErrNothingSelected   = errors.New("no vertices selected")
	ErrSingularTransform = errors.New("object transform is not invertible")
	ErrNoBones           = errors.New("armature has no bones")
)

// Operators binds the tools to a scene and a configuration.
type Operators struct {
	Scene  *scene.Scene
	Config *config.Config
}

// New returns operators for sc. A nil cfg means config.Default().
func New(sc *scene.Scene, cfg *config.Config) *Operators {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Operators{Scene: sc, Config: cfg}
}

// FitSphere fits a sphere to the selected vertices of a mesh in world
// space, or to all of them when none are selected. On success the scene
// cursor moves to the center. ok is false when the points do not determine
// a sphere.
func (o *Operators) FitSphere(h scene.Handle) (fit sphere.Fit, ok bool, err error) {
	log := logger.Op("fit_sphere")
	restore, err := o.Scene.EnterMode(h, scene.EditMode)
	if err != nil {
		return sphere.Fit{}, false, err
	}
	defer restore()

	obj, err := o.Scene.Mesh(h)
	if err != nil {
		return sphere.Fit{}, false, err
	}

	all := obj.SelectedCount() == 0
	var pts []math.Vec3
	for i, v := range obj.Mesh.Verts {
		if all || obj.Selected[i] {
			pts = append(pts, obj.Transform.Apply(v.Pos))
		}
	}

	fit, ok = sphere.FitSphere(pts)
	if !ok {
		log.Warn("points do not determine a sphere", zap.Int("points", len(pts)))
		return sphere.Fit{}, false, nil
	}
	o.Scene.Cursor = fit.Center
	log.Info("sphere fitted",
		zap.Int("points", len(pts)),
		zap.Float64("radius", fit.Radius),
		logger.Vec3("center", fit.Center))
	return fit, true, nil
}

// LoopReport summarizes a dividing-loop scan.
type LoopReport struct {
	Selected int // loops chosen and selected
	Found    int // valid loops
	Abnormal int // candidates rejected for topology
	Excluded int // candidates rejected for edge attributes
}

// LoopOptions converts the loop section of the configuration.
func LoopOptions(c config.LoopsConfig) loops.Options {
	return loops.Options{
		MaxFaceAngle:   c.MaxFaceAngle * gomath.Pi / 180,
		ExcludeSeam:    c.ExcludeSeam,
		ExcludeSharp:   c.ExcludeSharp,
		MaxBevelWeight: c.MaxBevelWeight,
		MaxCrease:      c.MaxCrease,
	}
}

// SelectDividingLoops replaces the edge selection of a mesh with the
// dividing loops the configuration chooses.
func (o *Operators) SelectDividingLoops(h scene.Handle) (LoopReport, error) {
	log := logger.Op("select_dividing_loops")
	restore, err := o.Scene.EnterMode(h, scene.EditMode)
	if err != nil {
		return LoopReport{}, err
	}
	defer restore()

	obj, err := o.Scene.Mesh(h)
	if err != nil {
		return LoopReport{}, err
	}
	finder, err := loops.NewFinder(LoopOptions(o.Config.Loops))
	if err != nil {
		return LoopReport{}, err
	}

	var rep LoopReport
	for _, l := range finder.Loops(obj.Mesh) {
		switch l.Reason {
		case loops.Abnormal:
			rep.Abnormal++
		case loops.Excluded:
			rep.Excluded++
		}
	}

	choose := loops.SelectAll
	if n := o.Config.Loops.SelectEvery; n > 1 {
		choose = loops.SelectEvery(n)
	}
	obj.Mesh.ClearSelection()
	rep.Selected, rep.Found = finder.FindDividingLoops(obj.Mesh, choose)

	log.Info("dividing loops selected",
		zap.Int("selected", rep.Selected),
		zap.Int("found", rep.Found))
	if rep.Abnormal > 0 {
		log.Debug("abnormal candidates skipped", zap.Int("count", rep.Abnormal))
	}
	if rep.Excluded > 0 {
		log.Debug("excluded candidates skipped", zap.Int("count", rep.Excluded))
	}
	return rep, nil
}

// DirectionMode picks how ProportionalMove derives the displacement
// direction when no explicit Direction is given.
type DirectionMode int

const (
	// AlongAxis moves along the configured world axis.
	AlongAxis DirectionMode = iota
	// AwayFromCursor moves away from the scene cursor.
	AwayFromCursor
	// AwayFromOrigin moves away from the object origin.
	AwayFromOrigin
	// AwayFromView moves along the ray from the scene viewpoint.
	AwayFromView
	// AlongBone moves each vertex along the configured axis of its
	// nearest armature bone.
	AlongBone
)

var directionModeNames = [...]string{"axis", "cursor", "origin", "view", "bone"}

func (m DirectionMode) String() string {
	if m < 0 || int(m) >= len(directionModeNames) {
		return fmt.Sprintf("DirectionMode(%d)", int(m))
	}
	return directionModeNames[m]
}

// ParseDirectionMode converts "axis", "cursor", "origin", "view" or "bone".
func ParseDirectionMode(s string) (DirectionMode, error) {
	for i, n := range directionModeNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return DirectionMode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: direction mode %q", proportional.ErrInvalidConfig, s)
}

// MoveOptions tune ProportionalMove.
type MoveOptions struct {
	// Direction overrides Mode. It works in object space.
	Direction proportional.Direction
	// Mode picks the direction when Direction is nil.
	Mode DirectionMode
	// Armature supplies the bones for AlongBone.
	Armature scene.Handle
	// MaxDistance clamps each displacement when positive.
	MaxDistance float64
	// Snap rounds moved points to a grid of this step when positive.
	Snap float64
}

// ProportionalMove displaces the selected vertices of a mesh by amount and
// drags nearby vertices along by the configured falloff. Amount, radius and
// clamp distances are in object space; the configured axis, the cursor, the
// viewpoint and the armature are in world space. It returns how many
// vertices moved.
func (o *Operators) ProportionalMove(h scene.Handle, amount float64, opts MoveOptions) (int, error) {
	log := logger.Op("proportional_move")
	restore, err := o.Scene.EnterMode(h, scene.EditMode)
	if err != nil {
		return 0, err
	}
	defer restore()

	obj, err := o.Scene.Mesh(h)
	if err != nil {
		return 0, err
	}
	if obj.SelectedCount() == 0 {
		return 0, ErrNothingSelected
	}

	cfg := o.Config.Proportional
	st, err := proportional.Setup(obj.Mesh.Positions(), obj.Selected)
	if err != nil {
		return 0, err
	}
	dir := opts.Direction
	if dir == nil {
		if dir, err = o.direction(obj, opts); err != nil {
			return 0, err
		}
	}
	if err := st.SetDirection(dir); err != nil {
		return 0, err
	}
	if err := st.SetRadius(cfg.Radius); err != nil {
		return 0, err
	}
	if err := st.SetFalloff(cfg.Falloff); err != nil {
		return 0, err
	}
	st.SetSeed(cfg.Seed)
	if opts.MaxDistance > 0 {
		st.AddModifier(st.ClampDistance(opts.MaxDistance))
	}
	if opts.Snap > 0 {
		st.AddModifier(proportional.SnapToGrid(opts.Snap))
	}

	positions, moved, err := st.ComputeMove(amount, nil)
	if err != nil {
		return 0, err
	}
	n := 0
	for i, p := range positions {
		obj.Mesh.Verts[i].Pos = p
		if moved[i] {
			n++
		}
	}

	log.Info("vertices moved",
		zap.Float64("amount", amount),
		zap.Int("moved", n),
		zap.Stringer("falloff", cfg.Falloff),
		zap.Stringer("mode", opts.Mode),
		zap.Float64("radius", cfg.Radius),
		logger.Vec3("center", st.Center()))
	return n, nil
}

// direction builds the object-space direction for opts.Mode.
func (o *Operators) direction(obj *scene.MeshObject, opts MoveOptions) (proportional.Direction, error) {
	world := obj.Transform.Matrix()
	inv, ok := world.Inverse()
	if !ok {
		return nil, ErrSingularTransform
	}
	switch opts.Mode {
	case AlongAxis, AlongBone:
		axis, err := proportional.ParseAxis(o.Config.Proportional.Direction)
		if err != nil {
			return nil, err
		}
		if opts.Mode == AlongAxis {
			return proportional.LocalAxis{Transform: inv, Axis: axis}, nil
		}
		return o.boneAxes(obj, world, inv, opts.Armature, axis)
	case AwayFromCursor:
		return proportional.FromCursor{Cursor: inv.TransformVec3(o.Scene.Cursor)}, nil
	case AwayFromOrigin:
		return proportional.FromOrigin{Origin: inv.TransformVec3(obj.Transform.Location)}, nil
	case AwayFromView:
		return proportional.FromViewpoint{Eye: inv.TransformVec3(o.Scene.Viewpoint)}, nil
	}
	return nil, fmt.Errorf("%w: direction mode %v", proportional.ErrInvalidConfig, opts.Mode)
}

// boneAxes gives every vertex the frame of the bone nearest to it in world
// space, expressed in the mesh's object space.
func (o *Operators) boneAxes(obj *scene.MeshObject, world, inv math.Mat4, h scene.Handle, axis proportional.Axis) (proportional.Direction, error) {
	arm, err := o.Scene.Armature(h)
	if err != nil {
		return nil, err
	}
	if len(arm.Bones) == 0 {
		return nil, ErrNoBones
	}
	armWorld := arm.Transform.Matrix()
	armInv, ok := armWorld.Inverse()
	if !ok {
		return nil, ErrSingularTransform
	}
	frames := make([]math.Mat4, len(arm.Bones))
	for i, b := range arm.Bones {
		frames[i] = inv.Mul(armWorld).Mul(b.Matrix())
	}
	toArm := armInv.Mul(world)
	out := make([]math.Mat4, len(obj.Mesh.Verts))
	for i, v := range obj.Mesh.Verts {
		out[i] = frames[arm.NearestBone(toArm.TransformVec3(v.Pos))]
	}
	return proportional.PerPointAxis{Transforms: out, Axis: axis}, nil
}

// SmoothReport summarizes a weight smoothing run.
type SmoothReport struct {
	Groups   int
	Selected int
	Method   string
	Elapsed  time.Duration
}

// SmoothWeights smooths the vertex group weights of the selected vertices
// with the configured method and writes them back.
func (o *Operators) SmoothWeights(h scene.Handle) (SmoothReport, error) {
	log := logger.Op("smooth_weights")
	restore, err := o.Scene.EnterMode(h, scene.WeightPaintMode)
	if err != nil {
		return SmoothReport{}, err
	}
	defer restore()

	obj, err := o.Scene.Mesh(h)
	if err != nil {
		return SmoothReport{}, err
	}
	if obj.SelectedCount() == 0 {
		return SmoothReport{}, ErrNothingSelected
	}

	cfg := o.Config.Smoothing
	w, err := weights.Get(obj.Groups)
	if err != nil {
		return SmoothReport{}, err
	}

	start := time.Now()
	sm := &weights.Smoother{Limit: cfg.Limit, Workers: cfg.Workers}
	var out = w
	switch cfg.Method {
	case config.MethodFalloff:
		out, err = sm.Falloff(w, obj.Mesh, obj.Selected, cfg.Iterations, cfg.Radius, cfg.Normalize)
	case config.MethodLeastSquares:
		out, err = sm.LeastSquares(w, obj.Mesh, obj.Selected, cfg.Iterations, cfg.Strength, cfg.Normalize)
	default:
		err = fmt.Errorf("%w: smoothing method %q", weights.ErrInvalidConfig, cfg.Method)
	}
	if err != nil {
		return SmoothReport{}, err
	}

	err = weights.Set(obj.Groups, out, weights.SetOptions{
		Normalize: cfg.Normalize,
		Limit:     cfg.Limit,
		Selected:  obj.Selected,
	})
	if err != nil {
		return SmoothReport{}, err
	}

	rep := SmoothReport{
		Groups:   obj.Groups.NumGroups(),
		Selected: obj.SelectedCount(),
		Method:   cfg.Method,
		Elapsed:  time.Since(start),
	}
	log.Info("weights smoothed",
		zap.String("method", rep.Method),
		zap.Int("iterations", cfg.Iterations),
		zap.Int("groups", rep.Groups),
		zap.Int("vertices", rep.Selected),
		zap.Duration("elapsed", rep.Elapsed))
	return rep, nil
}
