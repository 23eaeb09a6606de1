// meshprep is a CLI for preparing meshes for rigging: sphere fitting,
// dividing-loop selection, proportional moves and vertex weight smoothing.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/meshprep/internal/config"
	"github.com/Faultbox/meshprep/internal/logger"
	"github.com/Faultbox/meshprep/internal/ops"
	"github.com/Faultbox/meshprep/internal/scene"
	"github.com/Faultbox/meshprep/pkg/falloff"
	"github.com/Faultbox/meshprep/pkg/math"
)

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]
	if command == "help" || command == "-h" || command == "--help" {
		printUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	fileCfg := logger.FileConfig{}
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
		fileCfg.JSON = cfg.Logging.JSON
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, true); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Sugar.Debugf("Config: %+v", cfg)

	switch command {
	case "info":
		err = cmdInfo(cfg, args)
	case "sphere":
		err = cmdSphere(cfg, args)
	case "loops":
		err = cmdLoops(cfg, args)
	case "move":
		err = cmdMove(cfg, args)
	case "smooth":
		err = cmdSmooth(cfg, args)
	case "config":
		err = cmdConfig(cfg, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshprep - mesh preparation tools

Usage:
  meshprep [global options] <command> [options]

Global options:
  -config <file>    Config file (default ./meshprep.yaml or the user config dir)
  -debug            Debug logging
  -log-file <file>  Also log to a rotating file
  -workers <n>      Groups smoothed concurrently (0 = one per group)
  -seed <n>         Seed for the random falloff
  -encoding <name>  Text encoding of OBJ files (default utf-8)

Commands:
  info <mesh>                     Show mesh topology and groups
  sphere <mesh>                   Fit a sphere to the selected vertices
  loops <mesh> [-o out]           Select dividing edge loops
  move <mesh> -amount <d> [-o out]
                                  Proportional move of the selection
  smooth <mesh> [-o out]          Smooth vertex group weights
  config [file]                   Write the effective configuration

Meshes are .obj files or .yaml snapshots.

Examples:
  meshprep info body.yaml
  meshprep loops -every 2 -o body.yaml body.yaml
  meshprep move -amount 0.2 -axis -y -falloff sphere -radius 0.5 -o out.obj body.yaml
  meshprep move -amount 0.1 -direction bone -armature rig.yaml -axis y body.yaml
  meshprep -workers 4 smooth -method falloff -iterations 3 -o body.yaml body.yaml`)
}

// load reads a mesh file into a fresh scene.
func load(cfg *config.Config, path string) (*scene.Scene, scene.Handle, *scene.MeshObject, string, error) {
	obj, name, err := ops.LoadFile(path, cfg.Files.Encoding)
	if err != nil {
		return nil, 0, nil, "", err
	}
	sc := scene.New()
	h, err := sc.Add(name, obj)
	if err != nil {
		return nil, 0, nil, "", err
	}
	return sc, h, obj, name, nil
}

// needMesh parses fs and returns its single positional mesh path.
func needMesh(fs *flag.FlagSet, args []string, usage string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("usage: meshprep %s", usage)
	}
	return fs.Arg(0), nil
}

func save(cfg *config.Config, out, name string, obj *scene.MeshObject) error {
	if out == "" {
		return nil
	}
	if err := ops.SaveFile(out, name, obj, cfg.Files.Encoding); err != nil {
		return err
	}
	logger.Info("mesh written", zap.String("path", out))
	return nil
}

func cmdInfo(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	path, err := needMesh(fs, args, "info <mesh>")
	if err != nil {
		return err
	}
	_, _, obj, name, err := load(cfg, path)
	if err != nil {
		return err
	}

	m := obj.Mesh
	var boundary, wire, nonManifold int
	for e := range m.Edges {
		switch {
		case m.IsWireEdge(e):
			wire++
		case m.IsBoundaryEdge(e):
			boundary++
		}
	}
	for v := range m.Verts {
		if !m.IsManifoldVertex(v) {
			nonManifold++
		}
	}

	fmt.Printf("Mesh:      %s\n", name)
	fmt.Printf("Vertices:  %d (%d selected, %d non-manifold)\n", len(m.Verts), obj.SelectedCount(), nonManifold)
	fmt.Printf("Edges:     %d (%d boundary, %d wire, %d selected)\n", len(m.Edges), boundary, wire, len(m.SelectedEdges()))
	fmt.Printf("Faces:     %d\n", len(m.Faces))
	if t := obj.Transform; !t.IsIdentity() {
		l := t.Location
		fmt.Printf("Location:  (%g, %g, %g)\n", l.X, l.Y, l.Z)
	}
	if names := obj.Groups.Names(); len(names) > 0 {
		fmt.Printf("Groups:    %s\n", strings.Join(names, ", "))
	}
	return nil
}

func cmdSphere(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("sphere", flag.ExitOnError)
	path, err := needMesh(fs, args, "sphere <mesh>")
	if err != nil {
		return err
	}
	sc, h, _, _, err := load(cfg, path)
	if err != nil {
		return err
	}

	fit, ok, err := ops.New(sc, cfg).FitSphere(h)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("No sphere: need at least 4 points not on a common plane or circle")
		return nil
	}
	fmt.Printf("Center: %.6g %.6g %.6g\n", fit.Center.X, fit.Center.Y, fit.Center.Z)
	fmt.Printf("Radius: %.6g\n", fit.Radius)
	return nil
}

func cmdLoops(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("loops", flag.ExitOnError)
	out := fs.String("o", "", "Write the mesh with the loop selection (.yaml keeps edge data)")
	every := fs.Int("every", cfg.Loops.SelectEvery, "Select every n-th loop")
	angle := fs.Float64("max-angle", cfg.Loops.MaxFaceAngle, "Exclude loops crossing folds sharper than this (degrees)")
	seam := fs.Bool("seam", cfg.Loops.ExcludeSeam, "Exclude loops containing seams")
	sharp := fs.Bool("sharp", cfg.Loops.ExcludeSharp, "Exclude loops containing sharp edges")
	path, err := needMesh(fs, args, "loops [-o out] <mesh>")
	if err != nil {
		return err
	}
	cfg.Loops.SelectEvery = *every
	cfg.Loops.MaxFaceAngle = *angle
	cfg.Loops.ExcludeSeam = *seam
	cfg.Loops.ExcludeSharp = *sharp
	if err := cfg.Validate(); err != nil {
		return err
	}

	sc, h, obj, name, err := load(cfg, path)
	if err != nil {
		return err
	}
	rep, err := ops.New(sc, cfg).SelectDividingLoops(h)
	if err != nil {
		return err
	}
	fmt.Printf("Loops:    %d selected of %d found\n", rep.Selected, rep.Found)
	fmt.Printf("Rejected: %d abnormal, %d excluded\n", rep.Abnormal, rep.Excluded)
	return save(cfg, *out, name, obj)
}

func cmdMove(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("move", flag.ExitOnError)
	out := fs.String("o", "", "Write the moved mesh")
	amount := fs.Float64("amount", 0, "Distance to move the selection")
	axis := fs.String("axis", cfg.Proportional.Direction, "Global axis: x, y, z, -x, -y, -z")
	radius := fs.Float64("radius", cfg.Proportional.Radius, "Influence radius")
	curve := fs.String("falloff", cfg.Proportional.Falloff.String(), "Falloff curve")
	mode := fs.String("direction", "axis", "Direction: axis, cursor (fitted sphere center), origin, view or bone")
	eye := fs.String("eye", "0,0,10", "Viewpoint for -direction view, as x,y,z")
	rigPath := fs.String("armature", "", "Armature file for -direction bone")
	clamp := fs.Float64("clamp", 0, "Limit each displacement to this distance")
	snap := fs.Float64("snap", 0, "Snap moved vertices to this grid step")
	path, err := needMesh(fs, args, "move -amount <d> [-o out] <mesh>")
	if err != nil {
		return err
	}
	kind, err := falloff.Parse(*curve)
	if err != nil {
		return err
	}
	dirMode, err := ops.ParseDirectionMode(*mode)
	if err != nil {
		return err
	}
	viewpoint, err := parseVec3(*eye)
	if err != nil {
		return fmt.Errorf("-eye: %w", err)
	}
	if dirMode == ops.AlongBone && *rigPath == "" {
		return fmt.Errorf("-direction bone needs -armature")
	}
	cfg.Proportional.Direction = *axis
	cfg.Proportional.Radius = *radius
	cfg.Proportional.Falloff = kind
	if err := cfg.Validate(); err != nil {
		return err
	}

	sc, h, obj, name, err := load(cfg, path)
	if err != nil {
		return err
	}
	sc.Viewpoint = viewpoint
	op := ops.New(sc, cfg)
	opts := ops.MoveOptions{Mode: dirMode, MaxDistance: *clamp, Snap: *snap}
	switch dirMode {
	case ops.AwayFromCursor:
		if _, ok, err := op.FitSphere(h); err != nil || !ok {
			return fmt.Errorf("cursor direction needs a sphere fit of the selection: ok=%v err=%v", ok, err)
		}
	case ops.AlongBone:
		arm, rigName, err := ops.LoadArmatureFile(*rigPath)
		if err != nil {
			return err
		}
		if opts.Armature, err = sc.Add(rigName, arm); err != nil {
			return err
		}
		logger.Debug("armature loaded", zap.String("name", rigName), zap.Int("bones", len(arm.Bones)))
	}

	moved, err := op.ProportionalMove(h, *amount, opts)
	if err != nil {
		return err
	}
	fmt.Printf("Moved: %d vertices\n", moved)
	return save(cfg, *out, name, obj)
}

// parseVec3 reads "x,y,z".
func parseVec3(s string) (math.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return math.Vec3{}, fmt.Errorf("want x,y,z, got %q", s)
	}
	var v [3]float64
	for i, p := range parts {
		x, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return math.Vec3{}, err
		}
		v[i] = x
	}
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
}

func cmdSmooth(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("smooth", flag.ExitOnError)
	out := fs.String("o", "", "Write the mesh with smoothed weights (.yaml)")
	method := fs.String("method", cfg.Smoothing.Method, "falloff or least_squares")
	iterations := fs.Int("iterations", cfg.Smoothing.Iterations, "Smoothing iterations")
	radius := fs.Float64("radius", cfg.Smoothing.Radius, "Falloff radius")
	strength := fs.Float64("strength", cfg.Smoothing.Strength, "Least-squares blend strength")
	normalize := fs.Bool("normalize", cfg.Smoothing.Normalize, "Normalize each vertex's weights")
	path, err := needMesh(fs, args, "smooth [-o out] <mesh>")
	if err != nil {
		return err
	}
	cfg.Smoothing.Method = *method
	cfg.Smoothing.Iterations = *iterations
	cfg.Smoothing.Radius = *radius
	cfg.Smoothing.Strength = *strength
	cfg.Smoothing.Normalize = *normalize
	if err := cfg.Validate(); err != nil {
		return err
	}

	sc, h, obj, name, err := load(cfg, path)
	if err != nil {
		return err
	}
	rep, err := ops.New(sc, cfg).SmoothWeights(h)
	if err != nil {
		return err
	}
	fmt.Printf("Smoothed: %d groups on %d vertices (%s, %v)\n", rep.Groups, rep.Selected, rep.Method, rep.Elapsed)
	return save(cfg, *out, name, obj)
}

func cmdConfig(cfg *config.Config, args []string) error {
	if len(args) > 0 {
		return cfg.SaveTo(args[0])
	}
	return cfg.Save()
}
