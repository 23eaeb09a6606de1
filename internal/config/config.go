// Package config handles meshprep configuration loading and management.
package config

import (
	"fmt"
	"math"

	"go.uber.org/multierr"

	"github.com/Faultbox/meshprep/internal/logger"
	"github.com/Faultbox/meshprep/pkg/encoding"
	"github.com/Faultbox/meshprep/pkg/falloff"
	"github.com/Faultbox/meshprep/pkg/proportional"
)

// Smoothing methods.
const (
	MethodFalloff      = "falloff"
	MethodLeastSquares = "least_squares"
)

// Config holds all tool settings.
type Config struct {
	Loops        LoopsConfig        `yaml:"loops"`
	Proportional ProportionalConfig `yaml:"proportional"`
	Smoothing    SmoothingConfig    `yaml:"smoothing"`
	Files        FilesConfig        `yaml:"files"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// LoopsConfig holds dividing-loop exclusion settings.
type LoopsConfig struct {
	MaxFaceAngle   float64 `yaml:"max_face_angle"` // degrees
	ExcludeSeam    bool    `yaml:"exclude_seam"`
	ExcludeSharp   bool    `yaml:"exclude_sharp"`
	MaxBevelWeight float64 `yaml:"max_bevel_weight"`
	MaxCrease      float64 `yaml:"max_crease"`
	SelectEvery    int     `yaml:"select_every"` // 1 selects every loop
}

// ProportionalConfig holds proportional move settings.
type ProportionalConfig struct {
	Radius    float64      `yaml:"radius"`
	Falloff   falloff.Kind `yaml:"falloff"`
	Direction string       `yaml:"direction"` // global axis: x, y, z, -x, -y, -z
	Seed      int64        `yaml:"seed"`
}

// SmoothingConfig holds vertex weight smoothing settings.
type SmoothingConfig struct {
	Method     string  `yaml:"method"`
	Iterations int     `yaml:"iterations"`
	Radius     float64 `yaml:"radius"`   // falloff method
	Strength   float64 `yaml:"strength"` // least_squares method
	Normalize  bool    `yaml:"normalize"`
	Limit      float64 `yaml:"limit"`
	Workers    int     `yaml:"workers"` // 0 = one per group
}

// FilesConfig holds mesh file settings.
type FilesConfig struct {
	Encoding string `yaml:"encoding"` // text encoding of OBJ files
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Loops: LoopsConfig{
			MaxFaceAngle:   180,
			MaxBevelWeight: 1,
			MaxCrease:      1,
			SelectEvery:    1,
		},
		Proportional: ProportionalConfig{
			Radius:    1,
			Falloff:   falloff.Smooth,
			Direction: "z",
		},
		Smoothing: SmoothingConfig{
			Method:     MethodLeastSquares,
			Iterations: 5,
			Radius:     1,
			Strength:   0.5,
			Normalize:  true,
			Limit:      1e-4,
		},
		Files: FilesConfig{
			Encoding: "utf-8",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			err = multierr.Append(err, fmt.Errorf(format, args...))
		}
	}

	l := c.Loops
	check(l.MaxFaceAngle >= 0 && l.MaxFaceAngle <= 180, "loops.max_face_angle %v outside [0,180]", l.MaxFaceAngle)
	check(l.MaxBevelWeight >= 0, "loops.max_bevel_weight %v is negative", l.MaxBevelWeight)
	check(l.MaxCrease >= 0, "loops.max_crease %v is negative", l.MaxCrease)
	check(l.SelectEvery >= 1, "loops.select_every %d must be at least 1", l.SelectEvery)

	p := c.Proportional
	check(positive(p.Radius), "proportional.radius %v must be positive", p.Radius)
	check(p.Falloff.Valid(), "proportional.falloff %d is unknown", int(p.Falloff))
	if _, perr := proportional.ParseAxis(p.Direction); perr != nil {
		err = multierr.Append(err, fmt.Errorf("proportional.direction: %w", perr))
	}

	s := c.Smoothing
	check(s.Method == MethodFalloff || s.Method == MethodLeastSquares,
		"smoothing.method %q must be %q or %q", s.Method, MethodFalloff, MethodLeastSquares)
	check(s.Iterations >= 0, "smoothing.iterations %d is negative", s.Iterations)
	check(positive(s.Radius), "smoothing.radius %v must be positive", s.Radius)
	check(s.Strength >= 0 && s.Strength <= 1, "smoothing.strength %v outside [0,1]", s.Strength)
	check(s.Limit >= 0 && s.Limit < 1, "smoothing.limit %v outside [0,1)", s.Limit)
	check(s.Workers >= 0, "smoothing.workers %d is negative", s.Workers)

	if _, eerr := encoding.Lookup(c.Files.Encoding); eerr != nil {
		err = multierr.Append(err, fmt.Errorf("files.encoding: %w", eerr))
	}

	if _, lerr := logger.ParseLevel(c.Logging.Level); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("logging.level: %w", lerr))
	}
	return err
}

func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 0)
}
