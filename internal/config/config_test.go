package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"github.com/Faultbox/meshprep/pkg/falloff"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Loops.MaxFaceAngle != 180 {
		t.Errorf("expected max face angle 180, got %v", cfg.Loops.MaxFaceAngle)
	}
	if cfg.Loops.ExcludeSeam || cfg.Loops.ExcludeSharp {
		t.Error("expected no seam/sharp exclusion by default")
	}
	if cfg.Loops.SelectEvery != 1 {
		t.Errorf("expected select_every 1, got %d", cfg.Loops.SelectEvery)
	}

	if cfg.Proportional.Radius != 1 {
		t.Errorf("expected radius 1, got %v", cfg.Proportional.Radius)
	}
	if cfg.Proportional.Falloff != falloff.Smooth {
		t.Errorf("expected smooth falloff, got %s", cfg.Proportional.Falloff)
	}

	if cfg.Smoothing.Method != MethodLeastSquares {
		t.Errorf("expected least_squares, got %s", cfg.Smoothing.Method)
	}
	if cfg.Smoothing.Strength != 0.5 {
		t.Errorf("expected strength 0.5, got %v", cfg.Smoothing.Strength)
	}
	if !cfg.Smoothing.Normalize {
		t.Error("expected normalize to be true by default")
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Files.Encoding != "utf-8" {
		t.Errorf("expected utf-8 encoding, got %s", cfg.Files.Encoding)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "meshprep.yaml")

	yamlContent := `
loops:
  max_face_angle: 45
  exclude_seam: true
  max_crease: 0.5
  select_every: 2

proportional:
  radius: 2.5
  falloff: inverse_square
  direction: "-y"
  seed: 42

smoothing:
  method: falloff
  iterations: 3
  radius: 0.75

files:
  encoding: windows-1252

logging:
  level: "debug"
  log_file: "meshprep.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Loops.MaxFaceAngle != 45 {
		t.Errorf("expected max face angle 45, got %v", cfg.Loops.MaxFaceAngle)
	}
	if !cfg.Loops.ExcludeSeam {
		t.Error("expected exclude_seam to be true")
	}
	if cfg.Loops.MaxCrease != 0.5 {
		t.Errorf("expected max crease 0.5, got %v", cfg.Loops.MaxCrease)
	}
	if cfg.Loops.MaxBevelWeight != 1 {
		t.Errorf("expected untouched max bevel weight 1, got %v", cfg.Loops.MaxBevelWeight)
	}
	if cfg.Proportional.Falloff != falloff.InverseSquare {
		t.Errorf("expected inverse_square falloff, got %s", cfg.Proportional.Falloff)
	}
	if cfg.Proportional.Direction != "-y" || cfg.Proportional.Seed != 42 {
		t.Errorf("unexpected proportional config: %+v", cfg.Proportional)
	}
	if cfg.Smoothing.Method != MethodFalloff || cfg.Smoothing.Iterations != 3 {
		t.Errorf("unexpected smoothing config: %+v", cfg.Smoothing)
	}
	if cfg.Smoothing.Strength != 0.5 {
		t.Errorf("expected default strength to survive, got %v", cfg.Smoothing.Strength)
	}
	if cfg.Files.Encoding != "windows-1252" {
		t.Errorf("expected windows-1252 encoding, got %s", cfg.Files.Encoding)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "meshprep.log" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "loops:\n  max_angle: 30\n"},
		{"unknown falloff", "proportional:\n  falloff: bumpy\n"},
		{"malformed", "loops: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, strings.ReplaceAll(tt.name, " ", "_")+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}
			if err := loadFromFile(Default(), path); err == nil {
				t.Error("expected error")
			}
		})
	}

	if err := loadFromFile(Default(), filepath.Join(tmpDir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, path); err != nil {
		t.Fatalf("empty file should load: %v", err)
	}
	if cfg.Smoothing.Iterations != 5 {
		t.Errorf("expected defaults to survive, got %d iterations", cfg.Smoothing.Iterations)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errors int
	}{
		{"valid", func(c *Config) {}, 0},
		{"face angle", func(c *Config) { c.Loops.MaxFaceAngle = 200 }, 1},
		{"select every", func(c *Config) { c.Loops.SelectEvery = 0 }, 1},
		{"radius", func(c *Config) { c.Proportional.Radius = 0 }, 1},
		{"direction", func(c *Config) { c.Proportional.Direction = "w" }, 1},
		{"method", func(c *Config) { c.Smoothing.Method = "blur" }, 1},
		{"strength", func(c *Config) { c.Smoothing.Strength = 2 }, 1},
		{"level", func(c *Config) { c.Logging.Level = "loud" }, 1},
		{"encoding", func(c *Config) { c.Files.Encoding = "klingon" }, 1},
		{"several", func(c *Config) {
			c.Loops.MaxCrease = -1
			c.Smoothing.Iterations = -1
			c.Smoothing.Workers = -2
		}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if got := len(multierr.Errors(err)); got != tt.errors {
				t.Errorf("expected %d errors, got %d: %v", tt.errors, got, err)
			}
		})
	}
}

func TestApplyFlags(t *testing.T) {
	cfg := Default()

	*flagDebug = true
	*flagLogFile = "debug.log"
	*flagWorkers = 4
	*flagEncode = "euc-kr"
	defer func() {
		*flagDebug = false
		*flagLogFile = ""
		*flagWorkers = -1
		*flagEncode = ""
	}()

	applyFlags(cfg)

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level debug, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "debug.log" {
		t.Errorf("expected log file debug.log, got %s", cfg.Logging.LogFile)
	}
	if cfg.Smoothing.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Smoothing.Workers)
	}
	if cfg.Files.Encoding != "euc-kr" {
		t.Errorf("expected encoding euc-kr, got %s", cfg.Files.Encoding)
	}
	if cfg.Proportional.Seed != 0 {
		t.Errorf("unset seed flag must not override, got %d", cfg.Proportional.Seed)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Proportional.Falloff = falloff.Root
	cfg.Smoothing.Iterations = 9

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved config: %v", err)
	}
	if !strings.HasPrefix(string(data), fileHeader) {
		t.Error("expected header comment")
	}
	if !strings.Contains(string(data), "falloff: root") {
		t.Errorf("expected falloff by name, got:\n%s", data)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Proportional.Falloff != falloff.Root {
		t.Errorf("expected root falloff, got %s", loaded.Proportional.Falloff)
	}
	if loaded.Smoothing.Iterations != 9 {
		t.Errorf("expected 9 iterations, got %d", loaded.Smoothing.Iterations)
	}
}

func TestSaveTo_Invalid(t *testing.T) {
	cfg := Default()
	cfg.Smoothing.Method = "blur"
	if err := cfg.SaveTo(filepath.Join(t.TempDir(), "config.yaml")); err == nil {
		t.Error("expected error saving invalid config")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !strings.Contains(strings.ToLower(dir), "meshprep") {
		t.Errorf("expected meshprep in config dir, got %s", dir)
	}
}
