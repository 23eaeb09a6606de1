package formats

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalidArmature reports a malformed armature file.
var ErrInvalidArmature = errors.New("invalid armature")

// Armature is the YAML form of a skeleton. Bone heads and tails are in
// armature space; Transform places the armature in the world.
type Armature struct {
	Name      string             `yaml:"name,omitempty"`
	Transform *SnapshotTransform `yaml:"transform,omitempty"`
	Bones     []ArmatureBone     `yaml:"bones"`
}

// ArmatureBone is one bone. Parent names another bone or is empty.
type ArmatureBone struct {
	Name   string     `yaml:"name"`
	Parent string     `yaml:"parent,omitempty"`
	Head   [3]float64 `yaml:"head,flow"`
	Tail   [3]float64 `yaml:"tail,flow"`
}

// ParseArmature decodes and validates a YAML armature.
func ParseArmature(data []byte) (*Armature, error) {
	var a Armature
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, errors.Wrap(err, "decoding armature")
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// LoadArmature reads an armature from disk.
func LoadArmature(path string) (*Armature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading armature")
	}
	a, err := ParseArmature(data)
	if err != nil {
		return nil, errors.Wrapf(err, "armature %s", path)
	}
	return a, nil
}

// Validate requires at least one bone, unique non-empty names and parents
// that name a bone of the armature.
func (a *Armature) Validate() error {
	if len(a.Bones) == 0 {
		return errors.Wrap(ErrInvalidArmature, "no bones")
	}
	if t := a.Transform; t != nil && t.Rotation != nil && t.Euler != nil {
		return errors.Wrap(ErrInvalidArmature, "transform has both rotation and euler")
	}
	names := make(map[string]bool, len(a.Bones))
	for i, b := range a.Bones {
		if b.Name == "" {
			return errors.Wrapf(ErrInvalidArmature, "bone %d has no name", i)
		}
		if names[b.Name] {
			return errors.Wrapf(ErrInvalidArmature, "duplicate bone %q", b.Name)
		}
		names[b.Name] = true
	}
	for _, b := range a.Bones {
		if b.Parent != "" && !names[b.Parent] {
			return errors.Wrapf(ErrInvalidArmature, "bone %q has unknown parent %q", b.Name, b.Parent)
		}
	}
	return nil
}
