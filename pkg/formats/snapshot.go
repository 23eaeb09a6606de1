package formats

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Snapshot errors.
var (
	ErrInvalidSnapshot = errors.New("invalid mesh snapshot")
)

// Snapshot is the YAML interchange form of a mesh together with the edge
// attributes, selection and vertex groups the tools read and write.
type Snapshot struct {
	Name      string             `yaml:"name,omitempty"`
	Transform *SnapshotTransform `yaml:"transform,omitempty"`
	Vertices  [][3]float64       `yaml:"vertices"`
	Faces     [][]int            `yaml:"faces"`
	Edges     []EdgeAttrs        `yaml:"edges,omitempty"`
	Selected  []int              `yaml:"selected,omitempty"`
	Groups    []string           `yaml:"groups,omitempty"`
	Weights   []VertexWeights    `yaml:"weights,omitempty"`
}

// SnapshotTransform places the object in the world. Rotation is a
// quaternion in w, x, y, z order; Euler gives XYZ angles in degrees
// instead. A missing scale means 1.
type SnapshotTransform struct {
	Location [3]float64  `yaml:"location,flow"`
	Rotation *[4]float64 `yaml:"rotation,omitempty,flow"`
	Euler    *[3]float64 `yaml:"euler,omitempty,flow"`
	Scale    *[3]float64 `yaml:"scale,omitempty,flow"`
}

// EdgeAttrs are the attributes of the edge joining V[0] and V[1]. Edges
// not listed carry no attributes.
type EdgeAttrs struct {
	V        [2]int  `yaml:"v,flow"`
	Seam     bool    `yaml:"seam,omitempty"`
	Sharp    bool    `yaml:"sharp,omitempty"`
	Bevel    float64 `yaml:"bevel,omitempty"`
	Crease   float64 `yaml:"crease,omitempty"`
	Selected bool    `yaml:"selected,omitempty"`
}

// VertexWeights maps group names to the weight of one vertex.
type VertexWeights struct {
	Vertex int                `yaml:"vertex"`
	Groups map[string]float64 `yaml:"groups,flow"`
}

// vertexYAML and faceYAML keep each element on one line.
type (
	vertexYAML [3]float64
	faceYAML   []int
)

// ParseSnapshot decodes and validates a YAML snapshot.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "decoding snapshot")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading snapshot")
	}
	s, err := ParseSnapshot(data)
	if err != nil {
		return nil, errors.Wrapf(err, "snapshot %s", path)
	}
	return s, nil
}

// Validate checks every index in the snapshot against the vertex count and
// every weight against the declared groups.
func (s *Snapshot) Validate() error {
	n := len(s.Vertices)
	inRange := func(v int) bool { return v >= 0 && v < n }
	if t := s.Transform; t != nil {
		if t.Rotation != nil && t.Euler != nil {
			return errors.Wrap(ErrInvalidSnapshot, "transform has both rotation and euler")
		}
		if q := t.Rotation; q != nil && q[0] == 0 && q[1] == 0 && q[2] == 0 && q[3] == 0 {
			return errors.Wrap(ErrInvalidSnapshot, "transform rotation is a zero quaternion")
		}
	}
	for i, f := range s.Faces {
		if len(f) < 3 {
			return errors.Wrapf(ErrInvalidSnapshot, "face %d has %d vertices", i, len(f))
		}
		for _, v := range f {
			if !inRange(v) {
				return errors.Wrapf(ErrInvalidSnapshot, "face %d references vertex %d of %d", i, v, n)
			}
		}
	}
	for i, e := range s.Edges {
		if !inRange(e.V[0]) || !inRange(e.V[1]) || e.V[0] == e.V[1] {
			return errors.Wrapf(ErrInvalidSnapshot, "edge %d joins %d and %d", i, e.V[0], e.V[1])
		}
	}
	for _, v := range s.Selected {
		if !inRange(v) {
			return errors.Wrapf(ErrInvalidSnapshot, "selected vertex %d of %d", v, n)
		}
	}
	known := make(map[string]bool, len(s.Groups))
	for _, g := range s.Groups {
		if known[g] {
			return errors.Wrapf(ErrInvalidSnapshot, "duplicate group %q", g)
		}
		known[g] = true
	}
	for _, w := range s.Weights {
		if !inRange(w.Vertex) {
			return errors.Wrapf(ErrInvalidSnapshot, "weights for vertex %d of %d", w.Vertex, n)
		}
		for g := range w.Groups {
			if !known[g] {
				return errors.Wrapf(ErrInvalidSnapshot, "vertex %d weighted in unknown group %q", w.Vertex, g)
			}
		}
	}
	return nil
}

// Marshal encodes the snapshot as YAML.
func (s *Snapshot) Marshal() ([]byte, error) {
	out := struct {
		Name      string             `yaml:"name,omitempty"`
		Transform *SnapshotTransform `yaml:"transform,omitempty"`
		Vertices  []vertexYAML       `yaml:"vertices"`
		Faces     []faceYAML         `yaml:"faces"`
		Edges     []EdgeAttrs        `yaml:"edges,omitempty"`
		Selected  []int              `yaml:"selected,omitempty,flow"`
		Groups    []string           `yaml:"groups,omitempty,flow"`
		Weights   []VertexWeights    `yaml:"weights,omitempty"`
	}{
		Name:      s.Name,
		Transform: s.Transform,
		Vertices:  make([]vertexYAML, len(s.Vertices)),
		Faces:     make([]faceYAML, len(s.Faces)),
		Edges:     s.Edges,
		Selected:  s.Selected,
		Groups:    s.Groups,
		Weights:   s.Weights,
	}
	for i, v := range s.Vertices {
		out.Vertices[i] = vertexYAML(v)
	}
	for i, f := range s.Faces {
		out.Faces[i] = faceYAML(f)
	}
	data, err := yaml.Marshal(&out)
	if err != nil {
		return nil, errors.Wrap(err, "encoding snapshot")
	}
	return data, nil
}

// MarshalYAML writes a position as a flow sequence.
func (v vertexYAML) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, x := range v {
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: formatFloat(x)})
	}
	return node, nil
}

// MarshalYAML writes a face as a flow sequence.
func (f faceYAML) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, v := range f {
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: strconv.Itoa(v)})
	}
	return node, nil
}

// SaveSnapshot writes the snapshot to path.
func SaveSnapshot(path string, s *Snapshot) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "writing snapshot")
}
