// Package formats reads and writes the mesh files meshprep works on:
// Wavefront OBJ geometry and YAML mesh snapshots carrying edge attributes,
// selection and vertex group weights.
package formats

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/Faultbox/meshprep/pkg/encoding"
	"github.com/Faultbox/meshprep/pkg/math"
)

// OBJ format errors.
var (
	ErrMalformedOBJ = errors.New("malformed OBJ statement")
	ErrOBJIndex     = errors.New("OBJ index out of range")
)

// OBJ holds the geometry of a Wavefront OBJ file. Texture coordinates,
// normals and materials are ignored.
type OBJ struct {
	Name     string      // first object name ("o"), if any
	Vertices []math.Vec3 // vertex positions
	Faces    [][]int     // zero-based vertex indices per polygon
	Lines    [][2]int    // polyline segments ("l"), zero-based
}

// ParseOBJ parses OBJ text. Negative indices are resolved relative to the
// vertices read so far, as the format specifies.
func ParseOBJ(data []byte) (*OBJ, error) {
	obj := &OBJ{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		if err := obj.statement(fields); err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning OBJ")
	}
	return obj, nil
}

func (o *OBJ) statement(fields []string) error {
	switch fields[0] {
	case "v":
		if len(fields) < 4 {
			return errors.Wrapf(ErrMalformedOBJ, "vertex needs 3 coordinates, got %d", len(fields)-1)
		}
		var c [3]float64
		for i := range c {
			x, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return errors.Wrapf(ErrMalformedOBJ, "vertex coordinate %q", fields[i+1])
			}
			c[i] = x
		}
		o.Vertices = append(o.Vertices, math.Vec3{X: c[0], Y: c[1], Z: c[2]})
	case "f":
		if len(fields) < 4 {
			return errors.Wrapf(ErrMalformedOBJ, "face needs 3 vertices, got %d", len(fields)-1)
		}
		face := make([]int, 0, len(fields)-1)
		for _, ref := range fields[1:] {
			idx, err := o.index(ref)
			if err != nil {
				return err
			}
			face = append(face, idx)
		}
		o.Faces = append(o.Faces, face)
	case "l":
		if len(fields) < 3 {
			return errors.Wrap(ErrMalformedOBJ, "line needs 2 vertices")
		}
		prev := -1
		for _, ref := range fields[1:] {
			idx, err := o.index(ref)
			if err != nil {
				return err
			}
			if prev >= 0 {
				o.Lines = append(o.Lines, [2]int{prev, idx})
			}
			prev = idx
		}
	case "o":
		if o.Name == "" && len(fields) > 1 {
			o.Name = strings.Join(fields[1:], " ")
		}
	}
	// vt, vn, g, s, usemtl, mtllib and unknown statements carry nothing we use.
	return nil
}

// index resolves a "v", "v/vt", "v//vn" or "v/vt/vn" reference.
func (o *OBJ) index(ref string) (int, error) {
	if i := strings.IndexByte(ref, '/'); i >= 0 {
		ref = ref[:i]
	}
	n, err := strconv.Atoi(ref)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedOBJ, "vertex reference %q", ref)
	}
	switch {
	case n > 0 && n <= len(o.Vertices):
		return n - 1, nil
	case n < 0 && -n <= len(o.Vertices):
		return len(o.Vertices) + n, nil
	}
	return 0, errors.Wrapf(ErrOBJIndex, "%d with %d vertices", n, len(o.Vertices))
}

// ParseOBJFile parses an OBJ file from disk, decoding it from the
// labelled text encoding first. An empty label means UTF-8.
func ParseOBJFile(path, enc string) (*OBJ, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading OBJ file")
	}
	data, err = encoding.ToUTF8(data, enc)
	if err != nil {
		return nil, errors.Wrapf(err, "OBJ file %s", path)
	}
	return ParseOBJ(data)
}

// WriteOBJ writes positions and faces as OBJ text with one-based indices.
func WriteOBJ(w io.Writer, name string, positions []math.Vec3, faces [][]int) error {
	bw := bufio.NewWriter(w)
	if name != "" {
		fmt.Fprintf(bw, "o %s\n", name)
	}
	for _, p := range positions {
		fmt.Fprintf(bw, "v %s %s %s\n", formatFloat(p.X), formatFloat(p.Y), formatFloat(p.Z))
	}
	for _, f := range faces {
		bw.WriteString("f")
		for _, v := range f {
			fmt.Fprintf(bw, " %d", v+1)
		}
		bw.WriteByte('\n')
	}
	return errors.Wrap(bw.Flush(), "writing OBJ")
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
