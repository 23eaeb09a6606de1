package formats

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/meshprep/pkg/math"
)

const quadOBJ = `# unit quad
mtllib quad.mtl
o Quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vn 0 0 1
s off
f 1/1/1 2/1/1 3/1/1 4/1/1
`

func TestParseOBJ_Quad(t *testing.T) {
	obj, err := ParseOBJ([]byte(quadOBJ))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	if obj.Name != "Quad" {
		t.Errorf("expected name 'Quad', got %q", obj.Name)
	}
	if len(obj.Vertices) != 4 {
		t.Fatalf("expected 4 vertices, got %d", len(obj.Vertices))
	}
	if obj.Vertices[2] != (math.Vec3{X: 1, Y: 1}) {
		t.Errorf("expected vertex 2 at (1,1,0), got %v", obj.Vertices[2])
	}
	if len(obj.Faces) != 1 {
		t.Fatalf("expected 1 face, got %d", len(obj.Faces))
	}
	want := []int{0, 1, 2, 3}
	for i, v := range obj.Faces[0] {
		if v != want[i] {
			t.Errorf("face corner %d: expected %d, got %d", i, want[i], v)
		}
	}
}

func TestParseOBJ_NegativeIndices(t *testing.T) {
	data := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf -3 -2 -1\nv 0 0 1\nf 1//1 2//1 -1//1\n"
	obj, err := ParseOBJ([]byte(data))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	if got := obj.Faces[0]; got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Errorf("expected face [0 1 2], got %v", got)
	}
	if got := obj.Faces[1]; got[2] != 3 {
		t.Errorf("expected -1 to resolve to vertex 3, got %d", got[2])
	}
}

func TestParseOBJ_Lines(t *testing.T) {
	data := "v 0 0 0\nv 1 0 0\nv 2 0 0\nl 1 2 3\n"
	obj, err := ParseOBJ([]byte(data))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	if len(obj.Lines) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(obj.Lines))
	}
	if obj.Lines[1] != [2]int{1, 2} {
		t.Errorf("expected segment [1 2], got %v", obj.Lines[1])
	}
}

func TestParseOBJ_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"short vertex", "v 1 2\n", ErrMalformedOBJ},
		{"bad coordinate", "v 1 x 3\n", ErrMalformedOBJ},
		{"short face", "v 0 0 0\nv 1 0 0\nf 1 2\n", ErrMalformedOBJ},
		{"bad reference", "v 0 0 0\nf a b c\n", ErrMalformedOBJ},
		{"index too large", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n", ErrOBJIndex},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", ErrOBJIndex},
		{"negative too far", "v 0 0 0\nf -1 -2 -3\n", ErrOBJIndex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOBJ([]byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestWriteOBJ_RoundTrip(t *testing.T) {
	positions := []math.Vec3{{X: 0, Y: 0, Z: 0}, {X: 1.5, Y: 0, Z: 0}, {X: 0, Y: -2, Z: 0.25}}
	faces := [][]int{{0, 1, 2}}

	var buf bytes.Buffer
	if err := WriteOBJ(&buf, "tri", positions, faces); err != nil {
		t.Fatalf("WriteOBJ failed: %v", err)
	}

	obj, err := ParseOBJ(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	if obj.Name != "tri" {
		t.Errorf("expected name 'tri', got %q", obj.Name)
	}
	for i, p := range positions {
		if obj.Vertices[i] != p {
			t.Errorf("vertex %d: expected %v, got %v", i, p, obj.Vertices[i])
		}
	}
	if len(obj.Faces) != 1 || obj.Faces[0][2] != 2 {
		t.Errorf("expected face [0 1 2], got %v", obj.Faces)
	}
}

func TestParseOBJFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.obj")
	if err := os.WriteFile(path, []byte(quadOBJ), 0644); err != nil {
		t.Fatalf("failed to write OBJ: %v", err)
	}

	obj, err := ParseOBJFile(path, "")
	if err != nil {
		t.Fatalf("ParseOBJFile failed: %v", err)
	}
	if len(obj.Faces) != 1 {
		t.Errorf("expected 1 face, got %d", len(obj.Faces))
	}

	if _, err := ParseOBJFile(filepath.Join(t.TempDir(), "missing.obj"), ""); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := ParseOBJFile(path, "klingon"); err == nil {
		t.Error("expected error for unknown encoding")
	}
}

func TestParseOBJFile_Encoding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.obj")
	data := []byte("o k\xf6rper\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write OBJ: %v", err)
	}

	obj, err := ParseOBJFile(path, "windows-1252")
	if err != nil {
		t.Fatalf("ParseOBJFile failed: %v", err)
	}
	if obj.Name != "körper" {
		t.Errorf("expected name %q, got %q", "körper", obj.Name)
	}
}
