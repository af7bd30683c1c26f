package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	gomath "math"
	"testing"

	"github.com/Faultbox/reviz/pkg/math"
)

// buildBinarySTL assembles a binary STL blob from triangles given as
// (normal, 3 vertices) tuples.
func buildBinarySTL(t *testing.T, tris [][4][3]float32) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.Write(make([]byte, 80))
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(tris))); err != nil {
		t.Fatalf("writing count: %v", err)
	}
	for _, tri := range tris {
		for _, v := range tri {
			if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
				t.Fatalf("writing triangle: %v", err)
			}
		}
		if err := binary.Write(&buf, binary.LittleEndian, uint16(0)); err != nil {
			t.Fatalf("writing attribute: %v", err)
		}
	}
	return buf.Bytes()
}

// quadTriangles is a unit quad in the z=0 plane split into two triangles
// sharing an edge, normals +z.
func quadTriangles() [][4][3]float32 {
	up := [3]float32{0, 0, 1}
	a := [3]float32{0, 0, 0}
	b := [3]float32{1, 0, 0}
	c := [3]float32{1, 1, 0}
	d := [3]float32{0, 1, 0}
	return [][4][3]float32{
		{up, a, b, c},
		{up, a, c, d},
	}
}

func TestParseBinarySTL(t *testing.T) {
	mesh, err := ParseSTL(buildBinarySTL(t, quadTriangles()))
	if err != nil {
		t.Fatalf("failed to parse binary STL: %v", err)
	}

	// 6 corners, 2 shared -> 4 unique vertices, 6 indices
	if len(mesh.Vertices) != 4 {
		t.Errorf("expected 4 deduplicated vertices, got %d", len(mesh.Vertices))
	}
	if len(mesh.Indices) != 6 {
		t.Errorf("expected 6 indices, got %d", len(mesh.Indices))
	}
	if len(mesh.Normals) != len(mesh.Vertices) {
		t.Fatalf("expected one normal per vertex, got %d/%d", len(mesh.Normals), len(mesh.Vertices))
	}
	for i, n := range mesh.Normals {
		if n != [3]float32{0, 0, 1} {
			t.Errorf("vertex %d: expected +z normal, got %v", i, n)
		}
	}
}

func TestParseASCIISTL(t *testing.T) {
	ascii := `solid quad
facet normal 0 0 1
  outer loop
    vertex 0 0 0
    vertex 1 0 0
    vertex 1 1 0
  endloop
endfacet
facet normal 0 0 1
  outer loop
    vertex 0 0 0
    vertex 1 1 0
    vertex 0 1 0
  endloop
endfacet
endsolid quad
`
	mesh, err := ParseSTL([]byte(ascii))
	if err != nil {
		t.Fatalf("failed to parse ASCII STL: %v", err)
	}
	if len(mesh.Vertices) != 4 {
		t.Errorf("expected 4 deduplicated vertices, got %d", len(mesh.Vertices))
	}
	if len(mesh.Indices) != 6 {
		t.Errorf("expected 6 indices, got %d", len(mesh.Indices))
	}

	// Binary and ASCII encodings of the same quad must agree
	binMesh, err := ParseSTL(buildBinarySTL(t, quadTriangles()))
	if err != nil {
		t.Fatalf("failed to parse binary STL: %v", err)
	}
	if len(binMesh.Vertices) != len(mesh.Vertices) || len(binMesh.Indices) != len(mesh.Indices) {
		t.Error("binary and ASCII parse of the same geometry disagree")
	}
}

func TestParseSTLTruncated(t *testing.T) {
	data := buildBinarySTL(t, quadTriangles())

	if _, err := ParseSTL(data[:len(data)-10]); !errors.Is(err, ErrTruncatedSTL) {
		// A truncated binary body may also be rejected as unparseable ASCII
		if !errors.Is(err, ErrInvalidSTL) {
			t.Errorf("expected truncation error, got %v", err)
		}
	}
}

func TestParseSTLInvalidASCII(t *testing.T) {
	if _, err := ParseSTL([]byte("solid x\nfacet normal nope 0 0\nendfacet\n")); !errors.Is(err, ErrInvalidSTL) {
		t.Errorf("expected ErrInvalidSTL, got %v", err)
	}
	if _, err := ParseSTL([]byte("just some text")); !errors.Is(err, ErrInvalidSTL) {
		t.Errorf("expected ErrInvalidSTL for junk input, got %v", err)
	}
}

func TestMeshTransformed(t *testing.T) {
	mesh, err := ParseSTL(buildBinarySTL(t, quadTriangles()))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}

	// Rz(90) plus unit x translation
	tf := math.TransformFromParts(math.Vec3{X: 1}, math.QuatFromAxisAngle(math.Vec3{Z: 1}, gomath.Pi/2))
	moved := mesh.Transformed(tf)

	// Original is untouched
	if mesh.Vertices[0] != [3]float32{0, 0, 0} {
		t.Error("Transformed should not modify the source mesh")
	}

	// (1,0,0) rotates to (0,1,0), translates to (1,1,0)
	var found bool
	for _, v := range moved.Vertices {
		if gomath.Abs(float64(v[0])-1) < 1e-6 && gomath.Abs(float64(v[1])-1) < 1e-6 {
			found = true
		}
	}
	if !found {
		t.Error("expected a transformed vertex at (1,1,0)")
	}

	// Normals rotate but do not translate: +z stays +z under Rz
	for i, n := range moved.Normals {
		if gomath.Abs(float64(n[2])-1) > 1e-6 {
			t.Errorf("normal %d should remain +z, got %v", i, n)
		}
	}
}

func TestMeshSetColor(t *testing.T) {
	mesh, err := ParseSTL(buildBinarySTL(t, quadTriangles()))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}

	mesh.SetColor([4]uint8{10, 20, 30, 255})
	if len(mesh.Colors) != len(mesh.Vertices) {
		t.Fatalf("expected %d colors, got %d", len(mesh.Vertices), len(mesh.Colors))
	}
	for i, c := range mesh.Colors {
		if c != [4]uint8{10, 20, 30, 255} {
			t.Errorf("vertex %d: unexpected color %v", i, c)
		}
	}
}
