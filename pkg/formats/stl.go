package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// STL format errors.
var (
	ErrTruncatedSTL = errors.New("truncated STL data")
	ErrInvalidSTL   = errors.New("invalid STL data")
)

const stlBinaryHeaderSize = 84 // 80-byte comment + uint32 triangle count

// ParseSTL parses an STL mesh from raw bytes, auto-detecting the binary
// and ASCII variants. Facet normals become per-vertex normals; vertices
// shared between facets are deduplicated and their normals averaged.
func ParseSTL(data []byte) (*Mesh, error) {
	if isBinarySTL(data) {
		return parseBinarySTL(data)
	}
	return parseASCIISTL(data)
}

// LoadSTL reads and parses an STL mesh file.
func LoadSTL(path string) (*Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mesh %s: %w", path, err)
	}
	mesh, err := ParseSTL(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return mesh, nil
}

// isBinarySTL decides the variant. ASCII files start with "solid", but so
// do some binary exports, so the declared triangle count is checked
// against the actual file size.
func isBinarySTL(data []byte) bool {
	if len(data) < stlBinaryHeaderSize {
		return false
	}
	count := binary.LittleEndian.Uint32(data[80:84])
	if stlBinaryHeaderSize+int64(count)*50 == int64(len(data)) {
		return true
	}
	return !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid"))
}

func parseBinarySTL(data []byte) (*Mesh, error) {
	count := binary.LittleEndian.Uint32(data[80:84])
	if stlBinaryHeaderSize+int64(count)*50 != int64(len(data)) {
		return nil, fmt.Errorf("%w: %d triangles declared, %d bytes", ErrTruncatedSTL, count, len(data))
	}

	b := newMeshBuilder(int(count))
	r := bytes.NewReader(data[stlBinaryHeaderSize:])
	var tri struct {
		Normal   [3]float32
		Vertices [3][3]float32
		Attr     uint16
	}
	for i := uint32(0); i < count; i++ {
		if err := binary.Read(r, binary.LittleEndian, &tri); err != nil {
			return nil, fmt.Errorf("%w: triangle %d: %v", ErrTruncatedSTL, i, err)
		}
		b.addTriangle(tri.Normal, tri.Vertices)
	}
	return b.build(), nil
}

func parseASCIISTL(data []byte) (*Mesh, error) {
	b := newMeshBuilder(0)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		sawSolid bool
		normal   [3]float32
		verts    [][3]float32
		line     int
	)
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "solid":
			sawSolid = true
		case "facet":
			if len(fields) != 5 || fields[1] != "normal" {
				return nil, fmt.Errorf("%w: line %d: malformed facet", ErrInvalidSTL, line)
			}
			n, err := parseFloat32Triple(fields[2:])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidSTL, line, err)
			}
			normal = n
			verts = verts[:0]
		case "vertex":
			if len(fields) != 4 {
				return nil, fmt.Errorf("%w: line %d: malformed vertex", ErrInvalidSTL, line)
			}
			v, err := parseFloat32Triple(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidSTL, line, err)
			}
			verts = append(verts, v)
		case "endfacet":
			if len(verts) != 3 {
				return nil, fmt.Errorf("%w: line %d: facet has %d vertices", ErrInvalidSTL, line, len(verts))
			}
			b.addTriangle(normal, [3][3]float32{verts[0], verts[1], verts[2]})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSTL, err)
	}
	if !sawSolid {
		return nil, fmt.Errorf("%w: missing solid header", ErrInvalidSTL)
	}
	if len(b.indices) == 0 {
		return nil, fmt.Errorf("%w: no facets", ErrInvalidSTL)
	}
	return b.build(), nil
}

func parseFloat32Triple(fields []string) ([3]float32, error) {
	var out [3]float32
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return out, err
		}
		out[i] = float32(v)
	}
	return out, nil
}

// meshBuilder deduplicates vertices by position and accumulates facet
// normals per vertex.
type meshBuilder struct {
	lookup   map[[3]float32]uint32
	vertices [][3]float32
	normals  [][3]float64
	indices  []uint32
}

func newMeshBuilder(triangles int) *meshBuilder {
	return &meshBuilder{
		lookup:  make(map[[3]float32]uint32, triangles*2),
		indices: make([]uint32, 0, triangles*3),
	}
}

func (b *meshBuilder) addTriangle(normal [3]float32, verts [3][3]float32) {
	for _, v := range verts {
		idx, ok := b.lookup[v]
		if !ok {
			idx = uint32(len(b.vertices))
			b.lookup[v] = idx
			b.vertices = append(b.vertices, v)
			b.normals = append(b.normals, [3]float64{})
		}
		b.normals[idx][0] += float64(normal[0])
		b.normals[idx][1] += float64(normal[1])
		b.normals[idx][2] += float64(normal[2])
		b.indices = append(b.indices, idx)
	}
}

func (b *meshBuilder) build() *Mesh {
	normals := make([][3]float32, len(b.normals))
	for i, n := range b.normals {
		l := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
		if l > 0 {
			normals[i] = [3]float32{float32(n[0] / l), float32(n[1] / l), float32(n[2] / l)}
		}
	}
	return &Mesh{
		Vertices: b.vertices,
		Indices:  b.indices,
		Normals:  normals,
	}
}
