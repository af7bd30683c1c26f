package formats

import "github.com/Faultbox/reviz/pkg/math"

// Mesh holds triangle geometry for one link: vertex positions, triangle
// indices, per-vertex normals, and an optional per-vertex RGBA color.
// Vertices stay float32 (the on-disk STL precision); pose math is float64.
type Mesh struct {
	Vertices [][3]float32
	Indices  []uint32
	Normals  [][3]float32
	Colors   [][4]uint8
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{
		Vertices: make([][3]float32, len(m.Vertices)),
		Indices:  make([]uint32, len(m.Indices)),
		Normals:  make([][3]float32, len(m.Normals)),
	}
	copy(out.Vertices, m.Vertices)
	copy(out.Indices, m.Indices)
	copy(out.Normals, m.Normals)
	if m.Colors != nil {
		out.Colors = make([][4]uint8, len(m.Colors))
		copy(out.Colors, m.Colors)
	}
	return out
}

// Transformed returns a new mesh with vertices and normals re-expressed
// through the given rigid transform. The receiver is not modified.
func (m *Mesh) Transformed(tf math.Transform) *Mesh {
	out := m.Clone()
	for i, v := range out.Vertices {
		p := tf.Apply(math.Vec3{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])})
		out.Vertices[i] = [3]float32{float32(p.X), float32(p.Y), float32(p.Z)}
	}
	for i, n := range out.Normals {
		d := tf.ApplyDirection(math.Vec3{X: float64(n[0]), Y: float64(n[1]), Z: float64(n[2])})
		out.Normals[i] = [3]float32{float32(d.X), float32(d.Y), float32(d.Z)}
	}
	return out
}

// SetColor assigns a uniform base color to every vertex.
func (m *Mesh) SetColor(rgba [4]uint8) {
	m.Colors = make([][4]uint8, len(m.Vertices))
	for i := range m.Colors {
		m.Colors[i] = rgba
	}
}
