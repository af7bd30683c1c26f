package math

// Transform is a rigid transform: rotation followed by translation.
// It represents an element of SE(3); scale and shear are not expressible.
type Transform struct {
	Rot Quat
	Pos Vec3
}

// TransformIdentity returns the identity transform.
func TransformIdentity() Transform {
	return Transform{Rot: QuatIdentity()}
}

// TransformFromParts builds a transform from a translation and a rotation.
func TransformFromParts(pos Vec3, rot Quat) Transform {
	return Transform{Rot: rot, Pos: pos}
}

// Mul composes two transforms: (t.Mul(other)).Apply(p) == t.Apply(other.Apply(p)).
func (t Transform) Mul(other Transform) Transform {
	return Transform{
		Rot: t.Rot.Mul(other.Rot),
		Pos: t.Pos.Add(t.Rot.Rotate(other.Pos)),
	}
}

// Inverse returns the inverse transform.
func (t Transform) Inverse() Transform {
	inv := t.Rot.Conjugate()
	return Transform{
		Rot: inv,
		Pos: inv.Rotate(t.Pos.Neg()),
	}
}

// Apply transforms a point.
func (t Transform) Apply(p Vec3) Vec3 {
	return t.Rot.Rotate(p).Add(t.Pos)
}

// ApplyDirection rotates a direction vector (ignores translation).
func (t Transform) ApplyDirection(d Vec3) Vec3 {
	return t.Rot.Rotate(d)
}
