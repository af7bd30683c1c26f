package kinematics

import "github.com/Faultbox/reviz/pkg/math"

// Solve computes the world transform of every joint frame for one
// configuration vector. The result is indexed by joint index. Solve is a
// pure function: the same model and configuration always produce
// identical transforms.
//
// The root transform is read directly from the first seven scalars
// (position xyz, quaternion xyzw). Every other joint composes its
// parent's world transform with its fixed origin and a rotation about its
// axis by the scalar at its configuration slot.
func Solve(m *Model, cfg []float64) ([]math.Transform, error) {
	if len(cfg) != m.NQ() {
		return nil, &DimensionMismatchError{Expected: m.NQ(), Got: len(cfg)}
	}

	world := make([]math.Transform, len(m.Joints))
	for i := range m.Joints {
		j := &m.Joints[i]
		switch j.Type {
		case FreeFlyer:
			world[i] = math.TransformFromParts(
				math.Vec3{X: cfg[0], Y: cfg[1], Z: cfg[2]},
				math.Quat{X: cfg[3], Y: cfg[4], Z: cfg[5], W: cfg[6]}.Normalize(),
			)
		case Revolute:
			local := j.Origin.Mul(math.Transform{
				Rot: math.QuatFromAxisAngle(j.Axis, cfg[j.Slot]),
			})
			world[i] = world[j.Parent].Mul(local)
		}
	}
	return world, nil
}
