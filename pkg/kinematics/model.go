// Package kinematics builds an articulated rigid-body model from a robot
// description, solves forward kinematics for flat configuration vectors,
// and binds visual meshes to the joint frames that carry them.
package kinematics

import (
	"fmt"

	"github.com/Faultbox/reviz/pkg/formats"
	"github.com/Faultbox/reviz/pkg/math"
)

// JointType distinguishes the two joint kinds the model supports.
type JointType int

const (
	// FreeFlyer is the 6-DOF floating root joint: 7 configuration
	// scalars (position xyz, orientation quaternion xyzw).
	FreeFlyer JointType = iota
	// Revolute rotates about a fixed axis: 1 configuration scalar.
	Revolute
)

// NoParent is the Parent index of the root joint.
const NoParent = -1

// rootJointName is the synthetic free-flyer joint grafted above the
// description's root link.
const rootJointName = "root_joint"

// Joint is one node of the kinematic tree. Joints are stored in
// topological order: the root first, every joint after its parent, so a
// single forward pass over the slice is a valid traversal.
type Joint struct {
	Name   string
	Type   JointType
	Parent int            // index into Model.Joints, NoParent for the root
	Origin math.Transform // fixed placement in the parent joint's frame
	Axis   math.Vec3      // rotation axis, unit length (Revolute only)
	Slot   int            // configuration index (Revolute only)
}

// Link is a rigid body with a visual mesh, rigidly attached to one joint.
// Placement locates the mesh in the owning joint's frame: the link frame
// (composed through any folded fixed joints) times the visual origin.
type Link struct {
	Name      string
	Joint     int // index into Model.Joints
	Placement math.Transform
	MeshPath  string
	Color     [4]uint8
}

// Model is an immutable kinematic description: the joint tree plus the
// visual links hanging off it.
type Model struct {
	Name   string
	Joints []Joint
	Links  []Link

	nq int
}

// NQ returns the configuration vector length the model expects:
// 7 root scalars plus one per revolute joint.
func (m *Model) NQ() int {
	return m.nq
}

// JointIndex returns the index of a joint by name, or -1.
func (m *Model) JointIndex(name string) int {
	for i := range m.Joints {
		if m.Joints[i].Name == name {
			return i
		}
	}
	return -1
}

// Neutral returns the model's neutral configuration: root at the origin
// with identity orientation, every revolute joint at zero.
func Neutral(m *Model) []float64 {
	cfg := make([]float64, m.NQ())
	cfg[6] = 1 // quaternion w
	return cfg
}

// linkState tracks, during construction, which joint owns each
// description link and where the link frame sits relative to that joint.
type linkState struct {
	joint     int
	placement math.Transform
	reached   bool
}

// BuildModel constructs a kinematic model from a parsed robot
// description. A free-flyer joint is grafted above the root link; fixed
// description joints are folded into their child link's placement and
// contribute no configuration slot.
func BuildModel(desc *formats.URDF) (*Model, error) {
	states := make(map[string]*linkState, len(desc.Links))
	for _, l := range desc.Links {
		if _, dup := states[l.Name]; dup {
			return nil, &MalformedModelError{Element: l.Name, Reason: "duplicate link name"}
		}
		states[l.Name] = &linkState{}
	}

	// Joints grouped by parent link, preserving description order so the
	// traversal (and the configuration layout) is deterministic.
	children := make(map[string][]*formats.URDFJoint, len(desc.Links))
	jointNames := make(map[string]bool, len(desc.Joints))
	isChild := make(map[string]bool, len(desc.Joints))
	for i := range desc.Joints {
		j := &desc.Joints[i]
		if jointNames[j.Name] {
			return nil, &MalformedModelError{Element: j.Name, Reason: "duplicate joint name"}
		}
		jointNames[j.Name] = true
		if _, ok := states[j.Parent.Link]; !ok {
			return nil, &MalformedModelError{Element: j.Name, Reason: fmt.Sprintf("unknown parent link %q", j.Parent.Link)}
		}
		if _, ok := states[j.Child.Link]; !ok {
			return nil, &MalformedModelError{Element: j.Name, Reason: fmt.Sprintf("unknown child link %q", j.Child.Link)}
		}
		children[j.Parent.Link] = append(children[j.Parent.Link], j)
		if isChild[j.Child.Link] {
			return nil, &MalformedModelError{Element: j.Child.Link, Reason: "link has more than one parent joint"}
		}
		isChild[j.Child.Link] = true
	}

	// The root link is the unique link that is never a joint child.
	var rootLink string
	for _, l := range desc.Links {
		if !isChild[l.Name] {
			if rootLink != "" {
				return nil, &MalformedModelError{Reason: fmt.Sprintf("multiple root links: %q and %q", rootLink, l.Name)}
			}
			rootLink = l.Name
		}
	}
	if rootLink == "" {
		// Every link is someone's child: the joint graph contains a cycle.
		return nil, &MalformedModelError{Reason: "no root link, description contains a cycle"}
	}

	m := &Model{
		Name: desc.Name,
		Joints: []Joint{{
			Name:   rootJointName,
			Type:   FreeFlyer,
			Parent: NoParent,
			Origin: math.TransformIdentity(),
		}},
		nq: 7,
	}
	rootState := states[rootLink]
	rootState.joint = 0
	rootState.placement = math.TransformIdentity()
	rootState.reached = true

	// Depth-first expansion from the root link. Parents are always
	// appended before children, so Model.Joints ends up topological.
	stack := []string{rootLink}
	for len(stack) > 0 {
		linkName := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		parent := states[linkName]

		for _, dj := range children[linkName] {
			child := states[dj.Child.Link]
			if child.reached {
				return nil, &MalformedModelError{Element: dj.Name, Reason: "description contains a cycle"}
			}
			origin, err := dj.Origin.Transform()
			if err != nil {
				return nil, &MalformedModelError{Element: dj.Name, Reason: err.Error()}
			}

			switch dj.Type {
			case "revolute", "continuous":
				axis, err := dj.Axis.Vector()
				if err != nil {
					return nil, &MalformedModelError{Element: dj.Name, Reason: err.Error()}
				}
				m.Joints = append(m.Joints, Joint{
					Name:   dj.Name,
					Type:   Revolute,
					Parent: parent.joint,
					Origin: parent.placement.Mul(origin),
					Axis:   axis,
					Slot:   m.nq,
				})
				m.nq++
				child.joint = len(m.Joints) - 1
				child.placement = math.TransformIdentity()
			case "fixed":
				child.joint = parent.joint
				child.placement = parent.placement.Mul(origin)
			default:
				return nil, &MalformedModelError{Element: dj.Name, Reason: fmt.Sprintf("unsupported joint type %q", dj.Type)}
			}
			child.reached = true
			stack = append(stack, dj.Child.Link)
		}
	}

	for _, l := range desc.Links {
		if !states[l.Name].reached {
			return nil, &MalformedModelError{Element: l.Name, Reason: "link not reachable from the root"}
		}
	}

	// Visual links, in description order.
	for _, l := range desc.Links {
		if l.Visual == nil || l.Visual.Geometry.Mesh == nil {
			continue
		}
		visualOrigin, err := l.Visual.Origin.Transform()
		if err != nil {
			return nil, &MalformedModelError{Element: l.Name, Reason: err.Error()}
		}
		color, err := l.Visual.BaseColor()
		if err != nil {
			return nil, &MalformedModelError{Element: l.Name, Reason: err.Error()}
		}
		st := states[l.Name]
		m.Links = append(m.Links, Link{
			Name:      l.Name,
			Joint:     st.joint,
			Placement: st.placement.Mul(visualOrigin),
			MeshPath:  l.Visual.Geometry.Mesh.Filename,
			Color:     color,
		})
	}

	return m, nil
}
