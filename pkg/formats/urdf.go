package formats

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/reviz/pkg/math"
)

// URDF format errors.
var (
	ErrNoLinks        = errors.New("robot description has no links")
	ErrInvalidVector  = errors.New("invalid vector attribute")
	ErrUnnamedElement = errors.New("link or joint missing name attribute")
)

// URDF is a parsed robot description: a named set of links and the joints
// connecting them. Only the subset needed for kinematic replay is decoded:
// tree topology, joint type/axis/origin, and per-link visual mesh data.
type URDF struct {
	XMLName xml.Name    `xml:"robot"`
	Name    string      `xml:"name,attr"`
	Links   []URDFLink  `xml:"link"`
	Joints  []URDFJoint `xml:"joint"`
}

// URDFLink is a rigid body. Visual is nil for links without display
// geometry (collision-only or frame-only links).
type URDFLink struct {
	Name   string      `xml:"name,attr"`
	Visual *URDFVisual `xml:"visual"`
}

// URDFVisual is the display geometry of a link.
type URDFVisual struct {
	Origin   *URDFOrigin   `xml:"origin"`
	Geometry URDFGeometry  `xml:"geometry"`
	Material *URDFMaterial `xml:"material"`
}

// URDFGeometry holds the geometry reference. Only mesh geometry is
// supported; primitive shapes are ignored.
type URDFGeometry struct {
	Mesh *URDFMeshRef `xml:"mesh"`
}

// URDFMeshRef references an external mesh file.
type URDFMeshRef struct {
	Filename string `xml:"filename,attr"`
}

// URDFMaterial carries the link's base color.
type URDFMaterial struct {
	Name  string     `xml:"name,attr"`
	Color *URDFColor `xml:"color"`
}

// URDFColor is an "r g b a" attribute with components in [0, 1].
type URDFColor struct {
	RGBA string `xml:"rgba,attr"`
}

// URDFOrigin is a fixed placement: "x y z" translation and "r p y"
// fixed-axis Euler rotation, both optional and defaulting to zero.
type URDFOrigin struct {
	XYZ string `xml:"xyz,attr"`
	RPY string `xml:"rpy,attr"`
}

// URDFAxis is a joint rotation axis, expressed in the joint frame.
type URDFAxis struct {
	XYZ string `xml:"xyz,attr"`
}

// URDFJointRef names the parent or child link of a joint.
type URDFJointRef struct {
	Link string `xml:"link,attr"`
}

// URDFLimit holds joint limits. Parsed for completeness; limits are not
// enforced during replay.
type URDFLimit struct {
	Lower  float64 `xml:"lower,attr"`
	Upper  float64 `xml:"upper,attr"`
	Effort float64 `xml:"effort,attr"`
}

// URDFJoint connects a parent link to a child link.
type URDFJoint struct {
	Name   string       `xml:"name,attr"`
	Type   string       `xml:"type,attr"`
	Parent URDFJointRef `xml:"parent"`
	Child  URDFJointRef `xml:"child"`
	Origin *URDFOrigin  `xml:"origin"`
	Axis   *URDFAxis    `xml:"axis"`
	Limit  *URDFLimit   `xml:"limit"`
}

// ParseURDF parses a robot description from raw XML bytes.
func ParseURDF(data []byte) (*URDF, error) {
	var robot URDF
	if err := xml.Unmarshal(data, &robot); err != nil {
		return nil, fmt.Errorf("decoding robot description: %w", err)
	}
	if len(robot.Links) == 0 {
		return nil, ErrNoLinks
	}
	for _, l := range robot.Links {
		if l.Name == "" {
			return nil, fmt.Errorf("%w: link", ErrUnnamedElement)
		}
	}
	for _, j := range robot.Joints {
		if j.Name == "" {
			return nil, fmt.Errorf("%w: joint", ErrUnnamedElement)
		}
	}
	return &robot, nil
}

// LoadURDF reads and parses a robot description file.
func LoadURDF(path string) (*URDF, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading robot description %s: %w", path, err)
	}
	robot, err := ParseURDF(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return robot, nil
}

// Transform converts the origin to a rigid transform. A nil origin is the
// identity.
func (o *URDFOrigin) Transform() (math.Transform, error) {
	if o == nil {
		return math.TransformIdentity(), nil
	}
	xyz, err := parseTriple(o.XYZ)
	if err != nil {
		return math.Transform{}, fmt.Errorf("origin xyz %q: %w", o.XYZ, err)
	}
	rpy, err := parseTriple(o.RPY)
	if err != nil {
		return math.Transform{}, fmt.Errorf("origin rpy %q: %w", o.RPY, err)
	}
	return math.TransformFromParts(xyz, math.QuatFromRPY(rpy.X, rpy.Y, rpy.Z)), nil
}

// Vector converts the axis to a normalized direction. A nil or empty axis
// defaults to +x, the URDF default.
func (a *URDFAxis) Vector() (math.Vec3, error) {
	if a == nil || strings.TrimSpace(a.XYZ) == "" {
		return math.Vec3{X: 1}, nil
	}
	v, err := parseTriple(a.XYZ)
	if err != nil {
		return math.Vec3{}, fmt.Errorf("axis xyz %q: %w", a.XYZ, err)
	}
	if v.Length() == 0 {
		return math.Vec3{}, fmt.Errorf("axis xyz %q: %w: zero axis", a.XYZ, ErrInvalidVector)
	}
	return v.Normalize(), nil
}

// BaseColor returns the visual's base color as RGBA bytes. Links without
// a material get an opaque mid-gray.
func (v *URDFVisual) BaseColor() ([4]uint8, error) {
	if v == nil || v.Material == nil || v.Material.Color == nil {
		return [4]uint8{128, 128, 128, 255}, nil
	}
	fields := strings.Fields(v.Material.Color.RGBA)
	if len(fields) != 4 {
		return [4]uint8{}, fmt.Errorf("material rgba %q: %w", v.Material.Color.RGBA, ErrInvalidVector)
	}
	var rgba [4]uint8
	for i, f := range fields {
		c, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return [4]uint8{}, fmt.Errorf("material rgba %q: %w", v.Material.Color.RGBA, err)
		}
		if c < 0 {
			c = 0
		}
		if c > 1 {
			c = 1
		}
		rgba[i] = uint8(c*255 + 0.5)
	}
	return rgba, nil
}

// parseTriple parses an "x y z" attribute. Empty input is the zero vector.
func parseTriple(s string) (math.Vec3, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return math.Vec3{}, nil
	}
	if len(fields) != 3 {
		return math.Vec3{}, fmt.Errorf("%w: expected 3 components, got %d", ErrInvalidVector, len(fields))
	}
	var out [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return math.Vec3{}, fmt.Errorf("%w: %v", ErrInvalidVector, err)
		}
		out[i] = v
	}
	return math.Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
}
