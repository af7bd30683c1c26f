package kinematics

import (
	"errors"
	"strings"
	"testing"

	"github.com/Faultbox/reviz/pkg/formats"
)

// parseTestRobot builds a model description from inline XML.
func parseTestRobot(t *testing.T, xml string) *formats.URDF {
	t.Helper()
	desc, err := formats.ParseURDF([]byte(xml))
	if err != nil {
		t.Fatalf("failed to parse test description: %v", err)
	}
	return desc
}

// twoJointXML is the smallest articulated robot: a floating base and one
// revolute joint about z with no translation offset.
const twoJointXML = `<robot name="minimal">
  <link name="base">
    <visual><geometry><mesh filename="base.stl"/></geometry></visual>
  </link>
  <link name="spinner">
    <visual><geometry><mesh filename="spinner.stl"/></geometry></visual>
  </link>
  <joint name="spin" type="revolute">
    <parent link="base"/>
    <child link="spinner"/>
    <axis xyz="0 0 1"/>
  </joint>
</robot>`

// humanoidXML has two independent chains off the floating base (an "arm"
// and a "leg") plus a fixed sensor mount folded into the torso.
const humanoidXML = `<robot name="biped">
  <link name="pelvis">
    <visual><geometry><mesh filename="pelvis.stl"/></geometry></visual>
  </link>
  <link name="torso">
    <visual><geometry><mesh filename="torso.stl"/></geometry></visual>
  </link>
  <link name="upper_arm">
    <visual><geometry><mesh filename="upper_arm.stl"/></geometry></visual>
  </link>
  <link name="forearm">
    <visual><geometry><mesh filename="forearm.stl"/></geometry></visual>
  </link>
  <link name="thigh">
    <visual><geometry><mesh filename="thigh.stl"/></geometry></visual>
  </link>
  <link name="shin">
    <visual><geometry><mesh filename="shin.stl"/></geometry></visual>
  </link>
  <link name="imu_frame"/>
  <joint name="waist" type="revolute">
    <parent link="pelvis"/>
    <child link="torso"/>
    <origin xyz="0 0 0.3"/>
    <axis xyz="0 0 1"/>
  </joint>
  <joint name="shoulder" type="revolute">
    <parent link="torso"/>
    <child link="upper_arm"/>
    <origin xyz="0 0.2 0.25"/>
    <axis xyz="0 1 0"/>
  </joint>
  <joint name="elbow" type="revolute">
    <parent link="upper_arm"/>
    <child link="forearm"/>
    <origin xyz="0 0 -0.3"/>
    <axis xyz="0 1 0"/>
  </joint>
  <joint name="hip" type="revolute">
    <parent link="pelvis"/>
    <child link="thigh"/>
    <origin xyz="0 -0.1 -0.05"/>
    <axis xyz="0 1 0"/>
  </joint>
  <joint name="knee" type="revolute">
    <parent link="thigh"/>
    <child link="shin"/>
    <origin xyz="0 0 -0.4"/>
    <axis xyz="0 1 0"/>
  </joint>
  <joint name="imu_mount" type="fixed">
    <parent link="torso"/>
    <child link="imu_frame"/>
    <origin xyz="0.05 0 0.1"/>
  </joint>
</robot>`

func TestBuildModelTwoJoint(t *testing.T) {
	m, err := BuildModel(parseTestRobot(t, twoJointXML))
	if err != nil {
		t.Fatalf("failed to build model: %v", err)
	}

	if m.Name != "minimal" {
		t.Errorf("expected model name minimal, got %q", m.Name)
	}
	if len(m.Joints) != 2 {
		t.Fatalf("expected 2 joints (root + spin), got %d", len(m.Joints))
	}
	if m.NQ() != 8 {
		t.Errorf("expected NQ 8, got %d", m.NQ())
	}

	root := m.Joints[0]
	if root.Type != FreeFlyer || root.Parent != NoParent {
		t.Errorf("joint 0 should be the free-flyer root, got %+v", root)
	}

	spin := m.Joints[1]
	if spin.Name != "spin" || spin.Type != Revolute {
		t.Errorf("joint 1 should be the revolute spin joint, got %+v", spin)
	}
	if spin.Parent != 0 {
		t.Errorf("spin joint should parent the root, got %d", spin.Parent)
	}
	if spin.Slot != 7 {
		t.Errorf("first revolute joint should use slot 7, got %d", spin.Slot)
	}
	if spin.Axis.Z != 1 {
		t.Errorf("expected +z axis, got %+v", spin.Axis)
	}

	if len(m.Links) != 2 {
		t.Fatalf("expected 2 visual links, got %d", len(m.Links))
	}
	if m.Links[0].Joint != 0 || m.Links[1].Joint != 1 {
		t.Errorf("link ownership wrong: %d, %d", m.Links[0].Joint, m.Links[1].Joint)
	}
}

func TestBuildModelTopologicalOrder(t *testing.T) {
	m, err := BuildModel(parseTestRobot(t, humanoidXML))
	if err != nil {
		t.Fatalf("failed to build model: %v", err)
	}

	// 1 free-flyer + 5 revolute; the fixed imu_mount is folded away
	if len(m.Joints) != 6 {
		t.Fatalf("expected 6 joints, got %d", len(m.Joints))
	}
	if m.NQ() != 12 {
		t.Errorf("expected NQ 12, got %d", m.NQ())
	}
	if m.JointIndex("imu_mount") != -1 {
		t.Error("fixed joints should not appear in the joint list")
	}

	// Every joint comes after its parent
	for i, j := range m.Joints {
		if i == 0 {
			continue
		}
		if j.Parent < 0 || j.Parent >= i {
			t.Errorf("joint %d (%s) has parent %d, order is not topological", i, j.Name, j.Parent)
		}
	}

	// Revolute slots are 7..NQ-1, each used exactly once
	seen := make(map[int]string)
	for _, j := range m.Joints {
		if j.Type != Revolute {
			continue
		}
		if j.Slot < 7 || j.Slot >= m.NQ() {
			t.Errorf("joint %s has slot %d outside [7, %d)", j.Name, j.Slot, m.NQ())
		}
		if prev, dup := seen[j.Slot]; dup {
			t.Errorf("slot %d assigned to both %s and %s", j.Slot, prev, j.Name)
		}
		seen[j.Slot] = j.Name
	}

	// The fixed-mounted imu_frame has no visual, so only 6 links bind
	if len(m.Links) != 6 {
		t.Errorf("expected 6 visual links, got %d", len(m.Links))
	}
}

func TestBuildModelFixedJointFolding(t *testing.T) {
	const xml = `<robot name="folded">
  <link name="base"/>
  <link name="plate">
    <visual>
      <origin xyz="0 0 0.02"/>
      <geometry><mesh filename="plate.stl"/></geometry>
    </visual>
  </link>
  <joint name="mount" type="fixed">
    <parent link="base"/>
    <child link="plate"/>
    <origin xyz="0.1 0 0.5"/>
  </joint>
</robot>`
	m, err := BuildModel(parseTestRobot(t, xml))
	if err != nil {
		t.Fatalf("failed to build model: %v", err)
	}

	if len(m.Joints) != 1 {
		t.Fatalf("expected only the root joint, got %d", len(m.Joints))
	}
	if len(m.Links) != 1 {
		t.Fatalf("expected 1 visual link, got %d", len(m.Links))
	}

	// The plate's placement accumulates the fixed joint origin and the
	// visual origin relative to the root joint.
	link := m.Links[0]
	if link.Joint != 0 {
		t.Errorf("plate should be owned by the root joint, got %d", link.Joint)
	}
	wantZ := 0.52
	if diff := link.Placement.Pos.Z - wantZ; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("expected folded placement z %v, got %v", wantZ, link.Placement.Pos.Z)
	}
	if link.Placement.Pos.X != 0.1 {
		t.Errorf("expected folded placement x 0.1, got %v", link.Placement.Pos.X)
	}
}

func TestBuildModelMalformed(t *testing.T) {
	tests := []struct {
		name   string
		xml    string
		reason string
	}{
		{
			name: "unknown parent link",
			xml: `<robot name="bad">
  <link name="a"/><link name="b"/>
  <joint name="j" type="revolute">
    <parent link="ghost"/><child link="b"/><axis xyz="0 0 1"/>
  </joint>
</robot>`,
			reason: "unknown parent link",
		},
		{
			name: "unknown child link",
			xml: `<robot name="bad">
  <link name="a"/>
  <joint name="j" type="revolute">
    <parent link="a"/><child link="ghost"/><axis xyz="0 0 1"/>
  </joint>
</robot>`,
			reason: "unknown child link",
		},
		{
			name: "cycle",
			xml: `<robot name="bad">
  <link name="a"/><link name="b"/>
  <joint name="j1" type="revolute">
    <parent link="a"/><child link="b"/><axis xyz="0 0 1"/>
  </joint>
  <joint name="j2" type="revolute">
    <parent link="b"/><child link="a"/><axis xyz="0 0 1"/>
  </joint>
</robot>`,
			reason: "cycle",
		},
		{
			name: "two roots",
			xml: `<robot name="bad">
  <link name="a"/><link name="b"/><link name="c"/>
  <joint name="j" type="revolute">
    <parent link="a"/><child link="b"/><axis xyz="0 0 1"/>
  </joint>
</robot>`,
			reason: "multiple root links",
		},
		{
			name: "duplicate joint",
			xml: `<robot name="bad">
  <link name="a"/><link name="b"/><link name="c"/>
  <joint name="j" type="revolute">
    <parent link="a"/><child link="b"/><axis xyz="0 0 1"/>
  </joint>
  <joint name="j" type="revolute">
    <parent link="b"/><child link="c"/><axis xyz="0 0 1"/>
  </joint>
</robot>`,
			reason: "duplicate joint name",
		},
		{
			name: "two parents",
			xml: `<robot name="bad">
  <link name="a"/><link name="b"/><link name="c"/>
  <joint name="j1" type="revolute">
    <parent link="a"/><child link="c"/><axis xyz="0 0 1"/>
  </joint>
  <joint name="j2" type="revolute">
    <parent link="a"/><child link="b"/><axis xyz="0 0 1"/>
  </joint>
  <joint name="j3" type="revolute">
    <parent link="b"/><child link="c"/><axis xyz="0 0 1"/>
  </joint>
</robot>`,
			reason: "more than one parent",
		},
		{
			name: "unsupported type",
			xml: `<robot name="bad">
  <link name="a"/><link name="b"/>
  <joint name="j" type="prismatic">
    <parent link="a"/><child link="b"/><axis xyz="0 0 1"/>
  </joint>
</robot>`,
			reason: "unsupported joint type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildModel(parseTestRobot(t, tt.xml))
			if err == nil {
				t.Fatal("expected a malformed model error, got nil")
			}
			var malformed *MalformedModelError
			if !errors.As(err, &malformed) {
				t.Fatalf("expected MalformedModelError, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tt.reason) {
				t.Errorf("expected reason containing %q, got %q", tt.reason, err.Error())
			}
		})
	}
}

func TestNeutral(t *testing.T) {
	m, err := BuildModel(parseTestRobot(t, humanoidXML))
	if err != nil {
		t.Fatalf("failed to build model: %v", err)
	}

	cfg := Neutral(m)
	if len(cfg) != m.NQ() {
		t.Fatalf("neutral length %d, expected %d", len(cfg), m.NQ())
	}
	for i, v := range cfg {
		want := 0.0
		if i == 6 {
			want = 1.0 // identity quaternion w
		}
		if v != want {
			t.Errorf("neutral[%d] = %v, want %v", i, v, want)
		}
	}
}
