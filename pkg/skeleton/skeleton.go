// Package skeleton defines the stick-figure topology used by the dance generator.
//
// A Definition is built once at startup (see Reference) and passed to every
// component that needs joint counts, bones or the rest pose. Nothing in this
// package is mutated after construction; accessors hand out copies.
package skeleton

import (
	"fmt"
	"math"
)

// Joint is an index into a Pose. Indices are stable for the lifetime of a Definition.
type Joint int

// Reference topology joints.
const (
	Root Joint = iota
	Hip
	Chest
	Neck
	Head
	LeftShoulder
	LeftElbow
	LeftWrist
	RightShoulder
	RightElbow
	RightWrist
	LeftHip
	LeftKnee
	LeftAnkle
	RightHip
	RightKnee
	RightAnkle

	// ReferenceJointCount is the number of joints in the reference topology.
	ReferenceJointCount = 17
)

// Vec3 is a position in model space: x to the figure's right, y up, z towards the viewer.
type Vec3 [3]float64

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

// IsFinite reports whether no component is NaN or Inf.
func (v Vec3) IsFinite() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Pose is one instant: a position for every joint, indexed by Joint.
type Pose []Vec3

// Clone returns an independent copy of p.
func (p Pose) Clone() Pose {
	out := make(Pose, len(p))
	copy(out, p)
	return out
}

// Equal reports whether p and o hold identical positions.
func (p Pose) Equal(o Pose) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Sequence is an ordered list of poses; the index is the frame number.
type Sequence []Pose

// Clone deep-copies s.
func (s Sequence) Clone() Sequence {
	out := make(Sequence, len(s))
	for i, p := range s {
		out[i] = p.Clone()
	}
	return out
}

// Bone is a rigid connection drawn between two joints.
type Bone struct {
	Parent Joint
	Child  Joint
}

// JointInfo names a joint.
type JointInfo struct {
	Joint Joint
	Name  string
}

// Definition is a complete skeleton description.
type Definition struct {
	joints []JointInfo
	bones  []Bone
	rest   Pose
}

// New builds a Definition and validates it.
func New(joints []JointInfo, bones []Bone, rest Pose) (*Definition, error) {
	d := &Definition{
		joints: append([]JointInfo(nil), joints...),
		bones:  append([]Bone(nil), bones...),
		rest:   rest.Clone(),
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks that the joint table, bones and rest pose agree.
func (d *Definition) Validate() error {
	n := len(d.joints)
	if n == 0 {
		return fmt.Errorf("skeleton: no joints")
	}
	for i, j := range d.joints {
		if int(j.Joint) != i {
			return fmt.Errorf("skeleton: joint %q has index %d, want %d", j.Name, j.Joint, i)
		}
	}
	if len(d.rest) != n {
		return fmt.Errorf("skeleton: rest pose has %d joints, want %d", len(d.rest), n)
	}
	for _, b := range d.bones {
		if !d.Valid(b.Parent) || !d.Valid(b.Child) {
			return fmt.Errorf("skeleton: bone (%d,%d) out of range", b.Parent, b.Child)
		}
	}
	return nil
}

// JointCount returns J.
func (d *Definition) JointCount() int {
	return len(d.joints)
}

// Valid reports whether j is a joint of this skeleton.
func (d *Definition) Valid(j Joint) bool {
	return j >= 0 && int(j) < len(d.joints)
}

// RestPose returns a copy of the rest pose.
func (d *Definition) RestPose() Pose {
	return d.rest.Clone()
}

// BoneList returns a copy of the bone list.
func (d *Definition) BoneList() []Bone {
	return append([]Bone(nil), d.bones...)
}

// Joints returns a copy of the joint table.
func (d *Definition) Joints() []JointInfo {
	return append([]JointInfo(nil), d.joints...)
}

// JointName returns the name of j, or "" if j is out of range.
func (d *Definition) JointName(j Joint) string {
	if !d.Valid(j) {
		return ""
	}
	return d.joints[j].Name
}

// JointByName looks up a joint by name.
func (d *Definition) JointByName(name string) (Joint, bool) {
	for _, j := range d.joints {
		if j.Name == name {
			return j.Joint, true
		}
	}
	return 0, false
}
