// Package movement provides the catalogue of parametrized dance primitives.
//
// A Primitive is a closed-form generator: given a frame index and Params it
// derives one pose from the rest pose by offsetting a declared set of joints,
// or by transforming the whole figure. Primitives hold no state and no
// randomness, so the same inputs always produce the same frames. Choosing
// which primitive plays when is the sequencer's job (see package choreography).
package movement

import (
	"fmt"
	"math/bits"

	"github.com/teslashibe/go-dancegen/pkg/skeleton"
)

// Params scales a primitive's reference motion. Both fields are dimensionless;
// Amplitude=1, Speed=1 reproduces the reference motion.
type Params struct {
	Amplitude float64 // Offset magnitude multiplier
	Speed     float64 // Phase rate multiplier
}

// ReferenceParams returns the unscaled parameters.
func ReferenceParams() Params {
	return Params{Amplitude: 1, Speed: 1}
}

// Scale returns p with amplitude and speed multiplied by the given factors.
func (p Params) Scale(amplitude, speed float64) Params {
	return Params{Amplitude: p.Amplitude * amplitude, Speed: p.Speed * speed}
}

// ApplyFunc computes the pose at frame t. pose is a fresh copy of the rest pose
// owned by the callee; implementations modify it in place and return it.
type ApplyFunc func(pose skeleton.Pose, t int, p Params) skeleton.Pose

// JointSet is a bitmask of joints. It supports skeletons of up to 64 joints.
type JointSet uint64

// Joints builds a JointSet from individual joints.
func Joints(js ...skeleton.Joint) JointSet {
	var s JointSet
	for _, j := range js {
		s |= 1 << uint(j)
	}
	return s
}

// AllJoints returns the set containing joints [0, n).
func AllJoints(n int) JointSet {
	if n >= 64 {
		return ^JointSet(0)
	}
	return JointSet(1)<<uint(n) - 1
}

// Has reports whether j is in the set.
func (s JointSet) Has(j skeleton.Joint) bool {
	return j >= 0 && j < 64 && s&(1<<uint(j)) != 0
}

// Len returns the number of joints in the set.
func (s JointSet) Len() int {
	return bits.OnesCount64(uint64(s))
}

// Slice lists the joints in ascending order.
func (s JointSet) Slice() []skeleton.Joint {
	out := make([]skeleton.Joint, 0, s.Len())
	for j := skeleton.Joint(0); j < 64; j++ {
		if s.Has(j) {
			out = append(out, j)
		}
	}
	return out
}

// Primitive is one named move.
type Primitive struct {
	// Name identifies the primitive (e.g. "neck-sway").
	Name string

	// Description is a short human-readable summary.
	Description string

	// Joints is the set of joints the primitive may move. Joints outside the
	// set keep their rest position on every frame.
	Joints JointSet

	// Whole marks primitives that transform the entire figure (rotation,
	// translation). Whole primitives may move every joint.
	Whole bool

	// Apply produces the pose for one frame.
	Apply ApplyFunc
}

// Affected returns the joints this primitive may move on a skeleton of n joints.
func (p Primitive) Affected(n int) JointSet {
	if p.Whole {
		return AllJoints(n)
	}
	return p.Joints
}

// Evaluate returns the pose at frame t.
func (p Primitive) Evaluate(def *skeleton.Definition, t int, params Params) skeleton.Pose {
	return p.Apply(def.RestPose(), t, params)
}

// Generate produces duration frames of the primitive. duration == 0 yields an
// empty, non-nil sequence.
func (p Primitive) Generate(def *skeleton.Definition, duration int, params Params) (skeleton.Sequence, error) {
	if duration < 0 {
		return nil, fmt.Errorf("%w: %s: %d", ErrInvalidDuration, p.Name, duration)
	}

	n := def.JointCount()
	frames := make(skeleton.Sequence, 0, duration)
	for t := 0; t < duration; t++ {
		pose := p.Evaluate(def, t, params)
		if len(pose) != n {
			return nil, fmt.Errorf("%w: %s frame %d has %d joints, want %d",
				ErrPrimitiveExecution, p.Name, t, len(pose), n)
		}
		for j, v := range pose {
			if !v.IsFinite() {
				return nil, fmt.Errorf("%w: %s frame %d joint %d is not finite",
					ErrPrimitiveExecution, p.Name, t, j)
			}
		}
		frames = append(frames, pose)
	}
	return frames, nil
}

// CheckLocality evaluates frames [0, frames) and fails if any joint outside the
// primitive's declared set leaves its rest position.
func CheckLocality(def *skeleton.Definition, p Primitive, params Params, frames int) error {
	rest := def.RestPose()
	allowed := p.Affected(def.JointCount())

	for t := 0; t < frames; t++ {
		pose := p.Evaluate(def, t, params)
		if len(pose) != len(rest) {
			return fmt.Errorf("%w: %s frame %d has %d joints, want %d",
				ErrPrimitiveExecution, p.Name, t, len(pose), len(rest))
		}
		for j := range pose {
			joint := skeleton.Joint(j)
			if allowed.Has(joint) {
				continue
			}
			if pose[j] != rest[j] {
				return fmt.Errorf("%w: %w: %s moved %s at frame %d",
					ErrPrimitiveExecution, ErrLocality, p.Name, def.JointName(joint), t)
			}
		}
	}
	return nil
}
