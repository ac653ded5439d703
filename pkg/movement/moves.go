package movement

import (
	"math"

	sk "github.com/teslashibe/go-dancegen/pkg/skeleton"
)

// Primitive names.
const (
	NeckSway        = "neck-sway"
	WristRotate     = "wrist-rotate"
	StepSequence    = "step-sequence"
	SlowTurn        = "slow-turn"
	ArmSpread       = "arm-spread"
	BowStep         = "bow-step"
	SquatJump       = "squat-jump"
	ShoulderShake   = "shoulder-shake"
	AnimalImitation = "animal-imitation"
)

// Builtin returns the reference primitives in catalogue order.
func Builtin() []Primitive {
	return []Primitive{
		// Sainaimu: lyrical
		{
			Name:        NeckSway,
			Description: "Side-to-side neck slide with a light head nod",
			Joints:      Joints(sk.Neck, sk.Head),
			Apply:       neckSway,
		},
		{
			Name:        WristRotate,
			Description: "Small circles traced by both wrists",
			Joints:      Joints(sk.LeftWrist, sk.RightWrist),
			Apply:       wristRotate,
		},
		{
			Name:        StepSequence,
			Description: "Alternating pad steps with the hip following",
			Joints:      Joints(sk.Hip, sk.LeftAnkle, sk.RightAnkle),
			Apply:       stepSequence,
		},

		// Samawu: solemn
		{
			Name:        SlowTurn,
			Description: "Slow whole-body turn about the vertical axis",
			Whole:       true,
			Apply:       slowTurn,
		},
		{
			Name:        ArmSpread,
			Description: "Arms opening outwards with a gentle lift",
			Joints: Joints(sk.LeftShoulder, sk.LeftElbow, sk.LeftWrist,
				sk.RightShoulder, sk.RightElbow, sk.RightWrist),
			Apply: armSpread,
		},
		{
			Name:        BowStep,
			Description: "Forward bow of the upper body with bent knees",
			Joints:      Joints(sk.Chest, sk.Neck, sk.Head, sk.LeftKnee, sk.RightKnee),
			Apply:       bowStep,
		},

		// Daolangwu: lively
		{
			Name:        SquatJump,
			Description: "Squat, jump and land on a 15-frame cycle",
			Whole:       true,
			Apply:       squatJump,
		},
		{
			Name:        ShoulderShake,
			Description: "Quick shoulder shimmy with the head following",
			Joints:      Joints(sk.LeftShoulder, sk.RightShoulder, sk.Head),
			Apply:       shoulderShake,
		},
		{
			Name:        AnimalImitation,
			Description: "Waddling duck walk: body sway, bent knees, swinging hands",
			Whole:       true,
			Apply:       animalImitation,
		},
	}
}

func neckSway(pose sk.Pose, t int, p Params) sk.Pose {
	i := float64(t)
	offset := math.Sin(i*0.1*p.Speed) * 0.1 * p.Amplitude
	pose[sk.Neck][0] += offset
	pose[sk.Head][0] += offset * 1.2

	nod := math.Sin(i*0.15*p.Speed) * 0.05 * p.Amplitude
	pose[sk.Head][1] += nod
	return pose
}

func wristRotate(pose sk.Pose, t int, p Params) sk.Pose {
	angle := float64(t) * 0.2 * p.Speed * p.Amplitude
	dx := math.Sin(angle) * 0.05
	dy := math.Cos(angle) * 0.05

	pose[sk.LeftWrist][0] += dx
	pose[sk.LeftWrist][1] += dy
	pose[sk.RightWrist][0] += dx
	pose[sk.RightWrist][1] += dy
	return pose
}

func stepSequence(pose sk.Pose, t int, p Params) sk.Pose {
	step := math.Sin(float64(t)*0.15*p.Speed) * 0.1 * p.Amplitude
	lift := math.Abs(step) * 0.2

	pose[sk.LeftAnkle][0] += step * 0.5
	pose[sk.LeftAnkle][1] += lift
	pose[sk.RightAnkle][0] -= step * 0.5
	pose[sk.RightAnkle][1] += lift
	pose[sk.Hip][0] += step * 0.3
	return pose
}

func slowTurn(pose sk.Pose, t int, p Params) sk.Pose {
	return rotateY(pose, float64(t)*0.05*p.Speed*p.Amplitude)
}

// rotateY turns every joint about the vertical axis through the origin.
func rotateY(pose sk.Pose, angle float64) sk.Pose {
	c, s := math.Cos(angle), math.Sin(angle)
	for j, v := range pose {
		x, z := v[0], v[2]
		pose[j][0] = x*c - z*s
		pose[j][2] = x*s + z*c
	}
	return pose
}

func armSpread(pose sk.Pose, t int, p Params) sk.Pose {
	i := float64(t)
	spread := math.Sin(i*0.1*p.Speed) * 0.15 * p.Amplitude

	pose[sk.LeftShoulder][0] -= spread
	pose[sk.LeftElbow][0] -= spread * 1.5
	pose[sk.LeftWrist][0] -= spread * 2
	pose[sk.RightShoulder][0] += spread
	pose[sk.RightElbow][0] += spread * 1.5
	pose[sk.RightWrist][0] += spread * 2

	lift := math.Cos(i*0.15*p.Speed) * 0.05 * p.Amplitude
	for j := sk.LeftShoulder; j <= sk.RightWrist; j++ {
		pose[j][1] += lift
	}
	return pose
}

func bowStep(pose sk.Pose, t int, p Params) sk.Pose {
	bow := math.Sin(float64(t)*0.1*p.Speed) * 0.2 * p.Amplitude

	for _, j := range []sk.Joint{sk.Chest, sk.Neck, sk.Head} {
		pose[j][1] -= bow * 0.5
		pose[j][2] += bow * 0.3
	}

	bend := math.Abs(bow) * 0.3
	pose[sk.LeftKnee][1] -= bend
	pose[sk.RightKnee][1] -= bend
	return pose
}

// squatJumpCycle is the length of one squat-jump-land cycle in frames at Speed 1.
const squatJumpCycle = 15.0

func squatJump(pose sk.Pose, t int, p Params) sk.Pose {
	phase := math.Mod(float64(t)*p.Speed/squatJumpCycle, 1)
	if phase < 0 {
		phase++
	}

	switch {
	case phase < 0.3: // squat
		depth := phase * 0.2 * p.Amplitude
		kneeLeft := pose[sk.LeftKnee][1] - depth*2
		kneeRight := pose[sk.RightKnee][1] - depth*2
		shiftY(pose, -depth)
		pose[sk.LeftKnee][1] = kneeLeft
		pose[sk.RightKnee][1] = kneeRight
	case phase < 0.6: // take off
		shiftY(pose, (phase-0.3)*0.3*p.Amplitude)
	default: // land
		shiftY(pose, -(1-phase)*0.1*p.Amplitude)
	}
	return pose
}

func shiftY(pose sk.Pose, dy float64) {
	for j := range pose {
		pose[j][1] += dy
	}
}

func shoulderShake(pose sk.Pose, t int, p Params) sk.Pose {
	f := float64(t) * 0.3 * p.Speed

	pose[sk.LeftShoulder][1] += math.Sin(f) * 0.05 * p.Amplitude
	pose[sk.LeftShoulder][0] += math.Cos(f) * 0.02 * p.Amplitude
	pose[sk.RightShoulder][1] += math.Cos(f) * 0.05 * p.Amplitude
	pose[sk.RightShoulder][0] += math.Sin(f) * 0.02 * p.Amplitude

	pose[sk.Head][0] += math.Sin(f*0.5) * 0.03 * p.Amplitude
	return pose
}

func animalImitation(pose sk.Pose, t int, p Params) sk.Pose {
	walk := float64(t) * 0.2 * p.Speed

	// legs sway half as far as the upper body
	sway := math.Sin(walk) * 0.15 * p.Amplitude
	for j := range pose {
		if sk.Joint(j) > sk.RightWrist {
			pose[j][0] += sway * 0.5
		} else {
			pose[j][0] += sway
		}
	}

	bend := math.Abs(math.Sin(walk)) * 0.1 * p.Amplitude
	pose[sk.LeftKnee][1] -= bend
	pose[sk.RightKnee][1] -= bend

	swing := math.Cos(walk) * 0.1 * p.Amplitude
	pose[sk.LeftWrist][0] -= swing
	pose[sk.RightWrist][0] += swing
	return pose
}
