package skeleton

// referenceJoints lists the 17-joint topology in index order.
var referenceJoints = []JointInfo{
	{Root, "root"},
	{Hip, "hip"},
	{Chest, "chest"},
	{Neck, "neck"},
	{Head, "head"},
	{LeftShoulder, "left_shoulder"},
	{LeftElbow, "left_elbow"},
	{LeftWrist, "left_wrist"},
	{RightShoulder, "right_shoulder"},
	{RightElbow, "right_elbow"},
	{RightWrist, "right_wrist"},
	{LeftHip, "left_hip"},
	{LeftKnee, "left_knee"},
	{LeftAnkle, "left_ankle"},
	{RightHip, "right_hip"},
	{RightKnee, "right_knee"},
	{RightAnkle, "right_ankle"},
}

var referenceBones = []Bone{
	{Root, Hip},
	{Hip, Chest},
	{Chest, Neck},
	{Neck, Head},

	{Chest, LeftShoulder},
	{LeftShoulder, LeftElbow},
	{LeftElbow, LeftWrist},

	{Chest, RightShoulder},
	{RightShoulder, RightElbow},
	{RightElbow, RightWrist},

	{Hip, LeftHip},
	{LeftHip, LeftKnee},
	{LeftKnee, LeftAnkle},

	{Hip, RightHip},
	{RightHip, RightKnee},
	{RightKnee, RightAnkle},
}

// referenceRest is the T-pose: arms straight out along x, legs straight down.
var referenceRest = Pose{
	Root: {0, 0, 0},

	Hip:   {0, 0.1, 0},
	Chest: {0, 0.2, 0},
	Neck:  {0, 0.25, 0},
	Head:  {0, 0.3, 0},

	LeftShoulder: {-0.1, 0.2, 0},
	LeftElbow:    {-0.2, 0.2, 0},
	LeftWrist:    {-0.3, 0.2, 0},

	RightShoulder: {0.1, 0.2, 0},
	RightElbow:    {0.2, 0.2, 0},
	RightWrist:    {0.3, 0.2, 0},

	LeftHip:   {-0.05, 0.1, 0},
	LeftKnee:  {-0.05, 0, 0},
	LeftAnkle: {-0.05, -0.1, 0},

	RightHip:   {0.05, 0.1, 0},
	RightKnee:  {0.05, 0, 0},
	RightAnkle: {0.05, -0.1, 0},
}

// Reference returns the 17-joint stick figure used by every dance style.
func Reference() *Definition {
	d, err := New(referenceJoints, referenceBones, referenceRest)
	if err != nil {
		// the tables above are constants; a failure here is a programming error
		panic(err)
	}
	return d
}
