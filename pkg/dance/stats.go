package dance

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/teslashibe/go-dancegen/pkg/skeleton"
)

// TrackedJoints are the joints summarised in a motion report.
var TrackedJoints = []skeleton.Joint{
	skeleton.Root,
	skeleton.Head,
	skeleton.LeftWrist,
	skeleton.RightWrist,
	skeleton.LeftAnkle,
	skeleton.RightAnkle,
}

// JointStats summarises the trajectory of one joint.
type JointStats struct {
	Joint     string  `json:"joint"`
	XMin      float64 `json:"x_min"`
	XMax      float64 `json:"x_max"`
	YMin      float64 `json:"y_min"`
	YMax      float64 `json:"y_max"`
	MeanSpeed float64 `json:"mean_speed"` // mean distance moved per frame
	MaxSpeed  float64 `json:"max_speed"`
}

// Stats summarises the tracked joints of seq. Joints the skeleton lacks are skipped.
func Stats(def *skeleton.Definition, seq skeleton.Sequence) []JointStats {
	if len(seq) == 0 {
		return nil
	}

	out := make([]JointStats, 0, len(TrackedJoints))
	xs := make([]float64, len(seq))
	ys := make([]float64, len(seq))

	for _, j := range TrackedJoints {
		if !def.Valid(j) {
			continue
		}
		for i, pose := range seq {
			xs[i] = pose[j][0]
			ys[i] = pose[j][1]
		}

		s := JointStats{
			Joint: def.JointName(j),
			XMin:  floats.Min(xs),
			XMax:  floats.Max(xs),
			YMin:  floats.Min(ys),
			YMax:  floats.Max(ys),
		}
		if len(seq) > 1 {
			speeds := make([]float64, len(seq)-1)
			for i := 1; i < len(seq); i++ {
				speeds[i-1] = floats.Distance(seq[i][j][:], seq[i-1][j][:], 2)
			}
			s.MeanSpeed = stat.Mean(speeds, nil)
			s.MaxSpeed = floats.Max(speeds)
		}
		out = append(out, s)
	}
	return out
}
