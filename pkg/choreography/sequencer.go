package choreography

import (
	"context"
	"fmt"
	"math"

	"github.com/teslashibe/go-dancegen/pkg/movement"
	"github.com/teslashibe/go-dancegen/pkg/skeleton"
)

const (
	// DefaultFrameRate is the output frame rate in frames per second.
	DefaultFrameRate = 30.0

	// DefaultFramesPerBeat is used when tempo or beats are unusable: 100 bpm at 30 fps.
	DefaultFramesPerBeat = 18

	// StepUnits is the number of output frames each sequencer step stands for.
	// The walk runs totalFrames/StepUnits steps; post-processing fixes the length.
	StepUnits = 10

	accentAmplitude     = 1.5
	transitionAmplitude = 0.7
	transitionSpeed     = 0.8
)

// Step records one primitive invocation in a sequenced dance.
type Step struct {
	Index     int     `json:"index"`
	Move      string  `json:"move"`
	Accented  bool    `json:"accented"`
	Start     int     `json:"start"`  // first raw frame
	Frames    int     `json:"frames"` // primitive duration
	Amplitude float64 `json:"amplitude"`
	Speed     float64 `json:"speed"`
}

// Plan describes how a raw sequence was assembled.
type Plan struct {
	FramesPerBeat int    `json:"frames_per_beat"`
	Steps         []Step `json:"steps"`
}

// MoveCounts tallies how often each primitive was played.
func (p Plan) MoveCounts() map[string]int {
	counts := make(map[string]int)
	for _, s := range p.Steps {
		counts[s.Move]++
	}
	return counts
}

// Sequencer assembles raw motion for a style on a beat grid.
type Sequencer struct {
	def       *skeleton.Definition
	frameRate float64
}

// NewSequencer returns a sequencer for def at frameRate fps (DefaultFrameRate if ≤ 0).
func NewSequencer(def *skeleton.Definition, frameRate float64) *Sequencer {
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	return &Sequencer{def: def, frameRate: frameRate}
}

// FrameRate returns the sequencer's frame rate.
func (s *Sequencer) FrameRate() float64 {
	return s.frameRate
}

// FramesPerBeat converts tempo to frames. It never returns less than 1.
func (s *Sequencer) FramesPerBeat(tempo float64, beats []float64) int {
	if tempo <= 0 || len(beats) == 0 || math.IsNaN(tempo) || math.IsInf(tempo, 0) {
		return DefaultFramesPerBeat
	}
	fpb := int(math.Round(60 / tempo * s.frameRate))
	if fpb < 1 {
		return 1
	}
	return fpb
}

// Sequence builds the raw, unsmoothed motion for profile. The result starts
// with one rest-pose frame followed by the frames of every step in order; its
// length is generally not totalFrames.
func (s *Sequencer) Sequence(ctx context.Context, profile Profile, tempo float64, beats []float64, totalFrames int, sel Selector) (skeleton.Sequence, Plan, error) {
	fpb := s.FramesPerBeat(tempo, beats)
	plan := Plan{FramesPerBeat: fpb}

	if len(profile.Moves) == 0 {
		return nil, plan, fmt.Errorf("%w: %s", ErrEmptyMoveSet, profile.ID)
	}

	steps := totalFrames / StepUnits
	if steps < 0 {
		steps = 0
	}

	base := movement.Params{Amplitude: profile.Amplitude, Speed: profile.Speed}
	accent := base.Scale(accentAmplitude, 1)
	transition := base.Scale(transitionAmplitude, transitionSpeed)

	raw := make(skeleton.Sequence, 0, 1+steps*fpb)
	raw = append(raw, s.def.RestPose())
	plan.Steps = make([]Step, 0, steps)

	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return nil, plan, err
		}

		idx := sel.Choose(len(profile.Moves))
		if idx < 0 || idx >= len(profile.Moves) {
			return nil, plan, fmt.Errorf("%w: %d of %d", ErrInvalidSelection, idx, len(profile.Moves))
		}
		move := profile.Moves[idx]

		accented := i%fpb == 0
		duration, params := fpb, transition
		if accented {
			duration, params = 2*fpb, accent
		}

		frames, err := move.Generate(s.def, duration, params)
		if err != nil {
			return nil, plan, err
		}

		plan.Steps = append(plan.Steps, Step{
			Index:     i,
			Move:      move.Name,
			Accented:  accented,
			Start:     len(raw),
			Frames:    duration,
			Amplitude: params.Amplitude,
			Speed:     params.Speed,
		})
		raw = append(raw, frames...)
	}

	return raw, plan, nil
}
