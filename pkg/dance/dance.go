// Package dance is the entry point of the motion-synthesis engine.
//
// A Generator takes tempo, duration and beat times of a piece of music plus a
// style name and returns a smoothed skeleton sequence with exactly one pose per
// output frame:
//
//	gen, _ := dance.New()
//	res, err := gen.Generate(ctx, dance.MusicFeatures{Tempo: 80, Duration: 10, Beats: beats}, "sainaimu", nil)
//
// Generation is synchronous and allocation-only; a Generator is safe for
// concurrent use.
package dance

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/teslashibe/go-dancegen/pkg/choreography"
	"github.com/teslashibe/go-dancegen/pkg/movement"
	"github.com/teslashibe/go-dancegen/pkg/skeleton"
)

// MusicFeatures is the part of the audio analysis the engine consumes.
type MusicFeatures struct {
	Tempo    float64   // beats per minute
	Duration float64   // seconds
	Beats    []float64 // beat times in seconds, strictly increasing
}

// Validate reports ErrInvalidInput for features that cannot drive a dance.
func (m MusicFeatures) Validate() error {
	if !finite(m.Duration) || m.Duration <= 0 {
		return fmt.Errorf("%w: duration %v", ErrInvalidInput, m.Duration)
	}
	if !finite(m.Tempo) || m.Tempo <= 0 {
		return fmt.Errorf("%w: tempo %v", ErrInvalidInput, m.Tempo)
	}
	for i, b := range m.Beats {
		if !finite(b) {
			return fmt.Errorf("%w: beat %d is %v", ErrInvalidInput, i, b)
		}
		if i > 0 && b <= m.Beats[i-1] {
			return fmt.Errorf("%w: beats not increasing at %d", ErrInvalidInput, i)
		}
	}
	return nil
}

// Result is one generated dance.
type Result struct {
	Sequence      skeleton.Sequence
	Style         choreography.Profile
	TotalFrames   int
	FramesPerBeat int
	FrameRate     float64
	FellBack      bool // requested style was unknown; Style is the default
	Plan          choreography.Plan
}

// Generator synthesizes dances. Its tables are built once and never mutated.
type Generator struct {
	cfg       *Config
	def       *skeleton.Definition
	catalog   *choreography.Catalog
	sequencer *choreography.Sequencer
	logger    *slog.Logger
}

// New returns a generator over the reference skeleton and the built-in styles.
func New(opts ...Option) (*Generator, error) {
	def := skeleton.Reference()
	lib, err := movement.NewBuiltinLibrary(def)
	if err != nil {
		return nil, err
	}
	catalog, err := choreography.BuiltinCatalog(lib)
	if err != nil {
		return nil, err
	}
	return NewWithCatalog(def, catalog, opts...)
}

// NewWithCatalog returns a generator for a custom skeleton and style catalog.
func NewWithCatalog(def *skeleton.Definition, catalog *choreography.Catalog, opts ...Option) (*Generator, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	if cfg.DefaultStyle != "" {
		c, err := catalog.WithDefault(cfg.DefaultStyle)
		if err != nil {
			return nil, err
		}
		catalog = c
	}

	return &Generator{
		cfg:       cfg,
		def:       def,
		catalog:   catalog,
		sequencer: choreography.NewSequencer(def, cfg.FrameRate),
		logger:    cfg.Logger.With("component", "dance"),
	}, nil
}

// Skeleton returns the skeleton the generator animates.
func (g *Generator) Skeleton() *skeleton.Definition {
	return g.def
}

// Catalog returns the style catalog.
func (g *Generator) Catalog() *choreography.Catalog {
	return g.catalog
}

// FrameRate returns the output frame rate.
func (g *Generator) FrameRate() float64 {
	return g.cfg.FrameRate
}

// TotalFrames returns the output length for a duration in seconds.
func (g *Generator) TotalFrames(duration float64) int {
	return int(math.Round(duration * g.cfg.FrameRate))
}

// Generate builds a dance for music in the named style.
//
// Unknown styles fall back to the default style unless WithStrictStyle is set.
// keywords are accepted for forward compatibility and currently do not
// influence the motion. The returned sequence holds exactly
// round(Duration × FrameRate) freshly allocated poses. On error no partial
// result is returned.
func (g *Generator) Generate(ctx context.Context, music MusicFeatures, style string, keywords []string) (*Result, error) {
	if err := music.Validate(); err != nil {
		return nil, err
	}

	total := g.TotalFrames(music.Duration)
	if total < 1 {
		return nil, fmt.Errorf("%w: duration %vs is shorter than one frame", ErrInvalidInput, music.Duration)
	}

	profile, fellBack := g.catalog.Resolve(style)
	if fellBack {
		if g.cfg.StrictStyle {
			return nil, fmt.Errorf("%w: %w: %q", ErrInvalidInput, choreography.ErrUnknownStyle, style)
		}
		g.logger.Warn("unknown dance style, using default", "requested", style, "style", profile.ID)
	}
	if !profile.Tempo.Contains(music.Tempo) {
		g.logger.Warn("tempo outside style range",
			"style", profile.ID, "tempo", music.Tempo,
			"min", profile.Tempo.Min, "max", profile.Tempo.Max)
	}
	if len(keywords) > 0 {
		g.logger.Debug("keywords ignored", "keywords", keywords)
	}

	raw, plan, err := g.sequencer.Sequence(ctx, profile, music.Tempo, music.Beats, total, g.cfg.NewSelector())
	if err != nil {
		return nil, err
	}
	seq := choreography.Finalize(raw, g.cfg.SmoothingWindow, total, g.def.RestPose())

	g.logger.Debug("dance generated",
		"style", profile.ID, "frames", total, "raw_frames", len(raw),
		"frames_per_beat", plan.FramesPerBeat, "steps", len(plan.Steps))

	return &Result{
		Sequence:      seq,
		Style:         profile,
		TotalFrames:   total,
		FramesPerBeat: plan.FramesPerBeat,
		FrameRate:     g.cfg.FrameRate,
		FellBack:      fellBack,
		Plan:          plan,
	}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
