// Package pipeline runs one dance generation job end to end:
// analyze the music, synthesize motion, render frames, add the audio track
// and store a JSON report next to the video.
//
// Progress is published to an optional hub so websocket clients can follow
// each job through the stages analyzing, generating, rendering, muxing and
// finally done or failed.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/teslashibe/go-dancegen/pkg/audio"
	"github.com/teslashibe/go-dancegen/pkg/dance"
	"github.com/teslashibe/go-dancegen/pkg/hub"
	"github.com/teslashibe/go-dancegen/pkg/library"
	"github.com/teslashibe/go-dancegen/pkg/render"
)

// Analyzer extracts music features from an audio file.
type Analyzer interface {
	Extract(ctx context.Context, path string) (*audio.Features, error)
}

// Muxer merges an audio track into a video file in place.
type Muxer interface {
	Mux(ctx context.Context, video, audio string) error
}

// Request describes one generation job.
type Request struct {
	// MusicPath is the audio file to dance to.
	MusicPath string
	// MusicName is recorded in the report; defaults to the base name of MusicPath.
	MusicName string
	Style     string
	Keywords  []string
}

// Output is the result of a successful job.
type Output struct {
	JobID      string
	Video      string // file name in the output directory
	VideoPath  string
	ReportPath string
	Muxed      bool // false when the audio track could not be added
	Report     dance.Report
	Features   *audio.Features
	Timings    Timings
}

// Pipeline wires the analyzer, generator, encoder and muxer together.
// It is safe for concurrent use; each Run allocates its own state.
type Pipeline struct {
	cfg      *Config
	analyzer Analyzer
	gen      *dance.Generator
	store    *library.Store
	layout   render.Layout
	logger   *slog.Logger
}

// New creates a pipeline writing into store's output directory.
func New(analyzer Analyzer, gen *dance.Generator, store *library.Store, opts ...Option) (*Pipeline, error) {
	if analyzer == nil || gen == nil || store == nil {
		return nil, errors.New("pipeline: analyzer, generator and store are required")
	}

	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	layout := render.Layout{
		Width:     cfg.Width,
		Height:    cfg.Height,
		FrameRate: int(math.Round(gen.FrameRate())),
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:      cfg,
		analyzer: analyzer,
		gen:      gen,
		store:    store,
		layout:   layout,
		logger:   cfg.Logger.With("component", "pipeline"),
	}, nil
}

// Layout returns the video canvas.
func (p *Pipeline) Layout() render.Layout {
	return p.layout
}

// Run executes req under a fresh job ID.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Output, error) {
	return p.RunJob(ctx, library.NewJobID(), req)
}

// RunJob executes req, naming its outputs after jobID. Errors from the
// generator are returned unwrapped so callers can test them with errors.Is.
func (p *Pipeline) RunJob(ctx context.Context, jobID string, req Request) (*Output, error) {
	tracker := p.cfg.Hub.Track(jobID)
	logger := p.logger.With("job", jobID)

	out, err := p.run(ctx, jobID, req, tracker, logger)
	if err != nil {
		tracker.Stage(hub.StageFailed, err.Error())
		logger.Warn("dance generation failed", "error", err)
		return nil, err
	}

	tracker.Stage(hub.StageDone, out.Video)
	logger.Info("dance generated", append([]any{
		"video", out.Video, "style", out.Report.Style, "frames", out.Report.TotalFrames,
	}, out.Timings.attrs()...)...)
	return out, nil
}

func (p *Pipeline) run(ctx context.Context, jobID string, req Request, tracker *hub.Tracker, logger *slog.Logger) (*Output, error) {
	if req.MusicPath == "" {
		return nil, fmt.Errorf("%w: music path is required", dance.ErrInvalidInput)
	}
	musicName := req.MusicName
	if musicName == "" {
		musicName = filepath.Base(req.MusicPath)
	}
	sw := newStopwatch()
	out := &Output{JobID: jobID}

	tracker.Stage(hub.StageAnalyzing, musicName)
	features, err := p.analyzer.Extract(ctx, req.MusicPath)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", musicName, err)
	}
	out.Features = features
	out.Timings.Analyze = sw.lap()
	logger.Debug("music analyzed", "tempo", features.Tempo, "duration", features.Duration, "beats", len(features.Beats))

	tracker.Stage(hub.StageGenerating, req.Style)
	music := features.Music()
	result, err := p.gen.Generate(ctx, music, req.Style, req.Keywords)
	if err != nil {
		return nil, err
	}
	out.Timings.Generate = sw.lap()

	out.Video = library.OutputName("dance", jobID, ".mp4")
	if out.VideoPath, err = p.store.CreateOutputPath(out.Video); err != nil {
		return nil, err
	}

	tracker.Stage(hub.StageRendering, out.Video)
	if err := p.render(ctx, out.VideoPath, result, tracker); err != nil {
		os.Remove(out.VideoPath)
		return nil, fmt.Errorf("render: %w", err)
	}
	out.Timings.Render = sw.lap()

	if p.cfg.Muxer != nil {
		tracker.Stage(hub.StageMuxing, out.Video)
		if err := p.cfg.Muxer.Mux(ctx, out.VideoPath, req.MusicPath); err != nil {
			// The silent video is still a usable result.
			logger.Warn("failed to add audio track, keeping silent video", "error", err)
		} else {
			out.Muxed = true
		}
		out.Timings.Mux = sw.lap()
	}

	report := p.gen.Report(result, music, req.Keywords)
	report.MusicFile = musicName
	report.Video = out.Video
	out.Report = report

	if out.ReportPath, err = p.store.WriteReport(library.OutputName("report", jobID, ".json"), report); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}

	out.Timings.Total = sw.total()
	return out, nil
}

func (p *Pipeline) render(ctx context.Context, path string, result *dance.Result, tracker *hub.Tracker) error {
	caption := render.Caption{
		Title:    "Dance - " + result.Style.Name,
		Subtitle: result.Style.Caption,
	}
	enc, err := p.cfg.NewEncoder(path, p.layout, p.gen.Skeleton(), caption)
	if err != nil {
		return err
	}

	every := int(math.Ceil(float64(len(result.Sequence)) * p.cfg.ProgressStep))
	if every < 1 {
		every = 1
	}
	return render.Render(ctx, enc, result.Sequence, func(done, total int) {
		if done%every == 0 && done < total {
			tracker.Progress(hub.StageRendering, "", float64(done)/float64(total))
		}
	})
}
