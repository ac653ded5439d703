package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-dancegen/pkg/audio"
	"github.com/teslashibe/go-dancegen/pkg/dance"
	"github.com/teslashibe/go-dancegen/pkg/library"
	"github.com/teslashibe/go-dancegen/pkg/render"
	"github.com/teslashibe/go-dancegen/pkg/skeleton"
)

type fakeAnalyzer struct {
	features *audio.Features
	err      error
}

func (a *fakeAnalyzer) Extract(ctx context.Context, path string) (*audio.Features, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.features, nil
}

type fakeEncoder struct {
	mu      sync.Mutex
	frames  int
	closed  bool
	failAt  int
	caption render.Caption
	layout  render.Layout
}

func (e *fakeEncoder) WriteFrame(pose skeleton.Pose, index, total int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failAt > 0 && index == e.failAt {
		return errors.New("disk full")
	}
	e.frames++
	return nil
}

func (e *fakeEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// factory returns an EncoderFactory that touches the video file like a real writer.
func (e *fakeEncoder) factory() render.EncoderFactory {
	return func(path string, layout render.Layout, def *skeleton.Definition, caption render.Caption) (render.Encoder, error) {
		if err := os.WriteFile(path, []byte("video"), 0644); err != nil {
			return nil, err
		}
		e.caption = caption
		e.layout = layout
		return e, nil
	}
}

type fakeMuxer struct {
	calls        int
	video, audio string
	err          error
}

func (m *fakeMuxer) Mux(ctx context.Context, video, audio string) error {
	m.calls++
	m.video, m.audio = video, audio
	return m.err
}

func twoSeconds() *audio.Features {
	return &audio.Features{
		Tempo:         120,
		TempoDetected: true,
		Duration:      2,
		Beats:         []float64{0, 0.5, 1, 1.5},
		SampleRate:    22050,
	}
}

func setup(t *testing.T, analyzer Analyzer, opts ...Option) (*Pipeline, *library.Store) {
	t.Helper()

	root := t.TempDir()
	store, err := library.New(filepath.Join(root, "music"), filepath.Join(root, "outputs"), nil)
	require.NoError(t, err)

	gen, err := dance.New(dance.WithSeed(1))
	require.NoError(t, err)

	p, err := New(analyzer, gen, store, opts...)
	require.NoError(t, err)
	return p, store
}

func TestNew_Validation(t *testing.T) {
	root := t.TempDir()
	store, err := library.New(filepath.Join(root, "m"), filepath.Join(root, "o"), nil)
	require.NoError(t, err)
	gen, err := dance.New()
	require.NoError(t, err)
	enc := &fakeEncoder{}

	_, err = New(&fakeAnalyzer{}, gen, store)
	assert.Error(t, err, "encoder factory is required")

	_, err = New(nil, gen, store, WithEncoder(enc.factory()))
	assert.Error(t, err)

	_, err = New(&fakeAnalyzer{}, gen, store, WithEncoder(enc.factory()), WithCanvas(10, 10))
	assert.Error(t, err)

	_, err = New(&fakeAnalyzer{}, gen, store, WithEncoder(enc.factory()), WithProgressStep(0))
	assert.Error(t, err)
}

func TestRunJob(t *testing.T) {
	enc := &fakeEncoder{}
	mux := &fakeMuxer{}
	p, store := setup(t, &fakeAnalyzer{features: twoSeconds()}, WithEncoder(enc.factory()), WithMuxer(mux))

	out, err := p.RunJob(context.Background(), "0000abcd", Request{
		MusicPath: "/music/song.wav",
		Style:     "samawu",
		Keywords:  []string{"joyful"},
	})
	require.NoError(t, err)

	assert.Equal(t, "dance_0000abcd.mp4", out.Video)
	assert.Equal(t, filepath.Join(store.OutputDir(), out.Video), out.VideoPath)
	assert.True(t, out.Muxed)
	assert.Equal(t, 60, enc.frames)
	assert.True(t, enc.closed)
	assert.Equal(t, render.Layout{Width: 800, Height: 600, FrameRate: 30}, enc.layout)
	assert.Equal(t, "Dance - Samawu", enc.caption.Title)

	assert.Equal(t, 1, mux.calls)
	assert.Equal(t, out.VideoPath, mux.video)
	assert.Equal(t, "/music/song.wav", mux.audio)

	assert.Equal(t, "song.wav", out.Report.MusicFile)
	assert.Equal(t, "samawu", out.Report.Style)
	assert.Equal(t, 60, out.Report.TotalFrames)
	assert.Equal(t, []string{"joyful"}, out.Report.Keywords)

	data, err := os.ReadFile(out.ReportPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.OutputDir(), "report_0000abcd.json"), out.ReportPath)

	var report map[string]any
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, "dance_0000abcd.mp4", report["video"])
	assert.Equal(t, "samawu", report["dance_style"])
}

func TestRun_FreshJobIDs(t *testing.T) {
	enc := &fakeEncoder{}
	p, _ := setup(t, &fakeAnalyzer{features: twoSeconds()}, WithEncoder(enc.factory()))

	a, err := p.Run(context.Background(), Request{MusicPath: "a.mp3"})
	require.NoError(t, err)
	b, err := p.Run(context.Background(), Request{MusicPath: "a.mp3"})
	require.NoError(t, err)

	assert.NotEqual(t, a.JobID, b.JobID)
	assert.False(t, a.Muxed, "no muxer configured")
	assert.Equal(t, "sainaimu", a.Report.Style, "empty style uses the default")
}

func TestRun_MuxFailureKeepsVideo(t *testing.T) {
	enc := &fakeEncoder{}
	mux := &fakeMuxer{err: errors.New("ffmpeg exploded")}
	p, _ := setup(t, &fakeAnalyzer{features: twoSeconds()}, WithEncoder(enc.factory()), WithMuxer(mux))

	out, err := p.Run(context.Background(), Request{MusicPath: "song.mp3", Style: "daolangwu"})
	require.NoError(t, err)

	assert.False(t, out.Muxed)
	assert.FileExists(t, out.VideoPath)
	assert.FileExists(t, out.ReportPath)
}

func TestRun_Errors(t *testing.T) {
	t.Run("missing path", func(t *testing.T) {
		p, _ := setup(t, &fakeAnalyzer{features: twoSeconds()}, WithEncoder((&fakeEncoder{}).factory()))
		_, err := p.Run(context.Background(), Request{})
		assert.ErrorIs(t, err, dance.ErrInvalidInput)
	})

	t.Run("analysis", func(t *testing.T) {
		p, store := setup(t, &fakeAnalyzer{err: audio.ErrDecode}, WithEncoder((&fakeEncoder{}).factory()))
		_, err := p.Run(context.Background(), Request{MusicPath: "broken.mp3"})
		assert.ErrorIs(t, err, audio.ErrDecode)

		entries, _ := os.ReadDir(store.OutputDir())
		assert.Empty(t, entries)
	})

	t.Run("invalid features", func(t *testing.T) {
		f := twoSeconds()
		f.Duration = 0
		p, _ := setup(t, &fakeAnalyzer{features: f}, WithEncoder((&fakeEncoder{}).factory()))
		_, err := p.Run(context.Background(), Request{MusicPath: "x.mp3"})
		assert.ErrorIs(t, err, dance.ErrInvalidInput)
	})

	t.Run("render removes partial video", func(t *testing.T) {
		enc := &fakeEncoder{failAt: 10}
		p, store := setup(t, &fakeAnalyzer{features: twoSeconds()}, WithEncoder(enc.factory()))
		_, err := p.RunJob(context.Background(), "deadbeef", Request{MusicPath: "x.mp3"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		assert.True(t, enc.closed)

		assert.NoFileExists(t, filepath.Join(store.OutputDir(), "dance_deadbeef.mp4"))
		assert.NoFileExists(t, filepath.Join(store.OutputDir(), "report_deadbeef.json"))
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p, _ := setup(t, &fakeAnalyzer{features: twoSeconds()}, WithEncoder((&fakeEncoder{}).factory()))
		_, err := p.Run(ctx, Request{MusicPath: "x.mp3"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
