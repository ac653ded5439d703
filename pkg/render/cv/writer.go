// Package cv draws skeleton frames with OpenCV and writes them to a video file.
package cv

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-dancegen/pkg/render"
	"github.com/teslashibe/go-dancegen/pkg/skeleton"
)

// Codec is the FourCC used for the silent video. The muxer re-encodes to H.264.
const Codec = "mp4v"

var (
	black = color.RGBA{A: 255}
	grey  = color.RGBA{R: 100, G: 100, B: 100, A: 255}
	track = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	fill  = color.RGBA{R: 255, G: 128, A: 255}
)

// Writer renders poses into a video file. It implements render.Encoder.
type Writer struct {
	mu         sync.Mutex
	vw         *gocv.VideoWriter
	layout     render.Layout
	def        *skeleton.Definition
	caption    render.Caption
	background gocv.Mat
	frame      gocv.Mat
	closed     bool
}

var _ render.Encoder = (*Writer)(nil)

// Open creates path and prepares to write frames of def with the given caption.
func Open(path string, layout render.Layout, def *skeleton.Definition, caption render.Caption) (*Writer, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	vw, err := gocv.VideoWriterFile(path, Codec, float64(layout.FrameRate), layout.Width, layout.Height, true)
	if err != nil {
		return nil, fmt.Errorf("open video writer: %w", err)
	}
	if !vw.IsOpened() {
		vw.Close()
		return nil, fmt.Errorf("open video writer: cannot write %s", path)
	}

	w := &Writer{
		vw:         vw,
		layout:     layout,
		def:        def,
		caption:    caption,
		background: gocv.NewMatWithSize(layout.Height, layout.Width, gocv.MatTypeCV8UC3),
		frame:      gocv.NewMatWithSize(layout.Height, layout.Width, gocv.MatTypeCV8UC3),
	}
	for y := 0; y < layout.Height; y++ {
		gocv.Line(&w.background, image.Pt(0, y), image.Pt(layout.Width-1, y), layout.Background(y), 1)
	}
	return w, nil
}

// NewEncoder is a render.EncoderFactory backed by Open.
func NewEncoder(path string, layout render.Layout, def *skeleton.Definition, caption render.Caption) (render.Encoder, error) {
	w, err := Open(path, layout, def, caption)
	if err != nil {
		return nil, err
	}
	return w, nil
}

var _ render.EncoderFactory = NewEncoder

// WriteFrame draws pose as frame index of total and appends it to the video.
func (w *Writer) WriteFrame(pose skeleton.Pose, index, total int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("write frame %d: writer closed", index)
	}

	w.background.CopyTo(&w.frame)
	w.drawOverlay(w.layout.Overlay(w.caption, index, total))
	w.drawFigure(w.layout.Project(w.def, pose))

	if err := w.vw.Write(w.frame); err != nil {
		return fmt.Errorf("write frame %d: %w", index, err)
	}
	return nil
}

func (w *Writer) drawOverlay(o render.Overlay) {
	text(&w.frame, o.Title, image.Pt(20, 40), 1.2, black, 2)
	text(&w.frame, o.Subtitle, image.Pt(20, 80), 0.7, grey, 1)

	gocv.Rectangle(&w.frame, o.Bar, track, -1)
	if o.Fill.Dx() > 0 {
		gocv.Rectangle(&w.frame, o.Fill, fill, -1)
	}
	text(&w.frame, o.ProgressText, o.ProgressAt, 0.6, black, 1)
	text(&w.frame, o.FrameText, o.FrameAt, 0.6, grey, 1)
}

func (w *Writer) drawFigure(fig render.Figure) {
	for _, b := range fig.Bones {
		gocv.Line(&w.frame, b.From, b.To, b.Color, 3)
	}
	for _, j := range fig.Joints {
		gocv.Circle(&w.frame, j.At, 8, j.Color, -1)
		text(&w.frame, j.Label, j.At.Add(image.Pt(10, -10)), 0.4, black, 1)
	}
}

func text(img *gocv.Mat, s string, at image.Point, scale float64, c color.RGBA, thickness int) {
	if s == "" {
		return
	}
	gocv.PutTextWithParams(img, s, at, gocv.FontHersheySimplex, scale, c, thickness, gocv.LineAA, false)
}

// Close finishes the file and releases native resources. It is safe to call twice.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.frame.Close()
	w.background.Close()
	return w.vw.Close()
}
