// Package render turns motion sequences into video.
//
// The layout math (projection, colours, captions, progress bar) lives here and
// has no native dependencies; package cv draws it with OpenCV. Muxer adds the
// music track to a finished silent video with ffmpeg.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/teslashibe/go-dancegen/pkg/skeleton"
)

// Layout is the canvas geometry.
type Layout struct {
	Width     int
	Height    int
	FrameRate int
}

// DefaultLayout is 800×600 at 30 fps.
func DefaultLayout() Layout {
	return Layout{Width: 800, Height: 600, FrameRate: 30}
}

// Validate checks the layout is drawable.
func (l Layout) Validate() error {
	if l.Width < 100 || l.Height < 100 {
		return fmt.Errorf("render: canvas %dx%d too small", l.Width, l.Height)
	}
	if l.FrameRate <= 0 {
		return fmt.Errorf("render: frame rate must be positive, got %d", l.FrameRate)
	}
	return nil
}

// Projection maps model x/y to pixels; z is dropped.
type Projection struct {
	Scale   float64
	OffsetX int
	OffsetY int
}

// Fit returns the projection for one pose: the larger of its x and y extents
// fills 70% of the shorter canvas side, centred horizontally and 50px below
// the vertical centre.
func (l Layout) Fit(pose skeleton.Pose) Projection {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range pose {
		lo = min(lo, v[0], v[1])
		hi = max(hi, v[0], v[1])
	}
	span := hi - lo
	if span == 0 || math.IsInf(span, 0) || math.IsNaN(span) {
		span = 1
	}
	return Projection{
		Scale:   float64(min(l.Width, l.Height)) * 0.7 / span,
		OffsetX: l.Width / 2,
		OffsetY: l.Height/2 + 50,
	}
}

// Point projects v with y flipped so model-up is screen-up.
func (p Projection) Point(v skeleton.Vec3) image.Point {
	return image.Pt(
		int(v[0]*p.Scale)+p.OffsetX,
		int(-v[1]*p.Scale)+p.OffsetY,
	)
}

// Contains reports whether pt lies on the canvas.
func (l Layout) Contains(pt image.Point) bool {
	return pt.In(image.Rect(0, 0, l.Width, l.Height))
}

// Background returns the colour of canvas row y: white-red fading to salmon.
func (l Layout) Background(y int) color.RGBA {
	v := uint8(255 - y*100/l.Height)
	return color.RGBA{R: 255, G: v, B: v, A: 255}
}

var (
	spineColor    = color.RGBA{R: 255, G: 128, A: 255}
	leftArmColor  = color.RGBA{B: 255, A: 255}
	rightArmColor = color.RGBA{R: 255, A: 255}
	leftLegColor  = color.RGBA{G: 255, A: 255}
	rightLegColor = color.RGBA{R: 255, B: 255, A: 255}
)

// BoneColor colours a bone of the reference skeleton by limb.
func BoneColor(b skeleton.Bone) color.RGBA {
	switch {
	case b.Parent <= skeleton.Head && b.Child <= skeleton.Head:
		return spineColor
	case b.Parent >= skeleton.LeftShoulder && b.Child <= skeleton.RightWrist:
		if b.Parent <= skeleton.LeftWrist {
			return leftArmColor
		}
		return rightArmColor
	case b.Parent <= skeleton.LeftAnkle && b.Child <= skeleton.LeftAnkle:
		return leftLegColor
	default:
		return rightLegColor
	}
}

var jointPalette = []color.RGBA{
	{B: 255, A: 255},
	{R: 0, G: 128, B: 255, A: 255},
	{G: 255, B: 255, A: 255},
	{G: 255, A: 255},
	{R: 255, G: 255, A: 255},
	{R: 255, G: 128, A: 255},
	{R: 255, A: 255},
	{R: 255, B: 128, A: 255},
	{R: 255, B: 255, A: 255},
	{R: 128, B: 255, A: 255},
	{R: 128, G: 128, B: 128, A: 255},
	{R: 128, G: 255, A: 255},
	{G: 255, B: 128, A: 255},
	{R: 128, G: 128, B: 255, A: 255},
	{R: 128, B: 128, A: 255},
	{R: 128, G: 128, A: 255},
	{G: 128, B: 128, A: 255},
}

// JointColor returns the marker colour of joint j.
func JointColor(j skeleton.Joint) color.RGBA {
	return jointPalette[int(j)%len(jointPalette)]
}

// Timecode formats a frame index as seconds:frames.
func Timecode(frame, fps int) string {
	return fmt.Sprintf("%02d:%02d", frame/fps, frame%fps)
}

// Caption is the text drawn on every frame of one dance.
type Caption struct {
	Title    string // e.g. "Dance - Sainaimu"
	Subtitle string
}

// Overlay is the per-frame HUD: captions, progress bar and counters.
type Overlay struct {
	Caption
	Bar          image.Rectangle
	Fill         image.Rectangle
	ProgressText string
	ProgressAt   image.Point
	FrameText    string
	FrameAt      image.Point
}

// Overlay computes the HUD for frame idx of total.
func (l Layout) Overlay(c Caption, idx, total int) Overlay {
	const barW, barH = 400, 20
	x := (l.Width - barW) / 2
	y := l.Height - 60

	progress := 1.0
	if total > 0 {
		progress = float64(idx+1) / float64(total)
	}

	return Overlay{
		Caption:      c,
		Bar:          image.Rect(x, y, x+barW, y+barH),
		Fill:         image.Rect(x, y, x+int(barW*progress), y+barH),
		ProgressText: Timecode(idx, l.FrameRate) + " / " + Timecode(total, l.FrameRate),
		ProgressAt:   image.Pt(x+barW+10, y+barH/2+5),
		FrameText:    fmt.Sprintf("Frame: %d/%d", idx, total),
		FrameAt:      image.Pt(l.Width-150, 40),
	}
}

// Segment is a projected bone.
type Segment struct {
	From, To image.Point
	Color    color.RGBA
}

// Marker is a projected joint.
type Marker struct {
	At    image.Point
	Color color.RGBA
	Label string
}

// Figure is a pose projected onto the canvas. Off-canvas bones and joints are dropped.
type Figure struct {
	Bones  []Segment
	Joints []Marker
}

// Project lays out pose for drawing.
func (l Layout) Project(def *skeleton.Definition, pose skeleton.Pose) Figure {
	proj := l.Fit(pose)
	var fig Figure

	for _, b := range def.BoneList() {
		if int(b.Parent) >= len(pose) || int(b.Child) >= len(pose) {
			continue
		}
		from, to := proj.Point(pose[b.Parent]), proj.Point(pose[b.Child])
		if l.Contains(from) && l.Contains(to) {
			fig.Bones = append(fig.Bones, Segment{From: from, To: to, Color: BoneColor(b)})
		}
	}
	for i, v := range pose {
		pt := proj.Point(v)
		if l.Contains(pt) {
			fig.Joints = append(fig.Joints, Marker{At: pt, Color: JointColor(skeleton.Joint(i)), Label: fmt.Sprint(i)})
		}
	}
	return fig
}
