package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-dancegen/pkg/skeleton"
)

func TestLayout_Validate(t *testing.T) {
	assert.NoError(t, DefaultLayout().Validate())
	assert.Error(t, Layout{Width: 50, Height: 600, FrameRate: 30}.Validate())
	assert.Error(t, Layout{Width: 800, Height: 600}.Validate())
}

func TestLayout_Fit(t *testing.T) {
	l := DefaultLayout()
	def := skeleton.Reference()

	p := l.Fit(def.RestPose())
	// rest pose spans -0.3..0.3, so 70% of 600px over 0.6 units
	assert.InDelta(t, 700, p.Scale, 1e-6)
	assert.Equal(t, 400, p.OffsetX)
	assert.Equal(t, 350, p.OffsetY)

	point := skeleton.Pose{{0.5, 0.5, 0}, {0.5, 0.5, 0}}
	assert.InDelta(t, 420, l.Fit(point).Scale, 1e-9)
}

func TestProjection_Point(t *testing.T) {
	p := Projection{Scale: 100, OffsetX: 400, OffsetY: 350}
	assert.Equal(t, image.Pt(500, 150), p.Point(skeleton.Vec3{1, 2, 5}))
	assert.Equal(t, image.Pt(400, 350), p.Point(skeleton.Vec3{}))
}

func TestLayout_ContainsAndBackground(t *testing.T) {
	l := DefaultLayout()
	assert.True(t, l.Contains(image.Pt(0, 0)))
	assert.True(t, l.Contains(image.Pt(799, 599)))
	assert.False(t, l.Contains(image.Pt(800, 10)))
	assert.False(t, l.Contains(image.Pt(10, -1)))

	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, l.Background(0))
	assert.Equal(t, color.RGBA{R: 255, G: 205, B: 205, A: 255}, l.Background(300))
}

func TestBoneColor(t *testing.T) {
	assert.Equal(t, spineColor, BoneColor(skeleton.Bone{Parent: skeleton.Hip, Child: skeleton.Chest}))
	assert.Equal(t, leftArmColor, BoneColor(skeleton.Bone{Parent: skeleton.LeftElbow, Child: skeleton.LeftWrist}))
	assert.Equal(t, rightArmColor, BoneColor(skeleton.Bone{Parent: skeleton.RightShoulder, Child: skeleton.RightElbow}))
	assert.Equal(t, leftLegColor, BoneColor(skeleton.Bone{Parent: skeleton.LeftKnee, Child: skeleton.LeftAnkle}))
	assert.Equal(t, rightLegColor, BoneColor(skeleton.Bone{Parent: skeleton.RightKnee, Child: skeleton.RightAnkle}))
}

func TestTimecode(t *testing.T) {
	assert.Equal(t, "00:00", Timecode(0, 30))
	assert.Equal(t, "01:15", Timecode(45, 30))
	assert.Equal(t, "10:00", Timecode(300, 30))
}

func TestLayout_Overlay(t *testing.T) {
	l := DefaultLayout()
	o := l.Overlay(Caption{Title: "Dance - Sainaimu", Subtitle: "Uyghur traditional dance"}, 149, 300)

	assert.Equal(t, "Dance - Sainaimu", o.Title)
	assert.Equal(t, image.Rect(200, 540, 600, 560), o.Bar)
	assert.Equal(t, 200, o.Fill.Dx())
	assert.Equal(t, "04:29 / 10:00", o.ProgressText)
	assert.Equal(t, "Frame: 149/300", o.FrameText)
	assert.Equal(t, image.Pt(650, 40), o.FrameAt)

	last := l.Overlay(Caption{}, 299, 300)
	assert.Equal(t, last.Bar, last.Fill)
}

func TestLayout_Project(t *testing.T) {
	l := DefaultLayout()
	def := skeleton.Reference()

	fig := l.Project(def, def.RestPose())
	assert.Len(t, fig.Bones, 16)
	require.Len(t, fig.Joints, 17)
	assert.Equal(t, "0", fig.Joints[0].Label)
	assert.Equal(t, "16", fig.Joints[16].Label)

	pose := def.RestPose()
	pose[skeleton.Head] = skeleton.Vec3{1000, 0.3, 0}
	fig = l.Project(def, pose)
	assert.Len(t, fig.Bones, 15, "bone to an off-canvas joint is dropped")
	assert.Len(t, fig.Joints, 16)
}

type fakeEncoder struct {
	frames  int
	closed  int
	failAt  int
	lastIdx int
}

func (f *fakeEncoder) WriteFrame(pose skeleton.Pose, index, total int) error {
	if f.failAt > 0 && index == f.failAt {
		return errors.New("disk full")
	}
	f.frames++
	f.lastIdx = index
	return nil
}

func (f *fakeEncoder) Close() error {
	f.closed++
	return nil
}

func restSequence(n int) skeleton.Sequence {
	def := skeleton.Reference()
	seq := make(skeleton.Sequence, n)
	for i := range seq {
		seq[i] = def.RestPose()
	}
	return seq
}

func TestRender(t *testing.T) {
	enc := &fakeEncoder{}
	var calls, lastDone int

	err := Render(context.Background(), enc, restSequence(12), func(done, total int) {
		calls++
		lastDone = done
		assert.Equal(t, 12, total)
	})
	require.NoError(t, err)
	assert.Equal(t, 12, enc.frames)
	assert.Equal(t, 11, enc.lastIdx)
	assert.Equal(t, 1, enc.closed)
	assert.Equal(t, 12, calls)
	assert.Equal(t, 12, lastDone)
}

func TestRender_Errors(t *testing.T) {
	enc := &fakeEncoder{}
	assert.ErrorIs(t, Render(context.Background(), enc, nil, nil), ErrEmptySequence)
	assert.Equal(t, 1, enc.closed)

	enc = &fakeEncoder{failAt: 3}
	err := Render(context.Background(), enc, restSequence(5), nil)
	assert.ErrorContains(t, err, "frame 3")
	assert.Equal(t, 1, enc.closed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	enc = &fakeEncoder{}
	assert.ErrorIs(t, Render(ctx, enc, restSequence(5), nil), context.Canceled)
	assert.Equal(t, 0, enc.frames)
}

func TestMuxer_FailureKeepsVideo(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "dance_0001.mp4")
	require.NoError(t, os.WriteFile(video, []byte("silent"), 0o644))

	m := NewMuxer(filepath.Join(dir, "no-such-ffmpeg"), nil)
	err := m.Mux(context.Background(), video, filepath.Join(dir, "song.mp3"))
	require.Error(t, err)

	data, err := os.ReadFile(video)
	require.NoError(t, err)
	assert.Equal(t, "silent", string(data))
	assert.NoFileExists(t, filepath.Join(dir, "dance_0001_temp.mp4"))
}
