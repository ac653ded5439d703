package audio

import (
	"context"
	"encoding/binary"
	"math"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 22050

// clickTrack returns seconds of audio with a short decaying 2 kHz burst every
// period samples, starting at offset.
func clickTrack(seconds float64, offset, period int) []float64 {
	n := int(seconds * testRate)
	out := make([]float64, n)
	for start := offset; start < n; start += period {
		for i := 0; i < 200 && start+i < n; i++ {
			ts := float64(i) / testRate
			out[start+i] = math.Sin(2*math.Pi*2000*ts) * math.Exp(-float64(i)/50)
		}
	}
	return out
}

func sine(seconds, freq, amp float64) []float64 {
	out := make([]float64, int(seconds*testRate))
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/testRate)
	}
	return out
}

func TestExtractSamples_ClickTrackTempo(t *testing.T) {
	e := NewExtractor(Config{})
	// 22 hops of 512 samples between clicks: 60 / (22*512/22050) bpm
	period := 22 * 512
	wantBPM := 60 / (float64(period) / testRate)

	f, err := e.ExtractSamples(clickTrack(10, 4096, period))
	require.NoError(t, err)

	assert.True(t, f.TempoDetected)
	assert.InDelta(t, wantBPM, f.Tempo, 2.0)
	assert.InDelta(t, 10.0, f.Duration, 1e-9)
	assert.Equal(t, testRate, f.SampleRate)

	require.GreaterOrEqual(t, len(f.Beats), 15)
	spacing := float64(period) / testRate
	for i := 1; i < len(f.Beats); i++ {
		require.Greater(t, f.Beats[i], f.Beats[i-1])
		assert.InDelta(t, spacing, f.Beats[i]-f.Beats[i-1], 0.05, "beat %d", i)
	}

	assert.GreaterOrEqual(t, f.OnsetCount, 18)
	assert.LessOrEqual(t, f.OnsetCount, 20)
	assert.InDelta(t, float64(f.OnsetCount)/10, f.RhythmDensity, 1e-9)

	music := f.Music()
	assert.NoError(t, music.Validate())
	music.Beats[0] = -1
	assert.NotEqual(t, -1.0, f.Beats[0], "Music must copy beats")
}

func TestExtractSamples_Silence(t *testing.T) {
	e := NewExtractor(Config{})

	f, err := e.ExtractSamples(make([]float64, 3*testRate))
	require.NoError(t, err)
	assert.False(t, f.TempoDetected)
	assert.Equal(t, DefaultTempo, f.Tempo)
	assert.Empty(t, f.Beats)
	assert.NotNil(t, f.Beats)
	assert.Equal(t, 0.0, f.EnergyMean)
	assert.Equal(t, 0.0, f.SpectralCentroidMean)
	assert.Equal(t, 0, f.OnsetCount)
}

func TestExtractSamples_SineShape(t *testing.T) {
	e := NewExtractor(Config{})

	f, err := e.ExtractSamples(sine(1, 440, 0.5))
	require.NoError(t, err)
	assert.InDelta(t, 440, f.SpectralCentroidMean, 20)
	assert.InDelta(t, 0.5/math.Sqrt2, f.EnergyMean, 0.01)
	assert.Less(t, f.EnergyStd, 0.01)
	assert.InDelta(t, 880.0/testRate, f.ZCRMean, 0.003)
	assert.Greater(t, f.SpectralBandwidthMean, 0.0)
}

func TestExtractSamples_ShortAndEmpty(t *testing.T) {
	e := NewExtractor(Config{})

	_, err := e.ExtractSamples(nil)
	assert.ErrorIs(t, err, ErrEmptyAudio)

	f, err := e.ExtractSamples(sine(0.01, 440, 0.5))
	require.NoError(t, err)
	assert.Equal(t, DefaultTempo, f.Tempo)
	assert.InDelta(t, 0.01, f.Duration, 1e-3)
}

func TestFeaturesInfo(t *testing.T) {
	f := &Features{Tempo: 90, Duration: 30, SampleRate: testRate}
	for i := 0; i < 45; i++ {
		f.Beats = append(f.Beats, float64(i)*0.66)
	}

	info := f.Info()
	assert.Equal(t, 45, info.BeatCount)
	assert.Len(t, info.Beats, 20)
	assert.Equal(t, 90.0, info.Tempo)
}

func TestBytesToFloat64(t *testing.T) {
	data := make([]byte, 8*3+5)
	for i, v := range []float64{0.25, -1, 3.5} {
		binary.LittleEndian.PutUint64(data[i*8:], math.Float64bits(v))
	}
	assert.Equal(t, []float64{0.25, -1, 3.5}, bytesToFloat64(data))
	assert.Empty(t, bytesToFloat64(nil))
}

func TestDecode_WithFFmpeg(t *testing.T) {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg not installed")
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	gen := exec.Command(ffmpeg, "-v", "error", "-f", "lavfi", "-i", "sine=frequency=440:duration=2", path)
	require.NoError(t, gen.Run())

	e := NewExtractor(Config{FFmpegPath: ffmpeg})
	samples, err := e.Decode(context.Background(), path)
	require.NoError(t, err)
	assert.InDelta(t, 2*testRate, len(samples), 0.05*testRate)

	info, err := e.Analyze(context.Background(), path)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, info.Duration, 0.05)

	_, err = e.Decode(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"))
	assert.ErrorIs(t, err, ErrDecode)
}
