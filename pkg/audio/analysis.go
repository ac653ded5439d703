package audio

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultTempo is reported when no periodicity is found.
	DefaultTempo = 120.0

	minTempo = 60.0
	maxTempo = 180.0

	// onsets closer than this are merged
	minOnsetInterval = 0.05
)

// spectrogram is a magnitude STFT: frames × (frameSize/2+1) bins.
type spectrogram struct {
	mag        [][]float64
	freqs      []float64 // bin centre frequencies, Hz
	hop        int
	sampleRate int
}

// frameTime converts a frame index to seconds.
func (s *spectrogram) frameTime(frame float64) float64 {
	return frame * float64(s.hop) / float64(s.sampleRate)
}

// stft computes a Hann-windowed magnitude spectrogram. Signals shorter than
// one frame are zero-padded to a single frame.
func stft(samples []float64, sampleRate, frameSize, hop int) *spectrogram {
	if len(samples) < frameSize {
		padded := make([]float64, frameSize)
		copy(padded, samples)
		samples = padded
	}

	win := window.Hann(frameSize)
	bins := frameSize/2 + 1
	n := 1 + (len(samples)-frameSize)/hop

	s := &spectrogram{
		mag:        make([][]float64, n),
		freqs:      make([]float64, bins),
		hop:        hop,
		sampleRate: sampleRate,
	}
	for k := range s.freqs {
		s.freqs[k] = float64(k) * float64(sampleRate) / float64(frameSize)
	}

	buf := make([]float64, frameSize)
	for t := 0; t < n; t++ {
		copy(buf, samples[t*hop:t*hop+frameSize])
		floats.Mul(buf, win)
		spec := fft.FFTReal(buf)

		row := make([]float64, bins)
		for k := range row {
			row[k] = cmplx.Abs(spec[k])
		}
		s.mag[t] = row
	}
	return s
}

// onsetEnvelope is the half-wave rectified spectral flux per frame.
func onsetEnvelope(s *spectrogram) []float64 {
	env := make([]float64, len(s.mag))
	for t := 1; t < len(s.mag); t++ {
		var flux float64
		for k, m := range s.mag[t] {
			if d := m - s.mag[t-1][k]; d > 0 {
				flux += d
			}
		}
		env[t] = flux
	}
	return env
}

// pickOnsets returns frames where env has a local maximum above an adaptive
// threshold, at least minInterval seconds apart.
func pickOnsets(env []float64, s *spectrogram, minInterval float64) []int {
	if len(env) < 3 {
		return nil
	}
	mean, std := stat.MeanStdDev(env, nil)
	threshold := mean + std
	gap := int(minInterval / s.frameTime(1))

	var peaks []int
	last := -gap - 1
	for i := 1; i < len(env)-1; i++ {
		if env[i] > env[i-1] && env[i] >= env[i+1] && env[i] > threshold && i-last > gap {
			peaks = append(peaks, i)
			last = i
		}
	}
	return peaks
}

// estimateTempo finds the beat period (in frames, fractional) from the
// autocorrelation of the onset envelope, searching minTempo..maxTempo with a
// log-normal preference around DefaultTempo. ok is false when the envelope has
// no periodic structure.
func estimateTempo(env []float64, s *spectrogram) (bpm, period float64, ok bool) {
	secPerFrame := s.frameTime(1)
	minLag := max(1, int(math.Floor(60/maxTempo/secPerFrame)))
	maxLag := int(math.Floor(60 / minTempo / secPerFrame))
	if len(env) < 2*minLag+2 {
		return DefaultTempo, 60 / DefaultTempo / secPerFrame, false
	}
	maxLag = min(maxLag, len(env)-2)

	centered := make([]float64, len(env))
	copy(centered, env)
	floats.AddConst(-stat.Mean(env, nil), centered)

	ac := make([]float64, maxLag+2)
	for lag := range ac {
		if lag >= len(centered) {
			break
		}
		ac[lag] = floats.Dot(centered[:len(centered)-lag], centered[lag:]) / float64(len(centered)-lag)
	}
	if ac[0] <= 0 {
		return DefaultTempo, 60 / DefaultTempo / secPerFrame, false
	}

	best, bestScore := 0, 0.0
	for lag := max(minLag, 1); lag <= maxLag; lag++ {
		if ac[lag] <= ac[lag-1] || ac[lag] <= ac[lag+1] || ac[lag] <= 0 {
			continue
		}
		tempo := 60 / (float64(lag) * secPerFrame)
		octaves := math.Log2(tempo / DefaultTempo)
		score := ac[lag] * math.Exp(-0.5*octaves*octaves)
		if score > bestScore {
			best, bestScore = lag, score
		}
	}
	if best == 0 {
		return DefaultTempo, 60 / DefaultTempo / secPerFrame, false
	}

	// parabolic refinement of the peak position
	period = float64(best)
	a, b, c := ac[best-1], ac[best], ac[best+1]
	if denom := a - 2*b + c; denom != 0 {
		period += 0.5 * (a - c) / denom
	}
	return 60 / (period * secPerFrame), period, true
}

// trackBeats lays a grid of the given period over env at the phase that
// collects the most onset strength and returns the grid frames.
func trackBeats(env []float64, period float64) []int {
	if period < 1 || len(env) == 0 {
		return nil
	}

	bestPhase, bestScore := 0, -1.0
	for phase := 0; phase < int(math.Ceil(period)) && phase < len(env); phase++ {
		var score float64
		for f := float64(phase); int(math.Round(f)) < len(env); f += period {
			score += env[int(math.Round(f))]
		}
		if score > bestScore {
			bestPhase, bestScore = phase, score
		}
	}

	var beats []int
	for f := float64(bestPhase); int(math.Round(f)) < len(env); f += period {
		beats = append(beats, int(math.Round(f)))
	}
	return beats
}

// rmsEnergy returns the RMS of each analysis frame of the raw signal.
func rmsEnergy(samples []float64, frameSize, hop int) []float64 {
	if len(samples) < frameSize {
		frameSize = len(samples)
	}
	if frameSize == 0 {
		return nil
	}
	n := 1 + (len(samples)-frameSize)/hop
	out := make([]float64, n)
	for t := range out {
		frame := samples[t*hop : t*hop+frameSize]
		out[t] = math.Sqrt(floats.Dot(frame, frame) / float64(frameSize))
	}
	return out
}

// zeroCrossingRate returns the fraction of sign changes in each frame.
func zeroCrossingRate(samples []float64, frameSize, hop int) []float64 {
	if len(samples) < frameSize {
		frameSize = len(samples)
	}
	if frameSize < 2 {
		return nil
	}
	n := 1 + (len(samples)-frameSize)/hop
	out := make([]float64, n)
	for t := range out {
		frame := samples[t*hop : t*hop+frameSize]
		crossings := 0
		for i := 1; i < len(frame); i++ {
			if (frame[i] >= 0) != (frame[i-1] >= 0) {
				crossings++
			}
		}
		out[t] = float64(crossings) / float64(len(frame)-1)
	}
	return out
}

// spectralShape returns per-frame magnitude-weighted centroid and bandwidth in Hz.
// Silent frames are skipped.
func spectralShape(s *spectrogram) (centroids, bandwidths []float64) {
	dev := make([]float64, len(s.freqs))
	for _, row := range s.mag {
		if floats.Sum(row) == 0 {
			continue
		}
		c := stat.Mean(s.freqs, row)
		for k, f := range s.freqs {
			dev[k] = (f - c) * (f - c)
		}
		centroids = append(centroids, c)
		bandwidths = append(bandwidths, math.Sqrt(stat.Mean(dev, row)))
	}
	return centroids, bandwidths
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}
