package audio

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/teslashibe/go-dancegen/pkg/dance"
)

// Features describes a piece of music.
type Features struct {
	Tempo                 float64   `json:"tempo"`
	TempoDetected         bool      `json:"tempo_detected"`
	Duration              float64   `json:"duration"`
	Beats                 []float64 `json:"beats"`
	SampleRate            int       `json:"sample_rate"`
	EnergyMean            float64   `json:"energy_mean"`
	EnergyStd             float64   `json:"energy_std"`
	SpectralCentroidMean  float64   `json:"spectral_centroid_mean"`
	SpectralBandwidthMean float64   `json:"spectral_bandwidth_mean"`
	ZCRMean               float64   `json:"zcr_mean"`
	OnsetCount            int       `json:"onset_count"`
	RhythmDensity         float64   `json:"rhythm_density"` // onsets per second
}

// Music returns the subset of features the dance generator consumes.
func (f *Features) Music() dance.MusicFeatures {
	return dance.MusicFeatures{
		Tempo:    f.Tempo,
		Duration: f.Duration,
		Beats:    append([]float64(nil), f.Beats...),
	}
}

// MusicInfo is the short summary returned after an upload.
type MusicInfo struct {
	Duration   float64   `json:"duration"`
	Tempo      float64   `json:"tempo"`
	BeatCount  int       `json:"beat_count"`
	Beats      []float64 `json:"beats"` // first 20
	SampleRate int       `json:"sample_rate"`
}

// Info summarises f for display.
func (f *Features) Info() *MusicInfo {
	beats := f.Beats
	if len(beats) > 20 {
		beats = beats[:20]
	}
	return &MusicInfo{
		Duration:   f.Duration,
		Tempo:      f.Tempo,
		BeatCount:  len(f.Beats),
		Beats:      append([]float64{}, beats...),
		SampleRate: f.SampleRate,
	}
}

// Extract decodes path and computes its features.
func (e *Extractor) Extract(ctx context.Context, path string) (*Features, error) {
	samples, err := e.Decode(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := e.ExtractSamples(samples)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	e.logger.Info("audio analysed",
		"path", path,
		"duration", f.Duration,
		"tempo", f.Tempo,
		"beats", len(f.Beats),
		"onsets", f.OnsetCount)
	return f, nil
}

// Analyze decodes path and returns the upload summary.
func (e *Extractor) Analyze(ctx context.Context, path string) (*MusicInfo, error) {
	f, err := e.Extract(ctx, path)
	if err != nil {
		return nil, err
	}
	return f.Info(), nil
}

// ExtractSamples computes features from mono PCM at the extractor's sample rate.
func (e *Extractor) ExtractSamples(samples []float64) (*Features, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyAudio
	}
	sr := e.cfg.SampleRate

	spec := stft(samples, sr, e.cfg.FrameSize, e.cfg.HopSize)
	env := onsetEnvelope(spec)

	f := &Features{
		Duration:   float64(len(samples)) / float64(sr),
		SampleRate: sr,
		Beats:      []float64{},
	}

	tempo, period, ok := estimateTempo(env, spec)
	f.Tempo = tempo
	f.TempoDetected = ok
	if ok {
		for _, frame := range trackBeats(env, period) {
			f.Beats = append(f.Beats, spec.frameTime(float64(frame)))
		}
	}

	energy := rmsEnergy(samples, e.cfg.FrameSize, e.cfg.HopSize)
	if len(energy) > 1 {
		f.EnergyMean, f.EnergyStd = stat.MeanStdDev(energy, nil)
	} else {
		f.EnergyMean = mean(energy)
	}

	centroids, bandwidths := spectralShape(spec)
	f.SpectralCentroidMean = mean(centroids)
	f.SpectralBandwidthMean = mean(bandwidths)
	f.ZCRMean = mean(zeroCrossingRate(samples, e.cfg.FrameSize, e.cfg.HopSize))

	f.OnsetCount = len(pickOnsets(env, spec, minOnsetInterval))
	if f.Duration > 0 {
		f.RhythmDensity = float64(f.OnsetCount) / f.Duration
	}
	return f, nil
}
