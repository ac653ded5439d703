// Package audio extracts the musical features that drive dance generation.
//
// Decoding is delegated to ffmpeg, which converts any supported container to
// mono float64 PCM on stdout. Analysis runs in-process: a Hann-windowed STFT
// (go-dsp) feeds spectral-flux onset detection, autocorrelation tempo
// estimation and a phase-aligned beat grid; frame statistics use gonum.
package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"time"
)

// Config holds extractor configuration.
type Config struct {
	FFmpegPath string        `json:"ffmpeg_path"`
	SampleRate int           `json:"sample_rate"` // decode target, Hz
	FrameSize  int           `json:"frame_size"`  // STFT window, samples
	HopSize    int           `json:"hop_size"`    // STFT hop, samples
	Timeout    time.Duration `json:"timeout"`     // per decode, 0 = no limit
	Logger     *slog.Logger  `json:"-"`
}

// DefaultConfig returns the analysis defaults: 22.05 kHz, 2048/512 STFT.
func DefaultConfig() Config {
	return Config{
		FFmpegPath: "ffmpeg",
		SampleRate: 22050,
		FrameSize:  2048,
		HopSize:    512,
		Timeout:    2 * time.Minute,
	}
}

// Extractor decodes and analyses music files. It is safe for concurrent use.
type Extractor struct {
	cfg    Config
	logger *slog.Logger
}

// NewExtractor returns an extractor. Zero fields in cfg take their defaults.
func NewExtractor(cfg Config) *Extractor {
	def := DefaultConfig()
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = def.FFmpegPath
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.FrameSize <= 0 {
		cfg.FrameSize = def.FrameSize
	}
	if cfg.HopSize <= 0 {
		cfg.HopSize = def.HopSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, logger: logger.With("component", "audio")}
}

// SampleRate returns the decode sample rate.
func (e *Extractor) SampleRate() int {
	return e.cfg.SampleRate
}

// Decode runs ffmpeg on path and returns mono PCM samples at SampleRate.
func (e *Extractor) Decode(ctx context.Context, path string) ([]float64, error) {
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	args := []string{
		"-nostdin",
		"-v", "error",
		"-i", path,
		"-vn",
		"-f", "f64le",
		"-ac", "1",
		"-ar", strconv.Itoa(e.cfg.SampleRate),
		"pipe:1",
	}
	cmd := exec.CommandContext(ctx, e.cfg.FFmpegPath, args...)

	start := time.Now()
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: %s: %v: %s", ErrDecode, path, err, exitErr.Stderr)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}

	samples := bytesToFloat64(out)
	e.logger.Debug("decoded audio",
		"path", path,
		"samples", len(samples),
		"sample_rate", e.cfg.SampleRate,
		"elapsed", time.Since(start))

	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyAudio, path)
	}
	return samples, nil
}

// bytesToFloat64 converts little-endian float64 PCM, dropping a trailing partial sample.
func bytesToFloat64(data []byte) []float64 {
	n := len(data) / 8
	samples := make([]float64, n)
	for i := range n {
		samples[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return samples
}
