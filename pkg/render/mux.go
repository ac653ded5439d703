package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Muxer adds an audio track to a silent video using ffmpeg.
type Muxer struct {
	FFmpegPath string
	Logger     *slog.Logger
}

// NewMuxer returns a muxer using the ffmpeg binary at path ("ffmpeg" if empty).
func NewMuxer(path string, logger *slog.Logger) *Muxer {
	if path == "" {
		path = "ffmpeg"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Muxer{FFmpegPath: path, Logger: logger}
}

// Mux re-encodes video to H.264 with audio as AAC, trimmed to the shorter of
// the two, and replaces video in place. On failure video is left untouched.
func (m *Muxer) Mux(ctx context.Context, video, audio string) error {
	ext := filepath.Ext(video)
	tmp := strings.TrimSuffix(video, ext) + "_temp" + ext

	args := []string{
		"-nostdin", "-y",
		"-v", "error",
		"-i", video,
		"-i", audio,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-shortest",
		tmp,
	}

	start := time.Now()
	out, err := exec.CommandContext(ctx, m.FFmpegPath, args...).CombinedOutput()
	if err != nil {
		os.Remove(tmp)
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("ffmpeg mux: %w: %s", err, strings.TrimSpace(string(out)))
		}
		return fmt.Errorf("ffmpeg mux: %w", err)
	}

	if err := os.Rename(tmp, video); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace video: %w", err)
	}

	m.Logger.Debug("muxed audio", "video", video, "audio", audio, "elapsed", time.Since(start))
	return nil
}
