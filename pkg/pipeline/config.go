package pipeline

import (
	"errors"
	"log/slog"

	"github.com/teslashibe/go-dancegen/pkg/hub"
	"github.com/teslashibe/go-dancegen/pkg/render"
)

// Config holds the collaborators and settings of a Pipeline.
type Config struct {
	// NewEncoder opens the frame encoder for each job (required).
	NewEncoder render.EncoderFactory

	// Muxer adds the music track to the rendered video. Nil leaves videos silent.
	Muxer Muxer

	// Canvas size; the frame rate always follows the generator.
	Width  int
	Height int

	// Hub receives progress events. Nil disables them.
	Hub *hub.Hub

	// ProgressStep is the fraction of frames between rendering events.
	ProgressStep float64

	Logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Config)

// WithEncoder sets the encoder factory.
func WithEncoder(f render.EncoderFactory) Option {
	return func(c *Config) {
		c.NewEncoder = f
	}
}

// WithMuxer sets the audio muxer.
func WithMuxer(m Muxer) Option {
	return func(c *Config) {
		c.Muxer = m
	}
}

// WithCanvas sets the video size.
func WithCanvas(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithHub publishes progress events to h.
func WithHub(h *hub.Hub) Option {
	return func(c *Config) {
		c.Hub = h
	}
}

// WithProgressStep sets how often rendering progress is published (0..1].
func WithProgressStep(step float64) Option {
	return func(c *Config) {
		c.ProgressStep = step
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns the default configuration without an encoder.
func DefaultConfig() *Config {
	layout := render.DefaultLayout()
	return &Config{
		Width:        layout.Width,
		Height:       layout.Height,
		ProgressStep: 0.1,
		Logger:       slog.Default(),
	}
}

// Apply applies options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.NewEncoder == nil {
		return errors.New("pipeline: encoder factory is required")
	}
	if c.ProgressStep <= 0 || c.ProgressStep > 1 {
		return errors.New("pipeline: progress step must be in (0, 1]")
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}
