package dance

import (
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-dancegen/pkg/choreography"
)

// SelectorFactory returns a fresh Selector for one generation request.
type SelectorFactory func() choreography.Selector

// Config holds generator configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Output timing
	FrameRate float64

	// Post-processing
	SmoothingWindow int

	// Style resolution
	DefaultStyle string
	StrictStyle  bool // unknown styles fail instead of falling back

	// Move selection, one Selector per request
	NewSelector SelectorFactory

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring a Generator.
type Option func(*Config)

// WithFrameRate sets the output frame rate in frames per second.
func WithFrameRate(fps float64) Option {
	return func(c *Config) {
		c.FrameRate = fps
	}
}

// WithSmoothingWindow sets the moving-average width. Values below 2 disable
// smoothing; an even width averages window+1 frames.
func WithSmoothingWindow(window int) Option {
	return func(c *Config) {
		c.SmoothingWindow = window
	}
}

// WithDefaultStyle sets the style used when a request names an unknown one.
func WithDefaultStyle(name string) Option {
	return func(c *Config) {
		c.DefaultStyle = name
	}
}

// WithStrictStyle makes unknown style names an ErrInvalidInput.
func WithStrictStyle() Option {
	return func(c *Config) {
		c.StrictStyle = true
	}
}

// WithSelectorFactory overrides how moves are picked.
func WithSelectorFactory(f SelectorFactory) Option {
	return func(c *Config) {
		c.NewSelector = f
	}
}

// WithSeed makes every request pick moves from the same seeded sequence.
// A zero seed keeps the time-seeded default.
func WithSeed(seed uint64) Option {
	return func(c *Config) {
		if seed == 0 {
			return
		}
		c.NewSelector = func() choreography.Selector {
			return choreography.NewRandomSelector(seed)
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns the reference configuration: 30 fps, window 5,
// time-seeded random selection.
func DefaultConfig() *Config {
	return &Config{
		FrameRate:       choreography.DefaultFrameRate,
		SmoothingWindow: choreography.DefaultSmoothingWindow,
		DefaultStyle:    choreography.DefaultStyle,
		NewSelector: func() choreography.Selector {
			return choreography.NewTimeSeededSelector()
		},
		Logger: slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks the config is usable.
func (c *Config) Validate() error {
	if c.FrameRate <= 0 {
		return fmt.Errorf("dance: frame rate must be positive, got %v", c.FrameRate)
	}
	if c.NewSelector == nil {
		return fmt.Errorf("dance: selector factory is required")
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}
