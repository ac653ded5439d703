// Package config provides configuration for go-dancegen commands.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Default server configuration.
const (
	DefaultPort         = "5000"
	DefaultDataDir      = "./data"
	DefaultMaxUploadMB  = 100
	DefaultFrameRate    = 30.0
	DefaultVideoWidth   = 800
	DefaultVideoHeight  = 600
	DefaultSmoothing    = 5
	DefaultStyle        = "sainaimu"
	DefaultFFmpegPath   = "ffmpeg"
	DefaultLogLevel     = "info"
	DefaultEnvironment  = "development"
	EnvironmentProdName = "production"
)

// Config holds the application configuration.
type Config struct {
	Environment string
	Port        string
	LogLevel    string
	SentryDSN   string

	// Storage
	DataDir   string
	MusicDir  string
	OutputDir string

	MaxUploadMB int

	// Rendering and synthesis
	FrameRate       float64
	VideoWidth      int
	VideoHeight     int
	SmoothingWindow int
	DefaultStyle    string
	RandomSeed      uint64
	FFmpegPath      string

	// Files older than this are removed at startup; zero disables cleanup.
	CleanupMaxAge time.Duration
}

// Load reads .env if present, then the environment.
func Load() (*Config, error) {
	// Missing .env is fine
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	dataDir := getEnv("DATA_DIR", DefaultDataDir)

	cfg := &Config{
		Environment:  getEnv("ENVIRONMENT", DefaultEnvironment),
		Port:         getEnv("PORT", DefaultPort),
		LogLevel:     getEnv("LOG_LEVEL", DefaultLogLevel),
		SentryDSN:    getEnv("SENTRY_DSN", ""),
		DataDir:      dataDir,
		MusicDir:     getEnv("MUSIC_DIR", filepath.Join(dataDir, "music")),
		OutputDir:    getEnv("OUTPUT_DIR", filepath.Join(dataDir, "outputs")),
		DefaultStyle: getEnv("DEFAULT_STYLE", DefaultStyle),
		FFmpegPath:   getEnv("FFMPEG_PATH", DefaultFFmpegPath),
	}

	var err error
	if cfg.MaxUploadMB, err = getInt("MAX_UPLOAD_MB", DefaultMaxUploadMB); err != nil {
		return nil, err
	}
	if cfg.FrameRate, err = getFloat("FRAME_RATE", DefaultFrameRate); err != nil {
		return nil, err
	}
	if cfg.VideoWidth, err = getInt("VIDEO_WIDTH", DefaultVideoWidth); err != nil {
		return nil, err
	}
	if cfg.VideoHeight, err = getInt("VIDEO_HEIGHT", DefaultVideoHeight); err != nil {
		return nil, err
	}
	if cfg.SmoothingWindow, err = getInt("SMOOTHING_WINDOW", DefaultSmoothing); err != nil {
		return nil, err
	}

	seed := getEnv("RANDOM_SEED", "0")
	if cfg.RandomSeed, err = strconv.ParseUint(seed, 10, 64); err != nil {
		return nil, fmt.Errorf("invalid RANDOM_SEED %q: %w", seed, err)
	}

	hours, err := getFloat("CLEANUP_MAX_AGE_HOURS", 0)
	if err != nil {
		return nil, err
	}
	cfg.CleanupMaxAge = time.Duration(hours * float64(time.Hour))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks numeric settings.
func (c *Config) Validate() error {
	if c.FrameRate <= 0 {
		return fmt.Errorf("FRAME_RATE must be positive, got %v", c.FrameRate)
	}
	if c.VideoWidth <= 0 || c.VideoHeight <= 0 {
		return fmt.Errorf("invalid video size %dx%d", c.VideoWidth, c.VideoHeight)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	if c.SmoothingWindow < 0 {
		return fmt.Errorf("SMOOTHING_WINDOW must not be negative, got %d", c.SmoothingWindow)
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvironmentProdName
}

// MaxUploadBytes returns the upload body limit in bytes.
func (c *Config) MaxUploadBytes() int {
	return c.MaxUploadMB * 1024 * 1024
}

// EnsureDirs creates the data directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.MusicDir, c.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}
