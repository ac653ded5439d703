// Package web serves the dance generator HTTP API
package web

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/teslashibe/go-dancegen/pkg/audio"
	"github.com/teslashibe/go-dancegen/pkg/choreography"
	"github.com/teslashibe/go-dancegen/pkg/hub"
	"github.com/teslashibe/go-dancegen/pkg/library"
	"github.com/teslashibe/go-dancegen/pkg/pipeline"
)

// DefaultBodyLimit caps upload requests.
const DefaultBodyLimit = 100 * 1024 * 1024

// downloadPrefix is where generated files are served.
const downloadPrefix = "/api/download/"

// MusicAnalyzer summarizes an uploaded music file.
type MusicAnalyzer interface {
	Analyze(ctx context.Context, path string) (*audio.MusicInfo, error)
}

// Runner executes generation jobs.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Output, error)
}

// Config holds the server's collaborators.
type Config struct {
	Port      string
	BodyLimit int    // bytes; DefaultBodyLimit when zero
	StaticDir string // optional front end served at /

	// RequestLog enables fiber's access log.
	RequestLog bool

	Store    *library.Store
	Analyzer MusicAnalyzer
	Runner   Runner
	Catalog  *choreography.Catalog

	// Hub streams progress at /ws/progress; optional.
	Hub *hub.Hub

	Logger *slog.Logger
}

// Server is the dance generator web server
type Server struct {
	app      *fiber.App
	port     string
	store    *library.Store
	analyzer MusicAnalyzer
	runner   Runner
	catalog  *choreography.Catalog
	progress *hub.Hub
	logger   *slog.Logger
}

// NewServer creates a new web server
func NewServer(cfg Config) (*Server, error) {
	if cfg.Store == nil || cfg.Analyzer == nil || cfg.Runner == nil || cfg.Catalog == nil {
		return nil, errors.New("web: store, analyzer, runner and catalog are required")
	}
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = DefaultBodyLimit
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		port:     cfg.Port,
		store:    cfg.Store,
		analyzer: cfg.Analyzer,
		runner:   cfg.Runner,
		catalog:  cfg.Catalog,
		progress: cfg.Hub,
		logger:   cfg.Logger.With("component", "web"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Dance Generator",
		DisableStartupMessage: true,
		BodyLimit:             cfg.BodyLimit,
		ErrorHandler:          s.handleError,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New())
	if cfg.RequestLog {
		app.Use(logger.New())
	}

	if cfg.StaticDir != "" {
		if _, err := os.Stat(cfg.StaticDir); err == nil {
			app.Static("/", cfg.StaticDir)
		}
	}

	// API routes
	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/styles", s.handleStyles)
	api.Post("/upload_music", s.handleUploadMusic)
	api.Get("/get_music_list", s.handleMusicList)
	api.Post("/generate_dance", s.handleGenerateDance)
	api.Get("/download/:filename", s.handleDownload)
	api.Get("/get_outputs", s.handleOutputs)

	if s.progress != nil {
		// WebSocket upgrade middleware
		app.Use("/ws", hub.Upgrade)
		app.Get("/ws/progress", s.progress.Handler())
	}

	s.app = app
	return s, nil
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("dance generator listening", "url", "http://localhost:"+s.port)
	return s.app.Listen(":" + s.port)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
