// server: dance generator web service
//
// Upload music, pick a folk dance style and download a rendered skeleton
// dance video. Progress is streamed on /ws/progress.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/teslashibe/go-dancegen/internal/config"
	"github.com/teslashibe/go-dancegen/internal/log"
	"github.com/teslashibe/go-dancegen/pkg/audio"
	"github.com/teslashibe/go-dancegen/pkg/dance"
	"github.com/teslashibe/go-dancegen/pkg/hub"
	"github.com/teslashibe/go-dancegen/pkg/library"
	"github.com/teslashibe/go-dancegen/pkg/pipeline"
	"github.com/teslashibe/go-dancegen/pkg/render"
	"github.com/teslashibe/go-dancegen/pkg/render/cv"
	"github.com/teslashibe/go-dancegen/pkg/web"
)

const sentryFlushTimeout = 2 * time.Second

// version is set via ldflags during build
var version = "dev"

var (
	debug     = flag.Bool("debug", false, "Enable debug logging and request logs")
	staticDir = flag.String("static", "./web", "Directory with the front end, served at /")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	level := cfg.LogLevel
	if *debug {
		level = "debug"
	}
	log.Init(level, cfg.IsProduction())

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
			Release:     "go-dancegen@" + version,
			Debug:       !cfg.IsProduction() && *debug,
		}); err != nil {
			log.Warn("failed to initialize Sentry", "error", err)
		} else {
			log.Info("Sentry initialized", "environment", cfg.Environment, "release", version)
			defer sentry.Flush(sentryFlushTimeout)
		}
	}

	if err := run(cfg); err != nil {
		sentry.CaptureException(err)
		log.Error("server stopped", "error", err)
		sentry.Flush(sentryFlushTimeout)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logger := log.With("release", version)

	if err := cfg.EnsureDirs(); err != nil {
		return err
	}
	store, err := library.New(cfg.MusicDir, cfg.OutputDir, logger)
	if err != nil {
		return err
	}
	if cfg.CleanupMaxAge > 0 {
		removed, err := store.CleanOld(cfg.CleanupMaxAge)
		if err != nil {
			log.Warn("cleanup failed", "error", err)
		} else if removed > 0 {
			log.Info("removed old files", "count", removed, "max_age", cfg.CleanupMaxAge)
		}
	}

	gen, err := dance.New(
		dance.WithFrameRate(cfg.FrameRate),
		dance.WithSmoothingWindow(cfg.SmoothingWindow),
		dance.WithDefaultStyle(cfg.DefaultStyle),
		dance.WithSeed(cfg.RandomSeed),
		dance.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	acfg := audio.DefaultConfig()
	acfg.FFmpegPath = cfg.FFmpegPath
	acfg.Logger = logger
	extractor := audio.NewExtractor(acfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	progress := hub.New("progress", logger)
	go progress.Run(ctx)

	p, err := pipeline.New(extractor, gen, store,
		pipeline.WithEncoder(cv.NewEncoder),
		pipeline.WithMuxer(render.NewMuxer(cfg.FFmpegPath, logger)),
		pipeline.WithCanvas(cfg.VideoWidth, cfg.VideoHeight),
		pipeline.WithHub(progress),
		pipeline.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	server, err := web.NewServer(web.Config{
		Port:       cfg.Port,
		BodyLimit:  cfg.MaxUploadBytes(),
		StaticDir:  *staticDir,
		RequestLog: *debug,
		Store:      store,
		Analyzer:   extractor,
		Runner:     p,
		Catalog:    gen.Catalog(),
		Hub:        progress,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown error", "error", err)
	}
	return nil
}
