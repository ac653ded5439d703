// dance: generate a folk dance video for a music file from the command line
//
// Usage:
//
//	go run ./cmd/dance -style samawu -out ./outputs song.mp3
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/teslashibe/go-dancegen/internal/config"
	"github.com/teslashibe/go-dancegen/internal/log"
	"github.com/teslashibe/go-dancegen/pkg/audio"
	"github.com/teslashibe/go-dancegen/pkg/dance"
	"github.com/teslashibe/go-dancegen/pkg/library"
	"github.com/teslashibe/go-dancegen/pkg/pipeline"
	"github.com/teslashibe/go-dancegen/pkg/render"
	"github.com/teslashibe/go-dancegen/pkg/render/cv"
)

func main() {
	style := flag.String("style", "", "Dance style: sainaimu, samawu, daolangwu (default from DEFAULT_STYLE)")
	keywords := flag.String("keywords", "", "Comma separated keywords recorded in the report")
	outDir := flag.String("out", "", "Output directory (default OUTPUT_DIR)")
	seed := flag.Uint64("seed", 0, "Random seed for move selection (0 = RANDOM_SEED or time)")
	silent := flag.Bool("silent", false, "Skip adding the music track to the video")
	strict := flag.Bool("strict", false, "Fail on unknown styles instead of using the default")
	listStyles := flag.Bool("styles", false, "List dance styles and exit")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	level := cfg.LogLevel
	if *debug {
		level = "debug"
	}
	log.Init(level, cfg.IsProduction())

	if *seed != 0 {
		cfg.RandomSeed = *seed
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	if *style == "" {
		*style = cfg.DefaultStyle
	}

	opts := []dance.Option{
		dance.WithFrameRate(cfg.FrameRate),
		dance.WithSmoothingWindow(cfg.SmoothingWindow),
		dance.WithDefaultStyle(cfg.DefaultStyle),
		dance.WithSeed(cfg.RandomSeed),
		dance.WithLogger(log.L()),
	}
	if *strict {
		opts = append(opts, dance.WithStrictStyle())
	}
	gen, err := dance.New(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *listStyles {
		for _, p := range gen.Catalog().List() {
			fmt.Printf("%-10s %-10s %3.0f-%3.0f bpm  %s\n", p.ID, p.Name, p.Tempo.Min, p.Tempo.Max, p.Description)
		}
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: dance [flags] <music-file>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	musicPath := flag.Arg(0)
	if !library.AllowedMusic(musicPath) {
		fmt.Fprintf(os.Stderr, "Error: unsupported music format %q (want %s)\n",
			filepath.Ext(musicPath), strings.Join(library.MusicExtensions, ", "))
		os.Exit(2)
	}

	log.Debug("generating dance", "music", musicPath, "style", *style, "seed", cfg.RandomSeed)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	out, err := generate(ctx, cfg, gen, musicPath, *style, splitKeywords(*keywords), *silent)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Video:  %s\n", out.VideoPath)
	fmt.Printf("Report: %s\n", out.ReportPath)
	if !out.Muxed && !*silent {
		fmt.Println("Note: the music track could not be added; the video is silent")
	}
	if *debug {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(out.Report)
	}
}

func generate(ctx context.Context, cfg *config.Config, gen *dance.Generator, musicPath, style string, keywords []string, silent bool) (*pipeline.Output, error) {
	logger := log.L()

	store, err := library.New(filepath.Dir(musicPath), cfg.OutputDir, logger)
	if err != nil {
		return nil, err
	}

	acfg := audio.DefaultConfig()
	acfg.FFmpegPath = cfg.FFmpegPath
	acfg.Logger = logger

	opts := []pipeline.Option{
		pipeline.WithEncoder(cv.NewEncoder),
		pipeline.WithCanvas(cfg.VideoWidth, cfg.VideoHeight),
		pipeline.WithLogger(logger),
	}
	if !silent {
		opts = append(opts, pipeline.WithMuxer(render.NewMuxer(cfg.FFmpegPath, logger)))
	}

	p, err := pipeline.New(audio.NewExtractor(acfg), gen, store, opts...)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, pipeline.Request{MusicPath: musicPath, Style: style, Keywords: keywords})
}

func splitKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
