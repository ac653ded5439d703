package web

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-dancegen/pkg/choreography"
	"github.com/teslashibe/go-dancegen/pkg/dance"
	"github.com/teslashibe/go-dancegen/pkg/library"
	"github.com/teslashibe/go-dancegen/pkg/pipeline"
)

// StyleInfo describes a dance style for clients.
type StyleInfo struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	Aliases      []string                `json:"aliases"`
	Description  string                  `json:"description"`
	Tempo        choreography.TempoRange `json:"tempo_range"`
	KeyMovements []string                `json:"key_movements"`
	Mood         []string                `json:"mood"`
	Moves        []string                `json:"moves"`
	Default      bool                    `json:"default,omitempty"`
}

// Keywords accepts either a JSON array of strings or a single
// comma separated string.
type Keywords []string

// UnmarshalJSON implements json.Unmarshaler.
func (k *Keywords) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*k = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("keywords must be a string or a list of strings")
	}
	*k = Keywords{}
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '，' }) {
		if part = strings.TrimSpace(part); part != "" {
			*k = append(*k, part)
		}
	}
	return nil
}

// GenerateRequest is the request body of generate_dance
type GenerateRequest struct {
	MusicFile  string   `json:"music_file"`
	DanceStyle string   `json:"dance_style"`
	Keywords   Keywords `json:"keywords"`
}

// GenerateResponse is returned by generate_dance
type GenerateResponse struct {
	Success  bool         `json:"success"`
	JobID    string       `json:"job_id"`
	VideoURL string       `json:"video_url"`
	Muxed    bool         `json:"muxed"`
	Report   dance.Report `json:"report"`
}

// errorJSON writes {"error": msg} with status.
func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, library.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, dance.ErrInvalidInput),
		errors.Is(err, library.ErrInvalidName),
		errors.Is(err, library.ErrUnsupportedFormat):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// fail reports err with the mapped status; server errors are logged and sent to Sentry.
func (s *Server) fail(c *fiber.Ctx, prefix string, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error(prefix, "path", c.Path(), "error", err)
		sentry.CaptureException(err)
	}
	return errorJSON(c, status, prefix+": "+err.Error())
}

// handleError renders fiber errors (unknown routes, oversized bodies) as JSON.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return errorJSON(c, fe.Code, fe.Message)
	}
	s.logger.Error("unhandled error", "path", c.Path(), "error", err)
	sentry.CaptureException(err)
	return errorJSON(c, fiber.StatusInternalServerError, err.Error())
}

// handleHealth reports liveness
func (s *Server) handleHealth(c *fiber.Ctx) error {
	clients := 0
	if s.progress != nil {
		clients = s.progress.ClientCount()
	}
	return c.JSON(fiber.Map{
		"status":           "ok",
		"styles":           len(s.catalog.List()),
		"progress_clients": clients,
	})
}

// handleStyles lists the available dance styles
func (s *Server) handleStyles(c *fiber.Ctx) error {
	def := s.catalog.Default().ID
	profiles := s.catalog.List()
	styles := make([]StyleInfo, 0, len(profiles))
	for _, p := range profiles {
		aliases := p.Aliases
		if aliases == nil {
			aliases = []string{}
		}
		styles = append(styles, StyleInfo{
			ID:           p.ID,
			Name:         p.Name,
			Aliases:      aliases,
			Description:  p.Description,
			Tempo:        p.Tempo,
			KeyMovements: p.KeyMovements,
			Mood:         p.Mood,
			Moves:        p.MoveNames(),
			Default:      p.ID == def,
		})
	}
	return c.JSON(styles)
}

// handleUploadMusic stores an uploaded music file and analyzes it
func (s *Server) handleUploadMusic(c *fiber.Ctx) error {
	fh, err := c.FormFile("music_file")
	if err != nil || fh.Filename == "" {
		return errorJSON(c, fiber.StatusBadRequest, "no file selected")
	}
	if !library.AllowedMusic(fh.Filename) {
		return errorJSON(c, fiber.StatusBadRequest, "unsupported file format")
	}

	f, err := fh.Open()
	if err != nil {
		return s.fail(c, "failed to read upload", err)
	}
	defer f.Close()

	name, err := s.store.SaveUpload(fh.Filename, f)
	if err != nil {
		return s.fail(c, "failed to save upload", err)
	}

	path, err := s.store.MusicPath(name)
	if err != nil {
		return s.fail(c, "failed to save upload", err)
	}

	info, err := s.analyzer.Analyze(c.UserContext(), path)
	if err != nil {
		s.logger.Error("music analysis failed", "file", name, "error", err)
		sentry.CaptureException(err)
		return errorJSON(c, fiber.StatusInternalServerError, "music analysis failed: "+err.Error())
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"filename":   name,
		"music_info": info,
	})
}

// handleMusicList lists uploaded music
func (s *Server) handleMusicList(c *fiber.Ctx) error {
	files, err := s.store.ListMusic()
	if err != nil {
		return s.fail(c, "failed to list music", err)
	}
	return c.JSON(files)
}

// handleGenerateDance runs the full generation pipeline for one music file
func (s *Server) handleGenerateDance(c *fiber.Ctx) error {
	var req GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if req.MusicFile == "" {
		return errorJSON(c, fiber.StatusBadRequest, "music_file is required")
	}
	if req.DanceStyle == "" {
		return errorJSON(c, fiber.StatusBadRequest, "dance_style is required")
	}

	path, err := s.store.MusicPath(req.MusicFile)
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			return errorJSON(c, fiber.StatusBadRequest, "unknown music file: "+req.MusicFile)
		}
		return s.fail(c, "invalid music file", err)
	}

	out, err := s.runner.Run(c.UserContext(), pipeline.Request{
		MusicPath: path,
		MusicName: req.MusicFile,
		Style:     req.DanceStyle,
		Keywords:  req.Keywords,
	})
	if err != nil {
		return s.fail(c, "generation failed", err)
	}

	return c.JSON(GenerateResponse{
		Success:  true,
		JobID:    out.JobID,
		VideoURL: downloadPrefix + out.Video,
		Muxed:    out.Muxed,
		Report:   out.Report,
	})
}

// handleDownload sends a generated file as an attachment
func (s *Server) handleDownload(c *fiber.Ctx) error {
	name := c.Params("filename")
	path, err := s.store.OutputPath(name)
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "file not found")
		}
		return s.fail(c, "invalid file name", err)
	}
	return c.Download(path, name)
}

// handleOutputs lists generated videos
func (s *Server) handleOutputs(c *fiber.Ctx) error {
	files, err := s.store.ListOutputs(downloadPrefix)
	if err != nil {
		return s.fail(c, "failed to list outputs", err)
	}
	return c.JSON(files)
}
