// Package library manages uploaded music and generated dance files on disk.
package library

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MusicExtensions are the accepted upload formats, lower case without dot.
var MusicExtensions = []string{"mp3", "wav", "flac", "m4a", "aac"}

// OutputExtensions are the video formats listed as outputs.
var OutputExtensions = []string{".mp4", ".avi", ".mov"}

// TimeFormat is used for file timestamps in listings.
const TimeFormat = "2006-01-02 15:04:05"

// FileInfo describes a stored file.
type FileInfo struct {
	Name     string `json:"name"`
	Size     string `json:"size"` // e.g. "3.2 MB"
	Bytes    int64  `json:"bytes"`
	Modified string `json:"modified,omitempty"`
	Created  string `json:"created,omitempty"`
	URL      string `json:"url,omitempty"`

	modTime time.Time
}

// Store is a music directory and an output directory.
type Store struct {
	musicDir  string
	outputDir string
	logger    *slog.Logger
	now       func() time.Time
}

// New creates the directories if needed and returns a store over them.
func New(musicDir, outputDir string, logger *slog.Logger) (*Store, error) {
	for _, dir := range []string{musicDir, outputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		musicDir:  musicDir,
		outputDir: outputDir,
		logger:    logger.With("component", "library"),
		now:       time.Now,
	}, nil
}

// MusicDir returns the upload directory.
func (s *Store) MusicDir() string { return s.musicDir }

// OutputDir returns the output directory.
func (s *Store) OutputDir() string { return s.outputDir }

// AllowedMusic reports whether name has an accepted music extension.
func AllowedMusic(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	return ext != "" && slices.Contains(MusicExtensions, ext)
}

// SanitizeName reduces name to a safe base name of ASCII letters, digits,
// '.', '-' and '_'. Whitespace becomes '_'; other characters are dropped.
func SanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '\t':
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "._")
}

func randomHex(n int) string {
	id := uuid.New()
	return hex.EncodeToString(id[:])[:n]
}

// SaveUpload stores r under a unique name derived from the client's file name:
// <base>_<YYYYmmdd_HHMMSS>_<6 hex>.<ext>. It returns the stored name.
func (s *Store) SaveUpload(name string, r io.Reader) (string, error) {
	if !AllowedMusic(name) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}

	ext := strings.ToLower(filepath.Ext(name))
	base := SanitizeName(strings.TrimSuffix(name, filepath.Ext(name)))
	if base == "" {
		base = "music"
	}
	stored := fmt.Sprintf("%s_%s_%s%s", base, s.now().Format("20060102_150405"), randomHex(6), ext)

	if err := writeAtomic(filepath.Join(s.musicDir, stored), func(w io.Writer) error {
		_, err := io.Copy(w, r)
		return err
	}); err != nil {
		return "", err
	}

	s.logger.Info("music uploaded", "name", stored, "original", name)
	return stored, nil
}

// writeAtomic writes to a temp file next to path, then renames it into place.
func writeAtomic(path string, write func(io.Writer) error) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// checkName rejects names that are not a single path element.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) ||
		filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func existing(dir, name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

// MusicPath returns the path of an existing upload.
func (s *Store) MusicPath(name string) (string, error) {
	return existing(s.musicDir, name)
}

// OutputPath returns the path of an existing output file.
func (s *Store) OutputPath(name string) (string, error) {
	return existing(s.outputDir, name)
}

// NewJobID returns 8 random hex digits.
func NewJobID() string {
	return randomHex(8)
}

// OutputName returns <prefix>_<id><ext>, e.g. dance_1a2b3c4d.mp4.
func OutputName(prefix, id, ext string) string {
	return fmt.Sprintf("%s_%s%s", prefix, id, ext)
}

// NewOutputName returns a fresh output file name: <prefix>_<8 hex><ext>.
func NewOutputName(prefix, ext string) string {
	return OutputName(prefix, NewJobID(), ext)
}

// CreateOutputPath returns the path for a new output file name.
func (s *Store) CreateOutputPath(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.outputDir, name), nil
}

// WriteReport stores v as indented JSON in the output directory.
func (s *Store) WriteReport(name string, v any) (string, error) {
	path, err := s.CreateOutputPath(name)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := writeAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}); err != nil {
		return "", err
	}
	return path, nil
}

func humanSize(n int64) string {
	return fmt.Sprintf("%.1f MB", float64(n)/1024/1024)
}

func list(dir string, keep func(name string) bool) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := []FileInfo{}
	for _, e := range entries {
		if !e.Type().IsRegular() || !keep(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed while listing
		}
		files = append(files, FileInfo{
			Name:    e.Name(),
			Size:    humanSize(info.Size()),
			Bytes:   info.Size(),
			modTime: info.ModTime(),
		})
	}

	// newest first
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})
	return files, nil
}

// ListMusic lists uploads, newest first.
func (s *Store) ListMusic() ([]FileInfo, error) {
	files, err := list(s.musicDir, AllowedMusic)
	if err != nil {
		return nil, err
	}
	for i := range files {
		files[i].Modified = files[i].modTime.Format(TimeFormat)
	}
	return files, nil
}

// ListOutputs lists rendered videos, newest first, with download URLs under urlPrefix.
func (s *Store) ListOutputs(urlPrefix string) ([]FileInfo, error) {
	files, err := list(s.outputDir, func(name string) bool {
		return slices.Contains(OutputExtensions, strings.ToLower(filepath.Ext(name)))
	})
	if err != nil {
		return nil, err
	}
	for i := range files {
		files[i].Created = files[i].modTime.Format(TimeFormat)
		files[i].URL = urlPrefix + files[i].Name
	}
	return files, nil
}

// CleanOld removes regular files older than maxAge from both directories and
// returns how many were removed. Failures to remove are logged and skipped.
func (s *Store) CleanOld(maxAge time.Duration) (int, error) {
	cutoff := s.now().Add(-maxAge)
	removed := 0

	for _, dir := range []string{s.musicDir, s.outputDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return removed, err
		}
		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			info, err := e.Info()
			if err != nil || !info.ModTime().Before(cutoff) {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if err := os.Remove(path); err != nil {
				s.logger.Warn("failed to remove old file", "path", path, "error", err)
				continue
			}
			s.logger.Debug("removed old file", "path", path)
			removed++
		}
	}
	return removed, nil
}
