package library

import "errors"

var (
	// ErrNotFound is returned when a named file does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrInvalidName is returned for names that are empty or would leave the store directory.
	ErrInvalidName = errors.New("invalid file name")

	// ErrUnsupportedFormat is returned for uploads with an extension outside MusicExtensions.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)
