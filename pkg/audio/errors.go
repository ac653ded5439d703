package audio

import "errors"

var (
	// ErrDecode is returned when ffmpeg cannot decode the input.
	ErrDecode = errors.New("audio decode failed")

	// ErrEmptyAudio is returned when decoding yields no samples.
	ErrEmptyAudio = errors.New("no audio samples")
)
