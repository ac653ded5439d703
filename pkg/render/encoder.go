package render

import (
	"context"
	"errors"
	"fmt"

	"github.com/teslashibe/go-dancegen/pkg/skeleton"
)

// ErrEmptySequence is returned when there is nothing to render.
var ErrEmptySequence = errors.New("render: empty sequence")

// Encoder consumes frames one at a time.
type Encoder interface {
	WriteFrame(pose skeleton.Pose, index, total int) error
	Close() error
}

// EncoderFactory opens an Encoder writing to path.
type EncoderFactory func(path string, layout Layout, def *skeleton.Definition, caption Caption) (Encoder, error)

// ProgressFunc is called after each encoded frame.
type ProgressFunc func(done, total int)

// Render streams seq into enc and closes it. progress may be nil.
func Render(ctx context.Context, enc Encoder, seq skeleton.Sequence, progress ProgressFunc) (err error) {
	defer func() {
		if cerr := enc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if len(seq) == 0 {
		return ErrEmptySequence
	}

	total := len(seq)
	for i, pose := range seq {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := enc.WriteFrame(pose, i, total); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if progress != nil {
			progress(i+1, total)
		}
	}
	return nil
}
