package choreography

import "errors"

var (
	// ErrUnknownStyle is returned by strict lookups for a style that is not in the catalog.
	ErrUnknownStyle = errors.New("unknown dance style")

	// ErrEmptyMoveSet is returned when a style has no primitives to sequence.
	ErrEmptyMoveSet = errors.New("style has no moves")

	// ErrInvalidSelection is returned when a Selector picks an index outside the move set.
	ErrInvalidSelection = errors.New("selector returned invalid index")
)
