package movement

import "errors"

var (
	// ErrPrimitiveExecution is returned when a primitive breaks its output
	// contract (wrong frame count or malformed pose). It is a programming error,
	// not a recoverable condition.
	ErrPrimitiveExecution = errors.New("primitive execution failed")

	// ErrLocality is returned when a primitive moves a joint it did not declare.
	ErrLocality = errors.New("primitive moved undeclared joint")

	// ErrPrimitiveNotFound is returned when a primitive name is not registered.
	ErrPrimitiveNotFound = errors.New("primitive not found")

	// ErrInvalidDuration is returned for negative frame counts.
	ErrInvalidDuration = errors.New("invalid primitive duration")

	// ErrInvalidPrimitive is returned when registering a primitive with no name or Apply func.
	ErrInvalidPrimitive = errors.New("invalid primitive")
)
