package dance

import "errors"

// ErrInvalidInput is returned when music features cannot drive a dance:
// non-positive or non-finite tempo or duration, unordered beats, or an
// unknown style under WithStrictStyle.
var ErrInvalidInput = errors.New("invalid input")
