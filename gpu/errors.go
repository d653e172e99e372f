package gpu

import "errors"

var (
	// ErrUnsupported is returned for scan programs the shaders cannot express.
	ErrUnsupported = errors.New("gpu: unsupported scan")
	// ErrTooLarge is returned when a level needs more workgroups than one dispatch allows.
	ErrTooLarge = errors.New("gpu: input exceeds dispatch limits")
	// ErrLengthMismatch flags a head-flag slice whose length differs from the values.
	ErrLengthMismatch = errors.New("gpu: flags and values differ in length")
)
