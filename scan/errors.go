package scan

import "errors"

var (
	// ErrInvalidConfig is returned for block configurations the engine cannot run.
	ErrInvalidConfig = errors.New("scan: invalid configuration")
	// ErrLengthMismatch flags a head-flag slice whose length differs from the input.
	ErrLengthMismatch = errors.New("scan: flags and input differ in length")
	// ErrShortOutput flags an output slice shorter than the input.
	ErrShortOutput = errors.New("scan: output shorter than input")
)
