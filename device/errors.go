package device

import "errors"

var (
	// ErrInvalidLaunch signals a malformed launch configuration.
	ErrInvalidLaunch = errors.New("device: invalid launch configuration")
	// ErrKernelPanic is returned when a kernel thread panicked. The contents of all
	// memory written by the launch are undefined afterwards.
	ErrKernelPanic = errors.New("device: kernel panic")
)
