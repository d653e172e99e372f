package pods

import "errors"

var (
	// Single canonical error used across CPU/GPU builds.
	ErrNoGPU = errors.New("gpu unavailable (build with -tags=gpu to enable)")
	// ErrUnknownPod is returned by Run for names nobody registered.
	ErrUnknownPod = errors.New("unknown pod")
	// ErrBadInput is returned when a pod receives the wrong input type or shape.
	ErrBadInput = errors.New("bad pod input")
	// ErrUnknownOp is returned for operator names a pod does not implement.
	ErrUnknownOp = errors.New("unknown operator")
)
