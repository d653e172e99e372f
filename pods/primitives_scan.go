package pods

import (
	"errors"
	"fmt"

	"github.com/openfluke/segscan/scan"
)

type ScanIn struct {
	In        []uint32
	Inclusive bool
}
type ScanOut struct {
	Out []uint32
}

// ScanPod is the plain prefix sum: a segmented scan with a single segment.
type ScanPod struct{}

func (ScanPod) Name() string { return "primitives/scan" }

func (ScanPod) Run(x *ExecContext, in any) (any, error) {
	args, ok := in.(ScanIn)
	if !ok {
		return nil, fmt.Errorf("%w: ScanIn expected", ErrBadInput)
	}
	out, err := segScanU32(x, args.In, nil, ScanOptions{Exclusive: !args.Inclusive})
	if err != nil {
		return nil, err
	}
	return ScanOut{Out: out}, nil
}

// SegScanIn holds either U32 or F32 values.
type SegScanIn struct {
	U32   []uint32
	F32   []float32
	Flags []uint32 // head flags, nil for a single segment
	ScanOptions
}
type SegScanOut struct {
	U32 []uint32
	F32 []float32
}

type SegScanPod struct{}

func (SegScanPod) Name() string { return "primitives/segscan" }

func (SegScanPod) Run(x *ExecContext, in any) (any, error) {
	args, ok := in.(SegScanIn)
	if !ok {
		return nil, fmt.Errorf("%w: SegScanIn expected", ErrBadInput)
	}
	if args.U32 != nil && args.F32 != nil {
		return nil, fmt.Errorf("%w: both U32 and F32 values given", ErrBadInput)
	}
	if args.F32 != nil {
		out, err := segScanF32(x, args.F32, args.Flags, args.ScanOptions)
		if err != nil {
			return nil, err
		}
		return SegScanOut{F32: out}, nil
	}
	out, err := segScanU32(x, args.U32, args.Flags, args.ScanOptions)
	if err != nil {
		return nil, err
	}
	return SegScanOut{U32: out}, nil
}

func segScanU32(x *ExecContext, values, flags []uint32, o ScanOptions) ([]uint32, error) {
	if x.UseGPU && x.GPU != nil {
		out, err := x.GPU.DispatchSegScanU32(values, flags, o, x.gpuThreads())
		if err == nil {
			return out, nil
		}
		gpuFallback(err)
	}
	switch o.op() {
	case "sum":
		return runScan(x, scan.Add[uint32]{}, values, flags, o)
	case "min":
		return runScan(x, scan.Min[uint32]{}, values, flags, o)
	case "max":
		return runScan(x, scan.Max[uint32]{}, values, flags, o)
	case "or":
		return runScan(x, scan.Or[uint32]{}, values, flags, o)
	}
	return nil, fmt.Errorf("%w: %q for uint32", ErrUnknownOp, o.Op)
}

func segScanF32(x *ExecContext, values []float32, flags []uint32, o ScanOptions) ([]float32, error) {
	if x.UseGPU && x.GPU != nil {
		out, err := x.GPU.DispatchSegScanF32(values, flags, o, x.gpuThreads())
		if err == nil {
			return out, nil
		}
		gpuFallback(err)
	}
	switch o.op() {
	case "sum":
		return runScan(x, scan.Add[float32]{}, values, flags, o)
	case "min":
		return runScan(x, scan.Min[float32]{}, values, flags, o)
	case "max":
		return runScan(x, scan.Max[float32]{}, values, flags, o)
	}
	return nil, fmt.Errorf("%w: %q for float32", ErrUnknownOp, o.Op)
}

// gpuFallback records why a pod falls back to the CPU device.
func gpuFallback(err error) {
	if errors.Is(err, ErrNoGPU) {
		tracer().Debugf("pods: %v, running on CPU", err)
		return
	}
	tracer().Infof("pods: GPU dispatch failed, running on CPU: %v", err)
}

func newEngine[T any, O scan.Operator[T]](x *ExecContext, op O, o ScanOptions) (*scan.Engine[T, O], error) {
	tr := scan.Traits[T, O]{Direction: o.direction(), Mode: o.mode(), Op: op}
	return scan.New(x.device(), tr, x.config())
}

func runScan[T any, O scan.Operator[T]](x *ExecContext, op O, values []T, flags []uint32, o ScanOptions) ([]T, error) {
	eng, err := newEngine[T](x, op, o)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(values))
	if err := eng.Scan(x.context(), out, values, flags); err != nil {
		return nil, err
	}
	return out, nil
}
