package pods

import (
	"fmt"

	"github.com/openfluke/segscan/scan"
)

type ReduceIn struct {
	In   []float32
	Kind string // "sum"|"min"|"max"
}
type ReduceOut struct {
	Value float32
}

// ReducePod reduces the whole input, the single-segment case of SegReducePod.
type ReducePod struct{}

func (ReducePod) Name() string { return "primitives/reduce" }

func (ReducePod) Run(x *ExecContext, in any) (any, error) {
	args, ok := in.(ReduceIn)
	if !ok {
		return nil, fmt.Errorf("%w: ReduceIn expected", ErrBadInput)
	}
	if len(args.In) == 0 {
		return ReduceOut{0}, nil
	}
	totals, err := segReduceF32(x, args.In, nil, args.Kind)
	if err != nil {
		return nil, err
	}
	return ReduceOut{Value: totals[0]}, nil
}

type SegReduceIn struct {
	In    []float32
	Flags []uint32
	Kind  string // "sum"|"min"|"max"
}
type SegReduceOut struct {
	Values []float32 // one per segment
}

// SegReducePod reduces every segment to a single value.
type SegReducePod struct{}

func (SegReducePod) Name() string { return "primitives/segreduce" }

func (SegReducePod) Run(x *ExecContext, in any) (any, error) {
	args, ok := in.(SegReduceIn)
	if !ok {
		return nil, fmt.Errorf("%w: SegReduceIn expected", ErrBadInput)
	}
	totals, err := segReduceF32(x, args.In, args.Flags, args.Kind)
	if err != nil {
		return nil, err
	}
	return SegReduceOut{Values: totals}, nil
}

func segReduceF32(x *ExecContext, values []float32, flags []uint32, kind string) ([]float32, error) {
	switch kind {
	case "", "sum":
		return runReduce(x, scan.Add[float32]{}, values, flags)
	case "min":
		return runReduce(x, scan.Min[float32]{}, values, flags)
	case "max":
		return runReduce(x, scan.Max[float32]{}, values, flags)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOp, kind)
}

func runReduce[T any, O scan.Operator[T]](x *ExecContext, op O, values []T, flags []uint32) ([]T, error) {
	eng, err := newEngine[T](x, op, ScanOptions{})
	if err != nil {
		return nil, err
	}
	return eng.Reduce(x.context(), values, flags)
}
