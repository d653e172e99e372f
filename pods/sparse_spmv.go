package pods

import (
	"fmt"

	"github.com/openfluke/segscan/scan"
	"github.com/openfluke/segscan/segments"
)

type SpMVIn struct {
	A CSR
	X []float32
}
type SpMVOut struct {
	Y []float32
}

// SpMVPod multiplies a CSR matrix with a dense vector: the products of all non-zeros
// are summed per row by a segmented reduction whose segments are the rows.
type SpMVPod struct{}

func (SpMVPod) Name() string { return "sparse/spmv_csr" }

func (SpMVPod) Run(x *ExecContext, in any) (any, error) {
	args, ok := in.(SpMVIn)
	if !ok {
		return nil, fmt.Errorf("%w: SpMVIn expected", ErrBadInput)
	}
	a := args.A
	if err := a.validate(); err != nil {
		return nil, err
	}
	if len(args.X) != a.Cols {
		return nil, fmt.Errorf("%w: vector of %d for %d columns", ErrBadInput, len(args.X), a.Cols)
	}
	y := make([]float32, a.Rows)
	if len(a.Vals) == 0 {
		return SpMVOut{Y: y}, nil
	}

	products := make([]float32, len(a.Vals))
	for i, v := range a.Vals {
		products[i] = v * args.X[a.ColIdx[i]]
	}
	flags, rows, err := segments.FlagsFromOffsets(a.RowPtr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadInput, err)
	}
	sums, err := rowSums(x, products, flags)
	if err != nil {
		return nil, err
	}
	for s, r := range rows {
		y[r] = sums[s]
	}
	return SpMVOut{Y: y}, nil
}

// rowSums returns one total per segment. On the GPU this is an inclusive scan whose
// segment tails are gathered on the host.
func rowSums(x *ExecContext, products []float32, flags []uint32) ([]float32, error) {
	if x.UseGPU && x.GPU != nil {
		scanned, err := x.GPU.DispatchSegScanF32(products, flags, ScanOptions{}, x.gpuThreads())
		if err == nil {
			sums := make([]float32, 0, segments.Count(flags))
			for i := range scanned {
				if i == len(scanned)-1 || flags[i+1] != 0 {
					sums = append(sums, scanned[i])
				}
			}
			return sums, nil
		}
		gpuFallback(err)
	}
	return runReduce(x, scan.Add[float32]{}, products, flags)
}
