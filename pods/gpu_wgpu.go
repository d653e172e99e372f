//go:build gpu

package pods

import "github.com/openfluke/segscan/gpu"

// WGPU runs pods on the WGSL segmented scan kernels.
type WGPU struct{}

func init() {
	GPU = WGPU{}
}

func (WGPU) DispatchSegScanU32(values, flags []uint32, opts ScanOptions, threads int) ([]uint32, error) {
	spec, err := gpuSpec(opts, threads)
	if err != nil {
		return nil, err
	}
	return gpu.ScanU32(values, flags, spec)
}

func (WGPU) DispatchSegScanF32(values []float32, flags []uint32, opts ScanOptions, threads int) ([]float32, error) {
	spec, err := gpuSpec(opts, threads)
	if err != nil {
		return nil, err
	}
	return gpu.ScanF32(values, flags, spec)
}

func gpuSpec(opts ScanOptions, threads int) (gpu.SegScanSpec, error) {
	op, err := gpu.ParseOp(opts.op())
	if err != nil {
		return gpu.SegScanSpec{}, err
	}
	return gpu.SegScanSpec{
		Op:        op,
		Backward:  opts.Backward,
		Exclusive: opts.Exclusive,
		Threads:   threads,
	}, nil
}
