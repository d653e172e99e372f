package pods

// GPUHooks describes the optional GPU backend. Keep it slice-based so CPU fallback is easy.
type GPUHooks interface {
	DispatchSegScanU32(values, flags []uint32, opts ScanOptions, threads int) ([]uint32, error)
	DispatchSegScanF32(values []float32, flags []uint32, opts ScanOptions, threads int) ([]float32, error)
}

// GPU is the backend WithGPU installs. Builds without -tags=gpu get a no-op.
var GPU GPUHooks = noopGPU{}

type noopGPU struct{}

func (noopGPU) DispatchSegScanU32([]uint32, []uint32, ScanOptions, int) ([]uint32, error) {
	return nil, ErrNoGPU
}

func (noopGPU) DispatchSegScanF32([]float32, []uint32, ScanOptions, int) ([]float32, error) {
	return nil, ErrNoGPU
}
