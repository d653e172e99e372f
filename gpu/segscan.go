package gpu

import (
	"fmt"
	"sync"

	"github.com/openfluke/segscan/scan"
	"github.com/openfluke/webgpu/wgpu"
)

// SegScanner holds the four pipelines of one SegScanSpec: scan and distribution,
// each for level 0 and for the aggregate levels above it.
type SegScanner struct {
	Spec SegScanSpec

	scan0, scanUp *wgpu.ComputePipeline
	dist0, distUp *wgpu.ComputePipeline
	label         string
}

var _ Kernel = (*SegScanner)(nil)

// NewSegScanner validates spec and returns an uncompiled scanner.
func NewSegScanner(spec SegScanSpec) (*SegScanner, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &SegScanner{Spec: spec}, nil
}

func (s *SegScanner) Compile(ctx *Context, labelPrefix string) error {
	s.label = labelPrefix + s.Spec.shaderKey()
	var err error
	for _, p := range []struct {
		dst    **wgpu.ComputePipeline
		suffix string
		code   string
	}{
		{&s.scan0, "_Scan0", GenerateScanShader(s.Spec, true)},
		{&s.scanUp, "_ScanUp", GenerateScanShader(s.Spec, false)},
		{&s.dist0, "_Dist0", GenerateDistributeShader(s.Spec, true)},
		{&s.distUp, "_DistUp", GenerateDistributeShader(s.Spec, false)},
	} {
		if *p.dst, err = compilePipeline(ctx, s.label+p.suffix, p.code); err != nil {
			s.Cleanup()
			return fmt.Errorf("compile %s%s: %w", s.label, p.suffix, err)
		}
	}
	tracer().Debugf("gpu: compiled %s", s.label)
	return nil
}

func (s *SegScanner) Cleanup() {
	for _, p := range []**wgpu.ComputePipeline{&s.scan0, &s.scanUp, &s.dist0, &s.distUp} {
		if *p != nil {
			(*p).Release()
			*p = nil
		}
	}
}

// levelBuffers are the device buffers of one level's aggregates.
type levelBuffers struct {
	sums, flags, indices *wgpu.Buffer
}

// runState collects everything one Run allocates, for release at the end.
type runState struct {
	buffers    []*wgpu.Buffer
	bindGroups []*wgpu.BindGroup
}

func (r *runState) track(b *wgpu.Buffer, err error) (*wgpu.Buffer, error) {
	if err == nil {
		r.buffers = append(r.buffers, b)
	}
	return b, err
}

func (r *runState) release() {
	for _, bg := range r.bindGroups {
		bg.Release()
	}
	for _, b := range r.buffers {
		b.Destroy()
	}
}

// Run scans data in place. data must hold n elements of s.Spec.Type, flags
// n head flags. The level stack is recorded into one command buffer: local scans
// bottom-up, then distributions top-down, one compute pass per launch.
func (s *SegScanner) Run(ctx *Context, data *wgpu.Buffer, flags *wgpu.Buffer, n int) error {
	if n == 0 {
		return nil
	}
	levels := scan.Levels(n, s.Spec.Layout().Capacity)
	limits := ctx.Device.GetLimits()
	if levels[0].Blocks > int(limits.Limits.MaxComputeWorkgroupsPerDimension) {
		return fmt.Errorf("%w: %d workgroups", ErrTooLarge, levels[0].Blocks)
	}

	var st runState
	defer st.release()

	// the terminal level writes no aggregates but its bindings need buffers
	dummy := levelBuffers{}
	var err error
	for _, b := range []**wgpu.Buffer{&dummy.sums, &dummy.flags, &dummy.indices} {
		if *b, err = st.track(NewStorage[uint32](ctx, s.label+"_Dummy", 1)); err != nil {
			return err
		}
	}
	aggs := make([]levelBuffers, len(levels))
	for _, lv := range levels {
		if lv.Blocks == 1 {
			aggs[lv.Depth] = dummy
			continue
		}
		// every element type is 4 bytes wide
		lb := &aggs[lv.Depth]
		prefix := fmt.Sprintf("%s_L%d", s.label, lv.Depth)
		if lb.sums, err = st.track(NewStorage[uint32](ctx, prefix+"_Sums", lv.Blocks)); err != nil {
			return err
		}
		if lb.flags, err = st.track(NewStorage[uint32](ctx, prefix+"_Flags", lv.Blocks)); err != nil {
			return err
		}
		if lb.indices, err = st.track(NewStorage[uint32](ctx, prefix+"_Indices", lv.Blocks)); err != nil {
			return err
		}
	}

	enc, err := ctx.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("gpu: command encoder: %w", err)
	}
	for _, lv := range levels {
		hasAgg := uint32(0)
		if lv.Blocks > 1 {
			hasAgg = 1
		}
		params, err := st.track(NewBuffer(ctx, s.label+"_Params", []uint32{uint32(lv.Elements), hasAgg, 0, 0},
			wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst))
		if err != nil {
			return err
		}
		pipeline, in, inFlags := s.scan0, data, flags
		if lv.Depth > 0 {
			pipeline, in, inFlags = s.scanUp, aggs[lv.Depth-1].sums, aggs[lv.Depth-1].flags
		}
		a := aggs[lv.Depth]
		bg, err := bindGroup(ctx, s.label+"_ScanBind", pipeline, in, inFlags, a.sums, a.flags, a.indices, params)
		if err != nil {
			return err
		}
		st.bindGroups = append(st.bindGroups, bg)
		dispatch(enc, pipeline, bg, lv.Blocks)
	}
	for d := len(levels) - 2; d >= 0; d-- {
		lv := levels[d]
		params, err := st.track(NewBuffer(ctx, s.label+"_Params", []uint32{uint32(lv.Elements), 0, 0, 0},
			wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst))
		if err != nil {
			return err
		}
		pipeline, out := s.dist0, data
		if d > 0 {
			pipeline, out = s.distUp, aggs[d-1].sums
		}
		bg, err := bindGroup(ctx, s.label+"_DistBind", pipeline, out, aggs[d].sums, aggs[d].indices, params)
		if err != nil {
			return err
		}
		st.bindGroups = append(st.bindGroups, bg)
		dispatch(enc, pipeline, bg, lv.Blocks-1)
	}
	cmd, err := enc.Finish(nil)
	if err != nil {
		return fmt.Errorf("gpu: finish %s: %w", s.label, err)
	}
	ctx.Queue.Submit(cmd)
	tracer().Debugf("gpu: %s n=%d in %d levels", s.label, n, len(levels))
	return nil
}

var (
	scannersMu sync.Mutex
	scanners   = map[SegScanSpec]*SegScanner{}
)

// scannerFor returns a compiled scanner for spec, compiling it on first use.
func scannerFor(ctx *Context, spec SegScanSpec) (*SegScanner, error) {
	scannersMu.Lock()
	defer scannersMu.Unlock()
	if s, ok := scanners[spec]; ok {
		return s, nil
	}
	s, err := NewSegScanner(spec)
	if err != nil {
		return nil, err
	}
	if err := s.Compile(ctx, ""); err != nil {
		return nil, err
	}
	scanners[spec] = s
	return s, nil
}

// ScanU32 runs a segmented scan of 32-bit unsigned values on the GPU.
func ScanU32(values, flags []uint32, spec SegScanSpec) ([]uint32, error) {
	spec.Type = U32
	return scanHost(values, flags, spec)
}

// ScanI32 runs a segmented scan of 32-bit signed values on the GPU.
func ScanI32(values []int32, flags []uint32, spec SegScanSpec) ([]int32, error) {
	spec.Type = I32
	return scanHost(values, flags, spec)
}

// ScanF32 runs a segmented scan of float32 values on the GPU.
func ScanF32(values []float32, flags []uint32, spec SegScanSpec) ([]float32, error) {
	spec.Type = F32
	return scanHost(values, flags, spec)
}

func scanHost[E uint32 | int32 | float32](values []E, flags []uint32, spec SegScanSpec) ([]E, error) {
	if flags != nil && len(flags) != len(values) {
		return nil, fmt.Errorf("%w: %d flags for %d values", ErrLengthMismatch, len(flags), len(values))
	}
	if len(values) == 0 {
		return []E{}, nil
	}
	c, err := GetContext()
	if err != nil {
		return nil, err
	}
	s, err := scannerFor(c, spec)
	if err != nil {
		return nil, err
	}
	if flags == nil {
		flags = make([]uint32, len(values))
	}
	usage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc
	data, err := NewBuffer(c, s.label+"_Data", values, usage)
	if err != nil {
		return nil, err
	}
	defer data.Destroy()
	flagBuf, err := NewBuffer(c, s.label+"_HeadFlags", flags, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	defer flagBuf.Destroy()

	if err := s.Run(c, data, flagBuf, len(values)); err != nil {
		return nil, err
	}
	return ReadBuffer[E](c, data, len(values))
}
