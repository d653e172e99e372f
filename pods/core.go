package pods

import (
	"context"
	"time"

	"github.com/npillmayer/schuko/tracing"
	"github.com/openfluke/segscan/detector"
	"github.com/openfluke/segscan/device"
	"github.com/openfluke/segscan/scan"
)

// tracer traces with key 'segscan'.
func tracer() tracing.Trace {
	return tracing.Select("segscan")
}

// Pod is a unit of work (scan, segmented reduce, SpMV).
type Pod interface {
	Name() string
	Run(ctx *ExecContext, in any) (out any, err error)
}

// ExecContext carries execution choices and capabilities.
type ExecContext struct {
	Ctx     context.Context
	UseGPU  bool                // high-level knob; pods may override per-op
	Report  *detector.Report    // GPU detector output (limits, features, recs), may be nil
	CPU     *detector.CPUReport // host report, may be nil
	GPU     GPUHooks            // nil unless -tags=gpu and initialized
	Device  *device.Device      // CPU device; nil means device.Default()
	Threads int                 // threads per block on the CPU device; 0 means the scan default
	Now     time.Time
}

func NewContext(rep *detector.Report, cpu *detector.CPUReport) *ExecContext {
	ec := &ExecContext{
		Ctx:    context.Background(),
		Report: rep,
		CPU:    cpu,
		Now:    time.Now(),
	}
	if cpu != nil {
		ec.Threads = cpu.Recommended.Threads
	}
	return ec
}

func (ec *ExecContext) WithGPU(g GPUHooks) *ExecContext {
	ec.GPU = g
	ec.UseGPU = g != nil
	return ec
}

func (ec *ExecContext) WithDevice(d *device.Device) *ExecContext {
	ec.Device = d
	return ec
}

func (ec *ExecContext) device() *device.Device {
	if ec.Device != nil {
		return ec.Device
	}
	return device.Default()
}

func (ec *ExecContext) config() scan.Config {
	cfg := scan.DefaultConfig()
	if ec.Threads > 0 {
		cfg.Threads = ec.Threads
	}
	return cfg
}

func (ec *ExecContext) context() context.Context {
	if ec.Ctx != nil {
		return ec.Ctx
	}
	return context.Background()
}

// gpuThreads is the workgroup size for GPU scans.
func (ec *ExecContext) gpuThreads() int {
	if ec.Report != nil && ec.Report.Recommended.ScanThreads > 0 {
		return int(ec.Report.Recommended.ScanThreads)
	}
	return 64
}
