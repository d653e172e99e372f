package gpu

import "github.com/openfluke/webgpu/wgpu"

// Kernel is the lifecycle of the compute programs of this package: Compile builds
// the pipelines once, Cleanup releases them.
type Kernel interface {
	Compile(ctx *Context, labelPrefix string) error
	Cleanup()
}

func compilePipeline(ctx *Context, label, code string) (*wgpu.ComputePipeline, error) {
	module, err := ctx.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label + "_Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: code},
	})
	if err != nil {
		return nil, err
	}
	defer module.Release()
	return ctx.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   label + "_Pipe",
		Compute: wgpu.ProgrammableStageDescriptor{Module: module, EntryPoint: "main"},
	})
}

func dispatch(enc *wgpu.CommandEncoder, pipeline *wgpu.ComputePipeline, bg *wgpu.BindGroup, groups int) {
	pass := enc.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.DispatchWorkgroups(uint32(groups), 1, 1)
	pass.End()
}

func bindGroup(ctx *Context, label string, pipeline *wgpu.ComputePipeline, bufs ...*wgpu.Buffer) (*wgpu.BindGroup, error) {
	entries := make([]wgpu.BindGroupEntry, len(bufs))
	for i, b := range bufs {
		entries[i] = wgpu.BindGroupEntry{Binding: uint32(i), Buffer: b, Size: b.GetSize()}
	}
	return ctx.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   label,
		Layout:  pipeline.GetBindGroupLayout(0),
		Entries: entries,
	})
}
