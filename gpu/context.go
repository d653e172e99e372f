package gpu

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/npillmayer/schuko/tracing"
	"github.com/openfluke/webgpu/wgpu"
)

// tracer traces with key 'segscan'.
func tracer() tracing.Trace {
	return tracing.Select("segscan")
}

// Context holds the single WebGPU context of the process.
type Context struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	once     sync.Once
	err      error
}

var ctx Context

// GetContext returns the singleton GPU context, initializing it on first use.
// A failed initialization is not retried.
func GetContext() (*Context, error) {
	ctx.once.Do(func() {
		ctx.err = ctx.init()
	})
	if ctx.err != nil {
		return nil, ctx.err
	}
	if ctx.Device == nil || ctx.Queue == nil {
		return nil, errors.New("gpu: device or queue not initialized")
	}
	return &ctx, nil
}

func (c *Context) init() error {
	c.Instance = wgpu.CreateInstance(nil)
	if c.Instance == nil {
		return errors.New("gpu: no WebGPU instance")
	}

	// discrete NVIDIA parts are preferred over whatever the default request returns
	for _, a := range c.Instance.EnumerateAdapters(nil) {
		info := a.GetInfo()
		tracer().Debugf("gpu: adapter %s (vendor %s, device 0x%X, type %d)", info.Name, info.VendorName,
			info.DeviceId, info.AdapterType)
		if strings.Contains(strings.ToLower(info.Name), "nvidia") ||
			strings.Contains(strings.ToLower(info.VendorName), "nvidia") {
			c.Adapter = a
			break
		}
	}

	var err error
	for _, opts := range []*wgpu.RequestAdapterOptions{
		{PowerPreference: wgpu.PowerPreferenceHighPerformance},
		{PowerPreference: wgpu.PowerPreferenceLowPower},
		nil,
	} {
		if c.Adapter != nil {
			break
		}
		if c.Adapter, err = c.Instance.RequestAdapter(opts); err != nil {
			tracer().Infof("gpu: adapter request failed: %v", err)
		}
	}
	if c.Adapter == nil {
		return fmt.Errorf("gpu: no adapter: %v", err)
	}

	info := c.Adapter.GetInfo()
	tracer().Infof("gpu: using adapter %s (vendor %s)", info.Name, info.VendorName)
	if c.Device, err = c.Adapter.RequestDevice(nil); err != nil {
		return err
	}
	c.Queue = c.Device.GetQueue()
	return nil
}
