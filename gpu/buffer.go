package gpu

import (
	"errors"
	"fmt"
	"time"
	"unsafe"

	"github.com/openfluke/webgpu/wgpu"
)

// EnsureGPU initializes the GPU context if needed and reports whether it is usable.
func EnsureGPU() error {
	_, err := GetContext()
	return err
}

// NewBuffer creates a buffer holding data. Empty data yields a 4 byte buffer, the
// smallest a storage binding accepts.
func NewBuffer[E any](c *Context, label string, data []E, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	contents := wgpu.ToBytes(data)
	if len(contents) == 0 {
		contents = make([]byte, 4)
	}
	buf, err := c.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: contents,
		Usage:    usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: buffer %s: %w", label, err)
	}
	return buf, nil
}

// NewStorage creates a zeroed storage buffer for count elements of E.
func NewStorage[E any](c *Context, label string, count int) (*wgpu.Buffer, error) {
	var zero E
	size := max(uint64(count)*uint64(unsafe.Sizeof(zero)), 4)
	buf, err := c.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: buffer %s: %w", label, err)
	}
	return buf, nil
}

// ReadBuffer copies the first count elements of buffer back to the host.
func ReadBuffer[E any](c *Context, buffer *wgpu.Buffer, count int) ([]E, error) {
	var zero E
	size := uint64(count) * uint64(unsafe.Sizeof(zero))
	if size == 0 {
		return []E{}, nil
	}
	staging, err := c.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "segscan_Readback",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: readback buffer: %w", err)
	}
	defer staging.Destroy()

	if err := copyBuffer(c, buffer, staging, size); err != nil {
		return nil, err
	}
	if err := waitMapped(c, staging, size); err != nil {
		return nil, err
	}
	defer staging.Unmap()
	raw := staging.GetMappedRange(0, uint(size))
	if raw == nil {
		return nil, errors.New("gpu: readback buffer not mapped")
	}
	out := make([]E, count)
	copy(out, wgpu.FromBytes[E](raw))
	return out, nil
}

func copyBuffer(c *Context, src, dst *wgpu.Buffer, size uint64) error {
	enc, err := c.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("gpu: command encoder: %w", err)
	}
	enc.CopyBufferToBuffer(src, 0, dst, 0, size)
	cmd, err := enc.Finish(nil)
	if err != nil {
		return fmt.Errorf("gpu: finish copy: %w", err)
	}
	c.Queue.Submit(cmd)
	return nil
}

// waitMapped maps buf for reading and polls the device until the mapping
// completes or readTimeout passes. Poll(false) does not block, which keeps the
// timeout effective.
func waitMapped(c *Context, buf *wgpu.Buffer, size uint64) error {
	status := make(chan wgpu.BufferMapAsyncStatus, 1)
	err := buf.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status <- s
	})
	if err != nil {
		return fmt.Errorf("gpu: map readback: %w", err)
	}
	deadline := time.Now().Add(readTimeout)
	for {
		c.Device.Poll(false, nil)
		select {
		case s := <-status:
			if s != wgpu.BufferMapAsyncStatusSuccess {
				return fmt.Errorf("gpu: map readback: status %v", s)
			}
			return nil
		default:
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("gpu: readback timed out after %v", readTimeout)
		}
		time.Sleep(time.Millisecond)
	}
}

const readTimeout = 2 * time.Second
