//go:build !js

package detector

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/openfluke/segscan/scan"
	"github.com/openfluke/webgpu/wgpu"
)

// Report describes the WebGPU adapter a scan would run on and the scan shape
// recommended for it.
type Report struct {
	When        time.Time         `json:"when"`
	Runtime     string            `json:"runtime"`
	Adapter     Adapter           `json:"adapter"`
	Limits      Limits            `json:"limits"`
	Features    []string          `json:"features,omitempty"`
	Recommended Recommendations   `json:"recommended"`
	Env         map[string]string `json:"env,omitempty"`
}

// Adapter identifies a WebGPU adapter.
type Adapter struct {
	Name    string `json:"name"`
	Backend string `json:"backend"`
	Type    string `json:"type"`
	Vendor  string `json:"vendor"`
	Device  string `json:"device"`
	Driver  string `json:"driver,omitempty"`
}

// Limits are the adapter limits a segmented scan depends on.
type Limits struct {
	MaxComputeInvocationsPerWorkgroup uint32 `json:"max_invocations_per_workgroup"`
	MaxComputeWorkgroupSizeX          uint32 `json:"max_workgroup_size_x"`
	MaxComputeWorkgroupsPerDimension  uint32 `json:"max_workgroups_per_dimension"`
	MaxComputeWorkgroupStorageSize    uint32 `json:"max_workgroup_storage_bytes"`
	MaxStorageBufferBindingSize       uint64 `json:"max_storage_binding_bytes"`
}

type Recommendations struct {
	// Threads per scan workgroup for 32-bit elements; each workgroup scans
	// 8×ScanThreads elements.
	ScanThreads  uint32 `json:"scan_threads"`
	ScanCapacity uint32 `json:"scan_capacity"`

	// Largest element count one dispatch can cover, bounded by the dispatch
	// limit and the storage binding size.
	MaxElements uint64 `json:"max_elements"`

	// Soft budget in bytes for the data, flag and aggregate buffers.
	BudgetBytes uint64 `json:"budget_bytes"`
}

// DetectJSON is Detect rendered as indented JSON.
func DetectJSON() (string, error) {
	rep, err := Detect()
	if err != nil {
		return "", err
	}
	b, err := json.MarshalIndent(rep, "", "  ")
	return string(b), err
}

// Detect probes the high-performance adapter and recommends a scan shape for it.
func Detect() (*Report, error) {
	rep := &Report{
		When:    time.Now().UTC(),
		Runtime: runtime.GOOS + "/" + runtime.GOARCH,
		Env:     pickEnv(envKeys),
	}
	if err := probe(rep); err != nil {
		return nil, err
	}
	threads := envThreadsOr(ChooseScanThreads(rep.Limits, 4))
	rep.Recommended = Recommendations{
		ScanThreads:  threads,
		ScanCapacity: 8 * threads,
		MaxElements:  maxElements(rep.Limits, threads),
		BudgetBytes:  budgetBytes(),
	}
	tracer().Infof("detector: %s adapter %q, scan threads %d", rep.Adapter.Backend, rep.Adapter.Name, threads)
	return rep, nil
}

// probe fills in adapter identity, limits and features.
func probe(rep *Report) error {
	inst := wgpu.CreateInstance(nil)
	if inst == nil {
		return errors.New("detector: no WebGPU instance")
	}
	defer inst.Release()
	adapter, err := inst.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	switch {
	case err != nil:
		return fmt.Errorf("detector: request adapter: %w", err)
	case adapter == nil:
		return errors.New("detector: no adapter")
	}
	defer adapter.Release()

	info := adapter.GetInfo()
	rep.Adapter = Adapter{
		Name:    strings.TrimSpace(info.Name),
		Backend: info.BackendType.String(),
		Type:    info.AdapterType.String(),
		Vendor:  fmt.Sprintf("%#04x", info.VendorId),
		Device:  fmt.Sprintf("%#04x", info.DeviceId),
		Driver:  strings.TrimSpace(info.DriverDescription),
	}
	l := adapter.GetLimits().Limits
	rep.Limits = Limits{
		MaxComputeInvocationsPerWorkgroup: l.MaxComputeInvocationsPerWorkgroup,
		MaxComputeWorkgroupSizeX:          l.MaxComputeWorkgroupSizeX,
		MaxComputeWorkgroupsPerDimension:  l.MaxComputeWorkgroupsPerDimension,
		MaxComputeWorkgroupStorageSize:    l.MaxComputeWorkgroupStorageSize,
		MaxStorageBufferBindingSize:       l.MaxStorageBufferBindingSize,
	}
	for _, f := range adapter.EnumerateFeatures() {
		rep.Features = append(rep.Features, f.String())
	}
	return nil
}

// ChooseScanThreads returns the largest power-of-two workgroup size whose scan
// block fits the invocation limits and the workgroup storage. elemBytes is the
// size of one scanned element.
func ChooseScanThreads(l Limits, elemBytes int) uint32 {
	for t := uint32(256); t > 1; t >>= 1 {
		if t > l.MaxComputeInvocationsPerWorkgroup || t > l.MaxComputeWorkgroupSizeX {
			continue
		}
		elems, words := scan.NewLayout(int(t)).Words()
		if uint64(elems*elemBytes+4*words) <= uint64(l.MaxComputeWorkgroupStorageSize) {
			return t
		}
	}
	return 1
}

func maxElements(l Limits, threads uint32) uint64 {
	byDispatch := uint64(l.MaxComputeWorkgroupsPerDimension) * uint64(8*threads)
	byBinding := l.MaxStorageBufferBindingSize / 4
	return min(byDispatch, byBinding)
}
