package detector

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChooseScanThreads(t *testing.T) {
	l := Limits{
		MaxComputeInvocationsPerWorkgroup: 256,
		MaxComputeWorkgroupSizeX:          256,
		MaxComputeWorkgroupStorageSize:    16384,
	}
	assert.Equal(t, uint32(256), ChooseScanThreads(l, 4))

	small := l
	small.MaxComputeWorkgroupStorageSize = 4096
	assert.Equal(t, uint32(128), ChooseScanThreads(small, 4))

	narrow := l
	narrow.MaxComputeInvocationsPerWorkgroup = 64
	assert.Equal(t, uint32(64), ChooseScanThreads(narrow, 4))

	assert.Equal(t, uint32(1), ChooseScanThreads(Limits{}, 4))
}

func TestMaxElements(t *testing.T) {
	l := Limits{MaxComputeWorkgroupsPerDimension: 65535, MaxStorageBufferBindingSize: 1 << 27}
	assert.Equal(t, uint64(1<<25), maxElements(l, 256))
	l.MaxStorageBufferBindingSize = 1 << 40
	assert.Equal(t, uint64(65535*2048), maxElements(l, 256))
}

func TestDetectCPU(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "segscan")
	defer teardown()

	t.Setenv(envWorkers, "3")
	t.Setenv(envThreads, "64")
	rep := DetectCPU()
	assert.Equal(t, 3, rep.Recommended.Workers)
	assert.Equal(t, 64, rep.Recommended.Threads)
	assert.Equal(t, "3", rep.Env[envWorkers])
	assert.Positive(t, rep.NumCPU)

	js, err := rep.JSON()
	require.NoError(t, err)
	assert.True(t, strings.Contains(js, `"workers": 3`))
}

func TestDetectCPUIgnoresBadOverrides(t *testing.T) {
	t.Setenv(envWorkers, "many")
	t.Setenv(envThreads, "48")
	rep := DetectCPU()
	assert.Equal(t, rep.MaxProcs, rep.Recommended.Workers)
	assert.Contains(t, []int{128, 256}, rep.Recommended.Threads)
}

func TestBudgetOverride(t *testing.T) {
	t.Setenv(envBudget, "64")
	assert.Equal(t, uint64(64<<20), budgetBytes())
	t.Setenv(envBudget, "-1")
	assert.Equal(t, uint64(128<<20), budgetBytes())
}

func TestDetectGPU(t *testing.T) {
	rep, err := Detect()
	if err != nil {
		t.Skipf("no WebGPU adapter: %v", err)
	}
	assert.NotZero(t, rep.Recommended.ScanThreads)
	assert.Equal(t, 8*rep.Recommended.ScanThreads, rep.Recommended.ScanCapacity)
}

func TestReportJSONShape(t *testing.T) {
	rep := Report{
		Runtime: "linux/amd64",
		Adapter: Adapter{Name: "gpu0", Backend: "Vulkan"},
		Limits:  Limits{MaxComputeWorkgroupStorageSize: 16384},
	}
	b, err := json.Marshal(rep)
	require.NoError(t, err)
	s := string(b)
	assert.Contains(t, s, `"adapter":{"name":"gpu0","backend":"Vulkan"`)
	assert.Contains(t, s, `"max_workgroup_storage_bytes":16384`)
	assert.NotContains(t, s, `"features"`)
	assert.NotContains(t, s, `"env"`)
}
