package pods

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/openfluke/segscan/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDevice = device.New(2)

func testContext() *ExecContext {
	x := NewContext(nil, nil).WithDevice(testDevice)
	x.Threads = 2
	return x
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{
		"primitives/reduce", "primitives/scan", "primitives/segments_pack",
		"primitives/segreduce", "primitives/segscan", "sparse/spmv_csr",
	}, Names())
	_, err := Run(testContext(), "ml/gemm", nil)
	assert.ErrorIs(t, err, ErrUnknownPod)
	_, err = Run(testContext(), "primitives/scan", "not a ScanIn")
	assert.ErrorIs(t, err, ErrBadInput)
}

func TestScanPod(t *testing.T) {
	out, err := Run(testContext(), "primitives/scan", ScanIn{In: []uint32{1, 2, 3, 4}, Inclusive: true})
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 3, 6, 10}, out.(ScanOut).Out)

	out, err = Run(testContext(), "primitives/scan", ScanIn{In: []uint32{1, 2, 3, 4}})
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 3, 6}, out.(ScanOut).Out)
}

func TestSegScanPod(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "segscan")
	defer teardown()

	flags := []uint32{1, 0, 0, 1, 0, 0, 1, 0}
	out, err := Run(testContext(), "primitives/segscan", SegScanIn{
		U32:   []uint32{3, 1, 7, 0, 4, 1, 6, 3},
		Flags: flags,
	})
	require.NoError(t, err)
	assert.Equal(t, []uint32{3, 4, 11, 0, 4, 5, 6, 9}, out.(SegScanOut).U32)

	out, err = Run(testContext(), "primitives/segscan", SegScanIn{
		F32:         []float32{3, 1, 7, 0, 4, 1, 6, 3},
		Flags:       flags,
		ScanOptions: ScanOptions{Op: "max", Backward: true},
	})
	require.NoError(t, err)
	assert.Equal(t, []float32{7, 7, 7, 4, 4, 1, 6, 3}, out.(SegScanOut).F32)

	_, err = Run(testContext(), "primitives/segscan", SegScanIn{F32: []float32{1}, ScanOptions: ScanOptions{Op: "or"}})
	assert.ErrorIs(t, err, ErrUnknownOp)
	_, err = Run(testContext(), "primitives/segscan", SegScanIn{U32: []uint32{1}, F32: []float32{1}})
	assert.ErrorIs(t, err, ErrBadInput)
}

type failingGPU struct{ calls int }

func (g *failingGPU) DispatchSegScanU32([]uint32, []uint32, ScanOptions, int) ([]uint32, error) {
	g.calls++
	return nil, errors.New("device lost")
}

func (g *failingGPU) DispatchSegScanF32([]float32, []uint32, ScanOptions, int) ([]float32, error) {
	g.calls++
	return nil, ErrNoGPU
}

func TestGPUFallback(t *testing.T) {
	g := &failingGPU{}
	x := testContext().WithGPU(g)
	out, err := Run(x, "primitives/segscan", SegScanIn{U32: []uint32{5, 5}, ScanOptions: ScanOptions{Exclusive: true}})
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 5}, out.(SegScanOut).U32)
	_, err = Run(x, "sparse/spmv_csr", SpMVIn{A: CSR{Rows: 1, Cols: 1, RowPtr: []int{0, 1}, ColIdx: []int{0}, Vals: []float32{2}}, X: []float32{3}})
	require.NoError(t, err)
	assert.Equal(t, 2, g.calls)
}

func TestReducePods(t *testing.T) {
	out, err := Run(testContext(), "primitives/reduce", ReduceIn{In: []float32{4, -2, 9, 1}, Kind: "min"})
	require.NoError(t, err)
	assert.Equal(t, float32(-2), out.(ReduceOut).Value)

	out, err = Run(testContext(), "primitives/segreduce", SegReduceIn{
		In:    []float32{3, 1, 7, 0, 4, 1, 6, 3},
		Flags: []uint32{1, 0, 0, 1, 0, 0, 1, 0},
		Kind:  "sum",
	})
	require.NoError(t, err)
	assert.Equal(t, []float32{11, 5, 9}, out.(SegReduceOut).Values)

	_, err = Run(testContext(), "primitives/segreduce", SegReduceIn{In: []float32{1}, Kind: "mean"})
	assert.ErrorIs(t, err, ErrUnknownOp)
}

func TestSpMV(t *testing.T) {
	// [ 1 0 2 ]
	// [ 0 0 0 ]
	// [ 0 3 0 ]
	// [ 4 5 6 ]
	a := CSR{
		Rows: 4, Cols: 3,
		RowPtr: []int{0, 2, 2, 3, 6},
		ColIdx: []int{0, 2, 1, 0, 1, 2},
		Vals:   []float32{1, 2, 3, 4, 5, 6},
	}
	out, err := Run(testContext(), "sparse/spmv_csr", SpMVIn{A: a, X: []float32{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, []float32{7, 0, 6, 32}, out.(SpMVOut).Y)

	_, err = Run(testContext(), "sparse/spmv_csr", SpMVIn{A: a, X: []float32{1, 2}})
	assert.ErrorIs(t, err, ErrBadInput)
	bad := a
	bad.ColIdx = []int{0, 2, 1, 0, 1, 3}
	_, err = Run(testContext(), "sparse/spmv_csr", SpMVIn{A: bad, X: []float32{1, 2, 3}})
	assert.ErrorIs(t, err, ErrBadInput)
}

func TestSegmentsPackPod(t *testing.T) {
	flags := []uint32{1, 0, 0, 1, 0, 0, 1, 0}
	out, err := Run(testContext(), "primitives/segments_pack", SegmentsPackIn{Flags: flags})
	require.NoError(t, err)
	packed := out.(SegmentsPackOut)
	assert.Equal(t, 3, packed.Segments)

	out, err = Run(testContext(), "primitives/segments_pack", SegmentsPackIn{Packed: packed.Packed, Unpack: true})
	require.NoError(t, err)
	assert.Equal(t, flags, out.(SegmentsPackOut).Flags)
}

func TestNoopGPU(t *testing.T) {
	_, err := noopGPU{}.DispatchSegScanU32(nil, nil, ScanOptions{}, 1)
	assert.ErrorIs(t, err, ErrNoGPU)
}
