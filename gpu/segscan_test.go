package gpu

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/openfluke/segscan/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecValidate(t *testing.T) {
	assert.NoError(t, SegScanSpec{Type: F32, Op: OpMax, Threads: 64}.Validate())
	assert.ErrorIs(t, SegScanSpec{Type: F32, Op: OpOr, Threads: 64}.Validate(), ErrUnsupported)
	assert.ErrorIs(t, SegScanSpec{Threads: 48}.Validate(), ErrUnsupported)
	assert.ErrorIs(t, SegScanSpec{Threads: 512}.Validate(), ErrUnsupported)
	assert.ErrorIs(t, SegScanSpec{Op: 9, Threads: 8}.Validate(), ErrUnsupported)

	op, err := ParseOp("min")
	require.NoError(t, err)
	assert.Equal(t, OpMin, op)
	_, err = ParseOp("xor")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestScanShaderConstants(t *testing.T) {
	spec := SegScanSpec{Type: I32, Op: OpMax, Backward: true, Exclusive: true, Threads: 64}
	code := GenerateScanShader(spec, true)
	assert.Contains(t, code, "alias Elem = i32;")
	assert.Contains(t, code, "const THREADS: u32 = 64u;")
	assert.Contains(t, code, "const SLOTS: u32 = 128u;")
	assert.Contains(t, code, "const CAPACITY: u32 = 512u;")
	assert.Contains(t, code, "const PADDED: u32 = 131u;")
	assert.Contains(t, code, "const BACKWARD: bool = true;")
	assert.Contains(t, code, "const EXCLUSIVE: bool = true;")
	assert.Contains(t, code, "bitcast<i32>(0x80000000u)")
	assert.Contains(t, code, "return max(a, b);")
	assert.Equal(t, 5, strings.Count(code, "workgroupBarrier()"))

	// aggregate levels always scan forward and inclusive
	up := GenerateScanShader(spec, false)
	assert.Contains(t, up, "const BACKWARD: bool = false;")
	assert.Contains(t, up, "const EXCLUSIVE: bool = false;")
}

func TestDistributeShader(t *testing.T) {
	spec := SegScanSpec{Type: F32, Op: OpMin, Threads: 32}
	code := GenerateDistributeShader(spec, true)
	assert.Contains(t, code, "bitcast<f32>(0x7f800000u)")
	assert.Contains(t, code, "let b = wg_id.x + 1u;")
	assert.Contains(t, code, "s_cutoff = min(agg_indices[b], n - base);")
	assert.NotContains(t, code, "EXCLUSIVE")
}

func TestIdentities(t *testing.T) {
	for _, tc := range []struct {
		spec SegScanSpec
		want string
	}{
		{SegScanSpec{Type: U32, Op: OpSum}, "0u"},
		{SegScanSpec{Type: U32, Op: OpMin}, "0xffffffffu"},
		{SegScanSpec{Type: U32, Op: OpMax}, "0u"},
		{SegScanSpec{Type: U32, Op: OpOr}, "0u"},
		{SegScanSpec{Type: I32, Op: OpMin}, "2147483647i"},
		{SegScanSpec{Type: F32, Op: OpSum}, "0.0"},
		{SegScanSpec{Type: F32, Op: OpMax}, "bitcast<f32>(0xff800000u)"},
	} {
		assert.Equal(t, tc.want, tc.spec.identity(), "%s/%s", tc.spec.Type, tc.spec.Op)
	}
}

func TestShaderKey(t *testing.T) {
	assert.Equal(t, "SegScan_u32_sum_128_bwd_excl",
		SegScanSpec{Op: OpSum, Backward: true, Exclusive: true, Threads: 128}.shaderKey())
}

func TestScanOnGPU(t *testing.T) {
	if err := EnsureGPU(); err != nil {
		t.Skipf("no WebGPU device: %v", err)
	}
	rnd := rand.New(rand.NewSource(1))
	n := 70000 // three levels at 256 elements per workgroup
	values := make([]uint32, n)
	flags := make([]uint32, n)
	for i := range values {
		values[i] = uint32(rnd.Intn(100))
		if rnd.Intn(500) == 0 {
			flags[i] = 1
		}
	}
	for _, backward := range []bool{false, true} {
		for _, exclusive := range []bool{false, true} {
			spec := SegScanSpec{Op: OpSum, Backward: backward, Exclusive: exclusive, Threads: 32}
			got, err := ScanU32(values, flags, spec)
			require.NoError(t, err)

			tr := scan.Traits[uint32, scan.Add[uint32]]{}
			if backward {
				tr.Direction = scan.Backward
			}
			if exclusive {
				tr.Mode = scan.Exclusive
			}
			want := make([]uint32, n)
			scan.Reference(want, values, flags, tr)
			assert.Equal(t, want, got, "backward=%v exclusive=%v", backward, exclusive)
		}
	}

	got, err := ScanF32([]float32{3, 1, 7, 0, 4, 1, 6, 3}, []uint32{1, 0, 0, 1, 0, 0, 1, 0},
		SegScanSpec{Op: OpMax, Threads: 1})
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 3, 7, 0, 4, 4, 6, 6}, got)
}
