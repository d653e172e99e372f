package main

import (
	"strings"
	"testing"

	"github.com/openfluke/segscan/pods"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInputLengths(t *testing.T) {
	in, err := parseInput(strings.NewReader(`{"values":[1,2,3,4,5],"lengths":[2,3]}`), false)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3, 4, 5}, in.U32)
	assert.Equal(t, []uint32{1, 0, 1, 0, 0}, in.Flags)
	assert.Nil(t, in.F32)
}

func TestParseInputFlagsF32(t *testing.T) {
	in, err := parseInput(strings.NewReader(`{"values":[0.5,1.5],"flags":[0,1]}`), true)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 1.5}, in.F32)
	assert.Equal(t, []uint32{0, 1}, in.Flags)
}

func TestParseInputErrors(t *testing.T) {
	for _, src := range []string{
		`{"values":[1,2],"flags":[1,0],"lengths":[2]}`,
		`{"values":[1,2,3],"lengths":[2]}`,
		`{"values":[-1]}`,
		`{"values":[1.5]}`,
	} {
		_, err := parseInput(strings.NewReader(src), false)
		assert.ErrorIs(t, err, pods.ErrBadInput, src)
	}
	_, err := parseInput(strings.NewReader(`{"values":[1],"lengths":[0]}`), false)
	assert.Error(t, err)
	_, err = parseInput(strings.NewReader(`not json`), false)
	assert.Error(t, err)
}

func TestParsedInputRunsThroughPod(t *testing.T) {
	in, err := parseInput(strings.NewReader(`{"values":[1,2,3,4,5],"lengths":[2,3]}`), false)
	require.NoError(t, err)
	in.ScanOptions = pods.ScanOptions{Op: "sum"}
	out, err := pods.Run(pods.NewContext(nil, nil), "primitives/segscan", in)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 3, 3, 7, 12}, out.(pods.SegScanOut).U32)
}
