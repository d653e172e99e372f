package segments

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLengthsRoundTrip(t *testing.T) {
	flags := []uint32{1, 0, 0, 1, 0, 0, 1, 0}
	assert.Equal(t, 3, Count(flags))
	assert.Equal(t, []int{3, 3, 2}, LengthsFromFlags(flags))

	back, err := FlagsFromLengths([]int{3, 3, 2})
	require.NoError(t, err)
	assert.Equal(t, flags, back)

	// element 0 starts a segment even without a flag
	assert.Equal(t, []int{2, 1}, LengthsFromFlags([]uint32{0, 0, 7}))
	assert.Equal(t, 0, Count(nil))
	assert.Empty(t, LengthsFromFlags(nil))

	_, err = FlagsFromLengths([]int{2, 0, 1})
	assert.ErrorIs(t, err, ErrInvalidLengths)
}

func TestFlagsFromOffsets(t *testing.T) {
	flags, rows, err := FlagsFromOffsets([]int{0, 2, 2, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 0, 1, 0, 0, 1}, flags)
	assert.Equal(t, []int{0, 2, 3}, rows)

	_, _, err = FlagsFromOffsets([]int{0, 3, 2})
	assert.ErrorIs(t, err, ErrInvalidLengths)
	_, _, err = FlagsFromOffsets([]int{1, 3})
	assert.ErrorIs(t, err, ErrInvalidLengths)
}

func TestCodecRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, n := range []int{0, 1, 5, 64, 1000, 100000} {
		flags := make([]uint32, n)
		for i := range flags {
			if i == 0 || rnd.Intn(50) == 0 {
				flags[i] = 1
			}
		}
		if n > 10 {
			flags = append(flags, make([]uint32, 70000)...) // one long tail segment
		}
		buf := Encode(flags)
		got, err := Decode(buf)
		require.NoError(t, err, "n=%d", n)
		assert.Equal(t, flags, got, "n=%d", n)
		if n >= 1000 {
			assert.Less(t, len(buf), len(flags)/4)
		}
	}
}

func TestDecodeRejectsCorruptInput(t *testing.T) {
	buf := Encode([]uint32{1, 0, 0, 1, 0})
	for _, bad := range [][]byte{
		nil,
		buf[:1],
		buf[:len(buf)-1],
		append(append([]byte{}, buf...), 0),
		{3, 0},
		{2, 3},
	} {
		_, err := Decode(bad)
		assert.ErrorIs(t, err, ErrCorrupt, "%v", bad)
	}
	// lengths that do not add up to the element count
	tampered := append([]byte{}, buf...)
	tampered[0] = 9
	_, err := Decode(tampered)
	assert.ErrorIs(t, err, ErrCorrupt)
}
