// Package segments converts between the representations of a segmentation: head
// flags, segment lengths and CSR row offsets. It also packs head flags into a compact
// byte form, the StreamVByte coded segment lengths.
//
// Element 0 always starts a segment, whether or not its flag is set.
package segments

import (
	"errors"
	"fmt"
)

var (
	// ErrCorrupt is returned when decoding a malformed flag encoding.
	ErrCorrupt = errors.New("segments: corrupt encoding")
	// ErrInvalidLengths is returned for segment lengths or offsets that do not
	// describe a segmentation.
	ErrInvalidLengths = errors.New("segments: invalid segment lengths")
)

// Count returns the number of segments of len(flags) elements.
func Count(flags []uint32) int {
	if len(flags) == 0 {
		return 0
	}
	count := 1
	for _, f := range flags[1:] {
		if f != 0 {
			count++
		}
	}
	return count
}

// FlagsFromLengths returns head flags for consecutive segments of the given lengths.
// Every length must be positive.
func FlagsFromLengths(lengths []int) ([]uint32, error) {
	n := 0
	for i, l := range lengths {
		if l <= 0 {
			return nil, fmt.Errorf("%w: segment %d has length %d", ErrInvalidLengths, i, l)
		}
		n += l
	}
	flags := make([]uint32, n)
	start := 0
	for _, l := range lengths {
		flags[start] = 1
		start += l
	}
	return flags, nil
}

// LengthsFromFlags returns the segment lengths of a flag array.
func LengthsFromFlags(flags []uint32) []int {
	lengths := make([]int, 0, Count(flags))
	start := 0
	for i := 1; i <= len(flags); i++ {
		if i == len(flags) || flags[i] != 0 {
			lengths = append(lengths, i-start)
			start = i
		}
	}
	return lengths
}

// FlagsFromOffsets returns head flags for CSR row offsets: row r covers the elements
// [offsets[r], offsets[r+1]). Empty rows have no element to carry their flag and do
// not appear in the result; rows maps every segment to its row.
func FlagsFromOffsets(offsets []int) (flags []uint32, rows []int, err error) {
	if len(offsets) == 0 || offsets[0] != 0 {
		return nil, nil, fmt.Errorf("%w: offsets must start at 0", ErrInvalidLengths)
	}
	for r := 1; r < len(offsets); r++ {
		if offsets[r] < offsets[r-1] {
			return nil, nil, fmt.Errorf("%w: offsets decrease at row %d", ErrInvalidLengths, r-1)
		}
	}
	flags = make([]uint32, offsets[len(offsets)-1])
	for r := 0; r+1 < len(offsets); r++ {
		if offsets[r] < offsets[r+1] {
			flags[offsets[r]] = 1
			rows = append(rows, r)
		}
	}
	return flags, rows, nil
}
