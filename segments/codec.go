package segments

import (
	"encoding/binary"
	"fmt"

	"github.com/mhr3/streamvbyte"
)

// Layout of an encoding:
//
//	uvarint  element count
//	uvarint  segment count
//	bytes    StreamVByte coded segment lengths, control bytes first

// Encode packs a flag array as its segment lengths. Non-zero flag values are not
// preserved; Decode yields flags of 1.
func Encode(flags []uint32) []byte {
	lengths := LengthsFromFlags(flags)
	vals := make([]uint32, len(lengths))
	for i, l := range lengths {
		vals[i] = uint32(l)
	}
	buf := make([]byte, 2*binary.MaxVarintLen64, 2*binary.MaxVarintLen64+streamvbyte.MaxEncodedLen(len(vals)))
	pos := binary.PutUvarint(buf, uint64(len(flags)))
	pos += binary.PutUvarint(buf[pos:], uint64(len(vals)))
	buf = buf[:pos]
	if len(vals) == 0 {
		return buf
	}
	data := streamvbyte.EncodeUint32(vals, &streamvbyte.EncodeOptions[uint32]{
		Buffer: buf[pos:cap(buf)],
	})
	return append(buf[:pos], data...)
}

// Decode reverses Encode.
func Decode(buf []byte) ([]uint32, error) {
	n, k := binary.Uvarint(buf)
	if k <= 0 {
		return nil, fmt.Errorf("%w: bad element count", ErrCorrupt)
	}
	buf = buf[k:]
	count, k := binary.Uvarint(buf)
	if k <= 0 || count > n {
		return nil, fmt.Errorf("%w: bad segment count", ErrCorrupt)
	}
	buf = buf[k:]
	if count == 0 {
		if n != 0 || len(buf) != 0 {
			return nil, fmt.Errorf("%w: %d elements without segments", ErrCorrupt, n)
		}
		return []uint32{}, nil
	}
	if need := encodedLen(buf, int(count)); need < 0 || need != len(buf) {
		return nil, fmt.Errorf("%w: stream length mismatch", ErrCorrupt)
	}
	vals := streamvbyte.DecodeUint32(buf, int(count), &streamvbyte.DecodeOptions[uint32]{
		Buffer: make([]uint32, count),
	})
	lengths := make([]int, len(vals))
	total := uint64(0)
	for i, v := range vals {
		if v == 0 {
			return nil, fmt.Errorf("%w: empty segment %d", ErrCorrupt, i)
		}
		lengths[i] = int(v)
		total += uint64(v)
	}
	if total != n {
		return nil, fmt.Errorf("%w: segments cover %d of %d elements", ErrCorrupt, total, n)
	}
	return FlagsFromLengths(lengths)
}

// encodedLen computes the size of a stream of count values from its control bytes,
// or -1 if the control bytes are missing.
func encodedLen(buf []byte, count int) int {
	ctrl := (count + 3) / 4
	if len(buf) < ctrl {
		return -1
	}
	size := ctrl
	for i := range count {
		size += int(buf[i/4]>>(2*(i%4))&3) + 1
	}
	return size
}
