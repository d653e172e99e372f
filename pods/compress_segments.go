package pods

import (
	"fmt"

	"github.com/openfluke/segscan/segments"
)

// SegmentsPackIn packs Flags, or unpacks Packed if Unpack is set.
type SegmentsPackIn struct {
	Flags  []uint32
	Packed []byte
	Unpack bool
}
type SegmentsPackOut struct {
	Flags    []uint32
	Packed   []byte
	Segments int
}

// SegmentsPackPod converts head flags to and from their compact encoding.
type SegmentsPackPod struct{}

func (SegmentsPackPod) Name() string { return "primitives/segments_pack" }

func (SegmentsPackPod) Run(x *ExecContext, in any) (any, error) {
	args, ok := in.(SegmentsPackIn)
	if !ok {
		return nil, fmt.Errorf("%w: SegmentsPackIn expected", ErrBadInput)
	}
	if !args.Unpack {
		return SegmentsPackOut{
			Packed:   segments.Encode(args.Flags),
			Segments: segments.Count(args.Flags),
		}, nil
	}
	flags, err := segments.Decode(args.Packed)
	if err != nil {
		return nil, err
	}
	return SegmentsPackOut{Flags: flags, Segments: segments.Count(flags)}, nil
}
