package scan

const (
	slotWidth      = 4 // elements scanned sequentially by a thread per slot
	slotsPerThread = 2 // every thread owns slot t and slot t+Threads
	logBanks       = 5 // 32 shared memory banks
)

// conflictFree spreads tree slots across memory banks by inserting one padding
// word every 32 slots.
func conflictFree(i int) int {
	return i + i>>logBanks
}

// Layout describes the shared memory of one scan block. It is computed once per
// thread count.
type Layout struct {
	Threads  int // threads per block
	Slots    int // leaves of the scan tree
	Capacity int // elements per block
	Padded   int // length of each tree region including bank padding
}

// NewLayout computes the layout for the given number of threads per block.
func NewLayout(threads int) Layout {
	slots := slotsPerThread * threads
	return Layout{
		Threads:  threads,
		Slots:    slots,
		Capacity: slots * slotWidth,
		Padded:   conflictFree(slots-1) + 1,
	}
}

// Words is the shared memory footprint of one block, counted in elements of T plus
// 32-bit words for indices and flags.
func (l Layout) Words() (elements, words int) {
	return l.Padded + 2, 2*l.Padded + 1
}

// scratch is the shared memory of one scan block.
//
//	Data     tree of partial values, one per slot
//	Indices  tree of first-head indices (block-local), Capacity if none
//	Flags    tree of working flags, OR-ed during the up-sweep
//
// Tail and Boundary are block-wide scalars. The per-element head flags
// read during load stay in the threads' registers.
type scratch[T any] struct {
	layout   Layout
	Data     []T
	Indices  []uint32
	Flags    []uint32
	Tail     T
	Boundary uint32
}

func newScratch[T any](l Layout) *scratch[T] {
	words := make([]uint32, 2*l.Padded)
	return &scratch[T]{
		layout:  l,
		Data:    make([]T, l.Padded),
		Indices: words[:l.Padded:l.Padded],
		Flags:   words[l.Padded:],
	}
}

// at maps a tree slot to its padded offset.
func (s *scratch[T]) at(slot int) int {
	assertSlot(slot, s.layout.Slots)
	return conflictFree(slot)
}
