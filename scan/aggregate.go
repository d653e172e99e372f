package scan

// Aggregate summarizes one scanned block for the level above it.
type Aggregate[T any] struct {
	// Sum is the inclusive result of the block's last element: everything since the
	// block's last head flag, or the whole block if it has none.
	Sum T
	// HasFlag reports a head flag anywhere in the block.
	HasFlag bool
	// BoundaryIndex is the block-local index of the first head flag, or the block
	// capacity if there is none. Carries from earlier blocks stop there.
	BoundaryIndex uint32
}

// aggregates stores the records of one level as parallel arrays, so that sums and
// flags serve directly as values and head flags of the next level.
type aggregates[T any] struct {
	sums    []T
	flags   []uint32
	indices []uint32
}

func (a *aggregates[T]) len() int {
	return len(a.sums)
}

func (a *aggregates[T]) put(block int, sum T, boundary uint32, capacity int) {
	a.sums[block] = sum
	a.indices[block] = boundary
	a.flags[block] = 0
	if int(boundary) < capacity {
		a.flags[block] = 1
	}
}

func (a *aggregates[T]) record(block int) Aggregate[T] {
	return Aggregate[T]{
		Sum:           a.sums[block],
		HasFlag:       a.flags[block] != 0,
		BoundaryIndex: a.indices[block],
	}
}

// records copies the level out as a slice of records.
func (a *aggregates[T]) records() []Aggregate[T] {
	out := make([]Aggregate[T], a.len())
	for b := range out {
		out[b] = a.record(b)
	}
	return out
}
