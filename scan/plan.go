package scan

// Level describes one pass of the engine. Level 0 scans the caller's data; level d+1
// scans the aggregates of level d. The last level has a single block.
type Level struct {
	Depth    int
	Elements int
	Blocks   int
}

// Levels returns the level stack for n elements and the given block capacity.
// It is empty for n == 0 or a capacity below 2.
func Levels(n, capacity int) []Level {
	if n <= 0 || capacity < 2 {
		return nil
	}
	var levels []Level
	for depth, elems := 0, n; ; depth++ {
		blocks := (elems + capacity - 1) / capacity
		levels = append(levels, Level{Depth: depth, Elements: elems, Blocks: blocks})
		if blocks == 1 {
			return levels
		}
		elems = blocks
	}
}

// arena keeps the aggregate buffers of every depth between invocations. A buffer is
// taken before its level is scanned and given back once the level below has been
// distributed.
type arena[T any] struct {
	slabs []*aggregates[T]
}

func (a *arena[T]) take(depth, blocks int) *aggregates[T] {
	for len(a.slabs) <= depth {
		a.slabs = append(a.slabs, nil)
	}
	s := a.slabs[depth]
	a.slabs[depth] = nil
	if s == nil || cap(s.sums) < blocks {
		return &aggregates[T]{
			sums:    make([]T, blocks),
			flags:   make([]uint32, blocks),
			indices: make([]uint32, blocks),
		}
	}
	s.sums, s.flags, s.indices = s.sums[:blocks], s.flags[:blocks], s.indices[:blocks]
	return s
}

func (a *arena[T]) give(depth int, s *aggregates[T]) {
	if s == nil {
		return
	}
	for len(a.slabs) <= depth {
		a.slabs = append(a.slabs, nil)
	}
	a.slabs[depth] = s
}
