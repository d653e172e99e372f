package scan

// view maps the logical traversal order of level 0 onto the physical array.
// Logical index 0 always starts a segment.
type view interface {
	index(k int) int
	head(k int) bool
}

type forward struct {
	flags []uint32
}

func (v forward) index(k int) int { return k }

func (v forward) head(k int) bool {
	return k == 0 || (v.flags != nil && v.flags[k] != 0)
}

// backward mirrors the array: logical k is physical n-1-k, and it starts a segment
// if the physical element after it carries a head flag.
type backward struct {
	n     int
	flags []uint32
}

func (v backward) index(k int) int { return v.n - 1 - k }

func (v backward) head(k int) bool {
	return k == 0 || (v.flags != nil && v.flags[v.n-k] != 0)
}
