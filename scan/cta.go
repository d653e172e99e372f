package scan

import (
	"context"

	"github.com/openfluke/segscan/device"
)

// levelArgs are the kernel parameters of one scan launch.
type levelArgs[T any, O Operator[T], V view] struct {
	op        O
	view      V
	in, out   []T // may alias
	n         int
	exclusive bool
	agg       *aggregates[T] // nil at the last level
}

// scanLevel launches one block per Capacity elements of the level.
func scanLevel[T any, O Operator[T], V view](ctx context.Context, dev *device.Device, l Layout,
	a *levelArgs[T, O, V]) error {
	//
	cfg := device.LaunchConfig{
		Name:    "segscan/scan",
		Grid:    (a.n + l.Capacity - 1) / l.Capacity,
		Threads: l.Threads,
	}
	return device.Launch(ctx, dev, cfg,
		func(int) *scratch[T] { return newScratch[T](l) },
		func(th device.Thread, s *scratch[T]) { ctaScan(th, s, a) })
}

// ctaScan is the block kernel: load and reduce four elements per slot, a segmented
// up-sweep and down-sweep over the slot tree, store with carries applied, and
// finally the block's aggregate.
//
// Every thread runs the same sequence of Sync calls; only work is predicated.
func ctaScan[T any, O Operator[T], V view](th device.Thread, s *scratch[T], a *levelArgs[T, O, V]) {
	op, l := a.op, s.layout
	base := th.Block * l.Capacity
	valid := min(l.Capacity, a.n-base)
	id := op.Identity()
	slots := [slotsPerThread]int{th.Idx, th.Idx + l.Threads}

	// local inclusive values and head bits, per owned slot
	var vals [slotsPerThread][slotWidth]T
	var heads [slotsPerThread]uint8

	for h, slot := range slots {
		acc, flag, first := id, uint32(0), uint32(l.Capacity)
		for j := range slotWidth {
			local := slot*slotWidth + j
			v, head := id, true // padding
			if local < valid {
				k := base + local
				v, head = a.in[a.view.index(k)], a.view.head(k)
				if head && first == uint32(l.Capacity) {
					first = uint32(local)
				}
			}
			if head {
				acc, flag = v, 1
				heads[h] |= 1 << j
			} else {
				acc = op.Combine(acc, v)
			}
			vals[h][j] = acc
		}
		i := s.at(slot)
		s.Data[i], s.Flags[i], s.Indices[i] = acc, flag, first
	}

	// up-sweep
	offset := 1
	for d := l.Slots >> 1; d > 0; d >>= 1 {
		th.Sync()
		if th.Idx < d {
			ai := s.at(offset*(2*th.Idx+1) - 1)
			bi := s.at(offset*(2*th.Idx+2) - 1)
			if s.Flags[bi] == 0 {
				s.Data[bi] = op.Combine(s.Data[ai], s.Data[bi])
			}
			s.Flags[bi] |= s.Flags[ai]
			s.Indices[bi] = min(s.Indices[ai], s.Indices[bi])
		}
		offset <<= 1
	}
	th.Sync()
	if th.Idx == 0 {
		root := s.at(l.Slots - 1)
		s.Boundary = s.Indices[root]
		s.Data[root] = id
	}

	// down-sweep: every node receives the inclusive value of the element just before it
	for d := 1; d < l.Slots; d <<= 1 {
		offset >>= 1
		th.Sync()
		if th.Idx < d {
			ai := s.at(offset*(2*th.Idx+1) - 1)
			bi := s.at(offset*(2*th.Idx+2) - 1)
			left := s.Data[ai]
			s.Data[ai] = s.Data[bi]
			if s.Flags[ai] != 0 {
				s.Data[bi] = left
			} else {
				s.Data[bi] = op.Combine(s.Data[bi], left)
			}
		}
	}
	th.Sync()

	for h, slot := range slots {
		first := slot * slotWidth
		if first >= valid {
			continue
		}
		carry := s.Data[s.at(slot)]
		incl := vals[h]
		for j := range slotWidth {
			if heads[h]&(1<<j) != 0 {
				break
			}
			incl[j] = op.Combine(carry, incl[j])
		}
		prev := carry
		for j := range min(slotWidth, valid-first) {
			p := a.view.index(base + first + j)
			assertRange(p, 0, a.n, "element")
			switch {
			case !a.exclusive:
				a.out[p] = incl[j]
			case heads[h]&(1<<j) != 0:
				a.out[p] = id
			default:
				a.out[p] = prev
			}
			prev = incl[j]
		}
		if first+slotWidth >= valid {
			s.Tail = incl[valid-first-1]
		}
	}
	th.Sync()

	if th.Idx == 0 && a.agg != nil {
		a.agg.put(th.Block, s.Tail, s.Boundary, l.Capacity)
	}
}
