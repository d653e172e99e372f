package scan

import (
	"context"

	"github.com/openfluke/segscan/device"
)

// uniform is the shared memory of a distribution block.
type uniform[T any] struct {
	Carry  T
	Cutoff int
}

type distributeArgs[T any, O Operator[T], V view] struct {
	op   O
	view V
	out  []T
	n    int
	agg  *aggregates[T] // this level's records, sums scanned by the level above
}

// distributeLevel adds the resolved carries to blocks 1.. of a level. Block 0 has
// nothing before it and is not launched.
func distributeLevel[T any, O Operator[T], V view](ctx context.Context, dev *device.Device, l Layout,
	a *distributeArgs[T, O, V]) error {
	//
	cfg := device.LaunchConfig{
		Name:    "segscan/distribute",
		Grid:    a.agg.len() - 1,
		Threads: l.Threads,
	}
	return device.Launch(ctx, dev, cfg,
		func(int) *uniform[T] { return &uniform[T]{} },
		func(th device.Thread, u *uniform[T]) { distributeKernel(th, u, l.Capacity, a) })
}

// distributeKernel combines the carry into every element before the block's first
// head flag. Elements at or after it were final after the local scan.
func distributeKernel[T any, O Operator[T], V view](th device.Thread, u *uniform[T], capacity int,
	a *distributeArgs[T, O, V]) {
	//
	b := th.Block + 1
	base := b * capacity
	if th.Idx == 0 {
		u.Carry = a.agg.sums[b-1]
		u.Cutoff = min(int(a.agg.indices[b]), a.n-base)
	}
	th.Sync()
	for i := th.Idx; i < u.Cutoff; i += th.Threads {
		p := a.view.index(base + i)
		assertRange(p, 0, a.n, "element")
		a.out[p] = a.op.Combine(u.Carry, a.out[p])
	}
}
