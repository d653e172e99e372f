/*
Package device emulates a massively parallel processor on the CPU.

A kernel launch covers a flat grid of independent blocks. Blocks are spread over a
persistent worker pool, so at most Workers() blocks are resident at any time, much
like blocks occupying the multiprocessors of a GPU. Every block runs a fixed number
of cooperating threads (goroutines) which share one block-private value (the block's
shared memory) and one block-wide Barrier.

Blocks of one launch never communicate with each other. Anything a later launch
needs must be written to memory owned by exactly one block and read back after the
launch returned.

	dev := device.New(0)
	defer dev.Close()
	err := device.Launch(ctx, dev, device.LaunchConfig{Name: "fill", Grid: 4, Threads: 32},
	    func(block int) []int { return make([]int, 32) },
	    func(th device.Thread, smem []int) {
	        smem[th.Idx] = th.Block
	        th.Sync()
	    })
*/
package device

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'segscan'
func tracer() tracing.Trace {
	return tracing.Select("segscan")
}
