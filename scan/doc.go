/*
Package scan implements a multi-level segmented scan on top of package device.

A segmented scan splits its input into contiguous segments, each starting at an
element with a non-zero head flag, and computes an independent prefix reduction
inside every segment. Scans run forward or backward, inclusive or exclusive, under
any associative Operator; commutativity is not required.

Inputs larger than one block are processed in three steps. Every block scans its
chunk locally and emits an Aggregate. The aggregates of one level are scanned as
the (values, head flags) input of the next level, until a level fits into a single
block. Finally the resolved carries are added back top-down, each block stopping at
its first head flag.

	eng, err := scan.New(nil, scan.Traits[int, scan.Add[int]]{}, scan.DefaultConfig())
	...
	err = eng.Scan(ctx, out, in, flags)
*/
package scan

import "github.com/npillmayer/schuko/tracing"

// tracer traces with key 'segscan'.
func tracer() tracing.Trace {
	return tracing.Select("segscan")
}
