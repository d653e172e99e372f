package scan

import (
	"context"
	"fmt"
	"sync"

	"github.com/openfluke/segscan/device"
)

// Engine runs segmented scans with fixed traits and block shape.
// An Engine is safe for concurrent use.
type Engine[T any, O Operator[T]] struct {
	dev    *device.Device
	owned  bool
	traits Traits[T, O]
	cfg    Config
	layout Layout
	arenas sync.Pool // of *arena[T]
}

// New creates an engine on dev. If dev is nil, the engine creates its own device
// with cfg.Workers workers, which Close releases.
func New[T any, O Operator[T]](dev *device.Device, tr Traits[T, O], cfg Config) (*Engine[T, O], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tr.Direction > Backward || tr.Mode > Exclusive {
		return nil, fmt.Errorf("%w: unknown traits %d/%d", ErrInvalidConfig, tr.Direction, tr.Mode)
	}
	e := &Engine[T, O]{
		dev:    dev,
		traits: tr,
		cfg:    cfg,
		layout: NewLayout(cfg.Threads),
	}
	if dev == nil {
		e.dev, e.owned = device.New(cfg.Workers), true
	}
	e.arenas.New = func() any { return &arena[T]{} }
	tracer().Debugf("segscan: engine %s/%s, %d threads, capacity %d", tr.Direction, tr.Mode,
		cfg.Threads, e.layout.Capacity)
	return e, nil
}

// Close releases the engine's device if New created it.
func (e *Engine[T, O]) Close() {
	if e.owned {
		e.dev.Close()
	}
}

// Capacity is the number of elements scanned by one block.
func (e *Engine[T, O]) Capacity() int {
	return e.layout.Capacity
}

// Traits returns the engine's traits.
func (e *Engine[T, O]) Traits() Traits[T, O] {
	return e.traits
}

// Scan writes the segmented scan of in to out[:len(in)]. flags marks segment heads
// with non-zero entries; nil flags scan in as one segment. in may alias out.
//
// ctx is checked between kernel launches. After a failed or cancelled scan the
// contents of out are unspecified.
func (e *Engine[T, O]) Scan(ctx context.Context, out, in []T, flags []uint32) error {
	if err := checkArgs(len(out), len(in), flags); err != nil {
		return err
	}
	return e.run(ctx, out, in, flags, e.traits.Mode == Exclusive)
}

// Reduce returns one value per segment, ordered like the segments in the array.
// Each value combines its segment in the engine's direction. The engine's mode is
// ignored.
func (e *Engine[T, O]) Reduce(ctx context.Context, in []T, flags []uint32) ([]T, error) {
	if err := checkArgs(len(in), len(in), flags); err != nil {
		return nil, err
	}
	n := len(in)
	if n == 0 {
		return nil, nil
	}
	incl := make([]T, n)
	if err := e.run(ctx, incl, in, flags, false); err != nil {
		return nil, err
	}
	isHead := func(i int) bool { return i == 0 || (flags != nil && flags[i] != 0) }
	var totals []T
	for i := range n {
		// the total sits on the element last visited in traversal order
		if e.traits.Direction == Backward && isHead(i) ||
			e.traits.Direction == Forward && (i == n-1 || isHead(i+1)) {
			totals = append(totals, incl[i])
		}
	}
	return totals, nil
}

func checkArgs(nout, nin int, flags []uint32) error {
	if flags != nil && len(flags) != nin {
		return fmt.Errorf("%w: %d flags for %d elements", ErrLengthMismatch, len(flags), nin)
	}
	if nout < nin {
		return fmt.Errorf("%w: %d < %d", ErrShortOutput, nout, nin)
	}
	return nil
}

func (e *Engine[T, O]) run(ctx context.Context, out, in []T, flags []uint32, exclusive bool) error {
	if len(in) == 0 {
		return nil
	}
	mode := Inclusive
	if exclusive {
		mode = Exclusive
	}
	elementsScanned.WithLabelValues(e.traits.Direction.String(), mode.String()).Add(float64(len(in)))
	if e.traits.Direction == Backward {
		return execute(ctx, e, backward{n: len(in), flags: flags}, out, in, exclusive)
	}
	return execute(ctx, e, forward{flags: flags}, out, in, exclusive)
}

// execute walks the level stack: local scans bottom-up, each level scanning the
// aggregates of the one below, then distribution top-down. Only level 0 sees the
// caller's direction and mode; all higher levels are forward inclusive.
func execute[T any, O Operator[T], V view](ctx context.Context, e *Engine[T, O], v V,
	out, in []T, exclusive bool) error {
	//
	levels := Levels(len(in), e.layout.Capacity)
	levelDepth.Observe(float64(len(levels)))
	ar := e.arenas.Get().(*arena[T])
	defer e.arenas.Put(ar)

	stack := make([]*aggregates[T], len(levels))
	stage := StageLocalScan
	for _, lv := range levels {
		tracer().Debugf("segscan: %s level %d: %d elements in %d blocks", stage, lv.Depth, lv.Elements, lv.Blocks)
		if lv.Blocks > 1 {
			stack[lv.Depth] = ar.take(lv.Depth, lv.Blocks)
		}
		var err error
		if lv.Depth == 0 {
			err = scanLevel(ctx, e.dev, e.layout, &levelArgs[T, O, V]{
				op: e.traits.Op, view: v, in: in, out: out, n: lv.Elements,
				exclusive: exclusive, agg: stack[0],
			})
		} else {
			below := stack[lv.Depth-1]
			err = scanLevel(ctx, e.dev, e.layout, &levelArgs[T, O, forward]{
				op: e.traits.Op, view: forward{flags: below.flags}, in: below.sums, out: below.sums,
				n: lv.Elements, agg: stack[lv.Depth],
			})
		}
		if err != nil {
			return err
		}
		stage = StageCombine
	}

	for d := len(levels) - 2; d >= 0; d-- {
		tracer().Debugf("segscan: %s level %d", StageDistribute, d)
		var err error
		if d == 0 {
			err = distributeLevel(ctx, e.dev, e.layout, &distributeArgs[T, O, V]{
				op: e.traits.Op, view: v, out: out, n: levels[0].Elements, agg: stack[0],
			})
		} else {
			below := stack[d-1]
			err = distributeLevel(ctx, e.dev, e.layout, &distributeArgs[T, O, forward]{
				op: e.traits.Op, view: forward{}, out: below.sums, n: levels[d].Elements, agg: stack[d],
			})
		}
		if err != nil {
			return err
		}
		ar.give(d, stack[d])
		stack[d] = nil
	}
	tracer().Debugf("segscan: %s", StageDone)
	return nil
}
