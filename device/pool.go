package device

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// pool is a persistent worker pool executing the blocks of a grid.
// Workers are spawned once at creation and reused across launches.
type pool struct {
	numWorkers int
	workC      chan workItem
	closeOnce  sync.Once
	closed     atomic.Bool
}

// workItem represents the share of one launch handed to one worker.
type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
}

func newPool(numWorkers int) *pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	p := &pool{
		numWorkers: numWorkers,
		workC:      make(chan workItem, numWorkers*2),
	}
	for range numWorkers {
		go p.worker()
	}
	return p
}

func (p *pool) worker() {
	for item := range p.workC {
		item.fn()
		item.barrier.Done()
	}
}

func (p *pool) close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.workC)
	})
}

// forEach calls fn for every index in [0, n). Indices are handed out through an
// atomic counter, so a slow block does not hold back the blocks queued behind it.
// Blocks until all calls returned.
func (p *pool) forEach(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	workers := min(p.numWorkers, n)
	if p.closed.Load() || workers == 1 {
		for i := range n {
			fn(i)
		}
		return
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		p.workC <- workItem{
			fn: func() {
				for {
					i := int(next.Add(1)) - 1
					if i >= n {
						return
					}
					fn(i)
				}
			},
			barrier: &wg,
		}
	}
	wg.Wait()
}
