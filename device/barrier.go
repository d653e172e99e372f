package device

import "sync"

// Barrier is a reusable (cyclic) rendezvous point for the threads of one block.
//
// All parties must call Wait the same number of times, in the same order. A barrier
// reached under a condition that not every thread of the block satisfies leaves the
// other threads waiting forever; kernels must predicate work, never barriers.
type Barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	parties int
	waiting int
	phase   uint64
	broken  bool
}

// NewBarrier creates a barrier for the given number of parties.
func NewBarrier(parties int) *Barrier {
	if parties < 1 {
		parties = 1
	}
	b := &Barrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Wait blocks until all parties arrived for the current phase. It returns false if
// the barrier has been broken before the phase completed.
func (b *Barrier) Wait() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.broken {
		return false
	}
	phase := b.phase
	b.waiting++
	if b.waiting == b.parties {
		b.waiting = 0
		b.phase++
		b.cond.Broadcast()
		return true
	}
	for phase == b.phase && !b.broken {
		b.cond.Wait()
	}
	return phase != b.phase
}

// Break releases all current and future waiters. Used when a thread dies and the
// remaining threads would otherwise wait for it forever.
func (b *Barrier) Break() {
	b.mu.Lock()
	b.broken = true
	b.mu.Unlock()
	b.cond.Broadcast()
}

// Broken reports whether Break has been called.
func (b *Barrier) Broken() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.broken
}
