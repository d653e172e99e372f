package device

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Device is a CPU stand-in for a massively parallel processor.
// A Device is safe for concurrent launches; Close must not race with them.
type Device struct {
	pool *pool
}

// New creates a device executing up to workers blocks at the same time.
// If workers <= 0, GOMAXPROCS is used.
func New(workers int) *Device {
	d := &Device{pool: newPool(workers)}
	tracer().Infof("device: %d block workers", d.pool.numWorkers)
	return d
}

var (
	defaultDevice *Device
	defaultOnce   sync.Once
)

// Default returns a process-wide device with GOMAXPROCS workers. It is never closed.
func Default() *Device {
	defaultOnce.Do(func() {
		defaultDevice = New(0)
	})
	return defaultDevice
}

// Workers returns the number of blocks the device executes concurrently.
func (d *Device) Workers() int {
	return d.pool.numWorkers
}

// Close shuts the worker pool down. Launches after Close still complete, executing
// their blocks sequentially on the calling goroutine.
func (d *Device) Close() {
	d.pool.close()
}

// LaunchConfig describes the shape of one kernel launch.
type LaunchConfig struct {
	Name    string // kernel label used for tracing and metrics
	Grid    int    // number of blocks
	Threads int    // threads per block
}

func (cfg LaunchConfig) validate() error {
	if cfg.Grid < 0 {
		return fmt.Errorf("%w: negative grid size %d", ErrInvalidLaunch, cfg.Grid)
	}
	if cfg.Threads < 1 || cfg.Threads > MaxThreadsPerBlock {
		return fmt.Errorf("%w: %d threads per block (want 1..%d)", ErrInvalidLaunch,
			cfg.Threads, MaxThreadsPerBlock)
	}
	return nil
}

// MaxThreadsPerBlock bounds LaunchConfig.Threads.
const MaxThreadsPerBlock = 1024

// Thread identifies one thread of a running kernel.
type Thread struct {
	Idx     int // thread index within the block
	Block   int // block index within the grid
	Threads int // threads per block
	Grid    int // blocks in the grid
	bar     *Barrier
}

// Sync is the block-wide barrier. Precondition: every thread of the block executes
// the same sequence of Sync calls; calling it under a thread-dependent condition is
// undefined and will usually hang the block.
func (th Thread) Sync() {
	th.bar.Wait()
}

// Launch runs kernel once per thread for every block of the grid and returns after
// all blocks completed. shared is called once per block, before its threads start, to
// create the block's shared memory; it may be nil if the kernel needs none.
//
// The context is only consulted before the launch starts: a started launch always runs
// to completion.
func Launch[S any](ctx context.Context, d *Device, cfg LaunchConfig, shared func(block int) S,
	kernel func(th Thread, smem S)) error {
	//
	if err := cfg.validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("device: launch %q not started: %w", cfg.Name, err)
	}
	if cfg.Grid == 0 {
		return nil
	}
	start := time.Now()
	var (
		mu       sync.Mutex
		firstErr error
	)
	d.pool.forEach(cfg.Grid, func(block int) {
		if err := runBlock(cfg, block, shared, kernel); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}
	})
	elapsed := time.Since(start)
	kernelLaunches.WithLabelValues(cfg.Name).Inc()
	kernelBlocks.WithLabelValues(cfg.Name).Add(float64(cfg.Grid))
	kernelDuration.WithLabelValues(cfg.Name).Observe(elapsed.Seconds())
	if firstErr != nil {
		kernelFailures.WithLabelValues(cfg.Name).Inc()
		tracer().Errorf("device: %v", firstErr)
		return firstErr
	}
	tracer().Debugf("device: launch %s grid=%d threads=%d took %v", cfg.Name, cfg.Grid, cfg.Threads, elapsed)
	return nil
}

// runBlock executes the threads of a single block. Thread 0 runs on the calling
// goroutine, the others on their own goroutines.
func runBlock[S any](cfg LaunchConfig, block int, shared func(int) S, kernel func(Thread, S)) (err error) {
	var smem S
	if shared != nil {
		smem = shared(block)
	}
	bar := NewBarrier(cfg.Threads)
	var (
		wg   sync.WaitGroup
		once sync.Once
	)
	run := func(idx int) {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				once.Do(func() {
					err = fmt.Errorf("%w: kernel %q block %d thread %d: %v", ErrKernelPanic,
						cfg.Name, block, idx, r)
				})
				bar.Break()
			}
		}()
		kernel(Thread{Idx: idx, Block: block, Threads: cfg.Threads, Grid: cfg.Grid, bar: bar}, smem)
	}
	wg.Add(cfg.Threads)
	for idx := 1; idx < cfg.Threads; idx++ {
		go run(idx)
	}
	run(0)
	wg.Wait()
	return err
}
