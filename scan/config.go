package scan

import (
	"fmt"

	"github.com/openfluke/segscan/device"
)

// Config describes the block shape of an Engine.
type Config struct {
	// Threads per block, a power of two in 1..device.MaxThreadsPerBlock.
	// Every block scans 8×Threads elements.
	Threads int
	// Workers sizes the device New creates when it is given no device.
	// 0 means GOMAXPROCS.
	Workers int
}

// DefaultConfig returns 128 threads per block, i.e. 1024 elements per block.
func DefaultConfig() Config {
	return Config{Threads: 128}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Threads < 1 || c.Threads > device.MaxThreadsPerBlock {
		return fmt.Errorf("%w: %d threads per block", ErrInvalidConfig, c.Threads)
	}
	if c.Threads&(c.Threads-1) != 0 {
		return fmt.Errorf("%w: threads per block must be a power of two, have %d", ErrInvalidConfig, c.Threads)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: negative worker count", ErrInvalidConfig)
	}
	return nil
}

// Capacity is the number of elements one block scans.
func (c Config) Capacity() int {
	return slotsPerThread * slotWidth * c.Threads
}
