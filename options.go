package bytering

import (
	"fmt"
	"log/slog"
	"math"
)

const (
	// DefaultCapacity is the base capacity used when WithBaseCapacity is not given.
	DefaultCapacity = 128

	// MaxCapacity is the largest storage the default allocator hands out.
	MaxCapacity = math.MaxInt32
)

// Allocator returns zeroed storage of exactly size bytes.
type Allocator func(size int) ([]byte, error)

// Option configures a RingBuffer.
type Option func(*config)

type config struct {
	base   int
	alloc  Allocator
	logger *slog.Logger
}

// WithBaseCapacity sets the capacity a buffer starts at and shrinks back to.
func WithBaseCapacity(n int) Option {
	return func(c *config) {
		c.base = n
	}
}

// WithAllocator replaces the allocator used for initial, grown and shrunk storage.
func WithAllocator(alloc Allocator) Option {
	return func(c *config) {
		if alloc != nil {
			c.alloc = alloc
		}
	}
}

// WithLogger sets the logger that receives resize and allocation events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func newConfig(opts []Option) (config, error) {
	c := config{
		base:   DefaultCapacity,
		alloc:  defaultAllocator,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.base <= 0 || c.base > MaxCapacity {
		return c, fmt.Errorf("bytering: base capacity %d: %w", c.base, ErrInvalidCapacity)
	}
	return c, nil
}

func defaultAllocator(size int) ([]byte, error) {
	if size <= 0 || size > MaxCapacity {
		return nil, fmt.Errorf("size %d outside (0, %d]", size, MaxCapacity)
	}
	return make([]byte, size), nil
}
