package bytering

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
)

var (
	_ io.Reader     = (*RingBuffer)(nil)
	_ io.Writer     = (*RingBuffer)(nil)
	_ io.ByteReader = (*RingBuffer)(nil)
	_ io.ByteWriter = (*RingBuffer)(nil)
)

// RingBuffer is a FIFO byte queue over a circular region. A push that finds the
// region full doubles it; a pop that empties a grown region shrinks it back to
// the base capacity.
//
// A RingBuffer is not safe for concurrent use. Use Pipe to share one between
// a producer and a consumer goroutine.
type RingBuffer struct {
	data []byte
	head int // oldest live byte
	tail int // next write slot
	n    int

	base   int
	alloc  Allocator
	logger *slog.Logger
}

// New returns an empty buffer holding the base capacity.
// It fails with ErrInvalidCapacity or ErrAllocation and a nil buffer.
func New(opts ...Option) (*RingBuffer, error) {
	c, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	r := &RingBuffer{
		base:   c.base,
		alloc:  c.alloc,
		logger: c.logger,
	}
	data, err := r.allocate(c.base)
	if err != nil {
		return nil, err
	}
	r.data = data
	return r, nil
}

// Len returns the number of unread bytes.
func (r *RingBuffer) Len() int {
	return r.n
}

// Cap returns the current capacity.
func (r *RingBuffer) Cap() int {
	return len(r.data)
}

// Base returns the capacity the buffer starts at and shrinks back to.
func (r *RingBuffer) Base() int {
	return r.base
}

// IsEmpty reports whether there are no unread bytes.
func (r *RingBuffer) IsEmpty() bool {
	return r.n == 0
}

// IsFull reports whether the current capacity is used up. The next push grows
// the buffer rather than failing.
func (r *RingBuffer) IsFull() bool {
	return r.n == len(r.data)
}

// Remaining returns how many bytes fit before the buffer has to grow.
func (r *RingBuffer) Remaining() int {
	return len(r.data) - r.n
}

// Push appends b, doubling the capacity first when the buffer is full.
// On ErrAllocation the buffer is unchanged.
func (r *RingBuffer) Push(b byte) error {
	if r.n == len(r.data) {
		if err := r.grow(r.n + 1); err != nil {
			return err
		}
	}

	r.data[r.tail] = b
	r.tail = (r.tail + 1) % len(r.data)
	r.n++
	return nil
}

// Pop removes and returns the oldest byte. It returns ErrEmpty when there is
// nothing to pop.
//
// Draining a grown buffer shrinks it to the base capacity. If that allocation
// fails the popped byte is still valid, the buffer keeps its larger storage and
// the returned error wraps ErrAllocation.
func (r *RingBuffer) Pop() (byte, error) {
	if r.n == 0 {
		return 0, ErrEmpty
	}

	b := r.data[r.head]
	r.head = (r.head + 1) % len(r.data)
	r.n--
	return b, r.drained()
}

// Peek returns the byte i positions after the oldest one without consuming it.
func (r *RingBuffer) Peek(i int) (byte, error) {
	if r.n == 0 {
		return 0, ErrEmpty
	}
	if i < 0 || i >= r.n {
		return 0, fmt.Errorf("%w: peek at %d with length %d", ErrIndexOutOfRange, i, r.n)
	}
	return r.data[(r.head+i)%len(r.data)], nil
}

// Reset discards all bytes and replaces the storage with a fresh region of the
// base capacity. If that allocation fails the buffer keeps its contents and
// storage, and the error wraps ErrAllocation.
func (r *RingBuffer) Reset() error {
	data, err := r.allocate(r.base)
	if err != nil {
		return err
	}

	r.data = data
	r.head, r.tail, r.n = 0, 0, 0
	r.logger.Debug("ring reset", "capacity", r.base)
	return nil
}

// Write appends all of p, growing as many times as needed. It either writes
// everything or, on ErrAllocation, nothing.
func (r *RingBuffer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	if len(p) > len(r.data)-r.n {
		if len(p) > math.MaxInt-r.n {
			return 0, fmt.Errorf("%w: %d bytes on top of %d overflows capacity", ErrAllocation, len(p), r.n)
		}
		if err := r.grow(r.n + len(p)); err != nil {
			return 0, err
		}
	}

	size := len(r.data)
	first := min(len(p), size-r.tail)
	copy(r.data[r.tail:r.tail+first], p[:first])
	copy(r.data[:len(p)-first], p[first:])

	r.tail = (r.tail + len(p)) % size
	r.n += len(p)
	return len(p), nil
}

// Read pops up to len(p) bytes into p. It returns io.EOF when the buffer is
// empty. Like Pop it may shrink the buffer, reporting a failed shrink
// alongside the bytes read.
func (r *RingBuffer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if r.n == 0 {
		return 0, io.EOF
	}

	n := r.copyOut(p)
	r.head = (r.head + n) % len(r.data)
	r.n -= n
	return n, r.drained()
}

// ReadByte is Pop with io.EOF in place of ErrEmpty.
func (r *RingBuffer) ReadByte() (byte, error) {
	b, err := r.Pop()
	if errors.Is(err, ErrEmpty) {
		return 0, io.EOF
	}
	return b, err
}

// WriteByte is Push.
func (r *RingBuffer) WriteByte(c byte) error {
	return r.Push(c)
}

// copyOut copies up to len(dst) live bytes, oldest first, without consuming them.
func (r *RingBuffer) copyOut(dst []byte) int {
	toRead := min(r.n, len(dst))
	if toRead == 0 {
		return 0
	}

	first := min(toRead, len(r.data)-r.head)
	copy(dst[:first], r.data[r.head:r.head+first])
	copy(dst[first:toRead], r.data[:toRead-first])
	return toRead
}

// grow moves the live bytes to the front of a region of at least need bytes,
// doubling from the current capacity.
func (r *RingBuffer) grow(need int) error {
	size, err := r.nextCapacity(need)
	if err != nil {
		r.logger.Warn("ring grow rejected", "capacity", len(r.data), "need", need, "err", err)
		return err
	}

	data, err := r.allocate(size)
	if err != nil {
		return err
	}
	r.copyOut(data)

	r.logger.Debug("ring grown", "from", len(r.data), "to", size, "len", r.n)
	r.data = data
	r.head = 0
	r.tail = r.n
	return nil
}

func (r *RingBuffer) nextCapacity(need int) (int, error) {
	size := len(r.data)
	for {
		if size > math.MaxInt/2 {
			return 0, fmt.Errorf("%w: capacity overflow doubling %d bytes", ErrAllocation, size)
		}
		size *= 2
		if size >= need {
			return size, nil
		}
	}
}

// drained rewinds an empty buffer and shrinks it to the base capacity.
func (r *RingBuffer) drained() error {
	if r.n != 0 {
		return nil
	}
	r.head, r.tail = 0, 0
	if len(r.data) <= r.base {
		return nil
	}

	data, err := r.allocate(r.base)
	if err != nil {
		return err
	}
	r.logger.Debug("ring shrunk", "from", len(r.data), "to", r.base)
	r.data = data
	return nil
}

func (r *RingBuffer) allocate(size int) ([]byte, error) {
	data, err := r.alloc(size)
	if err == nil && len(data) != size {
		err = fmt.Errorf("allocator returned %d bytes", len(data))
	}
	if err != nil {
		r.logger.Warn("ring allocation failed", "size", size, "err", err)
		return nil, fmt.Errorf("%w: %d bytes: %w", ErrAllocation, size, err)
	}
	return data, nil
}
