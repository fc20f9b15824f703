package bytering

import "errors"

var (
	// ErrAllocation is returned when storage for the buffer cannot be obtained.
	// The buffer is left in its last valid state.
	ErrAllocation = errors.New("bytering: allocation failed")

	// ErrEmpty is returned when reading from a buffer with no live bytes.
	ErrEmpty = errors.New("bytering: buffer is empty")

	// ErrIndexOutOfRange is returned by Peek for an index outside [0, Len()).
	ErrIndexOutOfRange = errors.New("bytering: index out of range")

	// ErrInvalidCapacity is returned by New for a non-positive base capacity.
	ErrInvalidCapacity = errors.New("bytering: invalid capacity")
)
