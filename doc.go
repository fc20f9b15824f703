// Package bytering provides a byte ring queue that grows when a producer outruns
// its consumer and shrinks back to its base capacity once drained. The RingBuffer
// is meant for a single owner; Pipe wraps one behind a mutex for use across
// goroutines, mirroring io.Pipe semantics with an elastic buffer in between.
package bytering
