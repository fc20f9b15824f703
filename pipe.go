package bytering

import (
	"errors"
	"io"
	"sync"
)

var (
	_ io.Reader     = (*PipeReader)(nil)
	_ io.WriterTo   = (*PipeReader)(nil)
	_ io.Closer     = (*PipeReader)(nil)
	_ io.Writer     = (*PipeWriter)(nil)
	_ io.ReaderFrom = (*PipeWriter)(nil)
	_ io.Closer     = (*PipeWriter)(nil)
)

// copyChunk bounds the scratch space used by WriteTo and ReadFrom.
const copyChunk = 32 * 1024

// elastic is the state shared by both halves of a Pipe. ring, rerr and werr
// are guarded by mu.
type elastic struct {
	mu      sync.Mutex
	pending sync.Cond // signalled when bytes arrive or a side closes
	ring    *RingBuffer

	rerr error // set once by the read side, reported to writers and to readers after drain
	werr error // set once by the write side, reported to readers after drain
}

// Pipe creates a pipe whose writer never waits for the reader: the ring between
// them grows to absorb bursts and shrinks back once the reader catches up.
// The options configure that ring.
func Pipe(opts ...Option) (*PipeReader, *PipeWriter, error) {
	ring, err := New(opts...)
	if err != nil {
		return nil, nil, err
	}

	e := &elastic{ring: ring}
	e.pending.L = &e.mu
	return &PipeReader{e}, &PipeWriter{e}, nil
}

// drain blocks until bytes are queued or no more can arrive, then pops up to
// len(b) of them.
func (e *elastic) drain(b []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for e.ring.IsEmpty() {
		switch {
		case e.rerr != nil:
			return 0, e.rerr
		case e.werr != nil:
			return 0, e.werr
		}
		e.pending.Wait()
	}
	return e.ring.Read(b)
}

func (e *elastic) fill(b []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.rerr != nil:
		return 0, e.rerr
	case e.werr != nil:
		return 0, io.ErrClosedPipe
	case len(b) == 0:
		return 0, nil
	}

	n, err := e.ring.Write(b)
	if n > 0 {
		e.pending.Signal()
	}
	return n, err
}

func (e *elastic) closeRead(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rerr == nil {
		if err == nil {
			err = io.ErrClosedPipe
		}
		e.rerr = err
	}
	e.pending.Broadcast()
}

func (e *elastic) closeWrite(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.werr == nil {
		if err == nil {
			err = io.EOF
		}
		e.werr = err
	}
	e.pending.Broadcast()
}

func (e *elastic) stats() (buffered, capacity int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ring.Len(), e.ring.Cap()
}

// PipeReader is the read half of a pipe.
type PipeReader struct {
	e *elastic
}

// Read implements io.Reader. It blocks until data is buffered or the pipe is
// closed. Bytes written before either side closed stay readable.
//
// When a read drains a grown ring and shrinking it fails, Read returns the bytes
// together with an error wrapping ErrAllocation; the pipe remains usable.
func (r *PipeReader) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	return r.e.drain(b)
}

// Buffered returns the number of bytes written but not yet read.
func (r *PipeReader) Buffered() int {
	n, _ := r.e.stats()
	return n
}

// Cap returns the current capacity of the ring between the two halves.
func (r *PipeReader) Cap() int {
	_, c := r.e.stats()
	return c
}

// Close closes the read side. Later writes fail with io.ErrClosedPipe.
func (r *PipeReader) Close() error {
	r.e.closeRead(nil)
	return nil
}

// CloseWithError closes the read side. Later writes, and reads once the
// buffered bytes are gone, fail with err. Only the first close takes effect.
func (r *PipeReader) CloseWithError(err error) error {
	r.e.closeRead(err)
	return nil
}

// WriteTo implements io.WriterTo. It copies until the write side closes
// cleanly, returning a nil error in that case.
func (r *PipeReader) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, copyChunk)
	var total int64
	for {
		n, err := r.e.drain(buf)
		if n > 0 {
			written, werr := w.Write(buf[:n])
			total += int64(written)
			if werr != nil {
				return total, werr
			}
			if written != n {
				return total, io.ErrShortWrite
			}
		}
		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// PipeWriter is the write half of a pipe.
type PipeWriter struct {
	e *elastic
}

// Write implements io.Writer. It never waits for the reader. Once either side
// has closed, Write fails even when b is empty. An error wrapping ErrAllocation
// means none of b was queued.
func (w *PipeWriter) Write(b []byte) (int, error) {
	return w.e.fill(b)
}

// Close closes the write side. Readers see io.EOF after the buffered bytes.
func (w *PipeWriter) Close() error {
	w.e.closeWrite(nil)
	return nil
}

// CloseWithError closes the write side. Readers see err after the buffered
// bytes. Only the first close takes effect.
func (w *PipeWriter) CloseWithError(err error) error {
	w.e.closeWrite(err)
	return nil
}

// ReadFrom implements io.ReaderFrom. It copies from src until io.EOF, which is
// not reported, or until src or the pipe fails.
func (w *PipeWriter) ReadFrom(src io.Reader) (int64, error) {
	buf := make([]byte, copyChunk)
	var total int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			written, err := w.e.fill(buf[:n])
			total += int64(written)
			if err != nil {
				return total, err
			}
		}
		if errors.Is(rerr, io.EOF) {
			return total, nil
		}
		if rerr != nil {
			return total, rerr
		}
	}
}
