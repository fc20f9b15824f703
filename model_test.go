package bytering_test

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/eapache/queue"

	"github.com/jacoelho/bytering"
)

// TestMatchesReferenceQueue drives a RingBuffer and an eapache queue with the
// same random operations and compares every observable result.
func TestMatchesReferenceQueue(t *testing.T) {
	for _, base := range []int{1, 3, 8, bytering.DefaultCapacity} {
		rng := rand.New(rand.NewPCG(uint64(base), 42))
		rb := newTestRing(t, bytering.WithBaseCapacity(base))
		ref := queue.New()

		for step := range 20000 {
			switch op := rng.IntN(100); {
			case op < 35:
				b := byte(rng.Uint32())
				mustPush(t, rb, b)
				ref.Add(b)

			case op < 65:
				b, err := rb.Pop()
				if ref.Length() == 0 {
					if !errors.Is(err, bytering.ErrEmpty) {
						t.Fatalf("base %d step %d: expected ErrEmpty, got %v", base, step, err)
					}
					continue
				}
				if err != nil {
					t.Fatalf("base %d step %d: Pop failed: %v", base, step, err)
				}
				if want := ref.Remove().(byte); b != want {
					t.Fatalf("base %d step %d: popped %d, want %d", base, step, b, want)
				}

			case op < 80:
				i := rng.IntN(ref.Length() + 2)
				b, err := rb.Peek(i)
				if i >= ref.Length() {
					if err == nil {
						t.Fatalf("base %d step %d: Peek(%d) on length %d succeeded", base, step, i, ref.Length())
					}
					continue
				}
				if err != nil {
					t.Fatalf("base %d step %d: Peek(%d) failed: %v", base, step, i, err)
				}
				if want := ref.Get(i).(byte); b != want {
					t.Fatalf("base %d step %d: Peek(%d) = %d, want %d", base, step, i, b, want)
				}

			case op < 88:
				chunk := make([]byte, rng.IntN(3*base+1))
				for i := range chunk {
					chunk[i] = byte(rng.Uint32())
					ref.Add(chunk[i])
				}
				mustWrite(t, rb, chunk)

			case op < 99:
				buf := make([]byte, rng.IntN(2*base+1))
				n, _ := rb.Read(buf)
				for i := range n {
					if want := ref.Remove().(byte); buf[i] != want {
						t.Fatalf("base %d step %d: read byte %d = %d, want %d", base, step, i, buf[i], want)
					}
				}

			default:
				if err := rb.Reset(); err != nil {
					t.Fatalf("base %d step %d: Reset failed: %v", base, step, err)
				}
				ref = queue.New()
			}

			checkShape(t, rb, ref.Length(), base)
		}
	}
}

func checkShape(t *testing.T, rb *bytering.RingBuffer, length, base int) {
	t.Helper()
	if rb.Len() != length {
		t.Fatalf("length %d, want %d", rb.Len(), length)
	}
	if rb.IsEmpty() != (length == 0) {
		t.Fatalf("IsEmpty %v with length %d", rb.IsEmpty(), length)
	}
	if rb.Len() > rb.Cap() || rb.Remaining() != rb.Cap()-rb.Len() {
		t.Fatalf("length %d capacity %d remaining %d", rb.Len(), rb.Cap(), rb.Remaining())
	}
	c := rb.Cap()
	if c < base || c%base != 0 || (c/base)&(c/base-1) != 0 {
		t.Fatalf("capacity %d is not base %d times a power of two", c, base)
	}
	if length == 0 && c != base {
		t.Fatalf("empty buffer kept capacity %d, base %d", c, base)
	}
}
