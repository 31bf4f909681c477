// Package tsd implements the producer-side send context: the per-producer
// state spec.md calls the "thread-local send context" (TSD). Go has no
// thread-local storage and no per-goroutine destructors, so this package
// reinterprets TSD as an explicit handle a caller acquires once per
// goroutine and releases when done, mirroring the teacher's explicit
// Runner construction rather than any implicit, ambient magic.
package tsd

import (
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/sdahmani/bxibase/internal/queue"
)

// rankCounter hands out monotonically increasing thread ranks, the Go
// substitute for deriving a rank from a platform thread identifier.
var rankCounter uint32

// NextRank assigns the next user-visible thread rank.
func NextRank() uint16 {
	return uint16(atomic.AddUint32(&rankCounter, 1))
}

// Producer is one producer's send context: its scratch buffer, its bound
// queue endpoints, and its cached identity. Created explicitly via New, once
// per calling goroutine; released when that goroutine is done logging.
type Producer struct {
	Data    *queue.DataQueue
	Control *queue.ControlQueue

	Tid  int32
	Rank uint16

	scratch  []byte
	released bool
}

// New creates a Producer bound to the given transport endpoints, caching the
// calling goroutine's kernel tid and assigning it the next thread rank.
func New(data *queue.DataQueue, control *queue.ControlQueue, scratchSize int) *Producer {
	return &Producer{
		Data:    data,
		Control: control,
		Tid:     int32(unix.Gettid()),
		Rank:    NextRank(),
		scratch: queue.GetBuffer(scratchSize),
	}
}

// Scratch returns a buffer of at least size bytes. If the producer's
// reusable scratch buffer is big enough it is returned directly (reused
// across records); otherwise a precisely-sized pooled buffer is allocated
// and returned instead — the caller must release that overflow buffer via
// ReleaseOverflow after use, per spec.md §4.B step 3.
func (p *Producer) Scratch(size int) (buf []byte, overflow bool) {
	if size <= cap(p.scratch) {
		return p.scratch[:size], false
	}
	return queue.GetBuffer(size), true
}

// ReleaseOverflow returns a buffer obtained from Scratch with overflow=true
// back to the shared pool.
func (p *Producer) ReleaseOverflow(buf []byte) {
	queue.PutBuffer(buf)
}

// Release tears down the producer's scratch buffer. Safe to call once; a
// second call is a no-op. Cross-goroutine use of another goroutine's
// Producer is forbidden (spec.md §5 TSD lifecycle).
func (p *Producer) Release() {
	if p.released {
		return
	}
	p.released = true
	queue.PutBuffer(p.scratch)
	p.scratch = nil
}
