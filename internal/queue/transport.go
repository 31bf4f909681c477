// Package queue implements the in-process push/pull and request/reply
// transport between producer goroutines and the internal handler thread.
// The underlying message-passing primitive is treated as an external
// collaborator by the specification this library implements; Go channels are
// the natural in-process substitute for the push/pull and request/reply
// sockets a message-passing library would otherwise provide.
package queue

import (
	"context"
	"fmt"
)

// Record is a single contiguous wire-encoded log record in flight from a
// producer to the internal handler thread. Ownership transfers to the
// queue on send; the consumer must call Release after it has finished
// decoding, mirroring the zero-copy release-callback contract of the
// underlying transport.
type Record struct {
	Buf     []byte
	release func()
}

// NewRecord wraps buf for transfer through a DataQueue. release, if non-nil,
// is invoked exactly once, after the consumer calls Release.
func NewRecord(buf []byte, release func()) *Record {
	return &Record{Buf: buf, release: release}
}

// Release returns the record's buffer to whatever pool produced it. Safe to
// call on a nil release hook.
func (r *Record) Release() {
	if r != nil && r.release != nil {
		r.release()
	}
}

// DataQueue is the push/pull data-plane endpoint: many producers push,
// exactly one internal handler thread pulls.
type DataQueue struct {
	ch chan *Record
}

// NewDataQueue creates a data queue with the given high-water mark: once
// that many records are buffered, TrySend reports back-pressure.
func NewDataQueue(highWaterMark int) *DataQueue {
	if highWaterMark <= 0 {
		highWaterMark = 1
	}
	return &DataQueue{ch: make(chan *Record, highWaterMark)}
}

// TrySend performs a non-blocking push. It reports false on back-pressure
// (the channel is at its high-water mark) without blocking the caller.
func (q *DataQueue) TrySend(r *Record) bool {
	select {
	case q.ch <- r:
		return true
	default:
		return false
	}
}

// Send performs a blocking push, degrading to wait on ctx for cancellation.
func (q *DataQueue) Send(ctx context.Context, r *Record) error {
	select {
	case q.ch <- r:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv exposes the pull side for the internal handler thread's poll loop.
func (q *DataQueue) Recv() <-chan *Record {
	return q.ch
}

// Len reports the number of records currently buffered.
func (q *DataQueue) Len() int {
	return len(q.ch)
}

// Drain pulls and returns every record currently buffered without blocking.
// Used by flush and by pre-exit draining.
func (q *DataQueue) Drain() []*Record {
	var out []*Record
	for {
		select {
		case r := <-q.ch:
			out = append(out, r)
		default:
			return out
		}
	}
}

// CtrlRequest is one request/reply round-trip on the control channel.
type CtrlRequest struct {
	Payload string
	reply   chan string
}

// NewCtrlRequest creates a request carrying payload, ready to Send.
func NewCtrlRequest(payload string) *CtrlRequest {
	return &CtrlRequest{Payload: payload, reply: make(chan string, 1)}
}

// Reply delivers the response payload. Safe to call at most once; a second
// call is a no-op since the reply channel is already full.
func (r *CtrlRequest) Reply(payload string) {
	select {
	case r.reply <- payload:
	default:
	}
}

// Wait blocks for the reply, or until ctx is done.
func (r *CtrlRequest) Wait(ctx context.Context) (string, error) {
	select {
	case p := <-r.reply:
		return p, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ControlQueue is the request/reply control-plane endpoint between a
// producer (or the signal subsystem) and the internal handler thread.
type ControlQueue struct {
	ch chan *CtrlRequest
}

// NewControlQueue creates an unbuffered control queue: a send only
// completes once the internal handler thread has accepted the request.
func NewControlQueue() *ControlQueue {
	return &ControlQueue{ch: make(chan *CtrlRequest)}
}

// Send delivers req to the internal handler thread and returns once it has
// been accepted (not once it has been replied to — call req.Wait for that).
func (q *ControlQueue) Send(ctx context.Context, req *CtrlRequest) error {
	select {
	case q.ch <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv exposes the receive side for the internal handler thread's poll loop.
func (q *ControlQueue) Recv() <-chan *CtrlRequest {
	return q.ch
}

// Transport bundles the data and control endpoints created together by
// Init, conceptually bound to "inproc://<pid>_data" and
// "inproc://<pid>_control" — names that exist only for log messages and
// diagnostics, since Go channels need no URL to avoid colliding across a
// fork the way a real message-passing socket would.
type Transport struct {
	Data    *DataQueue
	Control *ControlQueue
	pid     int
}

// New creates a Transport for the given process id and data high-water mark.
func New(pid int, dataHighWaterMark int) *Transport {
	return &Transport{
		Data:    NewDataQueue(dataHighWaterMark),
		Control: NewControlQueue(),
		pid:     pid,
	}
}

// DataURL returns the conceptual endpoint name for this transport's data
// queue, for diagnostics only.
func (t *Transport) DataURL() string { return fmt.Sprintf("inproc://%d_data", t.pid) }

// ControlURL returns the conceptual endpoint name for this transport's
// control queue, for diagnostics only.
func (t *Transport) ControlURL() string { return fmt.Sprintf("inproc://%d_control", t.pid) }
