package iht

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"golang.org/x/sys/unix"

	"github.com/sdahmani/bxibase/internal/ctrlproto"
	"github.com/sdahmani/bxibase/internal/levels"
	"github.com/sdahmani/bxibase/internal/metrics"
	"github.com/sdahmani/bxibase/internal/queue"
	"github.com/sdahmani/bxibase/internal/wire"
)

// Sink is the output the internal handler thread writes formatted lines to.
// *os.File satisfies it; Fd is used for fdatasync. Sync is skipped only when
// the Sink is nil; an fdatasync failing with EROFS or EINVAL is ignored, and
// any other failure is chained as an error.
type Sink interface {
	io.Writer
	Fd() uintptr
}

// SignalEvent is a decoded signal delivered to the internal handler thread
// by the signal subsystem's signalfd poll (internal/sig).
type SignalEvent struct {
	Signum int
	Desc   string
}

// Config bundles everything the internal handler thread needs at startup.
// Mirrors spec.md §4.C's IHT Context.
type Config struct {
	Data    *queue.DataQueue
	Control *queue.ControlQueue
	Signal  <-chan SignalEvent

	// Reraise is invoked after a fatal signal has been flushed to disk; it
	// restores the default disposition and re-raises the signal to the
	// process (internal/sig owns the actual unix calls).
	Reraise func(signum int)

	Sink        Sink
	Pid         int
	Progname    string
	PollTimeout time.Duration
	HasTid      bool

	// Metrics collects producer/IHT statistics. Nil disables collection.
	Metrics *metrics.Metrics
}

// Runner is the internal handler thread: the single consumer of encoded
// records, grounded on the teacher's queue.Runner ioLoop shape (explicit
// construction, a started-signal channel, runtime.LockOSThread for the
// consumer goroutine).
type Runner struct {
	cfg Config
	w   *bufio.Writer
	tid int32

	errChain []error
}

// NewRunner constructs a Runner bound to cfg. It does not start the
// goroutine; call Start for that.
func NewRunner(cfg Config) *Runner {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 500 * time.Millisecond
	}
	return &Runner{
		cfg: cfg,
		w:   bufio.NewWriter(cfg.Sink),
		tid: int32(unix.Gettid()),
	}
}

// Start spawns the consumer goroutine, pinned to its OS thread the way the
// teacher pins queue runners to theirs. It blocks until the loop has begun
// running control-request handling, then returns — matching queue.Runner's
// Start/started-channel pattern.
func (r *Runner) Start() <-chan error {
	done := make(chan error, 1)
	started := make(chan struct{})
	go r.ioLoop(started, done)
	<-started
	return done
}

func (r *Runner) ioLoop(started chan<- struct{}, done chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	close(started)

	for {
		if len(r.errChain) > 5 {
			done <- r.tooManyErrors()
			return
		}

		select {
		case rec := <-r.cfg.Data.Recv():
			r.handleRecord(rec)

		case req := <-r.cfg.Control.Recv():
			exit, err := r.handleControl(req)
			if err != nil {
				if r.chainError(err) {
					done <- r.tooManyErrors()
					return
				}
			}
			if exit {
				r.drain()
				r.sync()
				done <- nil
				return
			}

		case evt, ok := <-r.cfg.Signal:
			if !ok {
				continue
			}
			r.handleSignal(evt)

		case <-time.After(r.cfg.PollTimeout):
			if r.cfg.Metrics != nil {
				r.cfg.Metrics.RecordQueueDepth(uint64(r.cfg.Data.Len()))
			}
			r.drain()
			r.sync()
		}
	}
}

// handleRecord decodes, formats, and writes a single record, releasing its
// buffer back to the pool regardless of outcome.
func (r *Runner) handleRecord(rec *queue.Record) {
	defer rec.Release()

	h, filename, funcname, loggername, message, err := wire.Decode(rec.Buf)
	if err != nil {
		r.chainError(fmt.Errorf("decode record: %w", err))
		return
	}

	lines := FormatLines(h, r.cfg.Pid, r.cfg.Progname, string(filename), string(funcname), string(loggername), string(message), r.cfg.HasTid)
	for _, line := range lines {
		r.writeLine(line)
	}

	if r.cfg.Metrics != nil {
		recordedAt := time.Unix(h.TimestampSec, int64(h.TimestampNsec))
		latency := time.Since(recordedAt)
		if latency < 0 {
			latency = 0
		}
		r.cfg.Metrics.RecordWrite(uint64(len(rec.Buf)), uint64(latency))
	}
}

// writeLine performs the single write-per-line policy, falling back to
// stderr on failure (spec.md §4.C write policy).
func (r *Runner) writeLine(line string) {
	if _, err := r.w.WriteString(line + "\n"); err != nil {
		fmt.Fprintf(os.Stderr, "bxilog: write failed, falling back to stderr: %v\n", err)
		fmt.Fprintln(os.Stderr, line)
		return
	}
	if err := r.w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "bxilog: write failed, falling back to stderr: %v\n", err)
		fmt.Fprintln(os.Stderr, line)
	}
}

// handleControl answers a control request, reporting whether the loop
// should exit.
func (r *Runner) handleControl(req *queue.CtrlRequest) (exit bool, err error) {
	switch req.Payload {
	case ctrlproto.ReqReady:
		req.Reply(ctrlproto.ReplyReady)
	case ctrlproto.ReqFlush:
		r.drain()
		r.sync()
		if r.cfg.Metrics != nil {
			r.cfg.Metrics.RecordFlush()
		}
		req.Reply(ctrlproto.ReplyFlush)
	case ctrlproto.ReqExit:
		return true, nil
	default:
		return false, ctrlproto.Violation(req.Payload)
	}
	return false, nil
}

// drain writes out any records currently buffered without blocking, used on
// every poll timeout, explicit flush, and before exit/signal handling.
func (r *Runner) drain() {
	for _, rec := range r.cfg.Data.Drain() {
		r.handleRecord(rec)
	}
}

// sync performs fdatasync on the sink's fd, tolerating EROFS/EINVAL (sync
// unsupported on the fd, e.g. a tty) per spec.md §4.C write policy.
func (r *Runner) sync() {
	if r.cfg.Sink == nil {
		return
	}
	err := unix.Fdatasync(int(r.cfg.Sink.Fd()))
	if err != nil && !errors.Is(err, unix.EROFS) && !errors.Is(err, unix.EINVAL) {
		r.chainError(fmt.Errorf("fdatasync: %w", err))
	}
}

// handleSignal drains all pending records, formats a critical record for
// the signal, flushes, then hands off to Reraise so the crash becomes
// visible only after everything buffered is on disk (spec.md §4.E).
func (r *Runner) handleSignal(evt SignalEvent) {
	r.drain()

	now := time.Now()
	h := wire.Header{Level: levels.Critical, TimestampSec: now.Unix(), TimestampNsec: int32(now.Nanosecond())}
	lines := FormatLines(h, r.cfg.Pid, r.cfg.Progname, "", "", "bxilog.signal", fmt.Sprintf("fatal signal: %s", evt.Desc), r.cfg.HasTid)
	for _, line := range lines {
		r.writeLine(line)
	}
	r.sync()

	if r.cfg.Reraise != nil {
		r.cfg.Reraise(evt.Signum)
	}
}

// chainError appends err to the loop's error chain, returning true once the
// chain exceeds spec.md's 5-deep threshold.
func (r *Runner) chainError(err error) bool {
	r.errChain = append(r.errChain, err)
	if r.cfg.Metrics != nil {
		r.cfg.Metrics.RecordError()
	}
	return len(r.errChain) > 5
}

func (r *Runner) tooManyErrors() error {
	return fmt.Errorf("iht: too many errors (chain depth %d): %w", len(r.errChain), errors.Join(r.errChain...))
}
