package bxilog

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sdahmani/bxibase/internal/ctrlproto"
	"github.com/sdahmani/bxibase/internal/iht"
	"github.com/sdahmani/bxibase/internal/queue"
	"github.com/sdahmani/bxibase/internal/sig"
)

// State is a lifecycle controller state. Init, Finalize, Flush and
// NewProducer check against it before touching the transport. A Producer
// checks it only when created: its log methods do not re-check it, so a
// Producer obtained while Initialized keeps enqueueing onto that runtime's
// data queue after Finalize.
type State int

const (
	Unset State = iota
	Initializing
	Initialized
	Finalizing
	Finalized
	Forked
	Illegal
)

func (s State) String() string {
	switch s {
	case Unset:
		return "unset"
	case Initializing:
		return "initializing"
	case Initialized:
		return "initialized"
	case Finalizing:
		return "finalizing"
	case Finalized:
		return "finalized"
	case Forked:
		return "forked"
	case Illegal:
		return "illegal"
	default:
		return "invalid"
	}
}

// runtime is the single owned value threaded through Init/Finalize/Flush,
// mirroring the one Device a backend owns end to end: everything the
// lifecycle controller needs to tear itself back down lives here, never in
// package-level globals scattered across files.
type runtime struct {
	mu sync.Mutex

	state    State
	pid      int
	progname string
	sinkPath string
	cfg      Config

	sink      sinkHandle
	transport *queue.Transport

	ihtDone <-chan error
	watcher *sig.Watcher
	sigCh   chan iht.SignalEvent
	sigStop context.CancelFunc
	handler *sig.Handler
}

type sinkHandle struct {
	w     iht.Sink
	owned bool // true if Finalize must Close it (a path was opened, not stdout/stderr)
}

var rt = &runtime{state: Unset}

// Init starts the lifecycle: opens sink, creates the transport, starts the
// internal handler thread, and installs the signal subsystem. Calling Init
// from any state other than Unset or Finalized is illegal and moves the
// controller to Illegal without side effects.
func Init(ctx context.Context, progname, sink string, opts ...Option) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.initLocked(ctx, progname, sink, opts...)
}

func (r *runtime) initLocked(ctx context.Context, progname, sink string, opts ...Option) error {
	if r.state != Unset && r.state != Finalized {
		prev := r.state
		r.state = Illegal
		return NewError("Init", KindIllegalState, fmt.Sprintf("Init called from state %s", prev))
	}
	r.state = Initializing

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	handle, err := openSink(sink)
	if err != nil {
		r.state = Illegal
		return WrapError("Init", err)
	}

	transport := queue.New(os.Getpid(), cfg.HighWaterMark)

	sigCh := make(chan iht.SignalEvent, 4)
	sigCtx, sigCancel := context.WithCancel(context.Background())
	watcher, werr := sig.StartWatcher(sigCtx, sigCh)
	if werr != nil {
		sigCancel()
		r.state = Illegal
		return WrapError("Init", werr)
	}

	runner := iht.NewRunner(iht.Config{
		Data:        transport.Data,
		Control:     transport.Control,
		Signal:      sigCh,
		Sink:        handle.w,
		Pid:         os.Getpid(),
		Progname:    progname,
		PollTimeout: cfg.PollTimeout,
		HasTid:      true,
		Metrics:     libMetrics,
		Reraise:     reraiseSignal,
	})
	done := runner.Start()

	handshakeCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		handshakeCtx, cancel = context.WithTimeout(ctx, cfg.InitTimeout)
		defer cancel()
	}
	req := queue.NewCtrlRequest(ctrlproto.ReqReady)
	if err := transport.Control.Send(handshakeCtx, req); err != nil {
		sigCancel()
		r.state = Illegal
		return WrapError("Init", err)
	}
	reply, err := req.Wait(handshakeCtx)
	if err != nil {
		sigCancel()
		r.state = Illegal
		return WrapError("Init", err)
	}
	if verr := ctrlproto.ExpectReply(ctrlproto.ReplyReady, reply); verr != nil {
		sigCancel()
		r.state = Illegal
		return WrapError("Init", verr)
	}

	r.pid = os.Getpid()
	r.progname = progname
	r.sinkPath = sink
	r.cfg = cfg
	r.sink = handle
	r.transport = transport
	r.ihtDone = done
	r.watcher = watcher
	r.sigCh = sigCh
	r.sigStop = sigCancel
	r.handler = sig.Install(transport.Control, transport.Data)

	r.state = Initialized
	return nil
}

// reraiseSignal restores signum's default disposition and re-raises it to
// the process; the internal handler thread calls it after flushing a fatal
// signal read from the signalfd.
func reraiseSignal(signum int) {
	signal.Reset(syscall.Signal(signum))
	_ = syscall.Kill(os.Getpid(), syscall.Signal(signum))
}

// Finalize stops the internal handler thread, drains and syncs any
// remaining records, and releases the sink. Calling Finalize from any state
// other than Initialized is illegal.
func Finalize() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.finalizeLocked()
}

func (r *runtime) finalizeLocked() error {
	if r.state != Initialized {
		prev := r.state
		r.state = Illegal
		return NewError("Finalize", KindIllegalState, fmt.Sprintf("Finalize called from state %s", prev))
	}
	r.state = Finalizing

	r.handler.Stop()
	r.sigStop()
	_ = r.watcher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.InitTimeout)
	defer cancel()
	req := queue.NewCtrlRequest(ctrlproto.ReqExit)
	var ihtErr error
	if err := r.transport.Control.Send(ctx, req); err != nil {
		ihtErr = WrapError("Finalize", err)
	} else {
		select {
		case err := <-r.ihtDone:
			ihtErr = err
		case <-ctx.Done():
			ihtErr = NewError("Finalize", KindSystemError, "internal handler thread did not exit before deadline")
		}
	}

	if r.sink.owned {
		if f, ok := r.sink.w.(*os.File); ok {
			_ = f.Close()
		}
	}

	r.state = Finalized
	r.transport = nil
	r.watcher = nil
	r.handler = nil
	r.ihtDone = nil
	return ihtErr
}

// Flush requests the internal handler thread drain and sync every record
// enqueued before the call, blocking until it replies or ctx is done. A
// Flush outside Initialized is a silent no-op: log statements issued from a
// non-Initialized process are already no-ops, so there is nothing to flush.
func Flush(ctx context.Context) error {
	rt.mu.Lock()
	if rt.state != Initialized {
		rt.mu.Unlock()
		return nil
	}
	control := rt.transport.Control
	rt.mu.Unlock()

	req := queue.NewCtrlRequest(ctrlproto.ReqFlush)
	if err := control.Send(ctx, req); err != nil {
		return WrapError("Flush", err)
	}
	reply, err := req.Wait(ctx)
	if err != nil {
		return WrapError("Flush", err)
	}
	return WrapError("Flush", ctrlproto.ExpectReply(ctrlproto.ReplyFlush, reply))
}

// CurrentState reports the lifecycle controller's current state.
func CurrentState() State {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.state
}

// PrepareFork must be called before a fork: from Initialized it finalizes
// the internal handler thread (a forked copy of a running thread makes no
// sense) and moves to Forked; from Unset or Finalized it is a no-op.
// Forking mid-transition (Initializing/Finalizing) is unrecoverable and
// aborts the process, mirroring a fork racing a backend's own teardown.
func PrepareFork() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	switch rt.state {
	case Initializing, Finalizing:
		fmt.Fprintf(os.Stderr, "bxilog: fork requested during %s, aborting\n", rt.state)
		os.Exit(ExitSoftware)
	case Initialized:
		_ = rt.finalizeLocked()
		rt.state = Forked
	case Unset, Finalized:
		// nothing running, nothing to quiesce
	}
}

// ParentPostFork resumes logging in the parent after a fork by
// re-initializing with the remembered progname and sink.
func ParentPostFork() error {
	rt.mu.Lock()
	if rt.state != Forked {
		rt.mu.Unlock()
		return nil
	}
	progname, sink := rt.progname, rt.sinkPath
	rt.state = Finalized
	rt.mu.Unlock()
	return Init(context.Background(), progname, sink)
}

// ChildPostFork settles the child's lifecycle controller after a fork
// without resuming logging: the child lands in Finalized, exactly as if it
// had never called Init, so every producer-path call is a silent no-op
// until the child explicitly re-initializes. Unlike ParentPostFork, it never
// calls Init itself — the parent's sink and internal handler thread are not
// the child's to inherit, and re-init on the child's behalf would hide a
// decision (which sink, which progname) that is the child's to make.
func ChildPostFork() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.state != Forked {
		return nil
	}
	rt.progname = ""
	rt.sinkPath = ""
	rt.state = Finalized
	return nil
}
