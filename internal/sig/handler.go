package sig

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/sdahmani/bxibase/internal/ctrlproto"
	"github.com/sdahmani/bxibase/internal/levels"
	"github.com/sdahmani/bxibase/internal/queue"
	"github.com/sdahmani/bxibase/internal/wire"
)

// internalLoggerName names the record emitted by the process-wide fatal
// signal handler, mirroring the original implementation's dedicated
// BXILOG_INTERNAL_LOGGER.
const internalLoggerName = "bxilog.internal"

// handledSignals is the process-wide handler's signal set (spec.md §4.E).
var handledSignals = []os.Signal{
	syscall.SIGSEGV, syscall.SIGBUS, syscall.SIGFPE, syscall.SIGILL,
	syscall.SIGINT, syscall.SIGTERM,
}

// fatalInProgress short-circuits recursive fatal-signal handling: a second
// fatal signal while one is already being handled aborts the process
// directly instead of re-entering the handler.
var fatalInProgress int32

// Handler is the process-wide signal handler: it emits a CRITICAL log
// record and requests internal handler thread shutdown and flush before
// re-raising a fatal signal with its default disposition restored.
type Handler struct {
	control *queue.ControlQueue
	data    *queue.DataQueue

	sigCh  chan os.Signal
	stopCh chan struct{}
}

// Install registers the process-wide handler for handledSignals, wired to
// emit a critical record on data and request control's internal handler
// thread shutdown before re-raising. Grounded on cmd/ublk-mem/main.go's
// signal.Notify + graceful-shutdown pattern, generalized from "dump
// goroutines" to "log critical, flush, then reraise". The record's pid and
// progname fields are filled in by the internal handler thread's own
// formatting pass, same as any producer-path record.
func Install(control *queue.ControlQueue, data *queue.DataQueue) *Handler {
	h := &Handler{
		control: control,
		data:    data,
		sigCh:   make(chan os.Signal, 1),
		stopCh:  make(chan struct{}),
	}
	signal.Notify(h.sigCh, handledSignals...)
	go h.run()
	return h
}

// Stop deregisters the handler without touching any in-flight signal.
func (h *Handler) Stop() {
	signal.Stop(h.sigCh)
	close(h.stopCh)
}

func (h *Handler) run() {
	for {
		select {
		case <-h.stopCh:
			return
		case s := <-h.sigCh:
			h.handle(s)
		}
	}
}

func (h *Handler) handle(s os.Signal) {
	if !atomic.CompareAndSwapInt32(&fatalInProgress, 0, 1) {
		// A fatal signal is already being handled; a second one aborts
		// immediately rather than re-entering the flush/reraise dance.
		os.Exit(128 + int(signalNumber(s)))
		return
	}

	desc := Describe(int(signalNumber(s)), 0)
	fmt.Fprintf(os.Stderr, "bxilog: fatal signal: %s\n", desc)

	buf := make([]byte, 64*1024)
	n := runtime.Stack(buf, true)
	os.Stderr.Write(buf[:n])

	h.emitCritical(desc)
	h.requestIHTShutdown()

	select {
	case <-time.After(time.Second):
	case <-h.stopCh:
	}

	reraise(s)
}

// emitCritical encodes and enqueues a CRITICAL record for the fatal signal,
// alongside the raw stderr write above, per spec.md §4.E step 2. The send is
// non-blocking and best-effort: a handler already mid-crash cannot afford to
// wait on a full data queue.
func (h *Handler) emitCritical(desc string) {
	if h.data == nil {
		return
	}
	now := time.Now()
	hdr := wire.Header{
		Level:         levels.Critical,
		TimestampSec:  now.Unix(),
		TimestampNsec: int32(now.Nanosecond()),
	}
	msg := fmt.Sprintf("fatal signal: %s", desc)
	rec := wire.Encode(hdr, nil, nil, []byte(internalLoggerName), []byte(msg))
	h.data.TrySend(queue.NewRecord(rec, nil))
}

// requestIHTShutdown sends the exit control request, best-effort: a handler
// running during a crash cannot afford to block indefinitely on a wedged
// internal handler thread.
func (h *Handler) requestIHTShutdown() {
	if h.control == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = h.control.Send(ctx, queue.NewCtrlRequest(ctrlproto.ReqExit))
}

// reraise restores the signal's default disposition and re-raises it to the
// process, per spec.md §4.E step 5.
func reraise(s os.Signal) {
	signal.Reset(s)
	_ = unix.Kill(unix.Getpid(), unix.Signal(signalNumber(s)))
}

func signalNumber(s os.Signal) syscall.Signal {
	if sig, ok := s.(syscall.Signal); ok {
		return sig
	}
	return 0
}
