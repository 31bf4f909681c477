//go:build linux

package sig

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/sdahmani/bxibase/internal/iht"
)

// blockedSignals are masked on the IHT's pinned OS thread at creation so
// they arrive only through the signal fd, never as an asynchronous
// interrupt of the thread itself (spec.md §4.E IHT side).
var blockedSignals = []syscall.Signal{
	syscall.SIGSEGV, syscall.SIGBUS, syscall.SIGFPE, syscall.SIGILL,
	syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT,
}

// armedSignals is the subset the signalfd itself is armed to read back;
// SIGQUIT/SIGTERM/SIGINT stay blocked-but-unarmed and are instead handled by
// the process-wide handler in handler.go.
var armedSignals = []syscall.Signal{
	syscall.SIGSEGV, syscall.SIGBUS, syscall.SIGFPE, syscall.SIGILL,
}

// maskOf builds a Sigset_t with each listed signal's bit set, following the
// standard Linux sigset_t layout (one bit per signal, 1-indexed, packed
// into 64-bit words).
func maskOf(signals []syscall.Signal) unix.Sigset_t {
	var set unix.Sigset_t
	for _, s := range signals {
		bit := uint(s) - 1
		set.Val[bit/64] |= 1 << (bit % 64)
	}
	return set
}

// Watcher owns a signalfd armed for the crash-signal subset, having first
// blocked the full signal set on the calling OS thread.
type Watcher struct {
	fd int
}

// NewWatcher blocks blockedSignals on the calling thread and opens a
// signalfd armed for armedSignals. The calling thread must be pinned via
// runtime.LockOSThread first, and must be the same thread that goes on to
// poll the returned fd — callers should use StartWatcher rather than call
// this directly.
func NewWatcher() (*Watcher, error) {
	blockSet := maskOf(blockedSignals)
	if err := unix.PthreadSigmask(unix.SIG_BLOCK, &blockSet, nil); err != nil {
		return nil, fmt.Errorf("sig: block signals: %w", err)
	}

	armSet := maskOf(armedSignals)
	fd, err := unix.Signalfd(-1, &armSet, unix.SFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("sig: signalfd: %w", err)
	}
	return &Watcher{fd: fd}, nil
}

// StartWatcher pins a new goroutine to its own OS thread and, on that
// thread, blocks blockedSignals and opens the signalfd via NewWatcher,
// before polling it for armedSignals until ctx is done. The signal mask is
// thread-specific, so installing it anywhere other than the thread that
// actually polls the resulting fd would leave the mask without effect; this
// is why NewWatcher cannot simply be called from Init's own goroutine.
// Blocks until setup completes (or fails) before returning.
func StartWatcher(ctx context.Context, ch chan<- iht.SignalEvent) (*Watcher, error) {
	type result struct {
		w   *Watcher
		err error
	}
	res := make(chan result, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		w, err := NewWatcher()
		res <- result{w, err}
		if err != nil {
			return
		}
		w.Run(ctx, ch)
	}()
	r := <-res
	return r.w, r.err
}

// Fd returns the underlying signalfd, for callers that want to multiplex it
// alongside other descriptors themselves.
func (w *Watcher) Fd() int { return w.fd }

// Close releases the signalfd.
func (w *Watcher) Close() error {
	return unix.Close(w.fd)
}

// read blocks until the fd is readable (the caller has already observed
// this via Poll) and decodes one signalfd_siginfo.
func (w *Watcher) read() (iht.SignalEvent, error) {
	var info unix.SignalfdSiginfo
	buf := (*[unsafe.Sizeof(info)]byte)(unsafe.Pointer(&info))[:]

	n, err := unix.Read(w.fd, buf)
	if err != nil {
		return iht.SignalEvent{}, err
	}
	if n != len(buf) {
		return iht.SignalEvent{}, fmt.Errorf("sig: short signalfd read: %d bytes", n)
	}

	return iht.SignalEvent{
		Signum: int(info.Signo),
		Desc:   Describe(int(info.Signo), info.Code),
	}, nil
}

// Run polls the signalfd with a 500ms timeout and forwards decoded events
// onto ch, until ctx is done. Poll timeouts are not forwarded: the IHT's own
// main-loop timer already drives the periodic flush (spec.md §4.C).
func (w *Watcher) Run(ctx context.Context, ch chan<- iht.SignalEvent) {
	fds := []unix.PollFd{{Fd: int32(w.fd), Events: unix.POLLIN}}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := unix.Poll(fds, 500)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return
		}
		if n == 0 {
			continue
		}

		evt, err := w.read()
		if err != nil {
			continue
		}

		select {
		case ch <- evt:
		case <-ctx.Done():
			return
		}
	}
}
