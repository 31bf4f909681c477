package bxilog

import (
	"bytes"
	"context"
	"sync"

	"github.com/sdahmani/bxibase/internal/ctrlproto"
	"github.com/sdahmani/bxibase/internal/iht"
	"github.com/sdahmani/bxibase/internal/queue"
	"github.com/sdahmani/bxibase/internal/tsd"
)

// MemorySink is an in-memory iht.Sink for tests that want to assert on
// exactly what the internal handler thread wrote, without a real file. Fd
// returns 0 (standard input), so the Runner's fdatasync never touches this
// buffer; see Fd.
type MemorySink struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *MemorySink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

// Fd satisfies iht.Sink by returning 0, the process's standard input. The
// Runner's fdatasync therefore targets stdin: on a tty, pipe or /dev/null it
// fails with EINVAL, which the Runner ignores; on a regular file it
// succeeds; if stdin is closed it fails with EBADF, which the Runner chains
// as an error.
func (s *MemorySink) Fd() uintptr { return 0 }

// String returns everything written so far.
func (s *MemorySink) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// Lines splits the sink's contents into non-empty newline-terminated lines,
// without the trailing newline.
func (s *MemorySink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, l := range bytes.Split(s.buf.Bytes(), []byte("\n")) {
		if len(l) > 0 {
			out = append(out, string(l))
		}
	}
	return out
}

// Harness wires a Runner directly to a MemorySink and exposes raw producer
// handles bound to the same transport, bypassing Init/Finalize's sink-path
// parsing and signal-subsystem wiring entirely. It is the deterministic
// substitute for exercising the full lifecycle controller in tests that
// only care about producer-to-IHT record flow: no real OS threads beyond the
// IHT's own goroutine, no signals.
type Harness struct {
	Sink      *MemorySink
	Transport *queue.Transport
	runner    *iht.Runner
	done      <-chan error
}

// NewHarness starts an internal handler thread bound to an in-memory sink
// and a fresh transport, and completes the READY handshake before
// returning, mirroring Init's synchronous startup contract.
func NewHarness(t testingT, progname string) *Harness {
	t.Helper()

	sink := &MemorySink{}
	transport := queue.New(1, 1024)
	runner := iht.NewRunner(iht.Config{
		Data:        transport.Data,
		Control:     transport.Control,
		Sink:        sink,
		Pid:         1,
		Progname:    progname,
		PollTimeout: DefaultPollTimeout,
		HasTid:      true,
		Metrics:     libMetrics,
	})
	done := runner.Start()

	ctx, cancel := context.WithTimeout(context.Background(), DefaultConfig().InitTimeout)
	defer cancel()
	req := queue.NewCtrlRequest(ctrlproto.ReqReady)
	if err := transport.Control.Send(ctx, req); err != nil {
		t.Fatalf("harness: ready request: %v", err)
	}
	if _, err := req.Wait(ctx); err != nil {
		t.Fatalf("harness: ready reply: %v", err)
	}

	return &Harness{Sink: sink, Transport: transport, runner: runner, done: done}
}

// NewProducer returns a Producer bound to the harness's transport.
func (h *Harness) NewProducer() *Producer {
	return &Producer{inner: tsd.New(h.Transport.Data, h.Transport.Control, DefaultScratchBufferSize)}
}

// Flush drains and syncs the harness's internal handler thread.
func (h *Harness) Flush(t testingT) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultConfig().InitTimeout)
	defer cancel()
	req := queue.NewCtrlRequest(ctrlproto.ReqFlush)
	if err := h.Transport.Control.Send(ctx, req); err != nil {
		t.Fatalf("harness: flush request: %v", err)
	}
	reply, err := req.Wait(ctx)
	if err != nil {
		t.Fatalf("harness: flush reply: %v", err)
	}
	if err := ctrlproto.ExpectReply(ctrlproto.ReplyFlush, reply); err != nil {
		t.Fatalf("harness: %v", err)
	}
}

// Close requests the internal handler thread exit and waits for it.
func (h *Harness) Close(t testingT) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultConfig().InitTimeout)
	defer cancel()
	req := queue.NewCtrlRequest(ctrlproto.ReqExit)
	if err := h.Transport.Control.Send(ctx, req); err != nil {
		t.Fatalf("harness: exit request: %v", err)
	}
	if err := <-h.done; err != nil {
		t.Fatalf("harness: internal handler thread exited with error: %v", err)
	}
}

// testingT is the subset of *testing.T the harness needs, so this file can
// stay free of a direct "testing" import and be usable from non-_test.go
// helper code if a caller wants a harness outside the test binary.
type testingT interface {
	Helper()
	Fatalf(format string, args ...any)
}
