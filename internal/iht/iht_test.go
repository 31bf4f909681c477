package iht

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sdahmani/bxibase/internal/ctrlproto"
	"github.com/sdahmani/bxibase/internal/levels"
	"github.com/sdahmani/bxibase/internal/queue"
	"github.com/sdahmani/bxibase/internal/wire"
)

func newTestRunner(t *testing.T) (*Runner, *os.File, func()) {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "iht-test-*")
	require.NoError(t, err)

	data := queue.NewDataQueue(64)
	ctrl := queue.NewControlQueue()

	r := NewRunner(Config{
		Data:        data,
		Control:     ctrl,
		Sink:        f,
		Pid:         123,
		Progname:    "prog",
		PollTimeout: 50 * time.Millisecond,
		HasTid:      true,
	})

	return r, f, func() { f.Close() }
}

func sendControl(t *testing.T, ctrl *queue.ControlQueue, payload string) string {
	t.Helper()
	req := queue.NewCtrlRequest(payload)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, ctrl.Send(ctx, req))
	reply, err := req.Wait(ctx)
	require.NoError(t, err)
	return reply
}

func TestReadyHandshake(t *testing.T) {
	r, _, cleanup := newTestRunner(t)
	defer cleanup()

	done := r.Start()
	reply := sendControl(t, r.cfg.Control, ctrlproto.ReqReady)
	require.Equal(t, ctrlproto.ReplyReady, reply)

	sendExit(t, r.cfg.Control)
	require.NoError(t, <-done)
}

func sendExit(t *testing.T, ctrl *queue.ControlQueue) {
	t.Helper()
	req := queue.NewCtrlRequest(ctrlproto.ReqExit)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, ctrl.Send(ctx, req))
}

func TestRecordRoundTrip(t *testing.T) {
	r, f, cleanup := newTestRunner(t)
	defer cleanup()

	done := r.Start()

	h := wire.Header{Level: levels.Output, Line: 5}
	buf := wire.Encode(h, []byte("file.go"), []byte("main"), []byte("t"), []byte("hello"))
	rec := queue.NewRecord(buf, nil)
	require.True(t, r.cfg.Data.TrySend(rec))

	sendControl(t, r.cfg.Control, ctrlproto.ReqFlush)

	sendExit(t, r.cfg.Control)
	require.NoError(t, <-done)

	contents, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	require.Contains(t, string(contents), "|hello\n")
}

func TestProtocolViolationDoesNotCrashLoop(t *testing.T) {
	r, _, cleanup := newTestRunner(t)
	defer cleanup()

	done := r.Start()

	req := queue.NewCtrlRequest("garbage")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.cfg.Control.Send(ctx, req))

	// Loop keeps running after one protocol violation (chain depth 1 <= 5).
	sendControl(t, r.cfg.Control, ctrlproto.ReqReady)

	sendExit(t, r.cfg.Control)
	require.NoError(t, <-done)
}
