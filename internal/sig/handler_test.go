package sig

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sdahmani/bxibase/internal/ctrlproto"
	"github.com/sdahmani/bxibase/internal/queue"
)

func TestInstallAndStop(t *testing.T) {
	ctrl := queue.NewControlQueue()
	h := Install(ctrl, nil)
	require.NotNil(t, h)
	h.Stop()
}

func TestSignalNumber(t *testing.T) {
	require.Equal(t, syscall.SIGINT, signalNumber(syscall.SIGINT))
}

func TestRequestIHTShutdownSendsExit(t *testing.T) {
	ctrl := queue.NewControlQueue()
	h := &Handler{control: ctrl, stopCh: make(chan struct{})}

	received := make(chan string, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		select {
		case req := <-ctrl.Recv():
			received <- req.Payload
		case <-ctx.Done():
		}
	}()

	h.requestIHTShutdown()

	select {
	case payload := <-received:
		require.Equal(t, ctrlproto.ReqExit, payload)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for exit request")
	}
}
