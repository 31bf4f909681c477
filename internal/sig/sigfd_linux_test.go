//go:build linux

package sig

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskOfSetsExpectedBits(t *testing.T) {
	set := maskOf([]syscall.Signal{syscall.SIGINT})
	bit := uint(syscall.SIGINT) - 1
	require.NotZero(t, set.Val[bit/64]&(1<<(bit%64)))
}

func TestNewWatcherOpensFd(t *testing.T) {
	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Close()
	require.GreaterOrEqual(t, w.Fd(), 0)
}
