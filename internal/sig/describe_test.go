package sig

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescribeUserSignal(t *testing.T) {
	desc := Describe(int(syscall.SIGTERM), 0)
	require.Contains(t, desc, "sent by another process")
}

func TestDescribeKernelOriginIncludesSiCode(t *testing.T) {
	desc := Describe(int(syscall.SIGSEGV), 1)
	require.Contains(t, desc, "si_code=1")
}

func TestDescribeFallsBackForUnknownSignal(t *testing.T) {
	desc := Describe(999, 0)
	require.NotEmpty(t, desc)
}
