package queue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetBufferSizing(t *testing.T) {
	cases := []int{0, 1, size256, size256 + 1, size1k, size4k, size16k, size16k + 1}
	for _, size := range cases {
		buf := GetBuffer(size)
		require.Len(t, buf, size)
		PutBuffer(buf)
	}
}

func TestPutBufferRoundTrip(t *testing.T) {
	buf := GetBuffer(size4k)
	require.Equal(t, size4k, cap(buf))
	PutBuffer(buf)

	again := GetBuffer(size4k)
	require.Equal(t, size4k, cap(again))
	PutBuffer(again)
}

func TestGetBufferOversizeNotPooled(t *testing.T) {
	buf := GetBuffer(size16k * 4)
	require.Len(t, buf, size16k*4)
	// Returning an oversized buffer must not panic or corrupt the pool.
	PutBuffer(buf)
}
