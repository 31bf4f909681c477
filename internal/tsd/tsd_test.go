package tsd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sdahmani/bxibase/internal/queue"
)

func newTestProducer() *Producer {
	data := queue.NewDataQueue(8)
	ctrl := queue.NewControlQueue()
	return New(data, ctrl, 128)
}

func TestNewAssignsDistinctRanks(t *testing.T) {
	p1 := newTestProducer()
	p2 := newTestProducer()
	require.NotEqual(t, p1.Rank, p2.Rank)
}

func TestScratchReusesBuffer(t *testing.T) {
	p := newTestProducer()
	buf, overflow := p.Scratch(64)
	require.False(t, overflow)
	require.Len(t, buf, 64)
}

func TestScratchOverflowsPastCapacity(t *testing.T) {
	p := newTestProducer()
	buf, overflow := p.Scratch(4096)
	require.True(t, overflow)
	require.Len(t, buf, 4096)
	p.ReleaseOverflow(buf)
}

func TestReleaseIsIdempotent(t *testing.T) {
	p := newTestProducer()
	p.Release()
	require.NotPanics(t, func() { p.Release() })
}
