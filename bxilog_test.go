package bxilog

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBasicLineFormat(t *testing.T) {
	h := NewHarness(t, "prog")
	defer h.Close(t)

	logger := New("t")
	logger.SetLevel(Output)

	p := h.NewProducer()
	defer p.Release()
	require.NoError(t, p.Out(logger, "hello"))
	h.Flush(t)

	lines := h.Sink.Lines()
	require.Len(t, lines, 1)
	re := regexp.MustCompile(`^O\|\d{8}T\d{6}\.\d{9}\|\d{5}\.\d{5}=\d{5}:prog\|[^:]+:\d+@[^|]+\|t\|hello$`)
	require.Regexp(t, re, lines[0])
}

func TestLevelFilterDropsRecord(t *testing.T) {
	h := NewHarness(t, "prog")
	defer h.Close(t)

	logger := New("t")
	logger.SetLevel(Warning)

	p := h.NewProducer()
	defer p.Release()
	require.NoError(t, p.Info(logger, "x"))
	h.Flush(t)

	require.Empty(t, h.Sink.Lines())
}

func TestMultiLineSplitting(t *testing.T) {
	h := NewHarness(t, "prog")
	defer h.Close(t)

	logger := New("t")
	logger.SetLevel(Output)

	p := h.NewProducer()
	defer p.Release()
	require.NoError(t, p.Out(logger, "a\nb\nc"))
	h.Flush(t)

	lines := h.Sink.Lines()
	require.Len(t, lines, 3)
	require.Regexp(t, `\|a$`, lines[0])
	require.Regexp(t, `\|b$`, lines[1])
	require.Regexp(t, `\|c$`, lines[2])
}

func TestPrefixConfiguration(t *testing.T) {
	a := New("a")
	ab := New("a.b")
	ac := New("a.c")
	defer Unregister(a)
	defer Unregister(ab)
	defer Unregister(ac)

	ConfigureRegistered([]ConfigItem{
		{Prefix: "", Level: Lowest},
		{Prefix: "a", Level: Output},
		{Prefix: "a.b", Level: Warning},
	})

	require.Equal(t, Output, a.Level())
	require.Equal(t, Warning, ab.Level())
	require.Equal(t, Output, ac.Level())
}

func TestFlushIsIdempotent(t *testing.T) {
	h := NewHarness(t, "prog")
	defer h.Close(t)

	h.Flush(t)
	h.Flush(t)
}

func TestStatsTracksEnqueueAndWrite(t *testing.T) {
	h := NewHarness(t, "prog")
	defer h.Close(t)

	logger := New("stats-test")
	logger.SetLevel(Output)
	defer Unregister(logger)

	before := Stats()

	p := h.NewProducer()
	defer p.Release()
	require.NoError(t, p.Out(logger, "one"))
	require.NoError(t, p.Out(logger, "two"))
	h.Flush(t)

	after := Stats()
	require.GreaterOrEqual(t, after.Enqueued, before.Enqueued+2)
	require.GreaterOrEqual(t, after.Written, before.Written+2)
}

func TestChildPostForkDoesNotAutoReinit(t *testing.T) {
	sinkPath := filepath.Join(t.TempDir(), "fork-child.log")
	require.NoError(t, Init(context.Background(), "forktest", sinkPath))
	require.Equal(t, Initialized, CurrentState())

	PrepareFork()
	require.Equal(t, Forked, CurrentState())

	require.NoError(t, ChildPostFork())
	require.Equal(t, Finalized, CurrentState())

	// A log call from the child after this point is a silent no-op: it
	// must not resurrect the parent's internal handler thread or require
	// one to exist.
	logger := New("fork-child")
	defer Unregister(logger)
	p := NewProducer()
	defer p.Release()
	require.NoError(t, p.Info(logger, "should not be delivered"))

	// Re-Init is legal from Finalized, confirming the child was left in a
	// clean, re-initializable state rather than some half-torn-down one.
	require.NoError(t, Init(context.Background(), "forktest-child", sinkPath))
	require.NoError(t, Finalize())
}

func TestParentPostForkResumesWithRememberedSinkAndProgname(t *testing.T) {
	sinkPath := filepath.Join(t.TempDir(), "fork-parent.log")
	require.NoError(t, Init(context.Background(), "forktest", sinkPath))
	require.Equal(t, Initialized, CurrentState())

	PrepareFork()
	require.Equal(t, Forked, CurrentState())

	require.NoError(t, ParentPostFork())
	require.Equal(t, Initialized, CurrentState())

	require.NoError(t, Finalize())
}
