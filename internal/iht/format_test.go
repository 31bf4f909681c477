package iht

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sdahmani/bxibase/internal/levels"
	"github.com/sdahmani/bxibase/internal/wire"
)

func TestBasename(t *testing.T) {
	require.Equal(t, "file.go", Basename("/a/b/file.go"))
	require.Equal(t, "file.go", Basename("file.go"))
	require.Equal(t, "", Basename("/a/b/"))
}

func TestFormatLinesBasicLine(t *testing.T) {
	h := wire.Header{
		Level:          levels.Output,
		TimestampSec:   1700000000,
		TimestampNsec:  123456789,
		ThreadKernelID: 42,
		ThreadRank:     7,
		Line:           10,
	}

	lines := FormatLines(h, 99, "prog", "/src/file.c", "main", "t", "hello", true)
	require.Len(t, lines, 1)

	re := regexp.MustCompile(`^O\|\d{8}T\d{6}\.\d{9}\|\d{5}\.\d{5}=\d{5}:prog\|file\.c:\d+@main\|t\|hello$`)
	require.Regexp(t, re, lines[0])
}

func TestFormatLinesMultiLine(t *testing.T) {
	h := wire.Header{Level: levels.Output, Line: 1}
	lines := FormatLines(h, 1, "prog", "f.c", "fn", "t", "a\nb\nc", true)
	require.Len(t, lines, 3)

	bodies := []string{"a", "b", "c"}
	for i, line := range lines {
		require.Contains(t, line, "|"+bodies[i])
	}
}

func TestFormatLinesOmitsTidWhenUnavailable(t *testing.T) {
	h := wire.Header{Level: levels.Info, ThreadRank: 3, Line: 1}
	lines := FormatLines(h, 10, "prog", "f.c", "fn", "t", "m", false)
	require.Len(t, lines, 1)
	require.Regexp(t, regexp.MustCompile(`^I\|\d{8}T\d{6}\.\d{9}\|\d{5}=\d{5}:prog\|`), lines[0])
}
