// Package iht implements the internal handler thread: the sole consumer of
// encoded log records, responsible for decoding, formatting, and writing
// them to the configured sink.
package iht

import (
	"fmt"
	"strings"
	"time"

	"github.com/sdahmani/bxibase/internal/wire"
)

// Basename reduces a path to its final path component by scanning from the
// end for the last '/', matching spec.md §4.C's filename-shortening rule.
func Basename(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// FormatLines renders one or more output lines for a decoded record. A
// message containing '\n' is split into separate lines that each carry the
// full metadata prefix (spec.md §4.C multi-line splitting). hasTid controls
// whether the ".<tid>" segment after the pid is emitted; without it the pid
// is followed directly by "=<rank>".
func FormatLines(h wire.Header, pid int, progname, filename, funcname, loggername, message string, hasTid bool) []string {
	prefix := formatPrefix(h, pid, progname, Basename(filename), funcname, loggername, hasTid)

	segments := strings.Split(message, "\n")
	lines := make([]string, len(segments))
	for i, seg := range segments {
		lines[i] = prefix + seg
	}
	return lines
}

// formatPrefix renders everything before the message body, including the
// trailing '|'.
func formatPrefix(h wire.Header, pid int, progname, basefile, funcname, loggername string, hasTid bool) string {
	ts := time.Unix(h.TimestampSec, int64(h.TimestampNsec)).Local()

	var tidField string
	if hasTid {
		tidField = fmt.Sprintf(".%05d", h.ThreadKernelID)
	}

	return fmt.Sprintf("%c|%04d%02d%02dT%02d%02d%02d.%09d|%05d%s=%05d:%s|%s:%d@%s|%s|",
		h.Level.Char(),
		ts.Year(), ts.Month(), ts.Day(), ts.Hour(), ts.Minute(), ts.Second(), ts.Nanosecond(),
		pid, tidField, h.ThreadRank, progname,
		basefile, h.Line, funcname,
		loggername,
	)
}
