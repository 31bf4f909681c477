package bxilog

import "github.com/sdahmani/bxibase/internal/metrics"

// libMetrics is the process-wide counter set shared by every Producer and
// the internal handler thread's Runner. Allocated once at package load so
// Stats() is always safe to call, even before Init.
var libMetrics = metrics.New()

// Stats returns a point-in-time snapshot of producer and internal handler
// thread activity: records enqueued/written, bytes written, degraded sends,
// flush count, chained errors, queue depth, and write-latency percentiles.
func Stats() metrics.Snapshot {
	return libMetrics.Snapshot()
}
