// Package metrics tracks producer-path and internal-handler-thread
// statistics: records enqueued and written, bytes written, queue depth, and
// enqueue-to-write latency. Adapted from a block-device I/O metrics
// structure of the same shape (atomic counters plus a cumulative latency
// histogram with percentile interpolation).
package metrics

import (
	"sync/atomic"
	"time"
)

// latencyBuckets are enqueue-to-write latency boundaries in nanoseconds,
// from 100us to 10s.
var latencyBuckets = []uint64{
	100_000,
	1_000_000,
	10_000_000,
	100_000_000,
	1_000_000_000,
	10_000_000_000,
}

const numBuckets = 6

// Metrics is a set of atomic counters safe for concurrent use by every
// producer goroutine and the single internal handler thread.
type Metrics struct {
	Enqueued      atomic.Uint64 // records successfully enqueued
	Written       atomic.Uint64 // records decoded and written by the IHT
	DegradedSends atomic.Uint64 // non-blocking retries exhausted, fell back to blocking
	FlushCount    atomic.Uint64
	Errors        atomic.Uint64
	BytesWritten  atomic.Uint64

	QueueDepthTotal atomic.Uint64
	QueueDepthCount atomic.Uint64
	MaxQueueDepth   atomic.Uint64

	TotalLatencyNs atomic.Uint64
	LatencyBuckets [numBuckets]atomic.Uint64

	StartTime atomic.Int64
}

// New creates a Metrics instance with StartTime set to now.
func New() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordEnqueue marks one record accepted onto the data queue.
func (m *Metrics) RecordEnqueue() { m.Enqueued.Add(1) }

// RecordDegradedSend marks a producer exhausting its non-blocking retries.
func (m *Metrics) RecordDegradedSend() { m.DegradedSends.Add(1) }

// RecordWrite marks one record written by the internal handler thread,
// latencyNs nanoseconds after it was enqueued.
func (m *Metrics) RecordWrite(bytes uint64, latencyNs uint64) {
	m.Written.Add(1)
	m.BytesWritten.Add(bytes)
	m.TotalLatencyNs.Add(latencyNs)
	for i, b := range latencyBuckets {
		if latencyNs <= b {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// RecordFlush marks one completed FLUSH round-trip.
func (m *Metrics) RecordFlush() { m.FlushCount.Add(1) }

// RecordError marks one internal handler thread error chained.
func (m *Metrics) RecordError() { m.Errors.Add(1) }

// RecordQueueDepth records one data-queue depth sample.
func (m *Metrics) RecordQueueDepth(depth uint64) {
	m.QueueDepthTotal.Add(depth)
	m.QueueDepthCount.Add(1)
	for {
		cur := m.MaxQueueDepth.Load()
		if depth <= cur {
			break
		}
		if m.MaxQueueDepth.CompareAndSwap(cur, depth) {
			break
		}
	}
}

// Snapshot is a point-in-time copy of Metrics, safe to read without racing
// the live counters.
type Snapshot struct {
	Enqueued      uint64
	Written       uint64
	DegradedSends uint64
	FlushCount    uint64
	Errors        uint64
	BytesWritten  uint64

	AvgQueueDepth float64
	MaxQueueDepth uint64

	AvgLatencyNs uint64
	UptimeNs     uint64

	LatencyP50Ns uint64
	LatencyP99Ns uint64

	LatencyHistogram [numBuckets]uint64
}

// Snapshot copies every counter and derives averages/percentiles.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		Enqueued:      m.Enqueued.Load(),
		Written:       m.Written.Load(),
		DegradedSends: m.DegradedSends.Load(),
		FlushCount:    m.FlushCount.Load(),
		Errors:        m.Errors.Load(),
		BytesWritten:  m.BytesWritten.Load(),
		MaxQueueDepth: m.MaxQueueDepth.Load(),
	}

	if count := m.QueueDepthCount.Load(); count > 0 {
		s.AvgQueueDepth = float64(m.QueueDepthTotal.Load()) / float64(count)
	}

	written := m.Written.Load()
	if written > 0 {
		s.AvgLatencyNs = m.TotalLatencyNs.Load() / written
	}

	s.UptimeNs = uint64(time.Now().UnixNano() - m.StartTime.Load())

	for i := 0; i < numBuckets; i++ {
		s.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	if written > 0 {
		s.LatencyP50Ns = m.percentile(written, 0.50)
		s.LatencyP99Ns = m.percentile(written, 0.99)
	}

	return s
}

// percentile estimates the latency at the given percentile by linear
// interpolation between histogram buckets.
func (m *Metrics) percentile(total uint64, p float64) uint64 {
	target := uint64(float64(total) * p)
	prevBucket, prevCount := uint64(0), uint64(0)
	for i, bucket := range latencyBuckets {
		count := m.LatencyBuckets[i].Load()
		if count >= target {
			if count == prevCount {
				return bucket
			}
			fraction := float64(target-prevCount) / float64(count-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket, prevCount = bucket, count
	}
	return latencyBuckets[numBuckets-1]
}
