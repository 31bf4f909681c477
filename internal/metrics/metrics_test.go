package metrics

import "testing"

func TestRecordWriteAccumulates(t *testing.T) {
	m := New()
	m.RecordEnqueue()
	m.RecordEnqueue()
	m.RecordWrite(100, 1_000_000)
	m.RecordWrite(200, 3_000_000)

	s := m.Snapshot()
	if s.Enqueued != 2 {
		t.Fatalf("Enqueued = %d, want 2", s.Enqueued)
	}
	if s.Written != 2 {
		t.Fatalf("Written = %d, want 2", s.Written)
	}
	if s.BytesWritten != 300 {
		t.Fatalf("BytesWritten = %d, want 300", s.BytesWritten)
	}
	if s.AvgLatencyNs != 2_000_000 {
		t.Fatalf("AvgLatencyNs = %d, want 2000000", s.AvgLatencyNs)
	}
}

func TestRecordQueueDepthTracksMax(t *testing.T) {
	m := New()
	m.RecordQueueDepth(5)
	m.RecordQueueDepth(12)
	m.RecordQueueDepth(3)

	s := m.Snapshot()
	if s.MaxQueueDepth != 12 {
		t.Fatalf("MaxQueueDepth = %d, want 12", s.MaxQueueDepth)
	}
	if s.AvgQueueDepth <= 0 {
		t.Fatalf("AvgQueueDepth = %v, want > 0", s.AvgQueueDepth)
	}
}

func TestRecordDegradedSendAndFlushAndError(t *testing.T) {
	m := New()
	m.RecordDegradedSend()
	m.RecordFlush()
	m.RecordFlush()
	m.RecordError()

	s := m.Snapshot()
	if s.DegradedSends != 1 {
		t.Fatalf("DegradedSends = %d, want 1", s.DegradedSends)
	}
	if s.FlushCount != 2 {
		t.Fatalf("FlushCount = %d, want 2", s.FlushCount)
	}
	if s.Errors != 1 {
		t.Fatalf("Errors = %d, want 1", s.Errors)
	}
}

func TestSnapshotZeroValueNoDivideByZero(t *testing.T) {
	m := New()
	s := m.Snapshot()
	if s.AvgLatencyNs != 0 || s.AvgQueueDepth != 0 {
		t.Fatalf("expected zero snapshot, got %+v", s)
	}
}
