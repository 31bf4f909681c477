package bxilog

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/sdahmani/bxibase/internal/queue"
	"github.com/sdahmani/bxibase/internal/tsd"
	"github.com/sdahmani/bxibase/internal/wire"
)

// Producer is a goroutine-local handle onto the data and control queues,
// standing in for the thread-local send context a pthread-based producer
// would acquire lazily on first use. Callers create one per long-lived
// goroutine and reuse it; there is no global per-goroutine lookup table
// because Go has no public goroutine-local-storage primitive to key one on.
type Producer struct {
	inner *tsd.Producer
}

// NewProducer acquires a Producer bound to the current runtime's transport.
// Called outside Initialized, it still returns a usable Producer whose Log
// calls are silent no-ops, matching the producer-path contract that a log
// statement issued from a non-Initialized process never fails loudly.
func NewProducer() *Producer {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.state != Initialized {
		return &Producer{}
	}
	return &Producer{inner: tsd.New(rt.transport.Data, rt.transport.Control, rt.cfg.ScratchBufferSize)}
}

// Release returns the Producer's scratch buffer to its pool. Callers should
// release a Producer when the owning goroutine exits.
func (p *Producer) Release() {
	if p != nil && p.inner != nil {
		p.inner.Release()
	}
}

// Log builds a wire record at level for logger and enqueues it, applying
// the fast-path severity check before any formatting work happens. file,
// fn, and line identify the call site; callers that want automatic call-site
// capture should use the severity-named convenience methods instead.
func (p *Producer) Log(logger *Logger, level Level, file, fn string, line int, format string, args ...any) error {
	if p == nil || p.inner == nil {
		return nil
	}
	if logger != nil && level > logger.Level() {
		return nil
	}

	msg := fmt.Sprintf(format, args...)
	scratch, overflow := p.inner.Scratch(len(msg))
	if overflow {
		defer p.inner.ReleaseOverflow(scratch)
	}
	copy(scratch, msg)

	now := time.Now()
	h := wire.Header{
		Level:          level,
		TimestampSec:   now.Unix(),
		TimestampNsec:  int32(now.Nanosecond()),
		ThreadKernelID: p.inner.Tid,
		ThreadRank:     p.inner.Rank,
		Line:           uint32(line),
	}

	var loggerName string
	if logger != nil {
		loggerName = logger.Name()
	}

	buf := wire.Encode(h, []byte(file), []byte(fn), []byte(loggerName), scratch[:len(msg)])
	return p.enqueue(queue.NewRecord(buf, nil))
}

// enqueue implements the non-blocking-retry-then-block degradation policy:
// MaxNonBlockingRetries attempts spaced by RetrySleep, then a blocking send
// with a warning written to stderr, matching the original implementation's
// "a slow consumer must never silently drop a record" guarantee.
func (p *Producer) enqueue(rec *queue.Record) error {
	for i := 0; i < MaxNonBlockingRetries; i++ {
		if p.inner.Data.TrySend(rec) {
			libMetrics.RecordEnqueue()
			return nil
		}
		time.Sleep(RetrySleep)
	}
	fmt.Fprintf(os.Stderr, "bxilog: producer exhausted %d non-blocking retries, degrading to a blocking send\n", MaxNonBlockingRetries)
	libMetrics.RecordDegradedSend()
	if err := p.inner.Data.Send(context.Background(), rec); err != nil {
		return WrapError("enqueue", err)
	}
	libMetrics.RecordEnqueue()
	return nil
}

// logAt is the shared implementation behind the severity-named convenience
// methods: skip captures the caller frame at the given depth so the record
// carries the actual call site, not logAt's own.
func (p *Producer) logAt(skip int, logger *Logger, level Level, format string, args ...any) error {
	if p == nil || p.inner == nil {
		return nil
	}
	if logger != nil && level > logger.Level() {
		return nil
	}
	file, line, fn := callerInfo(skip + 1)
	return p.Log(logger, level, file, fn, line, format, args...)
}

func callerInfo(skip int) (file string, line int, fn string) {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "", 0, ""
	}
	if f := runtime.FuncForPC(pc); f != nil {
		fn = f.Name()
	}
	return file, line, fn
}

// Panic logs at the Panic severity, the most severe level.
func (p *Producer) Panic(logger *Logger, format string, args ...any) error {
	return p.logAt(2, logger, Panic, format, args...)
}

// Alert logs at the Alert severity.
func (p *Producer) Alert(logger *Logger, format string, args ...any) error {
	return p.logAt(2, logger, Alert, format, args...)
}

// Critical logs at the Critical severity.
func (p *Producer) Critical(logger *Logger, format string, args ...any) error {
	return p.logAt(2, logger, Critical, format, args...)
}

// Error logs at the Error severity.
func (p *Producer) Error(logger *Logger, format string, args ...any) error {
	return p.logAt(2, logger, Error, format, args...)
}

// Warning logs at the Warning severity.
func (p *Producer) Warning(logger *Logger, format string, args ...any) error {
	return p.logAt(2, logger, Warning, format, args...)
}

// Notice logs at the Notice severity.
func (p *Producer) Notice(logger *Logger, format string, args ...any) error {
	return p.logAt(2, logger, Notice, format, args...)
}

// Out logs at the Output severity: normal user-visible program output that
// should also reach the log.
func (p *Producer) Out(logger *Logger, format string, args ...any) error {
	return p.logAt(2, logger, Output, format, args...)
}

// Info logs at the Info severity.
func (p *Producer) Info(logger *Logger, format string, args ...any) error {
	return p.logAt(2, logger, Info, format, args...)
}

// Debug logs at the Debug severity.
func (p *Producer) Debug(logger *Logger, format string, args ...any) error {
	return p.logAt(2, logger, Debug, format, args...)
}

// Fine logs at the Fine severity.
func (p *Producer) Fine(logger *Logger, format string, args ...any) error {
	return p.logAt(2, logger, Fine, format, args...)
}

// Trace logs at the Trace severity.
func (p *Producer) Trace(logger *Logger, format string, args ...any) error {
	return p.logAt(2, logger, Trace, format, args...)
}

// Lowest logs at the Lowest severity, the least severe level.
func (p *Producer) Lowest(logger *Logger, format string, args ...any) error {
	return p.logAt(2, logger, Lowest, format, args...)
}
