package bxilog

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Logger is a named severity filter: every producer call against it is
// compared to its current Level before a record is ever built.
type Logger struct {
	name  string
	level atomic.Int32
}

// Name returns the logger's registered name.
func (l *Logger) Name() string { return l.name }

// Level returns the logger's current threshold: records at this severity or
// more severe pass; less severe ones are dropped before they reach the
// producer path.
func (l *Logger) Level() Level { return Level(l.level.Load()) }

// SetLevel changes the logger's threshold. Safe for concurrent use.
func (l *Logger) SetLevel(lvl Level) { l.level.Store(int32(lvl)) }

var (
	registryMu    sync.Mutex
	registry      []*Logger // tombstoned entries are nil; never compacted
	registryCount int
)

// New creates a logger named name at Lowest (everything passes) and adds it
// to the process-wide registry, growing the backing array in
// RegistryGrowthStep-sized steps once RegistryInitialSize is exceeded.
func New(name string) *Logger {
	l := &Logger{name: name}
	l.level.Store(int32(Lowest))

	registryMu.Lock()
	defer registryMu.Unlock()
	growRegistryLocked()
	registry = append(registry, l)
	registryCount++
	return l
}

func growRegistryLocked() {
	if len(registry) < cap(registry) {
		return
	}
	newCap := cap(registry) + RegistryGrowthStep
	if newCap < RegistryInitialSize {
		newCap = RegistryInitialSize
	}
	grown := make([]*Logger, len(registry), newCap)
	copy(grown, registry)
	registry = grown
}

// Unregister removes l from the registry. The slot is tombstoned (set to
// nil), not compacted: in-flight iterators over Registered never observe a
// shifted index. Once the last live logger is removed, the backing array
// itself is freed rather than kept around full of tombstones.
func Unregister(l *Logger) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for i, r := range registry {
		if r == l {
			registry[i] = nil
			registryCount--
			if registryCount == 0 {
				registry = nil
			}
			return
		}
	}
}

// Registered returns every currently-registered logger and the live count.
func Registered() ([]*Logger, int) {
	registryMu.Lock()
	defer registryMu.Unlock()
	out := make([]*Logger, 0, registryCount)
	for _, r := range registry {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, registryCount
}

// ConfigItem is one prefix-to-level rule applied by ConfigureRegistered.
type ConfigItem struct {
	Prefix string
	Level  Level
}

// ConfigureRegistered applies items to every currently-registered logger
// whose name has the matching prefix, in one pass under a single lock
// acquisition: a concurrent New call either sees the whole configuration
// applied or none of it, never a logger caught mid-pass.
func ConfigureRegistered(items []ConfigItem) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for _, item := range items {
		for _, r := range registry {
			if r == nil {
				continue
			}
			if strings.HasPrefix(r.name, item.Prefix) {
				r.level.Store(int32(item.Level))
			}
		}
	}
}

// Assert logs a panic-level record and terminates the process with
// ExitSoftware if cond is false. Grounded on the original implementation's
// BXIASSERT: an assertion failure is always fatal, never a recoverable
// error return.
func Assert(p *Producer, logger *Logger, cond bool, format string, args ...any) {
	if cond {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if p != nil {
		_ = p.logAt(2, logger, Panic, "assertion failed: %s", msg)
		_ = Flush(flushDeadlineCtx())
	}
	fmt.Fprintf(os.Stderr, "bxilog: assertion failed: %s\n", msg)
	os.Exit(ExitSoftware)
}
