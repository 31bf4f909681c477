//go:build !linux

package sig

import (
	"context"

	"github.com/sdahmani/bxibase/internal/iht"
)

// Watcher degrades to a no-op off Linux: there is no signalfd, so crash
// signals are never observed by the internal handler thread directly. The
// process-wide handler (handler.go) is still installed via os/signal and
// remains the only path that requests a flush before a fatal signal.
type Watcher struct{}

// NewWatcher always succeeds on non-Linux platforms; the returned Watcher
// never produces events.
func NewWatcher() (*Watcher, error) {
	return &Watcher{}, nil
}

func (w *Watcher) Fd() int { return -1 }

func (w *Watcher) Close() error { return nil }

// Run blocks until ctx is done, forwarding nothing.
func (w *Watcher) Run(ctx context.Context, ch chan<- iht.SignalEvent) {
	<-ctx.Done()
}

// StartWatcher mirrors the Linux variant's signature so state.go's Init
// path needs no build tag of its own; off Linux there is no thread-specific
// mask to install, so it degrades straight to NewWatcher + Run.
func StartWatcher(ctx context.Context, ch chan<- iht.SignalEvent) (*Watcher, error) {
	w, err := NewWatcher()
	if err != nil {
		return nil, err
	}
	go w.Run(ctx, ch)
	return w, nil
}
