// Package bxilog is an asynchronous, multi-threaded logging library: many
// producer goroutines format and enqueue records; a single internal handler
// thread decodes, formats, and writes them to one sink, so a slow or
// suspended writer never blocks the producers' hot path.
//
// Lifecycle:
//
//	if err := bxilog.Init(context.Background(), "myprog", "-"); err != nil { ... }
//	defer bxilog.Finalize()
//	p := bxilog.NewProducer()
//	defer p.Release()
//	logger := bxilog.New("myprog.worker")
//	p.Info(logger, "listening on %s", addr)
//
// A program that never calls Init may still call every producer-path method
// safely: they degrade to silent no-ops, exactly as if every logger's level
// had been set below every call site's severity.
package bxilog

import (
	"context"
	"time"
)

// flushDeadlineCtx bounds Assert's best-effort flush before os.Exit: a
// process that is already exiting cannot afford to wait on a wedged
// internal handler thread.
func flushDeadlineCtx() context.Context {
	ctx, _ := context.WithTimeout(context.Background(), 2*time.Second)
	return ctx
}
