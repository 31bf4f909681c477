package bxilog

import (
	"os"
	"time"

	"github.com/sdahmani/bxibase/internal/iht"
)

// Config holds the lifecycle controller's tunables. Zero value is never
// used directly; construct via DefaultConfig and apply Options.
type Config struct {
	PollTimeout       time.Duration
	ScratchBufferSize int
	HighWaterMark     int
	InitTimeout       time.Duration
}

// DefaultConfig returns the knobs Init uses absent any Option, mirroring
// the original implementation's defaults (spec.md §6).
func DefaultConfig() Config {
	return Config{
		PollTimeout:       DefaultPollTimeout,
		ScratchBufferSize: DefaultScratchBufferSize,
		HighWaterMark:     DefaultHighWaterMark,
		InitTimeout:       5 * time.Second,
	}
}

// Option mutates a Config during Init.
type Option func(*Config)

// WithPollTimeout overrides the internal handler thread's poll tick.
func WithPollTimeout(d time.Duration) Option {
	return func(c *Config) { c.PollTimeout = d }
}

// WithHighWaterMark overrides the data queue's buffered-record ceiling.
func WithHighWaterMark(n int) Option {
	return func(c *Config) { c.HighWaterMark = n }
}

// WithScratchBufferSize overrides the per-producer TSD scratch buffer size.
func WithScratchBufferSize(n int) Option {
	return func(c *Config) { c.ScratchBufferSize = n }
}

// WithInitTimeout overrides how long Finalize, and Init when its context
// carries no deadline, wait for the internal handler thread before failing.
// Flush is bounded only by the context passed to it.
func WithInitTimeout(d time.Duration) Option {
	return func(c *Config) { c.InitTimeout = d }
}

// openSink interprets the sink string: "-" is stdout, "+" is stderr,
// anything else is a path opened for append, created if missing.
func openSink(sink string) (sinkHandle, error) {
	switch sink {
	case "-":
		return sinkHandle{w: os.Stdout, owned: false}, nil
	case "+":
		return sinkHandle{w: os.Stderr, owned: false}, nil
	default:
		f, err := os.OpenFile(sink, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return sinkHandle{}, WrapError("openSink", err)
		}
		return sinkHandle{w: f, owned: true}, nil
	}
}

var _ iht.Sink = (*os.File)(nil)
