package bxilog

import "time"

// Default knobs for the lifecycle controller, producer path, and internal
// handler thread. Values mirror the original bxilog C implementation's
// constants (spec.md §4, §6).
const (
	// DefaultPollTimeout is the internal handler thread's poll tick: the
	// main loop treats a timeout as a flush opportunity.
	DefaultPollTimeout = 500 * time.Millisecond

	// DefaultScratchBufferSize is the per-producer TSD scratch buffer size
	// reused across records before falling back to a precisely-sized
	// allocation.
	DefaultScratchBufferSize = 128

	// DefaultHighWaterMark bounds the data queue's buffered record count
	// before producers fall back to non-blocking-retry-then-block.
	DefaultHighWaterMark = 1_500_000

	// MaxNonBlockingRetries is the number of non-blocking send attempts a
	// producer makes before degrading to a blocking send.
	MaxNonBlockingRetries = 3

	// RetrySleep is the delay between non-blocking send retries.
	RetrySleep = 500 * time.Microsecond

	// RegistryInitialSize and RegistryGrowthStep govern the logger
	// registry's backing array growth.
	RegistryInitialSize = 64
	RegistryGrowthStep  = 10

	// MaxErrorChainDepth bounds the internal handler thread's error chain
	// before it aborts with a "too many errors" composite error.
	MaxErrorChainDepth = 5

	// ExitSoftware is EX_SOFTWARE: the exit code used by Assert failures and
	// unrecoverable internal handler thread errors.
	ExitSoftware = 70
)
