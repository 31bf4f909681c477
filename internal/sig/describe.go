// Package sig implements the two cooperating halves of the signal
// subsystem: the internal handler thread's signalfd poll, and the
// process-wide handler installed for crash and shutdown signals.
package sig

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// siUser is si_code's value when a signal was sent via kill(2)/raise(2)
// rather than delivered by the kernel for a hardware fault.
const siUser = 0

// Describe renders a human-readable description of a signal delivery. For
// SIGINT/SIGTERM it distinguishes user- from kernel-raised origin; for crash
// signals it includes the raw si_code, matching spec.md §4.E's signal
// description helper contract.
func Describe(signum int, siCode int32) string {
	name := syscall.Signal(signum).String()

	switch unix.Signal(signum) {
	case unix.SIGINT, unix.SIGTERM:
		if siCode == siUser {
			return fmt.Sprintf("%s (sent by another process)", name)
		}
		return fmt.Sprintf("%s (raised by the kernel, si_code=%d)", name, siCode)
	case unix.SIGSEGV, unix.SIGBUS, unix.SIGFPE, unix.SIGILL:
		return fmt.Sprintf("%s (si_code=%d)", name, siCode)
	default:
		return fmt.Sprintf("%s (si_code=%d)", name, siCode)
	}
}
