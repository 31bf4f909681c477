package bxilog

import (
	"errors"
	"fmt"
	"syscall"
)

// Kind is the high-level category of an Error.
type Kind string

const (
	KindIllegalState  Kind = "illegal state"
	KindConfigError   Kind = "config error"
	KindProtocolError Kind = "protocol error"
	KindRetriesMax    Kind = "retries exhausted"
	KindSystemError   Kind = "system error"
	KindBadLevelName  Kind = "bad level name"
	KindAssert        Kind = "assertion failed"
)

// Error is a structured bxilog error: an operation name, a category, an
// optional wrapped errno, and an optional chained inner error.
type Error struct {
	Op    string        // operation that failed, e.g. "Init", "Flush"
	Kind  Kind          // high-level category
	Errno syscall.Errno // kernel errno, 0 if not applicable
	Msg   string        // human-readable detail
	Inner error         // chained error, if any
}

func (e *Error) Error() string {
	var parts []string
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.Errno != 0 {
		parts = append(parts, fmt.Sprintf("errno=%d", e.Errno))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}

	if len(parts) > 0 {
		return fmt.Sprintf("bxilog: %s (%s)", msg, parts[0])
	}
	return fmt.Sprintf("bxilog: %s", msg)
}

// Unwrap exposes the chained inner error for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is supports errors.Is comparison against another *Error by Kind.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == te.Kind
}

// NewError creates a structured error with no wrapped cause.
func NewError(op string, kind Kind, msg string) *Error {
	return &Error{Op: op, Kind: kind, Msg: msg}
}

// NewErrnoError creates a SystemError wrapping a syscall errno.
func NewErrnoError(op string, errno syscall.Errno) *Error {
	return &Error{Op: op, Kind: KindSystemError, Errno: errno, Msg: errno.Error()}
}

// WrapError chains inner under op, preserving an existing *Error's kind and
// errno, or mapping a bare syscall.Errno to KindSystemError.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}

	if be, ok := inner.(*Error); ok {
		return &Error{Op: op, Kind: be.Kind, Errno: be.Errno, Msg: be.Msg, Inner: be}
	}

	if errno, ok := inner.(syscall.Errno); ok {
		return &Error{Op: op, Kind: KindSystemError, Errno: errno, Msg: errno.Error(), Inner: inner}
	}

	return &Error{Op: op, Kind: KindSystemError, Msg: inner.Error(), Inner: inner}
}

// ChainDepth counts the links of err's Inner chain, including err itself:
// the walk follows Inner through *Error values and also counts the first
// link that is not an *Error, where it stops. The internal handler thread
// does not use it; it counts its own chained errors and aborts once there
// are more than five.
func ChainDepth(err error) int {
	depth := 0
	for err != nil {
		depth++
		var be *Error
		if !errors.As(err, &be) || be.Inner == nil {
			break
		}
		err = be.Inner
	}
	return depth
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind == kind
	}
	return false
}
