// Package ctrlproto defines the literal ASCII request/reply messages
// exchanged between producers and the internal handler thread over the
// control queue, and the small helper that turns an unexpected message or
// reply into a protocol-violation error rather than a panic.
package ctrlproto

import "fmt"

// The five control-plane wire literals. These are the wire contract: any
// other string observed on the control channel is a protocol violation.
const (
	ReqReady   = "BC->IH: ready?"
	ReplyReady = "IH->BC: ready!"

	ReqFlush   = "BC->IH: flush?"
	ReplyFlush = "IH->BC: flushed!"

	// ReqExit has no corresponding reply: the producer observes IHT
	// termination via thread join, not a control-queue message.
	ReqExit = "BC->IH: exit?"
)

// ViolationError reports an unexpected control-channel message or reply.
type ViolationError struct {
	Context string // "request" or "reply"
	Got     string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("ctrlproto: protocol violation: unexpected %s %q", e.Context, e.Got)
}

// Violation constructs a ViolationError for an unrecognized request received
// by the IHT.
func Violation(got string) error {
	return &ViolationError{Context: "request", Got: got}
}

// ReplyViolation constructs a ViolationError for an unexpected reply
// received by a producer (e.g. a flush request answered with ReplyReady).
func ReplyViolation(got string) error {
	return &ViolationError{Context: "reply", Got: got}
}

// ExpectReply reports an error if got does not equal want.
func ExpectReply(want, got string) error {
	if got != want {
		return ReplyViolation(got)
	}
	return nil
}
