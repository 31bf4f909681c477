package ctrlproto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpectReplyMatches(t *testing.T) {
	require.NoError(t, ExpectReply(ReplyReady, ReplyReady))
	require.NoError(t, ExpectReply(ReplyFlush, ReplyFlush))
}

func TestExpectReplyMismatch(t *testing.T) {
	err := ExpectReply(ReplyReady, ReplyFlush)
	require.Error(t, err)

	var violation *ViolationError
	require.ErrorAs(t, err, &violation)
	require.Equal(t, "reply", violation.Context)
	require.Equal(t, ReplyFlush, violation.Got)
}

func TestViolation(t *testing.T) {
	err := Violation("garbage")
	var violation *ViolationError
	require.ErrorAs(t, err, &violation)
	require.Equal(t, "request", violation.Context)
}
