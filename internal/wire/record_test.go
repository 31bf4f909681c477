package wire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sdahmani/bxibase/internal/levels"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	h := Header{
		Level:          levels.Output,
		TimestampSec:   1700000000,
		TimestampNsec:  123456789,
		ThreadKernelID: 4242,
		ThreadRank:     7,
		Line:           99,
	}

	buf := Encode(h, []byte("file.go"), []byte("main"), []byte("t"), []byte("hello"))

	got, filename, funcname, loggername, message, err := Decode(buf)
	require.NoError(t, err)

	require.Equal(t, h.Level, got.Level)
	require.Equal(t, h.TimestampSec, got.TimestampSec)
	require.Equal(t, h.TimestampNsec, got.TimestampNsec)
	require.Equal(t, h.ThreadKernelID, got.ThreadKernelID)
	require.Equal(t, h.ThreadRank, got.ThreadRank)
	require.Equal(t, h.Line, got.Line)
	require.Equal(t, "file.go", string(filename))
	require.Equal(t, "main", string(funcname))
	require.Equal(t, "t", string(loggername))
	require.Equal(t, "hello", string(message))
}

func TestDecodeTooShort(t *testing.T) {
	_, _, _, _, _, err := Decode([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestDecodeLengthMismatch(t *testing.T) {
	buf := Encode(Header{Level: levels.Info}, nil, nil, nil, []byte("x"))
	buf = append(buf, 0xFF) // corrupt: trailing byte not accounted for in header
	_, _, _, _, _, err := Decode(buf)
	require.Error(t, err)
}

func TestEncodeEmptyFields(t *testing.T) {
	buf := Encode(Header{Level: levels.Debug}, nil, nil, nil, nil)
	h, filename, funcname, loggername, message, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, levels.Debug, h.Level)
	require.Empty(t, filename)
	require.Empty(t, funcname)
	require.Empty(t, loggername)
	require.Empty(t, message)
}
