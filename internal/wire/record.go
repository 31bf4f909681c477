// Package wire implements the on-the-wire log record format shared between
// the producer path and the internal handler thread: a single contiguous
// byte buffer with a fixed-width header followed by a variable payload.
// None of the variable fields are null-terminated; every length is explicit
// in the header, mirroring the manual little-endian packing style used for
// kernel-facing structs elsewhere in this codebase's lineage.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/sdahmani/bxibase/internal/levels"
)

// Header is the fixed-size prefix of a Record. Field order and widths are
// part of the wire contract and must not change without a format version
// bump.
type Header struct {
	Level              levels.Level
	TimestampSec       int64
	TimestampNsec      int32
	ThreadKernelID     int32 // platform kernel tid; 0 if unavailable
	ThreadRank         uint16
	Line               uint32
	FilenameLen        uint16
	FuncnameLen        uint16
	LoggernameLen      uint16
	VariablePayloadLen uint32 // FilenameLen + FuncnameLen + LoggernameLen
	MessageLen         uint32
}

// HeaderSize is the packed byte width of Header on the wire.
const HeaderSize = 1 + 8 + 4 + 4 + 2 + 4 + 2 + 2 + 2 + 4 + 4

// Encode packs header and the four variable sections into one contiguous
// buffer, ready for zero-copy transfer into the data queue.
func Encode(h Header, filename, funcname, loggername, message []byte) []byte {
	h.FilenameLen = uint16(len(filename))
	h.FuncnameLen = uint16(len(funcname))
	h.LoggernameLen = uint16(len(loggername))
	h.VariablePayloadLen = uint32(h.FilenameLen) + uint32(h.FuncnameLen) + uint32(h.LoggernameLen)
	h.MessageLen = uint32(len(message))

	total := HeaderSize + int(h.VariablePayloadLen) + int(h.MessageLen)
	buf := make([]byte, total)

	putHeader(buf, h)

	off := HeaderSize
	off += copy(buf[off:], filename)
	off += copy(buf[off:], funcname)
	off += copy(buf[off:], loggername)
	copy(buf[off:], message)

	return buf
}

func putHeader(buf []byte, h Header) {
	buf[0] = byte(h.Level)
	binary.LittleEndian.PutUint64(buf[1:9], uint64(h.TimestampSec))
	binary.LittleEndian.PutUint32(buf[9:13], uint32(h.TimestampNsec))
	binary.LittleEndian.PutUint32(buf[13:17], uint32(h.ThreadKernelID))
	binary.LittleEndian.PutUint16(buf[17:19], h.ThreadRank)
	binary.LittleEndian.PutUint32(buf[19:23], h.Line)
	binary.LittleEndian.PutUint16(buf[23:25], h.FilenameLen)
	binary.LittleEndian.PutUint16(buf[25:27], h.FuncnameLen)
	binary.LittleEndian.PutUint16(buf[27:29], h.LoggernameLen)
	binary.LittleEndian.PutUint32(buf[29:33], h.VariablePayloadLen)
	binary.LittleEndian.PutUint32(buf[33:37], h.MessageLen)
}

func getHeader(buf []byte) Header {
	var h Header
	h.Level = levels.Level(buf[0])
	h.TimestampSec = int64(binary.LittleEndian.Uint64(buf[1:9]))
	h.TimestampNsec = int32(binary.LittleEndian.Uint32(buf[9:13]))
	h.ThreadKernelID = int32(binary.LittleEndian.Uint32(buf[13:17]))
	h.ThreadRank = binary.LittleEndian.Uint16(buf[17:19])
	h.Line = binary.LittleEndian.Uint32(buf[19:23])
	h.FilenameLen = binary.LittleEndian.Uint16(buf[23:25])
	h.FuncnameLen = binary.LittleEndian.Uint16(buf[25:27])
	h.LoggernameLen = binary.LittleEndian.Uint16(buf[27:29])
	h.VariablePayloadLen = binary.LittleEndian.Uint32(buf[29:33])
	h.MessageLen = binary.LittleEndian.Uint32(buf[33:37])
	return h
}

// Decode locates the header and the four variable sections within buf.
// The returned slices alias buf; callers that retain them past the life of
// the enqueued record must copy.
func Decode(buf []byte) (h Header, filename, funcname, loggername, message []byte, err error) {
	if len(buf) < HeaderSize {
		return h, nil, nil, nil, nil, fmt.Errorf("wire: record too short: %d bytes, need at least %d", len(buf), HeaderSize)
	}

	h = getHeader(buf)

	want := HeaderSize + int(h.VariablePayloadLen) + int(h.MessageLen)
	if len(buf) != want {
		return h, nil, nil, nil, nil, fmt.Errorf("wire: record length mismatch: have %d bytes, header declares %d", len(buf), want)
	}

	off := HeaderSize
	filename = buf[off : off+int(h.FilenameLen)]
	off += int(h.FilenameLen)
	funcname = buf[off : off+int(h.FuncnameLen)]
	off += int(h.FuncnameLen)
	loggername = buf[off : off+int(h.LoggernameLen)]
	off += int(h.LoggernameLen)
	message = buf[off : off+int(h.MessageLen)]

	return h, filename, funcname, loggername, message, nil
}
