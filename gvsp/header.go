// Package gvsp implements the fixed 8-byte GVSP (GigE Vision Streaming
// Protocol) packet header: parsing, validation, and packet-format
// classification. Leader payload parsing lives alongside it in
// leader.go. These are pure functions — no session state, no locking,
// no I/O.
//
// Wire layout (spec.md §6):
//
//	offset 0 :  status         u16 big-endian   (0 = OK)
//	offset 2 :  block_id       u16 big-endian   (non-zero)
//	offset 4 :  ext_id:1, reserved:3, format:4  (one byte)
//	offset 5 :  packet_id      u24 big-endian
//	offset 8 :  payload        variable
package gvsp

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Format is the packet-format nibble at header byte 4's low 4 bits.
type Format uint8

const (
	FormatLeader  Format = 1
	FormatTrailer Format = 2
	FormatData    Format = 3
)

// ErrShortHeader is returned when a datagram is too short to contain an
// 8-byte GVSP header at all.
var ErrShortHeader = errors.New("gvsp: datagram shorter than header")

// Header is the decoded form of the 8-byte GVSP packet header.
type Header struct {
	Status   uint16
	BlockID  uint16
	Extended bool
	Format   Format
	PacketID uint32 // 24-bit, stored widened
}

// ParseHeader decodes the 8-byte header from the front of b. It performs
// no validation beyond the length check — call Header.Validate to apply
// spec.md §4.1's acceptance rule.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < 8 {
		return Header{}, ErrShortHeader
	}

	status := binary.BigEndian.Uint16(b[0:2])
	blockID := binary.BigEndian.Uint16(b[2:4])

	flagsAndFormat := b[4]
	extended := flagsAndFormat&0x80 != 0
	format := Format(flagsAndFormat & 0x0f)

	packetID := uint32(b[5])<<16 | uint32(b[6])<<8 | uint32(b[7])

	return Header{
		Status:   status,
		BlockID:  blockID,
		Extended: extended,
		Format:   format,
		PacketID: packetID,
	}, nil
}

// Validate reports whether h passes the acceptance rule from spec.md
// §4.1: status must be zero, block ID must be non-zero, and the
// extended-ID bit must be clear.
func (h Header) Validate() bool {
	return h.Status == 0 && h.BlockID != 0 && !h.Extended
}

// Payload returns the bytes of b following the fixed 8-byte header.
func Payload(b []byte) []byte {
	if len(b) <= 8 {
		return nil
	}
	return b[8:]
}
