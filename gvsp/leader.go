package gvsp

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// PayloadTypeUncompressedImage is the only leader payload type this
// receiver accepts (spec.md §4.2); anything else is rejected.
const PayloadTypeUncompressedImage = 0x0001

var (
	// ErrLeaderPayloadSize is returned when the leader's payload is not
	// exactly 36 bytes.
	ErrLeaderPayloadSize = errors.New("gvsp: leader payload must be 36 bytes")

	// ErrInterlaced is returned when the leader signals interlacing,
	// which this receiver does not support.
	ErrInterlaced = errors.New("gvsp: interlaced leader payload unsupported")

	// ErrUnsupportedPayloadType is returned when the leader's payload
	// type is not PayloadTypeUncompressedImage.
	ErrUnsupportedPayloadType = errors.New("gvsp: unsupported leader payload type")
)

// LeaderPayload is the decoded form of a 36-byte uncompressed-image
// leader payload (spec.md §4.2, §6).
//
//	offset  0 :  interlacing byte, must be 0
//	offset  2 : payload type u16, must be 0x0001
//	offset 12 : pixel format u32
//	offset 16 : size_x (width) u32
//	offset 20 : size_s (height) u32
type LeaderPayload struct {
	PixelFormat uint32
	SizeX       uint32
	SizeS       uint32
}

// ParseLeaderPayload decodes and validates a leader's payload (the bytes
// following the 8-byte header). ROI offset, padding, and anything beyond
// size_x/size_s/pixel_format are deliberately not extracted per spec.md
// §4.2.
func ParseLeaderPayload(payload []byte) (LeaderPayload, error) {
	if len(payload) != LeaderPayloadBytes {
		return LeaderPayload{}, ErrLeaderPayloadSize
	}

	if payload[0] != 0 {
		return LeaderPayload{}, ErrInterlaced
	}

	payloadType := binary.BigEndian.Uint16(payload[2:4])
	if payloadType != PayloadTypeUncompressedImage {
		return LeaderPayload{}, errors.Wrapf(ErrUnsupportedPayloadType, "type=0x%04x", payloadType)
	}

	return LeaderPayload{
		PixelFormat: binary.BigEndian.Uint32(payload[12:16]),
		SizeX:       binary.BigEndian.Uint32(payload[16:20]),
		SizeS:       binary.BigEndian.Uint32(payload[20:24]),
	}, nil
}

// LeaderPayloadBytes is the fixed leader payload length.
const LeaderPayloadBytes = 36
