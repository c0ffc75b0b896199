package gvsp

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildLeaderPayload(pixelFormat, sizeX, sizeS uint32) []byte {
	p := make([]byte, LeaderPayloadBytes)
	binary.BigEndian.PutUint16(p[2:4], PayloadTypeUncompressedImage)
	binary.BigEndian.PutUint32(p[12:16], pixelFormat)
	binary.BigEndian.PutUint32(p[16:20], sizeX)
	binary.BigEndian.PutUint32(p[20:24], sizeS)
	return p
}

func TestParseLeaderPayload(t *testing.T) {
	p := buildLeaderPayload(0x01080001, 4, 2)
	lp, err := ParseLeaderPayload(p)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01080001), lp.PixelFormat)
	assert.Equal(t, uint32(4), lp.SizeX)
	assert.Equal(t, uint32(2), lp.SizeS)
}

func TestParseLeaderPayloadWrongSize(t *testing.T) {
	_, err := ParseLeaderPayload(make([]byte, 10))
	assert.ErrorIs(t, err, ErrLeaderPayloadSize)
}

func TestParseLeaderPayloadInterlaced(t *testing.T) {
	p := buildLeaderPayload(0x01080001, 4, 2)
	p[0] = 1
	_, err := ParseLeaderPayload(p)
	assert.ErrorIs(t, err, ErrInterlaced)
}

func TestParseLeaderPayloadUnsupportedType(t *testing.T) {
	p := buildLeaderPayload(0x01080001, 4, 2)
	binary.BigEndian.PutUint16(p[2:4], 0x0002)
	_, err := ParseLeaderPayload(p)
	assert.ErrorIs(t, err, ErrUnsupportedPayloadType)
}
