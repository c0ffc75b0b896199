package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewConfig exercises spec.md §8 property 6: buffer sizing validation.
func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig(16, 44)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.PacketPayloadSize)
	assert.Equal(t, 2, cfg.PacketCount)
	assert.Equal(t, 16, cfg.PayloadSize)
}

func TestNewConfigPacketTooSmall(t *testing.T) {
	_, err := NewConfig(16, 36)
	assert.ErrorIs(t, err, ErrPacketSizeTooSmall)

	_, err = NewConfig(16, 20)
	assert.ErrorIs(t, err, ErrPacketSizeTooSmall)
}

func TestNewConfigPayloadNotDivisible(t *testing.T) {
	_, err := NewConfig(15, 44)
	assert.ErrorIs(t, err, ErrPayloadNotDivisible)
}

func TestNewConfigZeroPayload(t *testing.T) {
	_, err := NewConfig(0, 44)
	assert.ErrorIs(t, err, ErrPayloadNotDivisible)
}
