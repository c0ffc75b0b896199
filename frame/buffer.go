package frame

import "github.com/pkg/errors"

var (
	// ErrPacketSizeTooSmall is returned when packetSize doesn't leave
	// room for the 36-byte combined IP+UDP+GVSP header overhead.
	ErrPacketSizeTooSmall = errors.New("frame: packet size must exceed 36-byte header overhead")

	// ErrPayloadNotDivisible is returned when payloadSize is not positive
	// or isn't an exact multiple of the per-packet payload size.
	ErrPayloadNotDivisible = errors.New("frame: payload size must be an exact multiple of the per-packet payload size")
)

const headerOverhead = 36

// Config describes one session's reassembly-buffer sizing, derived once
// at create_buffer time (spec.md §4.6) and held for the session's
// lifetime until free_buffer.
type Config struct {
	PayloadSize       int
	PacketPayloadSize int
	PacketCount       int
}

// NewConfig validates (payloadSize, packetSize) per spec.md §4.6/§8
// property 6 and derives the per-packet payload size and packet count.
func NewConfig(payloadSize, packetSize int) (Config, error) {
	packetPayloadSize := packetSize - headerOverhead
	if packetPayloadSize <= 0 {
		return Config{}, ErrPacketSizeTooSmall
	}
	if payloadSize <= 0 || payloadSize%packetPayloadSize != 0 {
		return Config{}, ErrPayloadNotDivisible
	}
	return Config{
		PayloadSize:       payloadSize,
		PacketPayloadSize: packetPayloadSize,
		PacketCount:       payloadSize / packetPayloadSize,
	}, nil
}
