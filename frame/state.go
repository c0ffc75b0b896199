// Package frame holds the per-session, per-frame mutable reassembly
// state (spec.md §3, §4.2–§4.4): resolution, pixel format, the
// received-packet tally, and the reassembly buffer itself. All mutation
// here happens under the caller's frame lock (session owns the mutex;
// this package is deliberately lock-free so the locking discipline lives
// in exactly one place).
//
// Grounded on connstream/stream.go's shape: an owned struct with an
// explicit small lifecycle and a family of sentinel errors built with a
// local newError helper — adapted here from byte-stream reconstruction to
// fixed-size, offset-indexed packet-slot reassembly, which is what GVSP
// actually needs.
package frame

import (
	"github.com/pkg/errors"

	"github.com/gvspd/gvspd/gvsp"
)

func newError(format string, args ...any) error {
	return errors.Errorf("frame: "+format, args...)
}

var (
	// ErrNoLeader is returned by ApplyData when no leader
	// has been accepted since the last frame (spec.md §9, "late-arriving
	// data packets" mitigation: data is dropped while no leader is
	// active, instead of risking corruption of the next frame).
	ErrNoLeader = newError("no leader received for current frame")

	// ErrPacketBounds is returned by ApplyData when the packet id would
	// read or write outside the reassembly buffer.
	ErrPacketBounds = newError("data packet out of bounds")

	// ErrPacketCountMismatch names the case where the tally of distinct
	// received slots doesn't match the configured packet count. No method
	// of State returns it; callers detect that case through Complete.
	ErrPacketCountMismatch = newError("packet count mismatch")
)

// State is one session's in-progress frame: resolution, pixel format, the
// received-packet tally, and the reassembly buffer. The buffer is
// allocated once (at create_buffer time) and reused across frames; only
// the per-frame fields reset on each accepted leader.
type State struct {
	cfg Config
	buf []byte

	// received is a per-slot bitmap, not a raw counter: a duplicate
	// packet at an already-received slot is a no-op on the tally (design
	// divergence from spec.md §9's literal "duplicate data packet
	// counting" behavior, adopting its recommended fix).
	received      []bool
	receivedCount int

	leaderReceived bool
	sizeX, sizeS   uint32
	pixelFormat    uint32
}

// NewState allocates the reassembly buffer and slot bitmap for cfg.
func NewState(cfg Config) *State {
	return &State{
		cfg:      cfg,
		buf:      make([]byte, cfg.PayloadSize),
		received: make([]bool, cfg.PacketCount),
	}
}

// Config returns the buffer sizing this state was built with.
func (s *State) Config() Config {
	return s.cfg
}

// LeaderReceived reports whether a leader has been accepted for the
// in-progress frame.
func (s *State) LeaderReceived() bool {
	return s.leaderReceived
}

// ApplyLeader handles a validated leader packet's payload (spec.md §4.2):
// it must decode as an uncompressed-image leader, after which the tally
// resets to zero and leaderReceived is set.
func (s *State) ApplyLeader(payload []byte) error {
	lp, err := gvsp.ParseLeaderPayload(payload)
	if err != nil {
		return err
	}

	for i := range s.received {
		s.received[i] = false
	}
	s.receivedCount = 0
	s.sizeX = lp.SizeX
	s.sizeS = lp.SizeS
	s.pixelFormat = lp.PixelFormat
	s.leaderReceived = true
	return nil
}

// ApplyData handles a validated data packet (spec.md §4.3): it copies
// packetPayloadSize bytes into the reassembly buffer at the packet's
// offset and marks that slot received. Data packets are rejected while no
// leader is active (spec.md §9 mitigation).
func (s *State) ApplyData(packetID uint32, payload []byte) error {
	if !s.leaderReceived {
		return ErrNoLeader
	}

	if packetID == 0 {
		return ErrPacketBounds
	}

	if len(payload) < s.cfg.PacketPayloadSize {
		return ErrPacketBounds
	}

	start := int(packetID-1) * s.cfg.PacketPayloadSize
	end := start + s.cfg.PacketPayloadSize
	if start < 0 || end > len(s.buf) {
		return ErrPacketBounds
	}

	slot := int(packetID - 1)
	if slot >= len(s.received) {
		return ErrPacketBounds
	}

	copy(s.buf[start:end], payload[:s.cfg.PacketPayloadSize])
	if !s.received[slot] {
		s.received[slot] = true
		s.receivedCount++
	}
	return nil
}

// ConsumeLeaderReceived clears leaderReceived and returns its value prior
// to clearing, per spec.md §4.4: "clears leader_received before any
// further check so that a missing leader for the next frame is
// detected."
func (s *State) ConsumeLeaderReceived() bool {
	had := s.leaderReceived
	s.leaderReceived = false
	return had
}

// Complete reports whether every distinct packet slot has been received.
func (s *State) Complete() bool {
	return s.receivedCount == s.cfg.PacketCount
}

// ReceivedCount returns the current distinct-slot tally, for drop
// warnings ("N packets dropped").
func (s *State) ReceivedCount() int {
	return s.receivedCount
}

// PacketCount returns the configured packets-per-frame count.
func (s *State) PacketCount() int {
	return s.cfg.PacketCount
}

// Dimensions returns the frame's (rows, cols) as decoded from the leader.
func (s *State) Dimensions() (rows, cols int) {
	return int(s.sizeS), int(s.sizeX)
}

// PixelFormat returns the pixel format code decoded from the leader.
func (s *State) PixelFormat() uint32 {
	return s.pixelFormat
}

// Buffer returns the reassembly buffer for read-only use by the pixel
// decoder. It is retained and reused across frames; callers must not
// hold a reference past the current trailer handling.
func (s *State) Buffer() []byte {
	return s.buf
}
