// Package session is the public surface of the GVSP receiver: create and
// close the UDP socket, allocate and free the reassembly buffer, start
// and stop the receive thread, install the frame callback, and toggle
// diagnostics. It enforces the legal lifecycle transitions between those
// operations (spec.md §3, §4.6) and owns the two-mutex locking discipline
// that keeps the receive loop's packet handling safe to run concurrently
// with those operations (spec.md §5).
//
// Grounded on controller.Controller's role as the process-facing owner
// of a sniffer+pipeline pair, narrowed here to own exactly one
// receiver.Engine and exactly one frame.State.
package session

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"

	"github.com/gvspd/gvspd/common"
	"github.com/gvspd/gvspd/common/socket"
	"github.com/gvspd/gvspd/frame"
	"github.com/gvspd/gvspd/gvsp"
	"github.com/gvspd/gvspd/internal/zerocopy"
	"github.com/gvspd/gvspd/logger"
	"github.com/gvspd/gvspd/metrics"
	"github.com/gvspd/gvspd/pixel"
	"github.com/gvspd/gvspd/receiver"
)

// Stats carries per-frame metadata alongside the decoded matrix: an
// xxhash64 checksum of the reassembled, pre-decode wire bytes (useful
// for deduplicating retransmitted frames or correlating log lines with
// a specific frame without dumping pixels) and the time spent decoding.
type Stats struct {
	Checksum uint64
	Decode   time.Duration
}

// FrameCallback is invoked once per completed frame with the decoded
// pixel matrix, its bit depth, and the frame's Stats (spec.md §6's
// callback contract, supplemented per SPEC_FULL.md). Ownership of m
// transfers to the callback; the session retains no reference to it
// after the call.
type FrameCallback func(m pixel.Matrix, depth pixel.BitDepth, stats Stats)

// Status is a point-in-time snapshot of a Session's lifecycle state, for
// diagnostics and for observing the outcome of a fatal receive-thread
// termination (spec.md §9's resolved open question).
type Status struct {
	HasSocket bool
	HasBuffer bool
	Receiving bool
	Port      uint16
	LastFatal error
}

// Session is one bound UDP socket and its in-progress frame state.
//
// Two mutexes guard disjoint state, always acquired in the order
// {frameMu, enableMu} when both are needed (spec.md §5's invariant 6):
// frameMu covers the socket, the reassembly buffer/frame.State, and the
// callback slot; enableMu covers only the receiving flag and the last
// fatal error observed from the receive thread.
type Session struct {
	frameMu sync.Mutex

	conn     *net.UDPConn
	port     uint16
	state    *frame.State
	callback FrameCallback
	engine   *receiver.Engine

	enableMu  sync.Mutex
	receiving bool
	lastFatal error

	verbose  atomic.Bool
	warnings atomic.Bool
}

// New builds an idle Session with warnings enabled by default.
func New() *Session {
	s := &Session{}
	s.warnings.Store(true)
	return s
}

func (s *Session) isReceivingLocked() bool {
	s.enableMu.Lock()
	defer s.enableMu.Unlock()
	return s.receiving
}

func (s *Session) setReceivingLocked(v bool) {
	s.enableMu.Lock()
	s.receiving = v
	s.enableMu.Unlock()
	if v {
		metrics.ReceivingGauge.Set(1)
	} else {
		metrics.ReceivingGauge.Set(0)
	}
}

// CreateSocket binds a UDP socket to (hostIP, ephemeral port) and sets the
// mandatory 100ms receive timeout (applied per-read by receiver.Engine).
func (s *Session) CreateSocket(hostIP string) (uint16, error) {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()

	if s.conn != nil {
		return 0, newErr(KindConnection, "create_socket", ErrSocketExists)
	}

	ip := net.ParseIP(hostIP)
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: ip})
	if err != nil {
		return 0, newErr(KindPermission, "create_socket", err)
	}

	s.conn = conn
	s.port = uint16(conn.LocalAddr().(*net.UDPAddr).Port)
	logger.Infof("session bound socket %s", conn.LocalAddr())
	return s.port, nil
}

// CloseSocket closes the socket and deallocates the session's binding.
func (s *Session) CloseSocket() error {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()

	if s.conn == nil {
		return newErr(KindConnection, "close_socket", ErrNoSocket)
	}
	if s.isReceivingLocked() {
		return newErr(KindConnection, "close_socket", ErrReceiving)
	}

	err := s.conn.Close()
	s.conn = nil
	s.port = 0
	return err
}

// CreateBuffer computes packet_payload_size and packet_count and
// allocates the reassembly buffer (spec.md §4.6).
func (s *Session) CreateBuffer(payloadSize, packetSize int) error {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()

	if s.state != nil {
		return newErr(KindResource, "create_buffer", ErrBufferExists)
	}

	cfg, err := frame.NewConfig(payloadSize, packetSize)
	if err != nil {
		return newErr(KindValue, "create_buffer", err)
	}

	s.state = frame.NewState(cfg)
	return nil
}

// FreeBuffer releases the reassembly buffer.
func (s *Session) FreeBuffer() error {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()

	if s.state == nil {
		return newErr(KindResource, "free_buffer", ErrNoBuffer)
	}
	if s.isReceivingLocked() {
		return newErr(KindConnection, "free_buffer", ErrReceiving)
	}

	s.state = nil
	return nil
}

// StartReceive sends the firewall-traversal datagram and spawns the
// receive thread.
func (s *Session) StartReceive(cameraIP string) error {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()

	if s.conn == nil {
		return newErr(KindConnection, "start_receive", ErrNoSocket)
	}
	if s.state == nil {
		return newErr(KindResource, "start_receive", ErrNoBuffer)
	}
	if s.isReceivingLocked() {
		return newErr(KindConnection, "start_receive", ErrReceiving)
	}

	dst := &net.UDPAddr{IP: net.ParseIP(cameraIP), Port: int(s.port)}
	if _, err := s.conn.WriteToUDP(make([]byte, common.FirewallTraversalSize), dst); err != nil {
		return newErr(KindConnection, "start_receive", errors.Wrap(err, "firewall traversal datagram"))
	}
	s.debugf("firewall traversal datagram sent to %s", socket.EndpointFromUDPAddr(dst))

	s.enableMu.Lock()
	s.lastFatal = nil
	s.enableMu.Unlock()
	eng := receiver.NewEngine(s.conn, s, s.onFatal)
	eng.SetVerbose(s.verbose.Load())
	eng.SetWarnings(s.warnings.Load())
	s.engine = eng
	s.setReceivingLocked(true)
	eng.Start()
	return nil
}

// StopReceive clears the receiving flag and joins the receive thread. It
// releases frameMu before joining so an in-flight Dispatch call (which
// needs frameMu) is never blocked behind the join — the same scheduler-
// lock release spec.md §5 calls for before a controller joins the
// receive thread.
func (s *Session) StopReceive() error {
	s.frameMu.Lock()
	if !s.isReceivingLocked() {
		s.frameMu.Unlock()
		return newErr(KindConnection, "stop_receive", ErrNotReceiving)
	}
	eng := s.engine
	s.frameMu.Unlock()

	eng.Stop()

	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	s.setReceivingLocked(false)
	s.engine = nil
	return nil
}

// SetFrameCallback atomically replaces the frame callback under frameMu.
// Passing nil detaches it.
func (s *Session) SetFrameCallback(cb FrameCallback) {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	s.callback = cb
}

// SetVerbose toggles verbose status logging, including in the receive
// engine's per-packet trace.
func (s *Session) SetVerbose(v bool) {
	s.verbose.Store(v)
	s.frameMu.Lock()
	eng := s.engine
	s.frameMu.Unlock()
	if eng != nil {
		eng.SetVerbose(v)
	}
}

// SetWarnings toggles protocol-level warning logging, including in the
// receive engine's header-validation drops.
func (s *Session) SetWarnings(v bool) {
	s.warnings.Store(v)
	s.frameMu.Lock()
	eng := s.engine
	s.frameMu.Unlock()
	if eng != nil {
		eng.SetWarnings(v)
	}
}

// Status returns a snapshot of the session's lifecycle state.
func (s *Session) Status() Status {
	s.frameMu.Lock()
	st := Status{
		HasSocket: s.conn != nil,
		HasBuffer: s.state != nil,
		Port:      s.port,
	}
	s.frameMu.Unlock()

	s.enableMu.Lock()
	st.Receiving = s.receiving
	st.LastFatal = s.lastFatal
	s.enableMu.Unlock()

	return st
}

// onFatal is the receiver.FatalHandler: it clears receiving itself under
// enableMu, resolving spec.md §9's design divergence so a fatal
// receive-thread exit never leaves the session stuck "receiving" with no
// observable cause. It deliberately never touches frameMu, so it can run
// safely from the receive thread's own goroutine without risking lock
// order with a concurrent StopReceive.
func (s *Session) onFatal(err error) {
	s.enableMu.Lock()
	s.receiving = false
	s.lastFatal = err
	s.enableMu.Unlock()
	metrics.ReceivingGauge.Set(0)
	logger.Errorf("session receive thread terminated fatally: %v", err)
}

func (s *Session) warnf(format string, args ...any) {
	metrics.WarningsEmitted.Inc()
	if s.warnings.Load() {
		logger.Warnf(format, args...)
	}
}

func (s *Session) debugf(format string, args ...any) {
	if s.verbose.Load() {
		logger.Debugf(format, args...)
	}
}

// Dispatch implements receiver.Dispatcher. It is called synchronously
// from the receive thread for every header-valid packet.
func (s *Session) Dispatch(h gvsp.Header, payload []byte) {
	switch h.Format {
	case gvsp.FormatLeader:
		s.withFrameLock(func() { s.handleLeader(payload) })

	case gvsp.FormatData:
		s.withFrameLock(func() { s.handleData(h.PacketID, payload) })

	case gvsp.FormatTrailer:
		var m pixel.Matrix
		var depth pixel.BitDepth
		var stats Stats
		var cb FrameCallback
		var ok bool
		s.withFrameLock(func() {
			m, depth, stats, cb, ok = s.handleTrailerLocked()
		})
		// Per spec.md §9's preferred callback-delivery option: copy the
		// minimal state (the already-independent decoded matrix) and
		// release frameMu before invoking consumer code.
		if ok && cb != nil {
			cb(m, depth, stats)
		}
	}
}

// withFrameLock runs f with frameMu held, unlocking via defer so a panic
// inside f (for instance from a caller-registered pixel decoder) can
// never leave frameMu permanently locked — internal/rescue.HandleCrash
// only recovers several frames higher, in receiver.Engine.readOnce, by
// which point a bare Unlock() statement would already have been skipped
// over.
func (s *Session) withFrameLock(f func()) {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	f()
}

func (s *Session) handleLeader(payload []byte) {
	if s.state == nil {
		return
	}
	if err := s.state.ApplyLeader(payload); err != nil {
		s.warnf("leader rejected: %v", err)
		metrics.FramesDropped.WithLabelValues(string(dropReasonForLeaderErr(err))).Inc()
		return
	}
	s.debugf("leader accepted: block reset, awaiting data packets")
}

func (s *Session) handleData(packetID uint32, payload []byte) {
	if s.state == nil {
		return
	}
	if err := s.state.ApplyData(packetID, payload); err != nil {
		switch {
		case errors.Is(err, frame.ErrNoLeader):
			s.warnf("data packet %d dropped: no leader received", packetID)
			metrics.FramesDropped.WithLabelValues(string(metrics.DropNoLeader)).Inc()
		default:
			s.warnf("data packet %d dropped: %v", packetID, err)
			metrics.FramesDropped.WithLabelValues(string(metrics.DropPacketBounds)).Inc()
		}
	}
}

// handleTrailerLocked runs under frameMu and returns the decoded matrix
// (if any), its bit depth, its Stats, and the current callback, plus ok
// indicating whether the caller should invoke that callback. It never
// invokes the callback itself.
func (s *Session) handleTrailerLocked() (m pixel.Matrix, depth pixel.BitDepth, stats Stats, cb FrameCallback, ok bool) {
	if s.state == nil {
		return pixel.Matrix{}, 0, Stats{}, nil, false
	}

	hadLeader := s.state.ConsumeLeaderReceived()
	if !hadLeader {
		s.warnf("trailer dropped: no leader received for current frame")
		metrics.FramesDropped.WithLabelValues(string(metrics.DropNoLeader)).Inc()
		return pixel.Matrix{}, 0, Stats{}, nil, false
	}

	if !s.state.Complete() {
		dropped := s.state.PacketCount() - s.state.ReceivedCount()
		s.warnf("%d packets dropped, frame abandoned", dropped)
		metrics.FramesDropped.WithLabelValues(string(metrics.DropPacketCount)).Inc()
		return pixel.Matrix{}, 0, Stats{}, nil, false
	}

	_, _, d, decode, supported := pixel.Lookup(s.state.PixelFormat())
	if !supported {
		s.warnf("unsupported pixel format 0x%08x, frame dropped", s.state.PixelFormat())
		metrics.FramesDropped.WithLabelValues(string(metrics.DropUnsupportedPixel)).Inc()
		return pixel.Matrix{}, 0, Stats{}, nil, false
	}

	checksum := xxhash.Sum64(s.state.Buffer())

	rows, cols := s.state.Dimensions()
	timer := metrics.NewDecodeTimer()
	start := time.Now()
	decoded, err := decode(zerocopy.NewBuffer(s.state.Buffer()), rows, cols)
	decodeDuration := time.Since(start)
	timer.ObserveDuration()
	if err != nil {
		s.warnf("pixel decode failed: %v", err)
		metrics.FramesDropped.WithLabelValues(string(metrics.DropUnsupportedPixel)).Inc()
		return pixel.Matrix{}, 0, Stats{}, nil, false
	}

	metrics.FramesCompleted.Inc()
	return decoded, d, Stats{Checksum: checksum, Decode: decodeDuration}, s.callback, true
}

func dropReasonForLeaderErr(err error) metrics.DropReason {
	switch {
	case errors.Is(err, gvsp.ErrInterlaced):
		return metrics.DropInterlaced
	case errors.Is(err, gvsp.ErrUnsupportedPayloadType):
		return metrics.DropUnsupportedType
	default:
		return metrics.DropBadHeader
	}
}
