// Package receiver runs the dedicated UDP receive loop (spec.md §5): a
// single goroutine that reads datagrams off the camera's GVSP socket,
// classifies and validates the fixed 8-byte header, and dispatches
// accepted packets to a Dispatcher. It owns no frame-reassembly state of
// its own — that belongs to whatever implements Dispatcher (session) —
// so the receive loop stays a thin, restartable I/O shim, the same
// separation sniffer/libpcap draws between its capture goroutine and the
// session's L4Packet callback.
package receiver

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valyala/bytebufferpool"

	"github.com/gvspd/gvspd/common"
	"github.com/gvspd/gvspd/gvsp"
	"github.com/gvspd/gvspd/internal/rescue"
	"github.com/gvspd/gvspd/logger"
	"github.com/gvspd/gvspd/metrics"
)

var scratchPool bytebufferpool.Pool

// Dispatcher receives a validated GVSP header and its payload slice. The
// payload slice is only valid for the duration of the call; implementers
// that need to retain bytes must copy them. Dispatch must not block for
// long — it runs on the receive loop's single goroutine.
type Dispatcher interface {
	Dispatch(h gvsp.Header, payload []byte)
}

// FatalHandler is invoked exactly once, from the receive loop's
// goroutine, when the loop is about to terminate due to an unrecoverable
// socket error. It lets session clear its receiving flag and expose the
// failure via Status() (spec.md §9's third design divergence: the
// receive thread terminating fatally clears "receiving" itself rather
// than leaving it stuck true).
type FatalHandler func(err error)

// Engine is the dedicated receive loop for one camera socket.
type Engine struct {
	conn        *net.UDPConn
	dispatcher  Dispatcher
	onFatal     FatalHandler
	readTimeout time.Duration
	verbose     atomic.Bool
	warnings    atomic.Bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine builds a receive engine bound to conn. conn is not taken
// ownership of; the caller still closes it (session does so in
// close_socket).
func NewEngine(conn *net.UDPConn, dispatcher Dispatcher, onFatal FatalHandler) *Engine {
	return &Engine{
		conn:        conn,
		dispatcher:  dispatcher,
		onFatal:     onFatal,
		readTimeout: common.SocketReadTimeout * time.Millisecond,
	}
}

// SetVerbose toggles per-packet debug logging.
func (e *Engine) SetVerbose(v bool) {
	e.verbose.Store(v)
}

// SetWarnings toggles protocol-level warning logging for header drops.
func (e *Engine) SetWarnings(v bool) {
	e.warnings.Store(v)
}

// Start spawns the receive loop goroutine. It returns immediately.
func (e *Engine) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	e.wg.Add(1)
	go e.run(ctx)

	if e.verbose.Load() {
		logger.Infof("receive engine listening on %s", e.conn.LocalAddr())
	}
}

// Stop signals the receive loop to exit and waits for it to return. Safe
// to call even if the loop already exited on its own after a fatal error.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
}

func (e *Engine) run(ctx context.Context) {
	defer e.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := e.readOnce(); err != nil {
			if isTimeout(err) {
				continue
			}
			if ctx.Err() != nil {
				// Stop() closed the race with us; conn errors from our
				// own cancellation are not fatal.
				return
			}
			logger.Errorf("receive engine terminating after fatal socket error: %v", err)
			if e.onFatal != nil {
				e.onFatal(err)
			}
			return
		}
	}
}

// readOnce reads and dispatches a single datagram. Panics inside
// dispatch (for instance from a caller-registered pixel decoder) are
// recovered so one bad frame never takes the receive loop down.
func (e *Engine) readOnce() (err error) {
	defer rescue.HandleCrash()

	bb := scratchPool.Get()
	defer scratchPool.Put(bb)
	if cap(bb.B) < common.ScratchBufferSize {
		bb.B = make([]byte, common.ScratchBufferSize)
	} else {
		bb.B = bb.B[:common.ScratchBufferSize]
	}

	if err = e.conn.SetReadDeadline(time.Now().Add(e.readTimeout)); err != nil {
		return err
	}

	n, _, err := e.conn.ReadFromUDP(bb.B)
	if err != nil {
		return err
	}

	e.handle(bb.B[:n])
	return nil
}

func (e *Engine) handle(b []byte) {
	h, err := gvsp.ParseHeader(b)
	if err != nil {
		metrics.WarningsEmitted.Inc()
		metrics.FramesDropped.WithLabelValues(string(metrics.DropBadHeader)).Inc()
		if e.warnings.Load() {
			logger.Warnf("dropped short datagram (%d bytes): %v", len(b), err)
		}
		return
	}

	metrics.PacketsReceived.WithLabelValues(string(classify(h.Format))).Inc()

	if !h.Validate() {
		reason := metrics.DropBadHeader
		if h.Extended {
			reason = metrics.DropExtendedID
		}
		metrics.WarningsEmitted.Inc()
		metrics.FramesDropped.WithLabelValues(string(reason)).Inc()
		if e.warnings.Load() {
			logger.Warnf("dropped invalid header: status=%d block_id=%d extended=%v format=%d",
				h.Status, h.BlockID, h.Extended, h.Format)
		}
		return
	}

	if e.verbose.Load() {
		logger.Debugf("packet block_id=%d format=%d packet_id=%d", h.BlockID, h.Format, h.PacketID)
	}

	e.dispatcher.Dispatch(h, gvsp.Payload(b))
}

func classify(f gvsp.Format) metrics.PacketFormat {
	switch f {
	case gvsp.FormatLeader:
		return metrics.PacketLeader
	case gvsp.FormatTrailer:
		return metrics.PacketTrailer
	case gvsp.FormatData:
		return metrics.PacketData
	default:
		return metrics.PacketUnknown
	}
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
