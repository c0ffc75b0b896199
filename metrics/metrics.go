// Package metrics exposes the Prometheus counters/gauges/histograms for
// the GVSP receiver. All metrics are registered eagerly via promauto so
// any process that imports this package gets them on the default
// registry; server.Server mounts /metrics over promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gvspd/gvspd/common"
)

// PacketFormat labels the packet-format nibble classification from the
// GVSP header (spec.md §4.1): leader, trailer, data, or unknown for any
// other nibble. Headers that later fail validation keep their nibble's
// label.
type PacketFormat string

const (
	PacketLeader  PacketFormat = "leader"
	PacketTrailer PacketFormat = "trailer"
	PacketData    PacketFormat = "data"
	PacketUnknown PacketFormat = "unknown"
)

// DropReason labels why a frame or packet was dropped.
type DropReason string

const (
	DropBadHeader        DropReason = "bad_header"
	DropExtendedID       DropReason = "extended_id"
	DropInterlaced       DropReason = "interlaced"
	DropUnsupportedType  DropReason = "unsupported_payload_type"
	DropNoLeader         DropReason = "no_leader"
	DropPacketBounds     DropReason = "packet_bounds"
	DropPacketCount      DropReason = "packet_count_mismatch"
	DropUnsupportedPixel DropReason = "unsupported_pixel_format"
)

var (
	PacketsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: common.App,
		Name:      "packets_received_total",
		Help:      "GVSP packets received, labeled by packet-format classification.",
	}, []string{"format"})

	FramesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: common.App,
		Name:      "frames_completed_total",
		Help:      "GVSP frames that reached a trailer with a complete reassembly buffer and decoded successfully.",
	})

	FramesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: common.App,
		Name:      "frames_dropped_total",
		Help:      "GVSP frames abandoned before a callback was invoked, and individual packets dropped, labeled by reason.",
	}, []string{"reason"})

	WarningsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: common.App,
		Name:      "warnings_total",
		Help:      "Protocol-level warnings emitted by the receive engine.",
	})

	PixelDecodeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: common.App,
		Name:      "pixel_decode_duration_seconds",
		Help:      "Time spent decoding one frame's reassembly buffer into a pixel matrix.",
		Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 14),
	})

	PanicTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: common.App,
		Name:      "panic_total",
		Help:      "Panics recovered from the receive loop.",
	})

	ReceivingGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: common.App,
		Name:      "receiving",
		Help:      "1 while the receive thread is running, 0 otherwise.",
	})
)

// NewDecodeTimer starts a timer that records into PixelDecodeDuration
// when its ObserveDuration method is called.
func NewDecodeTimer() *prometheus.Timer {
	return prometheus.NewTimer(PixelDecodeDuration)
}
