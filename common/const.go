// Package common holds small cross-cutting constants and helpers shared by
// every package in the module.
package common

const (
	// App is the application name, used as the metrics namespace and in
	// default log/config file names.
	App = "gvspd"

	// Version is the fallback build version when no build-time value was
	// injected via -ldflags.
	Version = "v0.0.1"

	// HeaderSize is the fixed GVSP packet header size in bytes.
	HeaderSize = 8

	// HeaderOverhead is the combined IP+UDP+GVSP header allowance the
	// caller's packet MTU must include on top of the per-packet payload.
	HeaderOverhead = 36

	// LeaderPayloadSize is the fixed leader payload length for an
	// uncompressed-image leader, following the 8-byte header.
	LeaderPayloadSize = 36

	// ScratchBufferSize is the size of the per-loop datagram scratch
	// buffer the receive engine reads into.
	ScratchBufferSize = 2048

	// FirewallTraversalSize is the length of the all-zero datagram sent
	// to the camera on start_receive to open a NAT/firewall hole.
	FirewallTraversalSize = 4

	// SocketReadTimeout bounds how long a blocking socket read can take,
	// so stop_receive always returns promptly.
	SocketReadTimeout = 100 // milliseconds
)
