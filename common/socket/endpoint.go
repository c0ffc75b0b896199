// Package socket holds the small IP/port value types the session package
// uses to describe the host's bound UDP endpoint and the camera's
// endpoint.
//
// Trimmed down from a general four-tuple connection model: a GVSP session
// only ever talks to a single camera, so there is no connection table to
// key by socket.Tuple here, just the two endpoints of one UDP flow.
package socket

import (
	"fmt"
	"net"
)

// IPV wraps a net.IP so it can be used as a map key and compared by value.
type IPV [net.IPv6len]byte

// ToIPV converts a net.IP into its comparable IPV representation.
func ToIPV(ip net.IP) IPV {
	var dst IPV
	copy(dst[:], ip.To16())
	return dst
}

func (v IPV) NetIP() net.IP {
	return net.IP(v[:])
}

func (v IPV) String() string {
	return v.NetIP().String()
}

// Port is a UDP port number.
type Port uint16

// Endpoint identifies one side of the GVSP UDP flow: an IP and a port.
type Endpoint struct {
	IP   IPV
	Port Port
}

func EndpointFromUDPAddr(addr *net.UDPAddr) Endpoint {
	return Endpoint{
		IP:   ToIPV(addr.IP),
		Port: Port(addr.Port),
	}
}

func (e Endpoint) UDPAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: e.IP.NetIP(), Port: int(e.Port)}
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.IP, e.Port)
}
