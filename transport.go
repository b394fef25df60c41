package xdpview

import "github.com/google/gopacket/layers"

// Transport is the transport header of a packet, already validated to lie
// within the packet bounds. Only TCP and UDP transports are supported.
type Transport struct {
	proto layers.IPProtocol
	tcp   TCPView
	udp   UDPView
}

// Protocol returns the transport protocol, layers.IPProtocolTCP or
// layers.IPProtocolUDP.
func (t Transport) Protocol() layers.IPProtocol {
	return t.proto
}

// Source returns the source port, converted to host byte order.
func (t Transport) Source() uint16 {
	if t.proto == layers.IPProtocolTCP {
		return t.tcp.SourcePort()
	}
	return t.udp.SourcePort()
}

// Dest returns the destination port, converted to host byte order.
func (t Transport) Dest() uint16 {
	if t.proto == layers.IPProtocolTCP {
		return t.tcp.DestinationPort()
	}
	return t.udp.DestinationPort()
}

// TCP returns the protocol specific view of a TCP transport.
func (t Transport) TCP() (TCPView, bool) {
	if t.proto != layers.IPProtocolTCP {
		return TCPView{}, false
	}
	return t.tcp, true
}

// UDP returns the protocol specific view of a UDP transport.
func (t Transport) UDP() (UDPView, bool) {
	if t.proto != layers.IPProtocolUDP {
		return UDPView{}, false
	}
	return t.udp, true
}
