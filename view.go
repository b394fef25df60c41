package xdpview

import "github.com/google/gopacket/layers"

// PacketView provides chained, bounds-checked accessors over the packet of
// an XDPContext, progressively narrowing from the whole packet to the
// Ethernet, IP and transport headers down to the payload.
//
// Every accessor re-reads the [data, data_end) window from the context and
// validates that the structure it is about to hand out fits in front of
// data_end. A structure that does not fit is reported as absent, never as a
// partial header. This mirrors what the kernel verifier demands of real XDP
// programs: no byte is dereferenced without a bounds comparison on the code
// path leading to the access.
type PacketView struct {
	ctx *XDPContext
}

// NewPacketView returns a view over the packet of `ctx`.
func NewPacketView(ctx *XDPContext) *PacketView {
	return &PacketView{ctx: ctx}
}

// Context returns the underlying context handle.
func (v *PacketView) Context() *XDPContext {
	return v.ctx
}

// Len returns the current packet length.
func (v *PacketView) Len() uint32 {
	return v.ctx.Len()
}

// headerAt is the single bounds primitive every accessor is built on. It
// returns the `size` bytes starting `off` bytes into the packet, or false if
// they extend past data_end.
func (v *PacketView) headerAt(off, size uint32) ([]byte, bool) {
	start := v.ctx.DataStart() + off
	if start+size > v.ctx.DataEnd() {
		return nil, false
	}
	return v.ctx.pkt.Window(start, size)
}

// Ethernet returns the packet's Ethernet header if present.
func (v *PacketView) Ethernet() (EthernetView, bool) {
	b, ok := v.headerAt(0, EthernetHeaderSize)
	if !ok {
		return EthernetView{}, false
	}
	return EthernetView{b: b}, true
}

// IP returns the packet's IPv4 header if present. Frames carrying anything
// other than IPv4 are reported as absent, they are never parsed further.
func (v *PacketView) IP() (IPv4View, bool) {
	eth, ok := v.Ethernet()
	if !ok {
		return IPv4View{}, false
	}
	if eth.EtherType() != layers.EthernetTypeIPv4 {
		return IPv4View{}, false
	}

	b, ok := v.headerAt(EthernetHeaderSize, IPv4HeaderSize)
	if !ok {
		return IPv4View{}, false
	}
	return IPv4View{b: b}, true
}

// Transport returns the packet's transport header if present. The transport
// header starts IHL*4 bytes after the IP header, not sizeof(iphdr), since IP
// options extend the header.
func (v *PacketView) Transport() (Transport, bool) {
	ip, ok := v.IP()
	if !ok {
		return Transport{}, false
	}

	base := EthernetHeaderSize + ip.HeaderLength()
	switch ip.Protocol() {
	case layers.IPProtocolTCP:
		b, ok := v.headerAt(base, TCPHeaderSize)
		if !ok {
			return Transport{}, false
		}
		return Transport{proto: layers.IPProtocolTCP, tcp: TCPView{b: b}}, true

	case layers.IPProtocolUDP:
		b, ok := v.headerAt(base, UDPHeaderSize)
		if !ok {
			return Transport{}, false
		}
		return Transport{proto: layers.IPProtocolUDP, udp: UDPView{b: b}}, true

	default:
		return Transport{}, false
	}
}

// Data returns a cursor to the packet's payload, the first byte after all
// parsed headers. For TCP the data offset field is honored, options between
// the fixed header and the payload are skipped. A cursor at data_end is
// valid and represents a packet with headers only.
func (v *PacketView) Data() (Data, bool) {
	ip, ok := v.IP()
	if !ok {
		return Data{}, false
	}
	transport, ok := v.Transport()
	if !ok {
		return Data{}, false
	}

	off := EthernetHeaderSize + ip.HeaderLength()
	switch transport.Protocol() {
	case layers.IPProtocolTCP:
		off += TCPHeaderSize
		tcp, _ := transport.TCP()
		if dataOffset := uint32(tcp.DataOffset()); dataOffset > 5 {
			off += (dataOffset - 5) * 4
		}
	case layers.IPProtocolUDP:
		off += UDPHeaderSize
	}

	// Skipping TCP options may have moved the cursor past data_end.
	if _, ok := v.headerAt(off, 0); !ok {
		return Data{}, false
	}

	return Data{ctx: v.ctx, base: v.ctx.DataStart() + off}, true
}
