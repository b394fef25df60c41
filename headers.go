package xdpview

import (
	"encoding/binary"

	"github.com/google/gopacket/layers"
)

// Wire sizes of the fixed parts of the protocol headers this parser walks.
// The IPv4 and TCP headers can be longer on the wire, their real lengths are
// carried in the IHL and data offset fields.
const (
	EthernetHeaderSize = 14
	IPv4HeaderSize     = 20
	TCPHeaderSize      = 20
	UDPHeaderSize      = 8
)

// EthernetView is a validated view over the 14 fixed bytes of an Ethernet
// header. All multi-byte fields are read in network byte order on access.
type EthernetView struct {
	b []byte
}

// Destination returns the destination MAC address.
func (e EthernetView) Destination() [6]byte {
	var mac [6]byte
	copy(mac[:], e.b[0:6])
	return mac
}

// Source returns the source MAC address.
func (e EthernetView) Source() [6]byte {
	var mac [6]byte
	copy(mac[:], e.b[6:12])
	return mac
}

// EtherType returns the protocol type of the encapsulated payload.
func (e EthernetView) EtherType() layers.EthernetType {
	return layers.EthernetType(binary.BigEndian.Uint16(e.b[12:14]))
}

// IPv4View is a validated view over the 20 fixed bytes of an IPv4 header.
type IPv4View struct {
	b []byte
}

// IHL returns the header length field, a count of 32-bit words.
func (ip IPv4View) IHL() uint8 {
	return ip.b[0] & 0x0f
}

// HeaderLength returns the real header length in bytes, IP options included.
func (ip IPv4View) HeaderLength() uint32 {
	return uint32(ip.IHL()) * 4
}

// Protocol returns the protocol of the encapsulated payload.
func (ip IPv4View) Protocol() layers.IPProtocol {
	return layers.IPProtocol(ip.b[9])
}

// TTL returns the time-to-live field.
func (ip IPv4View) TTL() uint8 {
	return ip.b[8]
}

// SourceAddr returns the source address field.
func (ip IPv4View) SourceAddr() [4]byte {
	var addr [4]byte
	copy(addr[:], ip.b[12:16])
	return addr
}

// DestinationAddr returns the destination address field.
func (ip IPv4View) DestinationAddr() [4]byte {
	var addr [4]byte
	copy(addr[:], ip.b[16:20])
	return addr
}

// TCPView is a validated view over the 20 fixed bytes of a TCP header.
type TCPView struct {
	b []byte
}

// SourcePort returns the source port in host byte order.
func (t TCPView) SourcePort() uint16 {
	return binary.BigEndian.Uint16(t.b[0:2])
}

// DestinationPort returns the destination port in host byte order.
func (t TCPView) DestinationPort() uint16 {
	return binary.BigEndian.Uint16(t.b[2:4])
}

// Sequence returns the sequence number.
func (t TCPView) Sequence() uint32 {
	return binary.BigEndian.Uint32(t.b[4:8])
}

// DataOffset returns the data offset field, a count of 32-bit words making
// up the TCP header including options. The minimum valid value is 5.
func (t TCPView) DataOffset() uint8 {
	return t.b[12] >> 4
}

// UDPView is a validated view over the 8 bytes of a UDP header.
type UDPView struct {
	b []byte
}

// SourcePort returns the source port in host byte order.
func (u UDPView) SourcePort() uint16 {
	return binary.BigEndian.Uint16(u.b[0:2])
}

// DestinationPort returns the destination port in host byte order.
func (u UDPView) DestinationPort() uint16 {
	return binary.BigEndian.Uint16(u.b[2:4])
}

// Length returns the length field, UDP header included.
func (u UDPView) Length() uint16 {
	return binary.BigEndian.Uint16(u.b[4:6])
}
