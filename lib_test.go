package xdpview

// This file contains functions to build test frames, handy since crafting
// packets by hand can be very repetitive

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

var (
	testSrcMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	testDstMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02}
	testSrcIP  = net.IP{192, 0, 2, 1}
	testDstIP  = net.IP{192, 0, 2, 2}
)

// udpFrame serializes an Ethernet+IPv4+UDP frame carrying `payload`.
func udpFrame(t *testing.T, srcPort, dstPort uint16, payload []byte) []byte {
	t.Helper()

	eth := &layers.Ethernet{
		SrcMAC:       testSrcMAC,
		DstMAC:       testDstMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    testSrcIP,
		DstIP:    testDstIP,
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(srcPort),
		DstPort: layers.UDPPort(dstPort),
	}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		t.Fatal(err)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload))
	if err != nil {
		t.Fatal(err)
	}

	// gopacket pads Ethernet frames to the 60-byte minimum; trim back to the
	// exact header+payload length the tests expect.
	return buf.Bytes()[:EthernetHeaderSize+IPv4HeaderSize+UDPHeaderSize+len(payload)]
}

// tcpFrame serializes an Ethernet+IPv4+TCP frame carrying `payload`.
func tcpFrame(t *testing.T, srcPort, dstPort uint16, payload []byte) []byte {
	t.Helper()

	eth := &layers.Ethernet{
		SrcMAC:       testSrcMAC,
		DstMAC:       testDstMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    testSrcIP,
		DstIP:    testDstIP,
	}
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(srcPort),
		DstPort: layers.TCPPort(dstPort),
		SYN:     true,
		Window:  64240,
	}
	if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
		t.Fatal(err)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	err := gopacket.SerializeLayers(buf, opts, eth, ip, tcp, gopacket.Payload(payload))
	if err != nil {
		t.Fatal(err)
	}

	return buf.Bytes()
}

// rawTCPFrame hand-builds an Ethernet+IPv4+TCP frame so tests control the
// data offset field and option bytes exactly. `dataOffset` is in 32-bit
// words, options must be (dataOffset-5)*4 bytes.
func rawTCPFrame(t *testing.T, dataOffset uint8, options, payload []byte) []byte {
	t.Helper()

	if len(options) != int(dataOffset-5)*4 {
		t.Fatalf("data offset %d needs %d option bytes, got %d", dataOffset, int(dataOffset-5)*4, len(options))
	}

	frame := make([]byte, 0, EthernetHeaderSize+IPv4HeaderSize+TCPHeaderSize+len(options)+len(payload))

	// Ethernet
	frame = append(frame, testDstMAC...)
	frame = append(frame, testSrcMAC...)
	frame = append(frame, 0x08, 0x00) // IPv4

	// IPv4, IHL=5, protocol TCP
	ipv4 := make([]byte, IPv4HeaderSize)
	ipv4[0] = 0x45
	ipv4[8] = 64 // TTL
	ipv4[9] = 6  // TCP
	copy(ipv4[12:16], testSrcIP)
	copy(ipv4[16:20], testDstIP)
	frame = append(frame, ipv4...)

	// TCP, ports 4040 -> 80
	tcp := make([]byte, TCPHeaderSize)
	tcp[0], tcp[1] = 0x0f, 0xc8 // 4040
	tcp[2], tcp[3] = 0x00, 0x50 // 80
	tcp[12] = dataOffset << 4
	frame = append(frame, tcp...)

	frame = append(frame, options...)
	frame = append(frame, payload...)

	return frame
}
