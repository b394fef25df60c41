// Package xdpview provides a user space rendition of the XDP packet
// processing model: an emulated xdp_md context over a packet buffer, a
// bounds-checked chained header parser (PacketView), a typed event record
// with trailing packet payload (EventData) and an emulated per-CPU perf
// event array to deliver those records to a consumer (PerfMap).
package xdpview

import (
	"encoding/json"
	"fmt"
	"io"
	"syscall"
)

// XDPContext is the emulated equivalent of the xdp_md context handle an XDP
// program receives. It owns the packet memory for the duration of one
// invocation and tracks the [data, data_end) window within it. The window is
// not fixed, the adjust helpers move it, so consumers must re-read
// DataStart/DataEnd on every access instead of caching them.
type XDPContext struct {
	Name string

	headroom int
	tailroom int

	pkt     *PacketMemory
	data    uint32
	dataEnd uint32
}

// ContextOpt is an option which can be passed to NewXDPContext.
type ContextOpt func(*XDPContext)

// OptHeadroom reserves `n` bytes of headroom before the packet data.
func OptHeadroom(n int) ContextOpt {
	return func(c *XDPContext) {
		c.headroom = n
	}
}

// OptTailroom reserves `n` bytes of tailroom after the packet data.
func OptTailroom(n int) ContextOpt {
	return func(c *XDPContext) {
		c.tailroom = n
	}
}

// OptName sets the name of the context, used to tell packets apart in tests.
func OptName(name string) ContextOpt {
	return func(c *XDPContext) {
		c.Name = name
	}
}

// NewXDPContext constructs a context over a copy of `packet`, surrounded by
// the requested head- and tailroom.
func NewXDPContext(packet []byte, opts ...ContextOpt) *XDPContext {
	c := &XDPContext{}
	for _, opt := range opts {
		opt(c)
	}

	c.pkt = &PacketMemory{
		Backing:   make([]byte, c.headroom+len(packet)+c.tailroom),
		ByteOrder: GetNativeEndianness(),
	}
	copy(c.pkt.Backing[c.headroom:], packet)

	c.data = uint32(c.headroom)
	c.dataEnd = uint32(c.headroom + len(packet))

	return c
}

// Memory returns the raw packet memory, headroom and tailroom included.
func (c *XDPContext) Memory() *PacketMemory {
	return c.pkt
}

// DataStart returns the current offset of the first packet byte within the
// packet memory.
func (c *XDPContext) DataStart() uint32 {
	return c.data
}

// DataEnd returns the current offset just past the last packet byte within
// the packet memory.
func (c *XDPContext) DataEnd() uint32 {
	return c.dataEnd
}

// Len returns the current packet length.
func (c *XDPContext) Len() uint32 {
	return c.dataEnd - c.data
}

// AdjustHead moves the start of the packet by `delta` bytes, negative values
// grow the packet into the headroom, positive values shrink it. Mirrors the
// semantics of the bpf_xdp_adjust_head helper.
func (c *XDPContext) AdjustHead(delta int) error {
	newData := int(c.data) + delta
	if newData < 0 {
		return syscall.E2BIG
	}
	// Shrinking may not consume the whole packet
	if newData >= int(c.dataEnd) {
		return syscall.E2BIG
	}

	c.data = uint32(newData)
	return nil
}

// AdjustTail moves the end of the packet by `delta` bytes, positive values
// grow the packet into the tailroom, negative values shrink it. Mirrors the
// semantics of the bpf_xdp_adjust_tail helper.
func (c *XDPContext) AdjustTail(delta int) error {
	if delta >= 0 {
		// If the caller wants to grow beyond the available tailroom
		if int(c.dataEnd)+delta > len(c.pkt.Backing) {
			return syscall.E2BIG
		}
	} else {
		// If the caller wants to shrink beyond the start of the packet
		if -delta >= int(c.Len()) {
			return syscall.E2BIG
		}
	}

	c.dataEnd = uint32(int(c.dataEnd) + delta)
	return nil
}

type protoCtx struct {
	Name     string `json:"name"`
	Headroom int    `json:"headroom"`
	Tailroom int    `json:"tailroom"`
	Packet   []byte `json:"packet"`
}

// UnmarshalContextJSON reads a JSON encoded context, typically a test
// fixture. The top level object carries "name", "headroom", "tailroom" and a
// base64 "packet" field.
func UnmarshalContextJSON(r io.Reader) (*XDPContext, error) {
	var proto protoCtx
	d := json.NewDecoder(r)
	err := d.Decode(&proto)
	if err != nil {
		return nil, fmt.Errorf("json decode: %w", err)
	}

	return NewXDPContext(
		proto.Packet,
		OptName(proto.Name),
		OptHeadroom(proto.Headroom),
		OptTailroom(proto.Tailroom),
	), nil
}
