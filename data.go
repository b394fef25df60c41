package xdpview

import "unsafe"

// Data is a cursor to the first payload byte after all parsed headers. It
// only stores the cursor position, offset and length are derived from the
// live context bounds on every call since the adjust helpers may move them.
type Data struct {
	ctx  *XDPContext
	base uint32
}

// Offset returns the offset of the cursor from the first byte of the packet.
// Zero if a head adjust moved the start of the packet past the cursor.
func (d Data) Offset() uint32 {
	start := d.ctx.DataStart()
	if start > d.base {
		return 0
	}
	return d.base - start
}

// Len returns the number of payload bytes, the packet length minus the
// length of the headers. Zero is valid and means headers only, it is also
// reported when a tail adjust moved data_end behind the cursor.
func (d Data) Len() uint32 {
	end := d.ctx.DataEnd()
	if d.base > end {
		return 0
	}
	return end - d.base
}

// Slice returns exactly `n` payload bytes, or false if fewer than `n` are
// available. It never returns a short slice.
func (d Data) Slice(n uint32) ([]byte, bool) {
	end := d.ctx.DataEnd()
	if d.base > end {
		// The cursor sits behind an adjusted data_end, nothing to hand out
		return nil, false
	}

	full, ok := d.ctx.pkt.Window(d.base, end-d.base)
	if !ok || n > uint32(len(full)) {
		return nil, false
	}
	return full[:n], true
}

// ReadData interprets the leading payload bytes as an in-memory value of
// type T and returns it by value. The load is a byte-for-byte copy, packet
// buffers carry no alignment guarantee for arbitrary T. Returns false if the
// payload is shorter than T.
func ReadData[T any](d Data) (T, bool) {
	var v T
	size := uint32(unsafe.Sizeof(v))

	b, ok := d.Slice(size)
	if !ok {
		return v, false
	}

	copy(unsafe.Slice((*byte)(unsafe.Pointer(&v)), size), b)
	return v, true
}
