package xdpview

import (
	"sync"
	"syscall"
)

// ringBuffer backs a single index of a PerfMap. It is a fixed capacity byte
// ring, reads and writes wrap around to the start of the backing array.
type ringBuffer struct {
	mu      sync.Mutex
	writer  uint32
	reader  uint32
	backing []byte
}

func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{
		backing: make([]byte, size),
	}
}

// Write writes the contents of b to the ring buffer if there is room and
// advances the writer pointer by the written amount. Returns syscall.E2BIG
// if the buffer has not enough room, matching what the kernel reports when a
// perf buffer overflows.
func (rb *ringBuffer) Write(b []byte) error {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if len(b) >= int(rb.remaining()) {
		return syscall.E2BIG
	}

	// Copy from the writer to the end of the backing, wrap around for any
	// remainder.
	n := copy(rb.backing[rb.writer:], b)
	if n < len(b) {
		copy(rb.backing, b[n:])
	}

	rb.writer += uint32(len(b))
	if rb.writer > rb.size() {
		rb.writer -= rb.size()
	}

	return nil
}

// Read reads `len(b)` bytes from the buffer and copies them into `b`, unless
// the ring holds fewer bytes in which case only those are copied. Read
// advances the reader pointer by the amount of bytes read.
func (rb *ringBuffer) Read(b []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if uint32(len(b)) > rb.used() {
		// Shorten b so we never read past the writer offset
		b = b[:rb.used()]
	}

	n := copy(b, rb.backing[rb.reader:])
	if n < len(b) {
		copy(b[n:], rb.backing)
	}

	rb.reader += uint32(len(b))
	if rb.reader > rb.size() {
		rb.reader -= rb.size()
	}

	return len(b), nil
}

// Used is the total amount of bytes currently in use
func (rb *ringBuffer) Used() uint32 {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.used()
}

func (rb *ringBuffer) used() uint32 {
	if rb.writer >= rb.reader {
		return rb.writer - rb.reader
	}

	return rb.size() - (rb.reader - rb.writer)
}

// Remaining is the amount of free room in the buffer
func (rb *ringBuffer) Remaining() uint32 {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.remaining()
}

func (rb *ringBuffer) remaining() uint32 {
	return rb.size() - rb.used()
}

func (rb *ringBuffer) size() uint32 {
	return uint32(len(rb.backing))
}
