package xdpview

import (
	"encoding/binary"
	"fmt"
	"sync"
	"unsafe"

	"github.com/cilium/ebpf/asm"
)

// PacketMemory holds the backing bytes of an emulated packet, headroom and
// tailroom included. It is just a []byte with bounds-checked accessors, the
// ByteOrder is used when Load'ing or Store'ing scalar values. If ByteOrder is
// not set the native endianness will be used.
type PacketMemory struct {
	Backing   []byte
	ByteOrder binary.ByteOrder
}

// Load loads a scalar value of the given `size` and `offset` from the memory.
func (pm *PacketMemory) Load(offset uint32, size asm.Size) (uint64, error) {
	bytes := size.Sizeof()
	if int(offset)+bytes > len(pm.Backing) {
		return 0, fmt.Errorf(
			"reading %d bytes at offset %d will read out of the memory bounds of %d bytes",
			bytes,
			offset,
			len(pm.Backing),
		)
	}

	bo := pm.ByteOrder
	if bo == nil {
		bo = GetNativeEndianness()
	}

	switch size {
	case asm.Byte:
		return uint64(pm.Backing[offset]), nil
	case asm.Half:
		return uint64(bo.Uint16(pm.Backing[offset : offset+2])), nil
	case asm.Word:
		return uint64(bo.Uint32(pm.Backing[offset : offset+4])), nil
	case asm.DWord:
		return bo.Uint64(pm.Backing[offset : offset+8]), nil
	default:
		return 0, fmt.Errorf("unknown size '%v'", size)
	}
}

// Store stores a scalar value of the given `size` at `offset` in the memory.
func (pm *PacketMemory) Store(offset uint32, value uint64, size asm.Size) error {
	bytes := size.Sizeof()
	if int(offset)+bytes > len(pm.Backing) {
		return fmt.Errorf(
			"writing %d bytes at offset %d will overflow the memory of %d bytes",
			bytes,
			offset,
			len(pm.Backing),
		)
	}

	bo := pm.ByteOrder
	if bo == nil {
		bo = GetNativeEndianness()
	}

	b := make([]byte, bytes)
	switch size {
	case asm.Byte:
		b[0] = byte(value)
	case asm.Half:
		bo.PutUint16(b, uint16(value))
	case asm.Word:
		bo.PutUint32(b, uint32(value))
	case asm.DWord:
		bo.PutUint64(b, value)
	default:
		return fmt.Errorf("unknown size '%v'", size)
	}

	copy(pm.Backing[offset:], b)

	return nil
}

// Read reads a byte slice of arbitrary size, the length of 'b' is used to determine the requested size
func (pm *PacketMemory) Read(offset uint32, b []byte) error {
	if int(offset)+len(b) > len(pm.Backing) {
		return fmt.Errorf(
			"reading %d bytes at offset %d will read out of the memory bounds of %d bytes",
			len(b),
			offset,
			len(pm.Backing),
		)
	}

	copy(b, pm.Backing[offset:])

	return nil
}

// Window returns a zero-copy view of `size` bytes at `offset`, or false if
// they extend past the backing. This is the only place views into the packet
// memory are handed out.
func (pm *PacketMemory) Window(offset, size uint32) ([]byte, bool) {
	if int(offset)+int(size) > len(pm.Backing) {
		return nil, false
	}
	return pm.Backing[offset : offset+size], true
}

// Write write a byte slice of arbitrary size to the memory
func (pm *PacketMemory) Write(offset uint32, b []byte) error {
	if int(offset)+len(b) > len(pm.Backing) {
		return fmt.Errorf(
			"writing %d bytes at offset %d will overflow the memory of %d bytes",
			len(b),
			offset,
			len(pm.Backing),
		)
	}

	copy(pm.Backing[offset:], b)

	return nil
}

var (
	nativeEndian     binary.ByteOrder
	nativeEndianOnce sync.Once
)

// GetNativeEndianness returns the binary.ByteOrder matching the endianess of
// the current machine. Safe to call from concurrent pipeline workers.
func GetNativeEndianness() binary.ByteOrder {
	nativeEndianOnce.Do(func() {
		buf := [2]byte{}
		*(*uint16)(unsafe.Pointer(&buf[0])) = uint16(0xABCD)

		switch buf {
		case [2]byte{0xCD, 0xAB}:
			nativeEndian = binary.LittleEndian
		case [2]byte{0xAB, 0xCD}:
			nativeEndian = binary.BigEndian
		default:
			panic("Could not determine native endianness.")
		}
	})

	return nativeEndian
}
