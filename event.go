package xdpview

import (
	"fmt"
	"unsafe"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// EventData is a typed record exchanged with the event consumer: a fixed
// size value of type T followed, on the wire, by a variable number of raw
// packet bytes. The trailing bytes are not part of the record's own memory,
// the export channel appends them right after the fixed fields. `size` is
// the total trailing byte count, `offset` is how many leading trailing bytes
// the consumer should skip when reading the payload back.
type EventData[T any] struct {
	Data T

	offset uint32
	size   uint32

	// The trailing bytes, only set on records produced by DecodeEventData.
	trailing []byte
}

// eventWire pins down the wire layout of the fixed part of the record, the
// equivalent of C `struct { T data; __u32 offset; __u32 size; }`.
type eventWire[T any] struct {
	data   T
	offset uint32
	size   uint32
}

// EventDataSize returns the wire size of the fixed part of an EventData[T].
func EventDataSize[T any]() int {
	return int(unsafe.Sizeof(eventWire[T]{}))
}

// NewEventData returns a record carrying only `data` and no packet payload.
func NewEventData[T any](data T) EventData[T] {
	return EventDataWithPayload(data, 0, 0)
}

// EventDataWithPayload returns a record carrying `data` plus `size` trailing
// payload bytes, where the interesting part of the payload starts at
// `offset`. `size` is expected to be at least `offset`, the pair is not
// validated here, the export and decode boundaries reject inconsistent
// records.
func EventDataWithPayload[T any](data T, offset, size uint32) EventData[T] {
	return EventData[T]{
		Data:   data,
		offset: offset,
		size:   size,
	}
}

// PayloadOffset returns the number of leading trailing bytes the consumer
// skips when reading the payload.
func (e EventData[T]) PayloadOffset() uint32 {
	return e.offset
}

// PayloadSize returns the total number of trailing bytes.
func (e EventData[T]) PayloadSize() uint32 {
	return e.size
}

// Payload returns the payload if any, skipping the initial `offset` bytes of
// the trailing region. Only records produced by DecodeEventData have been
// followed by their trailing bytes, for any other record the payload is nil.
func (e EventData[T]) Payload() []byte {
	if e.trailing == nil {
		return nil
	}
	return e.trailing[e.offset:e.size]
}

// Frame parses the full trailing region as an Ethernet frame. The trailing
// bytes of an exported record start at the packet's data start, so they form
// a prefix of the original frame.
func (e EventData[T]) Frame() gopacket.Packet {
	if e.trailing == nil {
		return nil
	}
	return gopacket.NewPacket(e.trailing[:e.size], layers.LayerTypeEthernet, gopacket.Default)
}

// marshal renders the fixed part of the record in its wire layout.
func (e EventData[T]) marshal() []byte {
	wire := eventWire[T]{
		data:   e.Data,
		offset: e.offset,
		size:   e.size,
	}

	b := make([]byte, unsafe.Sizeof(wire))
	copy(b, unsafe.Slice((*byte)(unsafe.Pointer(&wire)), len(b)))
	return b
}

// DecodeEventData parses a raw sample back into an EventData. The record
// retains the trailing bytes so Payload and Frame can reconstruct their
// views, `raw` must not be modified afterwards.
func DecodeEventData[T any](raw []byte) (EventData[T], error) {
	var wire eventWire[T]
	fixed := int(unsafe.Sizeof(wire))

	if len(raw) < fixed {
		return EventData[T]{}, fmt.Errorf("short sample: got %d bytes, fixed record is %d", len(raw), fixed)
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&wire)), fixed), raw[:fixed])

	if wire.offset > wire.size {
		return EventData[T]{}, fmt.Errorf("payload offset %d exceeds payload size %d", wire.offset, wire.size)
	}
	if len(raw)-fixed < int(wire.size) {
		return EventData[T]{}, fmt.Errorf(
			"record claims %d trailing bytes, sample carries %d",
			wire.size,
			len(raw)-fixed,
		)
	}

	return EventData[T]{
		Data:     wire.data,
		offset:   wire.offset,
		size:     wire.size,
		trailing: raw[fixed:],
	}, nil
}
