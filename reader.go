package xdpview

import "time"

// Record is one event read back from a PerfMap, the user space view of a
// perf sample.
type Record struct {
	// The buffer index the sample was read from.
	CPU int
	// Time since host boot at which the sample was inserted.
	Timestamp time.Duration
	// The raw sample: the fixed record in its wire layout followed by the
	// trailing packet bytes. Decode with DecodeEventData.
	RawSample []byte
	// The number of samples dropped on this buffer since the previous
	// successful read, because the buffer was full.
	LostSamples uint64
}

// PerfReader drains a PerfMap from user space, round-robinning over its
// buffers. It expects to be the only consumer of the map.
type PerfReader[T any] struct {
	m    *PerfMap[T]
	next int
}

// Reader returns a PerfReader draining this map.
func (m *PerfMap[T]) Reader() *PerfReader[T] {
	return &PerfReader[T]{m: m}
}

// Next returns the oldest record of the next non-empty buffer, or nil if all
// buffers are currently empty.
func (r *PerfReader[T]) Next() (*Record, error) {
	for i := 0; i < r.m.Indices(); i++ {
		cpu := (r.next + i) % r.m.Indices()

		rec, err := r.m.Pop(cpu)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			r.next = (cpu + 1) % r.m.Indices()
			return rec, nil
		}
	}

	return nil, nil
}

// NextEvent reads the next record and decodes it. Returns a nil record if
// all buffers are currently empty.
func (r *PerfReader[T]) NextEvent() (EventData[T], *Record, error) {
	rec, err := r.Next()
	if err != nil || rec == nil {
		return EventData[T]{}, rec, err
	}

	event, err := DecodeEventData[T](rec.RawSample)
	if err != nil {
		return EventData[T]{}, rec, err
	}

	return event, rec, nil
}
