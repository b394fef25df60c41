package xdpview

import (
	"fmt"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/asm"
)

const (
	// Mask containing the desired buffer index
	perfFlagIndexMask = 0xffffffff
	// PerfFlagCurrentCPU keys an event by the CPU the handler runs on
	// instead of an explicit index.
	PerfFlagCurrentCPU = perfFlagIndexMask
)

// PerfMapFlags select the perf event array index an event is delivered to
// and how many trailing packet bytes the channel appends to the event.
type PerfMapFlags struct {
	// The buffer index, or PerfFlagCurrentCPU.
	Index uint64
	// The number of packet bytes to append after the fixed record. Insert
	// overwrites this with the record's own payload size, the two are never
	// allowed to disagree.
	XDPSize uint32
}

// PerfMapFlagsWithXDPSize returns flags keyed by the current CPU which
// append `size` packet bytes to the event.
func PerfMapFlagsWithXDPSize(size uint32) PerfMapFlags {
	return PerfMapFlags{
		Index:   PerfFlagCurrentCPU,
		XDPSize: size,
	}
}

// PerfMap is an emulated BPF_MAP_TYPE_PERF_EVENT_ARRAY carrying EventData[T]
// records. Each index is backed by its own ring buffer, events are delivered
// to the index matching the CPU of the inserting handler unless the flags
// say otherwise. The map has no set value size, each event can carry a
// different number of trailing packet bytes.
type PerfMap[T any] struct {
	Spec *ebpf.MapSpec

	buffers  []*ringBuffer
	lost     []uint64
	bootTime time.Time
}

// Size of the per-entry header inside a ring: a 4 byte sample length
// followed by an 8 byte boot-relative nanosecond timestamp.
const perfEntryHeaderSize = 4 + 8

// NewPerfMap constructs a perf map from its spec. Spec.MaxEntries is the
// number of per-CPU buffers, zero means one per logical CPU of the host.
// `bufferSize` is the byte capacity of each ring, zero picks one page, any
// other value is rounded up to a multiple of the page size.
func NewPerfMap[T any](spec *ebpf.MapSpec, bufferSize int) (*PerfMap[T], error) {
	if spec.Type != ebpf.PerfEventArray {
		return nil, fmt.Errorf("map type is '%s', expected '%s'", spec.Type, ebpf.PerfEventArray)
	}

	pageSize := os.Getpagesize()
	if bufferSize <= 0 {
		bufferSize = pageSize
	}
	// Round up to the nearest multiple of the page size
	if rem := bufferSize % pageSize; rem != 0 {
		bufferSize += pageSize - rem
	}

	indices := int(spec.MaxEntries)
	if indices == 0 {
		indices = runtime.NumCPU()
	}

	m := &PerfMap[T]{
		Spec:     spec,
		lost:     make([]uint64, indices),
		bootTime: timeOfBoot(),
	}
	for i := 0; i < indices; i++ {
		m.buffers = append(m.buffers, newRingBuffer(bufferSize))
	}

	return m, nil
}

// Indices returns the number of per-CPU buffers.
func (m *PerfMap[T]) Indices() int {
	return len(m.buffers)
}

// Insert delivers `data` to the buffer keyed by `cpuid`, the CPU the calling
// handler runs on, appending data.PayloadSize() packet bytes read from the
// packet's data start. If you want to key by something other than the
// current CPU, see InsertWithFlags.
func (m *PerfMap[T]) Insert(ctx *XDPContext, cpuid int, data EventData[T]) error {
	return m.InsertWithFlags(ctx, cpuid, data, PerfMapFlagsWithXDPSize(data.size))
}

// InsertWithFlags delivers `data` to the buffer selected by `flags`. The
// flags' trailing byte count is always overwritten with the record's own
// payload size.
func (m *PerfMap[T]) InsertWithFlags(ctx *XDPContext, cpuid int, data EventData[T], flags PerfMapFlags) error {
	flags.XDPSize = data.size

	idx := flags.Index & perfFlagIndexMask
	if idx == PerfFlagCurrentCPU {
		idx = uint64(cpuid)
	}
	if int(idx) >= len(m.buffers) {
		return fmt.Errorf("index %d outside of available buffers", idx)
	}

	// The channel appends packet bytes counted from the packet's data start,
	// asking for more than the packet holds is a bad access.
	if flags.XDPSize > ctx.Len() {
		return fmt.Errorf("%d trailing bytes requested, packet is %d bytes", flags.XDPSize, ctx.Len())
	}

	sample := data.marshal()
	if flags.XDPSize > 0 {
		trailing := make([]byte, flags.XDPSize)
		if err := ctx.Memory().Read(ctx.DataStart(), trailing); err != nil {
			return fmt.Errorf("read packet: %w", err)
		}
		sample = append(sample, trailing...)
	}

	entry := &PacketMemory{
		Backing: make([]byte, perfEntryHeaderSize+len(sample)),
	}
	if err := entry.Store(0, uint64(len(sample)), asm.Word); err != nil {
		return fmt.Errorf("store sample length: %w", err)
	}
	if err := entry.Store(4, uint64(time.Since(m.bootTime)), asm.DWord); err != nil {
		return fmt.Errorf("store timestamp: %w", err)
	}
	if err := entry.Write(perfEntryHeaderSize, sample); err != nil {
		return fmt.Errorf("write sample: %w", err)
	}

	if err := m.buffers[idx].Write(entry.Backing); err != nil {
		// Buffer full, the event is gone. Count it so the reader can report
		// the loss, and surface the failure to the caller.
		atomic.AddUint64(&m.lost[idx], 1)
		return fmt.Errorf("buffer %d: %w", idx, err)
	}

	return nil
}

// Pop removes and returns the oldest record of the given buffer index, or
// nil if the buffer is empty.
func (m *PerfMap[T]) Pop(cpuid int) (*Record, error) {
	if cpuid < 0 || cpuid >= len(m.buffers) {
		return nil, fmt.Errorf("cpu id outside of available buffers")
	}

	buf := m.buffers[cpuid]

	header := &PacketMemory{
		Backing: make([]byte, perfEntryHeaderSize),
	}
	n, err := buf.Read(header.Backing)
	if err != nil {
		return nil, fmt.Errorf("buf read header: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	if n != perfEntryHeaderSize {
		return nil, fmt.Errorf("truncated entry header: %d bytes", n)
	}

	sampleLen, err := header.Load(0, asm.Word)
	if err != nil {
		return nil, fmt.Errorf("load sample length: %w", err)
	}
	ts, err := header.Load(4, asm.DWord)
	if err != nil {
		return nil, fmt.Errorf("load timestamp: %w", err)
	}

	sample := make([]byte, sampleLen)
	n, err = buf.Read(sample)
	if err != nil {
		return nil, fmt.Errorf("buf read sample: %w", err)
	}
	if n != len(sample) {
		return nil, fmt.Errorf("truncated sample: got %d of %d bytes", n, len(sample))
	}

	return &Record{
		CPU:         cpuid,
		Timestamp:   time.Duration(ts),
		RawSample:   sample,
		LostSamples: atomic.SwapUint64(&m.lost[cpuid], 0),
	}, nil
}
