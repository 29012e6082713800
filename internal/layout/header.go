package layout

import (
	"fmt"

	"github.com/reigadegr/smemkit/internal/buf"
)

// Header is a zero-copy view of the global header at the start of the
// primary region. During discovery only the first 4 KiB window is mapped,
// which covers every scalar field; the table of contents is reachable only
// once the whole region is mapped, so Entry checks bounds on each call.
type Header struct {
	raw []byte
}

// ParseHeader returns a header view over b. b must cover at least the fixed
// fields in front of the table of contents.
func ParseHeader(b []byte) (*Header, error) {
	if len(b) < HdrTocOff {
		return nil, fmt.Errorf("header: %w (%d bytes)", ErrTruncated, len(b))
	}
	return &Header{raw: b}, nil
}

// ValidateReady checks that the boot loader finished initializing the heap:
// initialized must be 1 and the reserved field must be 0.
func (h *Header) ValidateReady() error {
	if h.Initialized() != 1 || h.Reserved() != 0 {
		return ErrNotInitialized
	}
	return nil
}

// Initialized returns the initialized flag.
func (h *Header) Initialized() uint32 { return buf.ReadU32(h.raw, HdrInitializedOff) }

// Reserved returns the reserved field, defined to be 0.
func (h *Header) Reserved() uint32 { return buf.ReadU32(h.raw, HdrReservedOff) }

// Version returns the version slot for subsystem i, or 0 when out of range.
func (h *Header) Version(i int) uint32 {
	if i < 0 || i >= HdrVersionSlots {
		return 0
	}
	return buf.ReadU32(h.raw, HdrVersionOff+4*i)
}

// SBLVersion returns the boot loader's heap-layout version slot. The high
// 16 bits select the layout generation.
func (h *Header) SBLVersion() uint32 { return h.Version(SBLVersionIndex) }

// FreeOffset returns the index of the first unallocated byte of the flat heap.
func (h *Header) FreeOffset() uint32 { return buf.ReadU32(h.raw, HdrFreeOffsetOff) }

// Available returns the number of bytes left for allocation in the flat heap.
func (h *Header) Available() uint32 { return buf.ReadU32(h.raw, HdrAvailableOff) }

// SetFreeOffset updates free_offset. Only called after an entry has been
// published; ordering against the publish word is the caller's concern.
func (h *Header) SetFreeOffset(v uint32) { buf.PutU32(h.raw, HdrFreeOffsetOff, v) }

// SetAvailable updates available.
func (h *Header) SetAvailable(v uint32) { buf.PutU32(h.raw, HdrAvailableOff, v) }

// Entry returns a view of table-of-contents slot item. Fails when the
// mapped window does not reach the slot or the item is out of table range.
func (h *Header) Entry(item int) (GlobalEntry, error) {
	if item < 0 || item >= ItemCount {
		return GlobalEntry{}, fmt.Errorf("header: toc slot %d out of range", item)
	}
	off := HdrTocOff + item*GlobalEntrySize
	raw, ok := buf.Slice(h.raw, off, GlobalEntrySize)
	if !ok {
		return GlobalEntry{}, fmt.Errorf("header: toc slot %d: %w", item, ErrTruncated)
	}
	return GlobalEntry{raw: raw}, nil
}

// GlobalEntry is a view of one fixed table-of-contents slot.
type GlobalEntry struct {
	raw []byte
}

// Allocated reports whether the slot has been published, with acquire
// ordering so the other fields are stable once it returns true.
func (e GlobalEntry) Allocated() bool { return buf.U32Acquire(e.raw, GEntAllocatedOff) != 0 }

// Offset returns the item's offset within its region.
func (e GlobalEntry) Offset() uint32 { return buf.ReadU32(e.raw, GEntOffsetOff) }

// Size returns the item's 8-byte aligned size.
func (e GlobalEntry) Size() uint32 { return buf.ReadU32(e.raw, GEntSizeOff) }

// AuxBase identifies the region the offset is relative to, with the two
// reserved low bits cleared. Zero means the primary region.
func (e GlobalEntry) AuxBase() uint32 {
	return buf.ReadU32(e.raw, GEntAuxBaseOff) & AuxBaseMask
}

// SetOffset writes the item's offset. Must precede Publish.
func (e GlobalEntry) SetOffset(v uint32) { buf.PutU32(e.raw, GEntOffsetOff, v) }

// SetSize writes the item's size. Must precede Publish.
func (e GlobalEntry) SetSize(v uint32) { buf.PutU32(e.raw, GEntSizeOff, v) }

// Publish flips the allocated flag with release ordering. Once set, offset,
// size, and aux_base are immutable; unlocked readers on remote processors
// rely on this store coming last.
func (e GlobalEntry) Publish() { buf.PutU32Release(e.raw, GEntAllocatedOff, 1) }
