package layout

import (
	"bytes"
	"fmt"

	"github.com/reigadegr/smemkit/internal/buf"
)

// PartHeader is a zero-copy view of the header at the start of a partition.
type PartHeader struct {
	raw []byte
}

// ParsePartHeader validates the mapped partition b against its table entry
// and returns a header view. Rejected: bad magic, a host pair different from
// the table entry (either order), a size disagreeing with the entry, and a
// free-uncached offset beyond the partition size.
func ParsePartHeader(b []byte, entry TableEntry) (*PartHeader, error) {
	if len(b) < PartHeaderSize {
		return nil, fmt.Errorf("partition: %w (%d bytes)", ErrTruncated, len(b))
	}
	if !bytes.Equal(b[PHdrMagicOff:PHdrMagicOff+4], PartMagic) {
		return nil, fmt.Errorf("partition: %w", ErrBadMagic)
	}
	ph := &PartHeader{raw: b}
	h0, h1 := ph.Host0(), ph.Host1()
	e0, e1 := entry.Host0(), entry.Host1()
	if !(h0 == e0 && h1 == e1) && !(h0 == e1 && h1 == e0) {
		return nil, fmt.Errorf("partition: %w (%d:%d != %d:%d)", ErrHostMismatch, h0, h1, e0, e1)
	}
	if ph.Size() != entry.Size() {
		return nil, fmt.Errorf("partition: %w (%d != %d)", ErrSizeMismatch, ph.Size(), entry.Size())
	}
	if ph.FreeUncached() > ph.Size() {
		return nil, fmt.Errorf("partition: %w (free uncached %d > size %d)",
			ErrHeaderInvariant, ph.FreeUncached(), ph.Size())
	}
	return ph, nil
}

// Host0 returns the first processor named by the header.
func (p *PartHeader) Host0() uint16 { return buf.ReadU16(p.raw, PHdrHost0Off) }

// Host1 returns the second processor named by the header.
func (p *PartHeader) Host1() uint16 { return buf.ReadU16(p.raw, PHdrHost1Off) }

// Size returns the partition size recorded in the header.
func (p *PartHeader) Size() uint32 { return buf.ReadU32(p.raw, PHdrSizeOff) }

// FreeUncached returns the offset of the first free uncached byte, with
// acquire ordering so entries published by other processors are visible.
func (p *PartHeader) FreeUncached() uint32 { return buf.U32Acquire(p.raw, PHdrFreeUncachedOff) }

// FreeCached returns the offset of the first free cached byte.
func (p *PartHeader) FreeCached() uint32 { return buf.U32Acquire(p.raw, PHdrFreeCachedOff) }

// PublishFreeUncached advances the uncached free offset with release
// ordering. This store is what makes a freshly written uncached entry
// reachable for lock-free remote walkers, so it must come after the entry
// contents are durable.
func (p *PartHeader) PublishFreeUncached(v uint32) {
	buf.PutU32Release(p.raw, PHdrFreeUncachedOff, v)
}

// PrivateEntry is a zero-copy view of one entry header within a partition.
type PrivateEntry struct {
	raw []byte
}

// PrivateEntryAt returns the entry header at off within part, or false when
// the header does not fit.
func PrivateEntryAt(part []byte, off int) (PrivateEntry, bool) {
	raw, ok := buf.Slice(part, off, PrivateEntrySize)
	if !ok {
		return PrivateEntry{}, false
	}
	return PrivateEntry{raw: raw}, true
}

// CanaryOK reports whether the entry carries the expected sentinel.
func (e PrivateEntry) CanaryOK() bool { return buf.ReadU16(e.raw, PEntCanaryOff) == PrivateCanary }

// Item returns the entry's item number.
func (e PrivateEntry) Item() uint16 { return buf.ReadU16(e.raw, PEntItemOff) }

// Size returns the payload size including padding, 8-byte aligned.
func (e PrivateEntry) Size() uint32 { return buf.ReadU32(e.raw, PEntSizeOff) }

// PaddingData returns the count of trailing pad bytes inside Size.
func (e PrivateEntry) PaddingData() uint16 { return buf.ReadU16(e.raw, PEntPaddingDataOff) }

// PaddingHdr returns the pad bytes between the header and the payload.
// Only uncached entries ever use it.
func (e PrivateEntry) PaddingHdr() uint16 { return buf.ReadU16(e.raw, PEntPaddingHdrOff) }

// WritePrivateEntry fills the entry header at off within part for an item of
// the given payload size. The stored size is 8-byte aligned with the slack
// recorded as padding_data. The caller publishes the entry afterwards by
// advancing the partition's free offset; nothing here is visible to remote
// walkers until then.
func WritePrivateEntry(part []byte, off int, item uint16, size int) {
	aligned := Align8(size)
	buf.PutU16(part, off+PEntCanaryOff, PrivateCanary)
	buf.PutU16(part, off+PEntItemOff, item)
	buf.PutU32(part, off+PEntSizeOff, uint32(aligned))
	buf.PutU16(part, off+PEntPaddingDataOff, uint16(aligned-size))
	buf.PutU16(part, off+PEntPaddingHdrOff, 0)
	buf.PutU32(part, off+PEntPaddingHdrOff+2, 0)
}
