package layout

import (
	"bytes"
	"fmt"

	"github.com/reigadegr/smemkit/internal/buf"
)

// Table is a zero-copy view of the partition table, located in the 4 KiB
// window at the end of the primary region.
type Table struct {
	raw []byte
}

// ParseTable validates the table magic and version and returns a view.
// A bad magic or version is fatal to discovery: the table is the only
// source of partition placement and cannot be guessed around.
func ParseTable(b []byte) (*Table, error) {
	if len(b) < TableHeaderSize {
		return nil, fmt.Errorf("ptable: %w (%d bytes)", ErrTruncated, len(b))
	}
	if !bytes.Equal(b[TblMagicOff:TblMagicOff+4], TableMagic) {
		return nil, fmt.Errorf("ptable: %w", ErrBadMagic)
	}
	if v := buf.ReadU32(b, TblVersionOff); v != TableVersion {
		return nil, fmt.Errorf("ptable: %w (%d)", ErrBadVersion, v)
	}
	return &Table{raw: b}, nil
}

// NumEntries returns the declared entry count.
func (t *Table) NumEntries() int { return int(buf.ReadU32(t.raw, TblCountOff)) }

// Entry returns a view of table entry i, checking that the entry lies
// within the mapped window.
func (t *Table) Entry(i int) (TableEntry, error) {
	if i < 0 || i >= t.NumEntries() {
		return TableEntry{}, fmt.Errorf("ptable: entry %d out of range", i)
	}
	off := TableHeaderSize + i*TableEntrySize
	raw, ok := buf.Slice(t.raw, off, TableEntrySize)
	if !ok {
		return TableEntry{}, fmt.Errorf("ptable: entry %d: %w", i, ErrTruncated)
	}
	return TableEntry{raw: raw}, nil
}

// ItemCeiling returns the highest accepted item number. It comes from the
// optional region-info record directly after the last entry; a missing,
// truncated, or bad-magic record falls back to the default ItemCount.
// The soft fallback here against the hard failure for a bad table magic is
// deliberate: it matches the behavior of the firmware ecosystem as shipped.
func (t *Table) ItemCeiling() int {
	off := TableHeaderSize + t.NumEntries()*TableEntrySize
	raw, ok := buf.Slice(t.raw, off, RegionInfoSize)
	if !ok {
		return ItemCount
	}
	if !bytes.Equal(raw[InfoMagicOff:InfoMagicOff+4], InfoMagic) {
		return ItemCount
	}
	return int(buf.ReadU16(raw, InfoNumItemsOff))
}

// TableEntry is a view of one partition table entry.
type TableEntry struct {
	raw []byte
}

// IsNil reports whether the entry is an unused slot (zero offset or size).
func (e TableEntry) IsNil() bool { return e.Offset() == 0 || e.Size() == 0 }

// Offset returns the partition's byte offset within the primary region.
func (e TableEntry) Offset() uint32 { return buf.ReadU32(e.raw, TEntOffsetOff) }

// Size returns the partition's byte size.
func (e TableEntry) Size() uint32 { return buf.ReadU32(e.raw, TEntSizeOff) }

// Flags returns the entry flags. Currently unused by the ABI.
func (e TableEntry) Flags() uint32 { return buf.ReadU32(e.raw, TEntFlagsOff) }

// Host0 returns the first processor with access to the partition.
func (e TableEntry) Host0() uint16 { return buf.ReadU16(e.raw, TEntHost0Off) }

// Host1 returns the second processor with access to the partition.
func (e TableEntry) Host1() uint16 { return buf.ReadU16(e.raw, TEntHost1Off) }

// Cacheline returns the alignment for cached entries in the partition.
func (e TableEntry) Cacheline() uint32 { return buf.ReadU32(e.raw, TEntCachelineOff) }
