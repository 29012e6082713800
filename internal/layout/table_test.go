package layout

import (
	"encoding/binary"
	"errors"
	"testing"
)

func buildTable(entries int, withInfo bool, numItems uint16) []byte {
	b := make([]byte, TableWindow)
	copy(b, TableMagic)
	binary.LittleEndian.PutUint32(b[TblVersionOff:], TableVersion)
	binary.LittleEndian.PutUint32(b[TblCountOff:], uint32(entries))
	for i := 0; i < entries; i++ {
		off := TableHeaderSize + i*TableEntrySize
		binary.LittleEndian.PutUint32(b[off+TEntOffsetOff:], uint32(4096*(i+1)))
		binary.LittleEndian.PutUint32(b[off+TEntSizeOff:], 4096)
		binary.LittleEndian.PutUint16(b[off+TEntHost0Off:], 0)
		binary.LittleEndian.PutUint16(b[off+TEntHost1Off:], uint16(i+1))
		binary.LittleEndian.PutUint32(b[off+TEntCachelineOff:], 32)
	}
	if withInfo {
		off := TableHeaderSize + entries*TableEntrySize
		copy(b[off:], InfoMagic)
		binary.LittleEndian.PutUint16(b[off+InfoNumItemsOff:], numItems)
	}
	return b
}

func TestParseTable(t *testing.T) {
	tbl, err := ParseTable(buildTable(2, false, 0))
	if err != nil {
		t.Fatalf("ParseTable: %v", err)
	}
	if tbl.NumEntries() != 2 {
		t.Fatalf("NumEntries = %d", tbl.NumEntries())
	}
	e, err := tbl.Entry(1)
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}
	if e.Offset() != 8192 || e.Size() != 4096 || e.Host1() != 2 || e.Cacheline() != 32 {
		t.Fatalf("unexpected entry: off=%d size=%d host1=%d", e.Offset(), e.Size(), e.Host1())
	}
}

func TestParseTableErrors(t *testing.T) {
	b := buildTable(1, false, 0)
	b[0] ^= 0xff
	if _, err := ParseTable(b); !errors.Is(err, ErrBadMagic) {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}

	b = buildTable(1, false, 0)
	binary.LittleEndian.PutUint32(b[TblVersionOff:], 2)
	if _, err := ParseTable(b); !errors.Is(err, ErrBadVersion) {
		t.Fatalf("expected ErrBadVersion, got %v", err)
	}

	if _, err := ParseTable(make([]byte, 8)); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestEntryOutOfWindow(t *testing.T) {
	b := buildTable(0, false, 0)
	binary.LittleEndian.PutUint32(b[TblCountOff:], 1000) // more than the window can hold
	tbl, err := ParseTable(b)
	if err != nil {
		t.Fatalf("ParseTable: %v", err)
	}
	if _, err := tbl.Entry(200); err == nil {
		t.Fatalf("expected out-of-window entry error")
	}
}

func TestItemCeiling(t *testing.T) {
	tbl, _ := ParseTable(buildTable(1, true, 300))
	if got := tbl.ItemCeiling(); got != 300 {
		t.Fatalf("ItemCeiling = %d, want 300", got)
	}

	// A missing or unparsable info record falls back to the default.
	tbl, _ = ParseTable(buildTable(1, false, 0))
	if got := tbl.ItemCeiling(); got != ItemCount {
		t.Fatalf("ItemCeiling = %d, want %d", got, ItemCount)
	}

	b := buildTable(1, true, 300)
	b[TableHeaderSize+TableEntrySize] ^= 0xff // break the info magic
	tbl, _ = ParseTable(b)
	if got := tbl.ItemCeiling(); got != ItemCount {
		t.Fatalf("ItemCeiling = %d, want %d after bad info magic", got, ItemCount)
	}
}
