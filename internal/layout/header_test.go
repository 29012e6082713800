package layout

import (
	"encoding/binary"
	"errors"
	"testing"
)

func headerBytes(size int) []byte {
	b := make([]byte, size)
	binary.LittleEndian.PutUint32(b[HdrInitializedOff:], 1)
	binary.LittleEndian.PutUint32(b[HdrVersionOff+4*SBLVersionIndex:], GlobalHeapVersion<<16)
	binary.LittleEndian.PutUint32(b[HdrFreeOffsetOff:], 0x100)
	binary.LittleEndian.PutUint32(b[HdrAvailableOff:], 0x200)
	return b
}

func TestParseHeader(t *testing.T) {
	h, err := ParseHeader(headerBytes(HeaderWindow))
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if err := h.ValidateReady(); err != nil {
		t.Fatalf("ValidateReady: %v", err)
	}
	if h.SBLVersion()>>16 != GlobalHeapVersion {
		t.Fatalf("SBLVersion = %#x", h.SBLVersion())
	}
	if h.FreeOffset() != 0x100 || h.Available() != 0x200 {
		t.Fatalf("free=%#x avail=%#x", h.FreeOffset(), h.Available())
	}
}

func TestParseHeaderTruncated(t *testing.T) {
	if _, err := ParseHeader(make([]byte, 64)); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestValidateReady(t *testing.T) {
	b := headerBytes(HeaderWindow)
	binary.LittleEndian.PutUint32(b[HdrInitializedOff:], 0)
	h, _ := ParseHeader(b)
	if err := h.ValidateReady(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}

	b = headerBytes(HeaderWindow)
	binary.LittleEndian.PutUint32(b[HdrReservedOff:], 7)
	h, _ = ParseHeader(b)
	if err := h.ValidateReady(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("reserved != 0 must fail, got %v", err)
	}
}

func TestGlobalEntryPublish(t *testing.T) {
	h, err := ParseHeader(headerBytes(HeaderSize))
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	e, err := h.Entry(8)
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}
	if e.Allocated() {
		t.Fatalf("fresh slot reads allocated")
	}
	e.SetOffset(64)
	e.SetSize(16)
	e.Publish()
	if !e.Allocated() || e.Offset() != 64 || e.Size() != 16 {
		t.Fatalf("published entry not readable back")
	}
	if e.AuxBase() != 0 {
		t.Fatalf("AuxBase = %#x, want 0", e.AuxBase())
	}
}

func TestEntryBeyondWindow(t *testing.T) {
	// A 4 KiB discovery window reaches only part of the table of contents.
	h, _ := ParseHeader(headerBytes(HeaderWindow))
	if _, err := h.Entry(400); err == nil {
		t.Fatalf("expected truncation error for slot beyond the window")
	}
	if _, err := h.Entry(ItemCount); err == nil {
		t.Fatalf("expected range error")
	}
}
