package buf

import "testing"

func TestEndianRoundTrip(t *testing.T) {
	b := make([]byte, 16)

	PutU16(b, 0, 0xa5a5)
	if got := ReadU16(b, 0); got != 0xa5a5 {
		t.Fatalf("u16 = %#x", got)
	}
	PutU32(b, 2, 0x12345678)
	if got := ReadU32(b, 2); got != 0x12345678 {
		t.Fatalf("u32 = %#x", got)
	}
	if b[2] != 0x78 {
		t.Fatalf("u32 not little-endian: % x", b[2:6])
	}
	PutU64(b, 8, 0x0102030405060708)
	if got := ReadU64(b, 8); got != 0x0102030405060708 {
		t.Fatalf("u64 = %#x", got)
	}
}

func TestShortReadsReturnZero(t *testing.T) {
	b := []byte{0xff}
	if U16LE(b) != 0 || U32LE(b) != 0 || U64LE(b) != 0 {
		t.Fatalf("short reads must yield zero")
	}
}
