package smem

import (
	"testing"
	"time"

	"github.com/reigadegr/smemkit/hwlock"
	"github.com/reigadegr/smemkit/internal/buf"
	"github.com/reigadegr/smemkit/internal/layout"
)

// Test fixtures build heap images in memory exactly as the boot loader
// would, then attach through a BufMapper so mappings alias the image.

const testBase = 0x8060_0000

// flatImage returns a legacy-layout image: initialized header, version 11,
// the whole region past the table of contents available for allocation.
func flatImage(size int) []byte {
	b := make([]byte, size)
	buf.PutU32(b, layout.HdrInitializedOff, 1)
	buf.PutU32(b, layout.HdrVersionOff+4*layout.SBLVersionIndex, layout.GlobalHeapVersion<<16)
	buf.PutU32(b, layout.HdrFreeOffsetOff, 0)
	buf.PutU32(b, layout.HdrAvailableOff, uint32(size))
	return b
}

// partSpec places one partition in a partitioned image.
type partSpec struct {
	host0, host1 uint16
	offset, size uint32
	cacheline    uint32

	// skipHeader leaves the partition bytes zeroed so header validation
	// failures can be provoked.
	skipHeader bool
	// hdrHosts overrides the hosts written into the partition header.
	hdrHosts *[2]uint16
	// hdrSize overrides the size written into the partition header.
	hdrSize uint32
}

// partedImage returns a partitioned-layout image: version 12 header, the
// given partitions, and a partition table in the final 4 KiB window. When
// numItems is non-zero a region-info record follows the table entries.
func partedImage(size int, parts []partSpec, numItems uint16) []byte {
	b := make([]byte, size)
	buf.PutU32(b, layout.HdrInitializedOff, 1)
	buf.PutU32(b, layout.HdrVersionOff+4*layout.SBLVersionIndex, layout.GlobalPartVersion<<16)

	tbl := size - layout.TableWindow
	copy(b[tbl:], layout.TableMagic)
	buf.PutU32(b, tbl+layout.TblVersionOff, layout.TableVersion)
	buf.PutU32(b, tbl+layout.TblCountOff, uint32(len(parts)))

	for i, p := range parts {
		ent := tbl + layout.TableHeaderSize + i*layout.TableEntrySize
		buf.PutU32(b, ent+layout.TEntOffsetOff, p.offset)
		buf.PutU32(b, ent+layout.TEntSizeOff, p.size)
		buf.PutU16(b, ent+layout.TEntHost0Off, p.host0)
		buf.PutU16(b, ent+layout.TEntHost1Off, p.host1)
		buf.PutU32(b, ent+layout.TEntCachelineOff, p.cacheline)

		if p.skipHeader {
			continue
		}
		ph := int(p.offset)
		copy(b[ph:], layout.PartMagic)
		h0, h1 := p.host0, p.host1
		if p.hdrHosts != nil {
			h0, h1 = p.hdrHosts[0], p.hdrHosts[1]
		}
		psize := p.size
		if p.hdrSize != 0 {
			psize = p.hdrSize
		}
		buf.PutU16(b, ph+layout.PHdrHost0Off, h0)
		buf.PutU16(b, ph+layout.PHdrHost1Off, h1)
		buf.PutU32(b, ph+layout.PHdrSizeOff, psize)
		buf.PutU32(b, ph+layout.PHdrFreeUncachedOff, layout.PartHeaderSize)
		buf.PutU32(b, ph+layout.PHdrFreeCachedOff, p.size)
	}

	if numItems != 0 {
		info := tbl + layout.TableHeaderSize + len(parts)*layout.TableEntrySize
		copy(b[info:], layout.InfoMagic)
		buf.PutU16(b, info+layout.InfoNumItemsOff, numItems)
	}
	return b
}

// defaultParts is a global partition plus a private partition pairing the
// application processor with host 1.
func defaultParts() []partSpec {
	return []partSpec{
		{host0: layout.GlobalHost, host1: layout.GlobalHost, offset: 4096, size: 8192, cacheline: 16},
		{host0: layout.HostApps, host1: 1, offset: 16384, size: 4096, cacheline: 16},
	}
}

// writeCachedEntry appends a cached entry to the partition at partOff in
// img: payload precedes the header, which sits on a cacheline-aligned
// boundary walked backward from the partition's end.
func writeCachedEntry(img []byte, partOff, partSize, cacheline int, item uint16, payload []byte) {
	step := layout.AlignTo(layout.PrivateEntrySize, cacheline)
	free := int(buf.ReadU32(img, partOff+layout.PHdrFreeCachedOff))

	// The next header sits one cacheline-aligned step below the current
	// cached boundary, with its payload directly beneath it.
	hdr := partOff + free - step
	aligned := layout.Align8(len(payload))

	buf.PutU16(img, hdr+layout.PEntCanaryOff, layout.PrivateCanary)
	buf.PutU16(img, hdr+layout.PEntItemOff, item)
	buf.PutU32(img, hdr+layout.PEntSizeOff, uint32(aligned))
	buf.PutU16(img, hdr+layout.PEntPaddingDataOff, uint16(aligned-len(payload)))
	copy(img[hdr-aligned:], payload)

	buf.PutU32(img, partOff+layout.PHdrFreeCachedOff, uint32(free-step-aligned))
}

// attach builds a Heap over img with a fresh in-process lock.
func attach(t *testing.T, img []byte) *Heap {
	t.Helper()
	h, err := New(Config{
		Primary: Window{Base: testBase, Size: len(img)},
		Mapper:  NewBufMapper(img, testBase),
		Lock:    hwlock.NewLocal(hwlock.HostLockOwner(layout.HostApps)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

// timeoutLock always fails acquisition, for exercising the lock-contention
// error path without waiting out the real timeout.
type timeoutLock struct{}

func (timeoutLock) TryLock(time.Duration) error { return hwlock.ErrTimeout }
func (timeoutLock) Unlock()                     {}
func (timeoutLock) Bust(uint32) error           { return nil }
