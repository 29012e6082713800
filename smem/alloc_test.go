package smem

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reigadegr/smemkit/hwlock"
	"github.com/reigadegr/smemkit/internal/buf"
	"github.com/reigadegr/smemkit/internal/layout"
)

func TestFlatAlloc(t *testing.T) {
	img := flatImage(4096)
	h := attach(t, img)

	require.NoError(t, h.Alloc(HostAny, 8, 10))

	// Flat entries are rounded up to the allocation granularity and carry
	// no padding record, so lookups return the rounded size.
	b, err := h.Get(HostAny, 8)
	require.NoError(t, err)
	assert.Len(t, b, 16)

	assert.Equal(t, uint32(16), buf.ReadU32(img, layout.HdrFreeOffsetOff))
	assert.Equal(t, uint32(4080), buf.ReadU32(img, layout.HdrAvailableOff))

	free, err := h.FreeSpace(HostAny)
	require.NoError(t, err)
	assert.Equal(t, 4080, free)

	assert.ErrorIs(t, h.Alloc(HostAny, 8, 10), ErrExists)
}

func TestAllocRejectsBadItems(t *testing.T) {
	img := flatImage(4096)
	h := attach(t, img)

	assert.ErrorIs(t, h.Alloc(HostAny, 7, 8), ErrReservedItem)
	assert.ErrorIs(t, h.Alloc(HostAny, 0, 8), ErrReservedItem)
	assert.ErrorIs(t, h.Alloc(HostAny, layout.ItemCount, 8), ErrItemRange)
	assert.Error(t, h.Alloc(HostAny, 8, -1))

	// None of the rejections may have touched the heap.
	assert.Equal(t, uint32(0), buf.ReadU32(img, layout.HdrFreeOffsetOff))
	assert.Equal(t, uint32(4096), buf.ReadU32(img, layout.HdrAvailableOff))
}

func TestFlatAllocNoSpace(t *testing.T) {
	img := flatImage(4096)
	buf.PutU32(img, layout.HdrFreeOffsetOff, 4088)
	buf.PutU32(img, layout.HdrAvailableOff, 8)
	h := attach(t, img)

	err := h.Alloc(HostAny, 8, 10)
	require.ErrorIs(t, err, ErrNoSpace)
	assert.Equal(t, uint32(4088), buf.ReadU32(img, layout.HdrFreeOffsetOff))
}

func TestPrivateAllocGet(t *testing.T) {
	img := partedImage(24576, defaultParts(), 0)
	h := attach(t, img)

	require.NoError(t, h.Alloc(1, 100, 10))

	b, err := h.Get(1, 100)
	require.NoError(t, err)
	require.Len(t, b, 10, "lookup strips the alignment padding")

	// The payload sits right after the entry header at the start of the
	// partition's uncached range, and writes land in the shared image.
	copy(b, "payloadten")
	payloadOff := 16384 + layout.PartHeaderSize + layout.PrivateEntrySize
	assert.Equal(t, "payloadten", string(img[payloadOff:payloadOff+10]))

	assert.ErrorIs(t, h.Alloc(1, 100, 10), ErrExists)

	// A second item lands after the first without disturbing it.
	require.NoError(t, h.Alloc(1, 101, 4))
	b2, err := h.Get(1, 101)
	require.NoError(t, err)
	assert.Len(t, b2, 4)
	b, err = h.Get(1, 100)
	require.NoError(t, err)
	assert.Equal(t, "payloadten", string(b))
}

func TestPrivateAllocNoSpace(t *testing.T) {
	parts := []partSpec{
		{host0: layout.GlobalHost, host1: layout.GlobalHost, offset: 4096, size: 4096, cacheline: 16},
		{host0: layout.HostApps, host1: 1, offset: 8192, size: 256, cacheline: 16},
	}
	h := attach(t, partedImage(16384, parts, 0))

	require.NoError(t, h.Alloc(1, 100, 4))
	assert.ErrorIs(t, h.Alloc(1, 101, 200), ErrNoSpace)
	require.NoError(t, h.Alloc(1, 101, 100))
}

func TestAllocFallsBackToGlobalPartition(t *testing.T) {
	h := attach(t, partedImage(24576, defaultParts(), 0))

	// Host 5 has no private partition, so its traffic goes to the global
	// partition, where HostAny finds it too.
	require.NoError(t, h.Alloc(5, 100, 8))
	b, err := h.Get(HostAny, 100)
	require.NoError(t, err)
	assert.Len(t, b, 8)

	// Host 1's private partition never saw the item.
	_, err = h.Get(1, 100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAllocContendedLock(t *testing.T) {
	if testing.Short() {
		t.Skip("waits out the full lock timeout")
	}
	l := hwlock.NewLocal(hwlock.HostLockOwner(layout.HostApps))
	img := flatImage(4096)
	h, err := New(Config{
		Primary: Window{Base: testBase, Size: len(img)},
		Mapper:  NewBufMapper(img, testBase),
		Lock:    l,
	})
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })

	require.NoError(t, l.TryLock(time.Second))
	defer l.Unlock()
	assert.ErrorIs(t, h.Alloc(HostAny, 8, 8), hwlock.ErrTimeout)
}
