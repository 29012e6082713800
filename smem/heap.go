package smem

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/reigadegr/smemkit/hwlock"
	"github.com/reigadegr/smemkit/internal/layout"
)

// HostAny selects no particular remote host: allocation and lookup go to
// the global partition when one exists, otherwise to the legacy flat heap.
const HostAny = -1

// LockTimeout bounds how long a public operation waits for the hardware
// mutex before surfacing hwlock.ErrTimeout. Callers may retry.
const LockTimeout = 1000 * time.Millisecond

// Window names a physical memory range before it is mapped.
type Window struct {
	Base uint64
	Size int
}

// Config carries everything New needs to attach to the heap. Resolving the
// windows from platform firmware and providing the mutex are the caller's
// side of the contract.
type Config struct {
	// Primary is the main shared memory region holding the header, the
	// heap or partitions, and the partition table.
	Primary Window
	// Aux lists additional physical regions referenced by flat-heap items
	// through their aux_base field.
	Aux []Window
	// Mapper maps physical ranges for the heap's lifetime.
	Mapper Mapper
	// Lock is the cross-processor hardware mutex.
	Lock hwlock.Lock
}

// Heap is an attached shared-memory heap manager. The shared region is
// system-wide singleton state; construct one Heap per process and share it,
// the locking discipline makes that safe across local threads as well as
// across processors.
type Heap struct {
	lock   hwlock.Lock
	mapper Mapper

	version   uint32
	itemCount int

	// regions[0] is the primary region; its Data stays nil under the
	// partitioned layout, where the header is left unmapped after
	// discovery. Aux regions follow, always fully mapped.
	regions  []Region
	table    *layout.Table
	tableWin []byte
	header   *layout.Header // flat layout only
	global   *partition
	parts    [layout.HostCount]*partition

	ready atomic.Bool
}

// Alloc allocates space for item with the given payload size, targeting the
// given remote host's partition, the global partition, or the flat heap, in
// that priority order. Item numbers below the boot-loader reserved range
// and at or above the heap's ceiling are rejected before shared memory is
// touched.
func (h *Heap) Alloc(host int, item uint32, size int) error {
	if !h.ready.Load() {
		return ErrNotReady
	}
	if item < layout.ItemLastFixed {
		return fmt.Errorf("%w: item %d is below %d", ErrReservedItem, item, layout.ItemLastFixed)
	}
	if int(item) >= h.itemCount {
		return fmt.Errorf("%w: item %d, ceiling %d", ErrItemRange, item, h.itemCount)
	}
	if size < 0 {
		return fmt.Errorf("smem: negative size %d", size)
	}
	if err := h.lock.TryLock(LockTimeout); err != nil {
		return err
	}
	defer h.lock.Unlock()

	if p := h.selectPartition(host); p != nil {
		return p.alloc(item, size)
	}
	return h.allocGlobal(item, size)
}

// Get looks up item and returns its payload bytes. The slice aliases shared
// memory: its length is the item's size and writes through it are visible
// to every processor.
func (h *Heap) Get(host int, item uint32) ([]byte, error) {
	if !h.ready.Load() {
		return nil, ErrNotReady
	}
	if int(item) >= h.itemCount || int(item) < 0 {
		return nil, fmt.Errorf("%w: item %d, ceiling %d", ErrItemRange, item, h.itemCount)
	}
	if err := h.lock.TryLock(LockTimeout); err != nil {
		return nil, err
	}
	defer h.lock.Unlock()

	if p := h.selectPartition(host); p != nil {
		return p.get(item)
	}
	return h.getGlobal(item)
}

// FreeSpace returns the number of bytes still available for allocation in
// the heap serving host. Meant as a cheap way for clients to notice new
// allocations, so it reads without taking the hardware lock, matching the
// remote implementations.
func (h *Heap) FreeSpace(host int) (int, error) {
	if !h.ready.Load() {
		return 0, ErrNotReady
	}
	if p := h.selectPartition(host); p != nil {
		return p.freeSpace()
	}
	return h.flatFreeSpace()
}

// ToPhys translates a slice previously returned by Get into the physical
// address of its first byte. Containment is decided against the per-host
// partitions first, then the global partition, then the mapped regions.
// The second return is false for addresses outside every known range;
// physical address 0 is never valid on these platforms.
func (h *Heap) ToPhys(p []byte) (uint64, bool) {
	if !h.ready.Load() {
		return 0, false
	}
	for _, part := range h.parts {
		if part == nil {
			continue
		}
		r := Region{Base: part.phys, Data: part.data}
		if off, ok := r.contains(p); ok {
			return part.phys + uint64(off), true
		}
	}
	if h.global != nil {
		r := Region{Base: h.global.phys, Data: h.global.data}
		if off, ok := r.contains(p); ok {
			return h.global.phys + uint64(off), true
		}
	}
	for i := range h.regions {
		if off, ok := h.regions[i].contains(p); ok {
			return h.regions[i].Base + uint64(off), true
		}
	}
	return 0, false
}

// BustLock forcibly releases the hardware mutex if it is held by the given
// remote host. Supervisory escape hatch for recovering a wedged remote
// processor; never called on normal alloc/get paths, and never for the
// local host.
func (h *Heap) BustLock(host int) error {
	if !h.ready.Load() {
		return ErrNotReady
	}
	if host == layout.HostApps || host < 0 || host >= layout.HostCount {
		return fmt.Errorf("smem: cannot bust lock for host %d", host)
	}
	return h.lock.Bust(hwlock.HostLockOwner(host))
}

// Version returns the boot loader's heap-layout version word. The high 16
// bits select the layout generation; the low 16 bits are diagnostic.
func (h *Heap) Version() uint32 { return h.version }

// ItemCeiling returns the highest accepted item number plus one.
func (h *Heap) ItemCeiling() int { return h.itemCount }

// PartitionInfo summarizes one discovered partition.
type PartitionInfo struct {
	Host0, Host1 uint16
	RemoteHost   int // -1 for the global partition
	Size         int
	Cacheline    int
	Free         int
}

// Partitions returns summaries of the global partition (first, when
// present) and every per-host partition, for diagnostics and tooling.
func (h *Heap) Partitions() []PartitionInfo {
	if !h.ready.Load() {
		return nil
	}
	var out []PartitionInfo
	if h.global != nil {
		out = append(out, partInfo(h.global, -1))
	}
	for host, p := range h.parts {
		if p != nil {
			out = append(out, partInfo(p, host))
		}
	}
	return out
}

func partInfo(p *partition, remote int) PartitionInfo {
	free, err := p.freeSpace()
	if err != nil {
		free = -1
	}
	return PartitionInfo{
		Host0:      p.hdr.Host0(),
		Host1:      p.hdr.Host1(),
		RemoteHost: remote,
		Size:       p.size,
		Cacheline:  p.cacheline,
		Free:       free,
	}
}

// Close detaches from the heap and releases every mapping. Subsequent calls
// return ErrNotReady. Shared memory contents are untouched; attaching again
// with New re-discovers them, which is also the resume path after a power
// transition that invalidated the mappings.
func (h *Heap) Close() error {
	h.ready.Store(false)
	return h.teardown()
}

func (h *Heap) teardown() error {
	var first error
	unmap := func(b []byte) {
		if len(b) == 0 {
			return
		}
		if err := h.mapper.Unmap(b); err != nil && first == nil {
			first = err
		}
	}
	for i := range h.parts {
		if h.parts[i] != nil {
			unmap(h.parts[i].data)
			h.parts[i] = nil
		}
	}
	if h.global != nil {
		unmap(h.global.data)
		h.global = nil
	}
	unmap(h.tableWin)
	h.tableWin = nil
	h.table = nil
	for i := range h.regions {
		unmap(h.regions[i].Data)
		h.regions[i].Data = nil
	}
	h.header = nil
	return first
}

// selectPartition picks the heap serving host: the host's private partition
// when mapped, else the global partition, else nil for the flat heap.
func (h *Heap) selectPartition(host int) *partition {
	if host >= 0 && host < layout.HostCount && h.parts[host] != nil {
		return h.parts[host]
	}
	return h.global
}
