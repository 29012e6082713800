package smem

import (
	"fmt"

	"github.com/reigadegr/smemkit/internal/buf"
	"github.com/reigadegr/smemkit/internal/layout"
)

// partition is a mapped partition at runtime: either a remote host's
// private partition or the global partition.
type partition struct {
	data      []byte
	phys      uint64
	size      int
	cacheline int
	hdr       *layout.PartHeader
}

// chainBounds reads and validates the partition's free offsets. The uncached
// cursor grows forward from the header, the cached cursor backward from the
// end, and the gap between them is the free space; any other arrangement
// means the shared structure is broken.
func (p *partition) chainBounds() (uncached, cached int, err error) {
	uncached = int(p.hdr.FreeUncached())
	cached = int(p.hdr.FreeCached())
	if uncached < 0 || uncached > cached || cached > p.size {
		return 0, 0, fmt.Errorf("%w: partition %d:%d free offsets %d/%d beyond size %d",
			ErrCorrupt, p.hdr.Host0(), p.hdr.Host1(), uncached, cached, p.size)
	}
	return uncached, cached, nil
}

func (p *partition) badCanary() error {
	return fmt.Errorf("%w: invalid canary in hosts %d:%d partition",
		ErrCorrupt, p.hdr.Host0(), p.hdr.Host1())
}

// walkUncached scans the uncached chain from the partition header forward to
// end, calling visit for each entry. visit returns true to stop the walk.
// Every step validates the canary and that the next pointer strictly
// advances; either failing aborts with ErrCorrupt.
func (p *partition) walkUncached(end int, visit func(off int, e layout.PrivateEntry) (bool, error)) error {
	off := layout.PartHeaderSize
	for off < end {
		if off+layout.PrivateEntrySize > end {
			return fmt.Errorf("%w: uncached entry at %d truncated by free offset %d",
				ErrCorrupt, off, end)
		}
		e, ok := layout.PrivateEntryAt(p.data, off)
		if !ok {
			return fmt.Errorf("%w: uncached entry at %d truncated", ErrCorrupt, off)
		}
		if !e.CanaryOK() {
			return p.badCanary()
		}
		done, err := visit(off, e)
		if err != nil || done {
			return err
		}
		step, ok := buf.AddOverflowSafe(layout.PrivateEntrySize+int(e.PaddingHdr()), int(e.Size()))
		if !ok {
			return fmt.Errorf("%w: uncached entry at %d has wrapping size", ErrCorrupt, off)
		}
		next, ok := buf.AddOverflowSafe(off, step)
		if !ok || next <= off {
			return fmt.Errorf("%w: uncached chain does not advance at %d", ErrCorrupt, off)
		}
		off = next
	}
	if off > end {
		return fmt.Errorf("%w: uncached chain ran past free offset %d", ErrCorrupt, end)
	}
	return nil
}

// alloc allocates an uncached entry for item with the given payload size.
// The entry contents are written first; the single release store advancing
// offset_free_uncached is what publishes them to lock-free remote walkers.
func (p *partition) alloc(item uint32, size int) error {
	uncached, cached, err := p.chainBounds()
	if err != nil {
		return err
	}

	var exists bool
	err = p.walkUncached(uncached, func(_ int, e layout.PrivateEntry) (bool, error) {
		if uint32(e.Item()) == item {
			exists = true
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: item %d", ErrExists, item)
	}

	allocSize := layout.PrivateEntrySize + layout.Align8(size)
	end, ok := buf.AddOverflowSafe(uncached, allocSize)
	if !ok {
		return fmt.Errorf("%w: allocation of %d bytes wraps", ErrCorrupt, size)
	}
	if end > cached {
		return fmt.Errorf("%w: %d bytes requested, %d free in partition",
			ErrNoSpace, size, cached-uncached)
	}

	layout.WritePrivateEntry(p.data, uncached, uint16(item), size)
	p.hdr.PublishFreeUncached(uint32(end))
	return nil
}

// get looks up item in the uncached chain and then, if the cached region is
// not degenerate, in the cached chain walking backward from the partition's
// end. The returned slice is the item payload without its declared data
// padding, validated to lie strictly within its chain.
func (p *partition) get(item uint32) ([]byte, error) {
	uncached, cached, err := p.chainBounds()
	if err != nil {
		return nil, err
	}

	var found []byte
	err = p.walkUncached(uncached, func(off int, e layout.PrivateEntry) (bool, error) {
		if uint32(e.Item()) != item {
			return false, nil
		}
		payload, err := p.entryPayload(e, off+layout.PrivateEntrySize+int(e.PaddingHdr()), off, uncached)
		if err != nil {
			return false, err
		}
		found = payload
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if found != nil {
		return found, nil
	}

	// Nothing was ever cached-allocated when the cached cursor still sits
	// at the partition's end.
	if cached == p.size {
		return nil, fmt.Errorf("%w: item %d", ErrNotFound, item)
	}

	step := layout.AlignTo(layout.PrivateEntrySize, p.cacheline)
	off := p.size - step
	if off < cached || off+layout.PrivateEntrySize > p.size {
		return nil, fmt.Errorf("%w: first cached entry at %d outside [%d, %d)",
			ErrCorrupt, off, cached, p.size)
	}
	for off > cached {
		e, ok := layout.PrivateEntryAt(p.data, off)
		if !ok {
			return nil, fmt.Errorf("%w: cached entry at %d truncated", ErrCorrupt, off)
		}
		if !e.CanaryOK() {
			return nil, p.badCanary()
		}
		if uint32(e.Item()) == item {
			return p.entryPayload(e, off-int(e.Size()), cached, off)
		}
		next := off - int(e.Size()) - step
		if next >= off {
			return nil, fmt.Errorf("%w: cached chain does not advance at %d", ErrCorrupt, off)
		}
		off = next
	}
	if off < 0 {
		return nil, fmt.Errorf("%w: cached chain ran past partition start", ErrCorrupt)
	}
	return nil, fmt.Errorf("%w: item %d", ErrNotFound, item)
}

// entryPayload validates an entry's declared sizes and returns the payload
// slice at payloadOff, required to lie within [lo, hi].
func (p *partition) entryPayload(e layout.PrivateEntry, payloadOff, lo, hi int) ([]byte, error) {
	eSize := int(e.Size())
	pad := int(e.PaddingData())
	if eSize >= p.size || pad >= eSize {
		return nil, fmt.Errorf("%w: entry for item %d declares size %d padding %d",
			ErrCorrupt, e.Item(), eSize, pad)
	}
	n := eSize - pad
	end, ok := buf.AddOverflowSafe(payloadOff, n)
	if !ok || payloadOff < lo || end > hi {
		return nil, fmt.Errorf("%w: item %d payload [%d, %d) outside [%d, %d]",
			ErrCorrupt, e.Item(), payloadOff, end, lo, hi)
	}
	return p.data[payloadOff:end], nil
}

// freeSpace returns the gap between the two cursors, sanity-checked against
// the partition size.
func (p *partition) freeSpace() (int, error) {
	free := int(p.hdr.FreeCached()) - int(p.hdr.FreeUncached())
	if free < 0 || free > p.size {
		return 0, fmt.Errorf("%w: partition %d:%d free space %d beyond size %d",
			ErrCorrupt, p.hdr.Host0(), p.hdr.Host1(), free, p.size)
	}
	return free, nil
}
