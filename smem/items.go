package smem

import (
	"fmt"

	"github.com/reigadegr/smemkit/internal/layout"
)

// ItemInfo describes one allocated item, for diagnostics and tooling.
type ItemInfo struct {
	Item   uint32
	Size   int
	Cached bool
}

// Items enumerates the allocated items in the heap serving host, uncached
// entries first. The walk applies the same canary and containment
// discipline as Get, so a corrupt chain surfaces ErrCorrupt instead of a
// short listing. On a flat heap whose mapping stops short of the full
// table of contents, only the slots the mapped window reaches are listed;
// items published by processors with a wider mapping are invisible here,
// the same way Get cannot resolve them.
func (h *Heap) Items(host int) ([]ItemInfo, error) {
	if !h.ready.Load() {
		return nil, ErrNotReady
	}
	if err := h.lock.TryLock(LockTimeout); err != nil {
		return nil, err
	}
	defer h.lock.Unlock()

	if p := h.selectPartition(host); p != nil {
		return p.items()
	}
	return h.flatItems()
}

func (p *partition) items() ([]ItemInfo, error) {
	uncached, cached, err := p.chainBounds()
	if err != nil {
		return nil, err
	}

	var out []ItemInfo
	err = p.walkUncached(uncached, func(_ int, e layout.PrivateEntry) (bool, error) {
		out = append(out, ItemInfo{
			Item: uint32(e.Item()),
			Size: int(e.Size()) - int(e.PaddingData()),
		})
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	if cached == p.size {
		return out, nil
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
		out = append(out, ItemInfo{
			Item:   uint32(e.Item()),
			Size:   int(e.Size()) - int(e.PaddingData()),
			Cached: true,
		})
		next := off - int(e.Size()) - step
		if next >= off {
			return nil, fmt.Errorf("%w: cached chain does not advance at %d", ErrCorrupt, off)
		}
		off = next
	}
	return out, nil
}

func (h *Heap) flatItems() ([]ItemInfo, error) {
	// The mapped heap may stop short of the full table of contents; slots
	// beyond the window cannot be read and are excluded up front.
	ceiling := h.itemCount
	if n := (len(h.regions[0].Data) - layout.HdrTocOff) / layout.GlobalEntrySize; n < ceiling {
		ceiling = n
	}
	var out []ItemInfo
	for item := 0; item < ceiling; item++ {
		entry, err := h.header.Entry(item)
		if err != nil {
			return out, fmt.Errorf("%w: toc slot %d: %v", ErrCorrupt, item, err)
		}
		if !entry.Allocated() {
			continue
		}
		out = append(out, ItemInfo{Item: uint32(item), Size: int(entry.Size())})
	}
	return out, nil
}
