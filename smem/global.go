package smem

import (
	"fmt"

	"github.com/reigadegr/smemkit/internal/buf"
	"github.com/reigadegr/smemkit/internal/layout"
)

// Flat-heap paths, used under the legacy layout where the fixed table of
// contents in the global header indexes a single heap.

// allocGlobal allocates item in the flat heap. The table slot's offset and
// size are written first; the release store of the allocated flag is the
// publishing step, after which the slot is immutable. Only then are the
// header's free_offset and available advanced.
func (h *Heap) allocGlobal(item uint32, size int) error {
	entry, err := h.header.Entry(int(item))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if entry.Allocated() {
		return fmt.Errorf("%w: item %d", ErrExists, item)
	}

	aligned := layout.Align8(size)
	if uint32(aligned) > h.header.Available() {
		return fmt.Errorf("%w: %d bytes requested, %d available", ErrNoSpace, size, h.header.Available())
	}

	entry.SetOffset(h.header.FreeOffset())
	entry.SetSize(uint32(aligned))
	entry.Publish()

	h.header.SetFreeOffset(h.header.FreeOffset() + uint32(aligned))
	h.header.SetAvailable(h.header.Available() - uint32(aligned))
	return nil
}

// getGlobal resolves item through the fixed table. The entry's aux_base
// picks the physical region its offset is relative to; zero selects the
// default region. The computed span must fit the region.
func (h *Heap) getGlobal(item uint32) ([]byte, error) {
	entry, err := h.header.Entry(int(item))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if !entry.Allocated() {
		return nil, fmt.Errorf("%w: item %d", ErrNotFound, item)
	}

	aux := entry.AuxBase()
	for i := range h.regions {
		r := &h.regions[i]
		if aux != 0 && uint32(r.Base) != aux {
			continue
		}
		end, err := buf.CheckSpan(len(r.Data), int(entry.Offset()), int(entry.Size()))
		if err != nil {
			return nil, fmt.Errorf("%w: item %d entry: %v", ErrCorrupt, item, err)
		}
		return r.Data[entry.Offset():end], nil
	}
	return nil, fmt.Errorf("%w: item %d references unknown region %#x", ErrNotFound, item, aux)
}

// flatFreeSpace returns the header's available count, sanity-checked
// against the mapped region.
func (h *Heap) flatFreeSpace() (int, error) {
	avail := int(h.header.Available())
	if avail < 0 || avail > len(h.regions[0].Data) {
		return 0, fmt.Errorf("%w: available %d beyond region size %d",
			ErrCorrupt, avail, len(h.regions[0].Data))
	}
	return avail, nil
}
