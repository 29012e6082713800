package smem

import (
	"errors"
	"fmt"

	"github.com/reigadegr/smemkit/internal/buf"
	"github.com/reigadegr/smemkit/internal/layout"
)

// New attaches to the shared-memory heap described by cfg and discovers its
// layout from the boot-loader header. Configuration errors are fatal: the
// heap never comes up partially. The sequence is the one the firmware
// ecosystem expects: map the 4 KiB header and table windows, validate the
// header, read the heap size under the hardware lock, then commit to one
// layout generation for the manager's lifetime.
func New(cfg Config) (*Heap, error) {
	if cfg.Mapper == nil {
		return nil, errors.New("smem: config lacks a Mapper")
	}
	if cfg.Lock == nil {
		return nil, errors.New("smem: config lacks a hardware lock")
	}
	// The header and table windows may coincide on the smallest regions;
	// each still needs to fit.
	if cfg.Primary.Size < layout.HeaderWindow || cfg.Primary.Size < layout.TableWindow {
		return nil, fmt.Errorf("smem: primary region of %d bytes too small", cfg.Primary.Size)
	}

	h := &Heap{
		lock:    cfg.Lock,
		mapper:  cfg.Mapper,
		regions: make([]Region, 1+len(cfg.Aux)),
	}
	h.regions[0] = Region{Base: cfg.Primary.Base}

	ok := false
	defer func() {
		if !ok {
			h.teardown()
		}
	}()

	for i, w := range cfg.Aux {
		data, err := cfg.Mapper.Map(w.Base, w.Size)
		if err != nil {
			return nil, fmt.Errorf("smem: mapping aux region %#x: %w", w.Base, err)
		}
		h.regions[1+i] = Region{Base: w.Base, Data: data}
	}

	version, heapSize, err := h.readHeaderWindow(cfg)
	if err != nil {
		return nil, err
	}

	tw, err := cfg.Mapper.Map(cfg.Primary.Base+uint64(cfg.Primary.Size-layout.TableWindow), layout.TableWindow)
	if err != nil {
		return nil, fmt.Errorf("smem: mapping partition table window: %w", err)
	}
	h.tableWin = tw

	switch version >> 16 {
	case layout.GlobalPartVersion:
		table, err := layout.ParseTable(tw)
		if err != nil {
			return nil, fmt.Errorf("smem: %w", err)
		}
		h.table = table
		if err := h.setGlobalPartition(cfg, table); err != nil {
			return nil, err
		}
		h.itemCount = table.ItemCeiling()

	case layout.GlobalHeapVersion:
		if err := h.mapFlatHeap(cfg, heapSize); err != nil {
			return nil, err
		}
		h.itemCount = layout.ItemCount
		table, err := layout.ParseTable(tw)
		switch {
		case err == nil:
			h.table = table
		case errors.Is(err, layout.ErrBadMagic):
			// Old platforms carry no table at all; private partitions
			// simply do not exist there.
			if uerr := cfg.Mapper.Unmap(tw); uerr != nil {
				return nil, uerr
			}
			h.tableWin = nil
		default:
			return nil, fmt.Errorf("smem: %w", err)
		}

	default:
		return nil, fmt.Errorf("smem: unsupported heap layout version %#x", version)
	}

	if h.table != nil {
		if err := h.enumeratePartitions(cfg, h.table, layout.HostApps); err != nil {
			return nil, err
		}
	}

	h.version = version
	h.ready.Store(true)
	ok = true
	return h, nil
}

// readHeaderWindow maps the first 4 KiB of the primary region, validates
// the boot-loader header, and reads the layout version plus the flat heap
// size. The size is available + free_offset and must be read under the
// hardware lock so a concurrent remote allocation cannot tear it. The
// window is unmapped before returning; the flat path remaps the whole
// region afterwards.
func (h *Heap) readHeaderWindow(cfg Config) (version uint32, heapSize int, err error) {
	hb, err := cfg.Mapper.Map(cfg.Primary.Base, layout.HeaderWindow)
	if err != nil {
		return 0, 0, fmt.Errorf("smem: mapping header window: %w", err)
	}
	defer func() {
		if uerr := cfg.Mapper.Unmap(hb); uerr != nil && err == nil {
			err = uerr
		}
	}()

	hdr, err := layout.ParseHeader(hb)
	if err != nil {
		return 0, 0, fmt.Errorf("smem: %w", err)
	}
	if err := hdr.ValidateReady(); err != nil {
		return 0, 0, fmt.Errorf("smem: %w", err)
	}

	if err := cfg.Lock.TryLock(LockTimeout); err != nil {
		return 0, 0, err
	}
	heapSize = int(hdr.Available()) + int(hdr.FreeOffset())
	cfg.Lock.Unlock()

	return hdr.SBLVersion(), heapSize, nil
}

// mapFlatHeap maps the whole primary region for the legacy layout and wires
// up the header view over it.
func (h *Heap) mapFlatHeap(cfg Config, heapSize int) error {
	if heapSize < layout.HdrTocOff || heapSize > cfg.Primary.Size {
		return fmt.Errorf("%w: flat heap size %d outside region of %d bytes",
			ErrCorrupt, heapSize, cfg.Primary.Size)
	}
	data, err := cfg.Mapper.Map(cfg.Primary.Base, heapSize)
	if err != nil {
		return fmt.Errorf("smem: mapping flat heap: %w", err)
	}
	h.regions[0].Data = data
	h.header, err = layout.ParseHeader(data)
	if err != nil {
		return fmt.Errorf("smem: %w", err)
	}
	return nil
}

// setGlobalPartition locates and maps the partition owned by the global
// pseudo host. Under the partitioned layout it replaces the flat heap, so
// a missing entry is fatal, not a fallback.
func (h *Heap) setGlobalPartition(cfg Config, table *layout.Table) error {
	for i := 0; i < table.NumEntries(); i++ {
		entry, err := table.Entry(i)
		if err != nil {
			return fmt.Errorf("smem: %w", err)
		}
		if entry.IsNil() {
			continue
		}
		if entry.Host0() != layout.GlobalHost || entry.Host1() != layout.GlobalHost {
			continue
		}
		p, err := h.mapPartition(cfg, entry)
		if err != nil {
			return err
		}
		h.global = p
		return nil
	}
	return errors.New("smem: missing entry for global partition")
}

// enumeratePartitions claims every table entry pairing localHost with a
// remote host. A remote host outside the valid range or a duplicate claim
// for the same slot means the table is corrupt or unsupported, and
// discovery aborts rather than silently picking one.
func (h *Heap) enumeratePartitions(cfg Config, table *layout.Table, localHost uint16) error {
	for i := 0; i < table.NumEntries(); i++ {
		entry, err := table.Entry(i)
		if err != nil {
			return fmt.Errorf("smem: %w", err)
		}
		if entry.IsNil() {
			continue
		}

		host0, host1 := entry.Host0(), entry.Host1()
		var remote uint16
		switch localHost {
		case host0:
			remote = host1
		case host1:
			remote = host0
		default:
			continue
		}

		if remote >= layout.HostCount {
			return fmt.Errorf("smem: partition table names bad host %d", remote)
		}
		if h.parts[remote] != nil {
			return fmt.Errorf("smem: duplicate partition for host %d", remote)
		}

		p, err := h.mapPartition(cfg, entry)
		if err != nil {
			return err
		}
		h.parts[remote] = p
	}
	return nil
}

// mapPartition maps the partition described by entry and validates its
// header against the entry.
func (h *Heap) mapPartition(cfg Config, entry layout.TableEntry) (*partition, error) {
	off := int(entry.Offset())
	size := int(entry.Size())
	if _, err := buf.CheckSpan(cfg.Primary.Size, off, size); err != nil {
		return nil, fmt.Errorf("smem: partition %d:%d placement: %v",
			entry.Host0(), entry.Host1(), err)
	}
	data, err := cfg.Mapper.Map(cfg.Primary.Base+uint64(off), size)
	if err != nil {
		return nil, fmt.Errorf("smem: mapping partition %d:%d: %w",
			entry.Host0(), entry.Host1(), err)
	}
	phdr, err := layout.ParsePartHeader(data, entry)
	if err != nil {
		if uerr := h.mapper.Unmap(data); uerr != nil {
			return nil, uerr
		}
		return nil, fmt.Errorf("smem: %w", err)
	}
	return &partition{
		data:      data,
		phys:      cfg.Primary.Base + uint64(off),
		size:      size,
		cacheline: int(entry.Cacheline()),
		hdr:       phdr,
	}, nil
}
