package smem

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/reigadegr/smemkit/internal/buf"
	"github.com/reigadegr/smemkit/internal/mmfile"
)

// Region is a mapped physical memory window: the byte range plus the
// physical base it was mapped from. It is the input contract between the
// platform glue that resolves and maps firmware-described memory and this
// package, which consumes only the result.
type Region struct {
	// Base is the physical base address of the window.
	Base uint64
	// Data is the mapped bytes. Writes land in shared memory.
	Data []byte
}

// contains reports whether p's backing storage lies inside the region, and
// returns the byte offset when it does.
func (r *Region) contains(p []byte) (int, bool) {
	if len(r.Data) == 0 || len(p) == 0 {
		return 0, false
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(r.Data)))
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(p)))
	if addr < base || addr >= base+uintptr(len(r.Data)) {
		return 0, false
	}
	return int(addr - base), true
}

// Mapper turns physical address ranges into addressable byte ranges. On
// hardware this is an uncached write-combined mapping of device memory; for
// tooling it is a mapping of a heap image file. Mappings stay valid until
// passed to Unmap or the mapper is discarded.
type Mapper interface {
	Map(base uint64, size int) ([]byte, error)
	Unmap(b []byte) error
}

// FileMapper implements Mapper over a single backing file, where file
// offset 0 corresponds to the configured physical base. The backing file is
// /dev/mem on hardware and a captured heap image everywhere else.
type FileMapper struct {
	path     string
	base     uint64
	writable bool

	mu       sync.Mutex
	cleanups map[*byte]func() error
}

// NewFileMapper returns a FileMapper for the file at path whose first byte
// sits at physical address base.
func NewFileMapper(path string, base uint64, writable bool) *FileMapper {
	return &FileMapper{
		path:     path,
		base:     base,
		writable: writable,
		cleanups: make(map[*byte]func() error),
	}
}

// Map implements Mapper.
func (m *FileMapper) Map(base uint64, size int) ([]byte, error) {
	if base < m.base {
		return nil, fmt.Errorf("smem: map %#x below file base %#x", base, m.base)
	}
	b, cleanup, err := mmfile.MapRange(m.path, int64(base-m.base), size, m.writable)
	if err != nil {
		return nil, err
	}
	if len(b) > 0 {
		m.mu.Lock()
		m.cleanups[unsafe.SliceData(b)] = cleanup
		m.mu.Unlock()
	}
	return b, nil
}

// Unmap implements Mapper.
func (m *FileMapper) Unmap(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	key := unsafe.SliceData(b)
	m.mu.Lock()
	cleanup := m.cleanups[key]
	delete(m.cleanups, key)
	m.mu.Unlock()
	if cleanup == nil {
		return fmt.Errorf("smem: unmap of unknown mapping")
	}
	return cleanup()
}

// BufMapper implements Mapper over an in-memory buffer holding a heap image
// that starts at physical address base. Mappings alias the buffer, so writes
// through one window are visible through every other, the same way multiple
// mappings of one physical region behave.
type BufMapper struct {
	base uint64
	data []byte
}

// NewBufMapper returns a BufMapper over data placed at base.
func NewBufMapper(data []byte, base uint64) *BufMapper {
	return &BufMapper{base: base, data: data}
}

// Map implements Mapper.
func (m *BufMapper) Map(base uint64, size int) ([]byte, error) {
	if base < m.base {
		return nil, fmt.Errorf("smem: map %#x below buffer base %#x", base, m.base)
	}
	off := base - m.base
	if off > uint64(len(m.data)) {
		return nil, fmt.Errorf("smem: map %#x beyond buffer", base)
	}
	b, ok := buf.Slice(m.data, int(off), size)
	if !ok {
		return nil, fmt.Errorf("smem: map %#x+%#x beyond buffer", base, size)
	}
	return b, nil
}

// Unmap implements Mapper.
func (m *BufMapper) Unmap([]byte) error { return nil }
