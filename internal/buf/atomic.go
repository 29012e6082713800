package buf

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"
)

// Release/acquire accessors for the publish words of the heap layouts.
//
// Remote processors read the shared region without taking the hardware lock,
// so an allocation is made visible by a single ordered 32-bit store after the
// entry contents are durable. Local threads racing on the same mapping get
// the equivalent guarantee from these helpers. The offset must be 4-byte
// aligned; every publish word in the wire layouts is.

// PutU32Release stores v little-endian at b[off:off+4] with release ordering.
func PutU32Release(b []byte, off int, v uint32) {
	var le [4]byte
	binary.LittleEndian.PutUint32(le[:], v)
	p := (*uint32)(unsafe.Pointer(&b[off]))
	atomic.StoreUint32(p, *(*uint32)(unsafe.Pointer(&le[0])))
}

// U32Acquire loads the little-endian uint32 at b[off:off+4] with acquire ordering.
func U32Acquire(b []byte, off int) uint32 {
	p := (*uint32)(unsafe.Pointer(&b[off]))
	raw := atomic.LoadUint32(p)
	le := *(*[4]byte)(unsafe.Pointer(&raw))
	return binary.LittleEndian.Uint32(le[:])
}
