//go:build unix

// Package mmfile maps byte ranges of backing files into memory. On real
// hardware the backing file is /dev/mem and the offsets are physical
// addresses; for tooling and tests it is a heap image captured from
// firmware. Non-unix builds fall back to reading the range into a slice.
package mmfile

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MapRange maps length bytes of the file at path starting at off and
// returns the slice plus a cleanup function. The offset does not need to be
// page aligned; the mapping is widened internally and the returned slice is
// trimmed to the requested window.
func MapRange(path string, off int64, length int, writable bool) ([]byte, func() error, error) {
	if off < 0 || length < 0 {
		return nil, nil, fmt.Errorf("mmfile: bad range off=%d len=%d", off, length)
	}
	flag := os.O_RDONLY
	prot := unix.PROT_READ
	if writable {
		flag = os.O_RDWR
		prot |= unix.PROT_WRITE
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close() // mapping keeps pages alive

	if length == 0 {
		return []byte{}, func() error { return nil }, nil
	}

	page := int64(unix.Getpagesize())
	aligned := off &^ (page - 1)
	head := int(off - aligned)

	data, err := unix.Mmap(int(f.Fd()), aligned, head+length, prot, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, fmt.Errorf("mmfile: mmap %s: %w", path, err)
	}
	cleanup := func() error {
		err := unix.Munmap(data)
		if errors.Is(err, unix.EINVAL) {
			// Treat double-unmap as no-op for callers.
			return nil
		}
		return err
	}
	return data[head : head+length], cleanup, nil
}
