//go:build !unix

package mmfile

import (
	"fmt"
	"io"
	"os"
)

// MapRange reads length bytes of the file at path starting at off into a
// slice. Writable mappings are refused: without mmap there is no way to
// carry writes back to the backing file coherently.
func MapRange(path string, off int64, length int, writable bool) ([]byte, func() error, error) {
	if writable {
		return nil, nil, fmt.Errorf("mmfile: writable mappings unsupported on this platform")
	}
	if off < 0 || length < 0 {
		return nil, nil, fmt.Errorf("mmfile: bad range off=%d len=%d", off, length)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	data := make([]byte, length)
	if _, err := f.ReadAt(data, off); err != nil && err != io.EOF {
		return nil, nil, err
	}
	return data, func() error { return nil }, nil
}
