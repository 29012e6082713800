package layout

import "errors"

var (
	// ErrBadMagic indicates a structure had an unexpected magic.
	ErrBadMagic = errors.New("layout: magic mismatch")
	// ErrBadVersion indicates an unsupported structure version.
	ErrBadVersion = errors.New("layout: unsupported version")
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("layout: truncated buffer")
	// ErrHostMismatch indicates a partition header named different hosts
	// than its table entry.
	ErrHostMismatch = errors.New("layout: host mismatch")
	// ErrSizeMismatch indicates a partition header disagreed with its table
	// entry about the partition size.
	ErrSizeMismatch = errors.New("layout: size mismatch")
	// ErrHeaderInvariant indicates a partition header's free offsets violate
	// the layout invariants.
	ErrHeaderInvariant = errors.New("layout: header invariant violated")
	// ErrNotInitialized indicates the boot loader never marked the heap
	// ready (initialized != 1 or reserved != 0).
	ErrNotInitialized = errors.New("layout: heap not initialized by boot loader")
)
