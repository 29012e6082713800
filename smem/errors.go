package smem

import "errors"

var (
	// ErrNotReady indicates the heap has not been attached yet, or has been
	// closed. Callers are expected to retry later, not fail permanently.
	ErrNotReady = errors.New("smem: not ready")

	// ErrReservedItem indicates an item number below the boot-loader
	// reserved range. Always a caller error, never retryable.
	ErrReservedItem = errors.New("smem: reserved static item")

	// ErrItemRange indicates an item number at or above the heap's item
	// ceiling. Always a caller error.
	ErrItemRange = errors.New("smem: item out of range")

	// ErrExists indicates the item is already allocated.
	ErrExists = errors.New("smem: item already exists")

	// ErrNoSpace indicates the target heap or partition has no room left.
	ErrNoSpace = errors.New("smem: out of space")

	// ErrNotFound indicates the item has not been allocated.
	ErrNotFound = errors.New("smem: item not found")

	// ErrCorrupt indicates the shared structures failed validation: a bad
	// canary, inconsistent header offsets, a non-advancing chain pointer,
	// or an out-of-range computed span. Never repaired or skipped; the
	// operation aborts so callers can tell "missing" from "broken".
	ErrCorrupt = errors.New("smem: shared structure corrupted")
)
