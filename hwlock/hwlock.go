// Package hwlock models the hardware mutex that serializes shared-memory
// access across processors. The heap manager only requires the capability:
// acquire with a bounded timeout, release, and a supervisory bust operation
// that forcibly clears another processor's ownership. The mutex device
// itself (sfpb/tcsr on real SoCs) is discovered and claimed by platform
// glue; this package ships a register-protocol implementation over a mapped
// window and an in-process implementation for hosted environments.
package hwlock

import (
	"errors"
	"time"
)

// ErrTimeout indicates the lock could not be acquired within the deadline.
// It is a recoverable condition: callers may retry with their own backoff.
var ErrTimeout = errors.New("hwlock: acquisition timed out")

// ErrNotOwner indicates a bust was requested for a processor that does not
// hold the lock.
var ErrNotOwner = errors.New("hwlock: not held by that owner")

// Lock is the cross-processor mutex capability consumed by the heap
// manager. It is not reentrant; the manager never acquires it recursively.
type Lock interface {
	// TryLock acquires the lock, blocking up to timeout. Returns
	// ErrTimeout when the deadline passes without ownership.
	TryLock(timeout time.Duration) error

	// Unlock releases the lock. Must only be called by the holder.
	Unlock()

	// Bust forcibly clears the lock if it is held by owner. Supervisory
	// use only: it bypasses the timeout discipline entirely and is meant
	// for recovering a wedged remote processor.
	Bust(owner uint32) error
}

// HostLockOwner maps a heap host identifier to the owner value the mutex
// hardware records. The firmware convention is host id plus one.
func HostLockOwner(host int) uint32 {
	return uint32(host) + 1
}
