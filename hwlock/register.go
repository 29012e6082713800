package hwlock

import (
	"time"

	"github.com/reigadegr/smemkit/internal/buf"
)

// Register drives the sfpb/tcsr mutex register protocol over a mapped
// 4-byte window: write your owner id, read it back, and you hold the lock
// iff the read returns your id. Zero means free. The mutual exclusion comes
// from the device, which latches the first write while held; a plain RAM
// window does not do that, so in-process emulation wants Local instead.
type Register struct {
	reg   []byte
	owner uint32
	poll  time.Duration
}

// pollInterval is the backoff between acquisition attempts. The window is
// uncached memory, so hammering it starves the bus for everyone.
const pollInterval = 10 * time.Microsecond

// NewRegister returns a Register speaking the mutex protocol on reg (at
// least 4 bytes) with the given non-zero owner id.
func NewRegister(reg []byte, owner uint32) *Register {
	return &Register{reg: reg, owner: owner, poll: pollInterval}
}

// TryLock implements Lock.
func (r *Register) TryLock(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		buf.PutU32Release(r.reg, 0, r.owner)
		if buf.U32Acquire(r.reg, 0) == r.owner {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrTimeout
		}
		time.Sleep(r.poll)
	}
}

// Unlock implements Lock.
func (r *Register) Unlock() {
	buf.PutU32Release(r.reg, 0, 0)
}

// Bust implements Lock. The register is cleared only when the recorded
// holder matches owner, so busting a lock that moved on is a no-op error
// rather than a stomp on the new holder.
func (r *Register) Bust(owner uint32) error {
	if buf.U32Acquire(r.reg, 0) != owner {
		return ErrNotOwner
	}
	buf.PutU32Release(r.reg, 0, 0)
	return nil
}
