package hwlock

import (
	"sync/atomic"
	"time"
)

// Local is an in-process Lock for hosted environments and tests, where no
// mutex hardware exists and the only contenders are local goroutines. It
// keeps the same ownership model as the register protocol so Bust behaves
// identically.
type Local struct {
	sem   chan struct{}
	owner atomic.Uint32
	id    uint32
}

// NewLocal returns a Local lock that records the given non-zero owner id
// while held.
func NewLocal(owner uint32) *Local {
	return &Local{sem: make(chan struct{}, 1), id: owner}
}

// TryLock implements Lock.
func (l *Local) TryLock(timeout time.Duration) error {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case l.sem <- struct{}{}:
		l.owner.Store(l.id)
		return nil
	case <-t.C:
		return ErrTimeout
	}
}

// Unlock implements Lock.
func (l *Local) Unlock() {
	l.owner.Store(0)
	select {
	case <-l.sem:
	default:
	}
}

// Bust implements Lock.
func (l *Local) Bust(owner uint32) error {
	if l.owner.Load() != owner {
		return ErrNotOwner
	}
	l.owner.Store(0)
	select {
	case <-l.sem:
	default:
	}
	return nil
}
