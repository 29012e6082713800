package hwlock

import (
	"errors"
	"testing"
	"time"
)

func TestHostLockOwner(t *testing.T) {
	if got := HostLockOwner(0); got != 1 {
		t.Fatalf("owner for host 0 = %d", got)
	}
	if got := HostLockOwner(6); got != 7 {
		t.Fatalf("owner for host 6 = %d", got)
	}
}

func TestLocalAcquireRelease(t *testing.T) {
	l := NewLocal(3)
	if err := l.TryLock(time.Second); err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	l.Unlock()
	if err := l.TryLock(time.Second); err != nil {
		t.Fatalf("relock after Unlock: %v", err)
	}
	l.Unlock()
}

func TestLocalTimeout(t *testing.T) {
	l := NewLocal(3)
	if err := l.TryLock(time.Second); err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	defer l.Unlock()
	if err := l.TryLock(10 * time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("contended TryLock = %v, want ErrTimeout", err)
	}
}

func TestLocalBust(t *testing.T) {
	l := NewLocal(7)
	if err := l.TryLock(time.Second); err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if err := l.Bust(1); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("Bust wrong owner = %v, want ErrNotOwner", err)
	}
	if err := l.Bust(7); err != nil {
		t.Fatalf("Bust matching owner: %v", err)
	}
	if err := l.TryLock(time.Second); err != nil {
		t.Fatalf("lock after bust: %v", err)
	}
	l.Unlock()
}

func TestRegisterAcquireRelease(t *testing.T) {
	reg := make([]byte, 4)
	r := NewRegister(reg, 5)
	if err := r.TryLock(time.Second); err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if reg[0] != 5 {
		t.Fatalf("register holds %d after lock", reg[0])
	}
	r.Unlock()
	if reg[0] != 0 {
		t.Fatalf("register holds %d after unlock", reg[0])
	}
}

func TestRegisterBust(t *testing.T) {
	reg := make([]byte, 4)
	r := NewRegister(reg, 5)
	if err := r.TryLock(time.Second); err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if err := r.Bust(9); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("Bust wrong owner = %v, want ErrNotOwner", err)
	}
	if err := r.Bust(5); err != nil {
		t.Fatalf("Bust matching owner: %v", err)
	}
	if reg[0] != 0 {
		t.Fatalf("register holds %d after bust", reg[0])
	}
}
