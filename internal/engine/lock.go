package engine

import (
	"time"

	"github.com/Oluwatunmise116/caremini/internal/device"
)

// timedMutex is an advisory mutual-exclusion lock with bounded acquisition.
//
// The band's loops must never stall behind each other: a loop that cannot
// take a lock within the configured bound gives up, and the caller skips
// that cycle or serves a cached value. The lock is a capacity-1 channel;
// holding the token is holding the lock.
type timedMutex struct {
	name    string
	timeout time.Duration
	slot    chan struct{}
}

func newTimedMutex(name string, timeout time.Duration) *timedMutex {
	return &timedMutex{
		name:    name,
		timeout: timeout,
		slot:    make(chan struct{}, 1),
	}
}

// Acquire takes the lock, waiting at most the configured timeout.
// Returns a LOCK_TIMEOUT error when the bound expires; the caller treats
// that as "skip this cycle", never as a fault.
func (m *timedMutex) Acquire() error {
	select {
	case m.slot <- struct{}{}:
		return nil
	default:
	}

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	select {
	case m.slot <- struct{}{}:
		return nil
	case <-timer.C:
		return device.NewLockTimeoutError(m.name, m.timeout)
	}
}

// Release returns the lock. Releasing an unheld lock is a programming
// error and panics, matching sync.Mutex behavior.
func (m *timedMutex) Release() {
	select {
	case <-m.slot:
	default:
		panic("engine: release of unheld " + m.name + " lock")
	}
}
