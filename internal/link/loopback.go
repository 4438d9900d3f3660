package link

import (
	"context"
	"sync"

	"github.com/Oluwatunmise116/caremini/internal/device"
)

// Loopback is an in-process link with no radio behind it. The band runs
// against it when no Redis endpoint is configured, and tests use it to
// script connect and disconnect edges.
type Loopback struct {
	mu            sync.Mutex
	connected     bool
	notifications [][]byte
	announces     int
	notifyErr     error
}

// NewLoopback creates a disconnected loopback link.
func NewLoopback() *Loopback {
	return &Loopback{}
}

// SetConnected flips the companion-in-range state.
func (l *Loopback) SetConnected(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connected = on
}

// FailNotifyWith makes every subsequent Notify return err until cleared
// with a nil err.
func (l *Loopback) FailNotifyWith(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notifyErr = err
}

// Connected reports the scripted companion state.
func (l *Loopback) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}

// Notify records the payload. Disconnected delivery fails with a
// LINK_CLOSED error, matching the Redis client's zero-subscriber case.
func (l *Loopback) Notify(_ context.Context, payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.notifyErr != nil {
		return l.notifyErr
	}
	if !l.connected {
		return device.NewLinkClosedError()
	}

	// Copy so a caller reusing its buffer cannot rewrite history.
	buf := make([]byte, len(payload))
	copy(buf, payload)
	l.notifications = append(l.notifications, buf)
	return nil
}

// Announce counts the advertising beacon.
func (l *Loopback) Announce(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.announces++
	return nil
}

// Notifications returns a copy of every payload delivered so far.
func (l *Loopback) Notifications() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([][]byte, len(l.notifications))
	for i, p := range l.notifications {
		buf := make([]byte, len(p))
		copy(buf, p)
		out[i] = buf
	}
	return out
}

// Announces returns the number of advertising beacons published.
func (l *Loopback) Announces() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.announces
}
