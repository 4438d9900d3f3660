package actuator

import (
	"log/slog"
	"sync"
)

// Pin is a binary output line.
type Pin interface {
	Set(on bool)
}

// Memory is a Pin that holds its state in memory. It stands in for a GPIO
// line on development builds and in tests.
type Memory struct {
	mu   sync.Mutex
	on   bool
	sets []bool
}

// NewMemory creates a Memory pin in the off state.
func NewMemory() *Memory {
	return &Memory{}
}

// Set drives the pin.
func (m *Memory) Set(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.on = on
	m.sets = append(m.sets, on)
}

// On reports the current pin state.
func (m *Memory) On() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.on
}

// History returns a copy of every Set call in order.
func (m *Memory) History() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]bool, len(m.sets))
	copy(out, m.sets)
	return out
}

// Slog is a Pin decorator that logs state transitions. Every Set is
// forwarded to the wrapped pin; only changes are logged, so the 1 Hz
// alert cadence does not flood the log with identical lines.
type Slog struct {
	name string
	next Pin

	mu   sync.Mutex
	seen bool
	last bool
}

// NewSlog wraps next with transition logging under the given pin name.
// A nil next makes the logger the terminal pin.
func NewSlog(name string, next Pin) *Slog {
	return &Slog{name: name, next: next}
}

// Set drives the pin.
func (s *Slog) Set(on bool) {
	s.mu.Lock()
	changed := !s.seen || on != s.last
	s.seen = true
	s.last = on
	s.mu.Unlock()

	if changed {
		slog.Info("pin changed", "pin", s.name, "on", on)
	}
	if s.next != nil {
		s.next.Set(on)
	}
}
