package render

import (
	"sync"

	"github.com/Oluwatunmise116/caremini/internal/device"
)

// Memory records every rendered frame. Thread-safe.
type Memory struct {
	mu     sync.Mutex
	frames []device.Frame
}

// NewMemory creates an empty frame recorder.
func NewMemory() *Memory {
	return &Memory{}
}

// Render records the frame.
func (m *Memory) Render(f device.Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, f)
}

// Last returns the most recent frame and whether one exists.
func (m *Memory) Last() (device.Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.frames) == 0 {
		return device.Frame{}, false
	}
	return m.frames[len(m.frames)-1], true
}

// Frames returns a copy of every recorded frame in order.
func (m *Memory) Frames() []device.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]device.Frame, len(m.frames))
	copy(out, m.frames)
	return out
}
