package engine

import (
	"sync"

	"github.com/Oluwatunmise116/caremini/internal/device"
)

// commandQueue is a bounded thread-safe FIFO for inbound commands.
//
// The link transport's receive callback is the single producer and the
// channel loop is the single consumer. The bound keeps a misbehaving peer
// from growing the queue without limit: Enqueue refuses when full and the
// caller drops the command with a diagnostic. The transport callback must
// never block.
//
// The queue uses a buffered size-1 channel for signaling so a consumer can
// wait with a select; multiple signals coalesce.
type commandQueue struct {
	mu       sync.Mutex
	commands []device.Command
	capacity int
	closed   bool
	signal   chan struct{}
}

// newCommandQueue creates an empty queue holding at most capacity commands.
func newCommandQueue(capacity int) *commandQueue {
	return &commandQueue{
		commands: make([]device.Command, 0, capacity),
		capacity: capacity,
		signal:   make(chan struct{}, 1),
	}
}

// Enqueue adds a command to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is full or closed; the command is not retained.
func (q *commandQueue) Enqueue(c device.Command) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || len(q.commands) >= q.capacity {
		return false
	}

	q.commands = append(q.commands, c)

	// Non-blocking send; the size-1 buffer coalesces bursts.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes and returns the front command without blocking.
// Returns (Command{}, false) if the queue is empty.
func (q *commandQueue) TryDequeue() (device.Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.commands) == 0 {
		return device.Command{}, false
	}

	c := q.commands[0]

	// Nil out the slot so the backing array does not retain the command's
	// pointer payloads until reallocation.
	q.commands[0] = device.Command{}

	if len(q.commands) == 1 {
		q.commands = q.commands[:0]
	} else {
		q.commands = q.commands[1:]
	}

	return c, true
}

// Wait returns a channel that signals when commands may be available.
// Use with select for context-aware waiting.
func (q *commandQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *commandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.commands)
}

// Close marks the queue closed. Later Enqueue calls return false and any
// waiter wakes because the signal channel closes.
func (q *commandQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
