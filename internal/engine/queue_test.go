package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Oluwatunmise116/caremini/internal/device"
)

func reminderCommand(action device.Action, id int) device.Command {
	return device.Command{
		Kind:     device.CommandReminder,
		Reminder: &device.ReminderCommand{Action: action, ID: id},
	}
}

func TestCommandQueue_EnqueueDequeue(t *testing.T) {
	q := newCommandQueue(4)

	ok := q.Enqueue(device.Command{
		Kind:    device.CommandTimeSet,
		TimeSet: &device.TimeSet{Hour: 7, Minute: 30},
	})
	require.True(t, ok, "enqueue should succeed")

	got, ok := q.TryDequeue()
	require.True(t, ok, "dequeue should succeed")
	assert.Equal(t, device.CommandTimeSet, got.Kind)
	require.NotNil(t, got.TimeSet)
	assert.Equal(t, 7, got.TimeSet.Hour)
}

func TestCommandQueue_FIFO(t *testing.T) {
	q := newCommandQueue(8)

	for id := 1; id <= 3; id++ {
		q.Enqueue(reminderCommand(device.ActionDelete, id))
	}

	for id := 1; id <= 3; id++ {
		got, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, id, got.Reminder.ID)
	}
}

func TestCommandQueue_TryDequeueEmpty(t *testing.T) {
	q := newCommandQueue(4)

	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestCommandQueue_RefusesWhenFull(t *testing.T) {
	q := newCommandQueue(2)

	require.True(t, q.Enqueue(reminderCommand(device.ActionDelete, 1)))
	require.True(t, q.Enqueue(reminderCommand(device.ActionDelete, 2)))
	assert.False(t, q.Enqueue(reminderCommand(device.ActionDelete, 3)), "full queue refuses")
	assert.Equal(t, 2, q.Len())

	// Draining one slot makes room again.
	_, ok := q.TryDequeue()
	require.True(t, ok)
	assert.True(t, q.Enqueue(reminderCommand(device.ActionDelete, 3)))
}

func TestCommandQueue_WaitSignals(t *testing.T) {
	q := newCommandQueue(4)

	done := make(chan device.Command, 1)
	go func() {
		<-q.Wait()
		if c, ok := q.TryDequeue(); ok {
			done <- c
		}
	}()

	q.Enqueue(reminderCommand(device.ActionClear, 0))

	select {
	case got := <-done:
		assert.Equal(t, device.ActionClear, got.Reminder.Action)
	case <-time.After(time.Second):
		t.Fatal("waiter never woke")
	}
}

func TestCommandQueue_SignalCoalesces(t *testing.T) {
	q := newCommandQueue(8)

	// Burst of enqueues; the size-1 signal buffer coalesces them but every
	// command is still dequeued.
	for id := 1; id <= 5; id++ {
		require.True(t, q.Enqueue(reminderCommand(device.ActionDelete, id)))
	}

	seen := 0
	for {
		if _, ok := q.TryDequeue(); !ok {
			break
		}
		seen++
	}
	assert.Equal(t, 5, seen)
}

func TestCommandQueue_CloseRefusesAndWakes(t *testing.T) {
	q := newCommandQueue(4)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-q.Wait() // closed signal channel wakes immediately
	}()

	q.Close()
	wg.Wait()

	assert.False(t, q.Enqueue(reminderCommand(device.ActionList, 0)))
	q.Close() // double close is a no-op
}
