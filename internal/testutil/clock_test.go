package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClock_FrozenUntilAdvanced(t *testing.T) {
	start := time.Date(2026, 8, 25, 7, 29, 0, 0, time.UTC)
	clock := NewManualClock(start)

	assert.Equal(t, start, clock.Now())
	assert.Equal(t, start, clock.Now(), "repeated reads do not advance")
}

func TestManualClock_Advance(t *testing.T) {
	start := time.Date(2026, 8, 25, 7, 29, 0, 0, time.UTC)
	clock := NewManualClock(start)

	got := clock.Advance(time.Second)
	assert.Equal(t, start.Add(time.Second), got)
	assert.Equal(t, got, clock.Now())

	clock.Advance(59 * time.Second)
	assert.Equal(t, start.Add(time.Minute), clock.Now())
}

func TestManualClock_Set(t *testing.T) {
	clock := NewManualClock(time.Date(2026, 8, 25, 7, 29, 0, 0, time.UTC))

	later := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	clock.Set(later)
	assert.Equal(t, later, clock.Now())
}

func TestManualClock_ThreadSafe(t *testing.T) {
	clock := NewManualClock(time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			clock.Advance(time.Millisecond)
		}()
		go func() {
			defer wg.Done()
			_ = clock.Now()
		}()
	}
	wg.Wait()

	want := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC).Add(50 * time.Millisecond)
	assert.Equal(t, want, clock.Now())
}
