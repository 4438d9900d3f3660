package engine

import (
	"sync"
	"time"

	"github.com/Oluwatunmise116/caremini/internal/device"
)

// Pin is a binary output line on the band: the vibration motor driver and
// the buzzer driver. Implemented by the actuator package (memory pin, slog
// pin, tone pin).
type Pin interface {
	Set(on bool)
}

// Alert episode shape: fixed length, two pacing tracks.
const (
	// alertDuration is how long an episode runs before auto-dismissing.
	alertDuration = 60 * time.Second
	// hapticPeriod is the vibration toggle interval.
	hapticPeriod = 2 * time.Second
	// audiblePeriod is the buzzer pulse interval.
	audiblePeriod = time.Second
	// audiblePulse is how long each buzzer pulse is held.
	audiblePulse = 200 * time.Millisecond
)

// AlertEngine runs the band's alert episode state machine.
//
// Two states: Idle and Active. A reminder match starts an episode; the
// clock loop calls Step once per second to pace the actuators; the episode
// auto-dismisses after alertDuration. A match during an active episode
// replaces the whole payload and restarts the window (last write wins, no
// queue).
//
// Thread-safety: internal mutex. The clock loop triggers and steps; the
// presentation loop reads Snapshot concurrently. Actuator I/O happens
// outside the mutex so a slow pin cannot stall a snapshot read.
type AlertEngine struct {
	mu      sync.Mutex
	haptic  Pin
	audible Pin
	hold    func(time.Duration)
	notify  func(kind, message string)

	active        bool
	kind          string
	message       string
	startedAt     time.Time
	lastBuzzAt    time.Time
	lastVibrateAt time.Time
	hapticOn      bool
}

// AlertOption configures an AlertEngine.
type AlertOption func(*AlertEngine)

// WithHold replaces the buzzer pulse hold. Production holds the pin high
// with time.Sleep for the pulse length; tests pass a no-op to step through
// a timeline instantly.
func WithHold(hold func(time.Duration)) AlertOption {
	return func(a *AlertEngine) {
		a.hold = hold
	}
}

// WithNotifier sets the callback that pushes the alert text to the paired
// device. The callback decides whether a peer is connected; it runs outside
// the alert mutex.
func WithNotifier(notify func(kind, message string)) AlertOption {
	return func(a *AlertEngine) {
		a.notify = notify
	}
}

// NewAlertEngine creates an idle engine driving the two pins.
func NewAlertEngine(haptic, audible Pin, opts ...AlertOption) *AlertEngine {
	a := &AlertEngine{
		haptic:  haptic,
		audible: audible,
		hold:    time.Sleep,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Trigger starts an episode for a matched reminder, or replaces the payload
// of a running one. Pacing anchors reset to now either way: the first buzzer
// pulse lands one second in, the first vibration toggle two seconds in.
func (a *AlertEngine) Trigger(kind, message string, now time.Time) {
	a.mu.Lock()
	a.active = true
	a.kind = kind
	a.message = message
	a.startedAt = now
	a.lastBuzzAt = now
	a.lastVibrateAt = now
	notify := a.notify
	a.mu.Unlock()

	if notify != nil {
		notify(kind, message)
	}
}

// Step paces a running episode. The clock loop calls it once per tick with
// the current wall instant; when idle it does nothing.
//
// At alertDuration past the start the episode ends: both pins are forced
// off and the engine returns to Idle. Otherwise the vibration motor toggles
// every hapticPeriod and the buzzer emits an audiblePulse-held pulse every
// audiblePeriod. The pulse hold is the only blocking this method does.
func (a *AlertEngine) Step(now time.Time) {
	a.mu.Lock()
	if !a.active {
		a.mu.Unlock()
		return
	}

	if now.Sub(a.startedAt) >= alertDuration {
		a.active = false
		a.kind = ""
		a.message = ""
		a.hapticOn = false
		a.mu.Unlock()
		a.haptic.Set(false)
		a.audible.Set(false)
		return
	}

	var toggleHaptic, pulse bool
	if now.Sub(a.lastVibrateAt) >= hapticPeriod {
		a.hapticOn = !a.hapticOn
		a.lastVibrateAt = now
		toggleHaptic = true
	}
	if now.Sub(a.lastBuzzAt) >= audiblePeriod {
		a.lastBuzzAt = now
		pulse = true
	}
	hapticOn := a.hapticOn
	a.mu.Unlock()

	if toggleHaptic {
		a.haptic.Set(hapticOn)
	}
	if pulse {
		a.audible.Set(true)
		a.hold(audiblePulse)
		a.audible.Set(false)
	}
}

// Snapshot returns the presentation view of the episode.
func (a *AlertEngine) Snapshot() device.AlertStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return device.AlertStatus{
		Active:    a.active,
		Kind:      a.kind,
		Message:   a.message,
		StartedAt: a.startedAt,
	}
}
