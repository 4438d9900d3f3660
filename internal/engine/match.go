package engine

import "github.com/Oluwatunmise116/caremini/internal/device"

// MatchDue evaluates reminder matches against the given clock reading and
// returns the reminders that fire this tick, in slot order.
//
// A reminder fires when the clock sits exactly on a minute boundary
// (Second == 0) and its (Hour, Minute) equals the clock's. Firing sets the
// reminder's Triggered flag in the same pass, so the remaining 59 seconds
// of the minute cannot re-fire it.
//
// On every call, regardless of the second, Triggered reminders whose
// (Hour, Minute) no longer equals the clock are un-Triggered. That is the
// whole recurrence mechanism: once the clock leaves the minute (or is set
// away from it), the reminder is armed for its next occurrence.
//
// The flag flips here are not persisted; only store mutations from
// commands write the snapshot. A power cycle inside the matching minute
// may fire the reminder once more.
//
// Caller must hold the time lock.
func (s *ReminderStore) MatchDue(now device.DeviceTime) []device.Reminder {
	var fired []device.Reminder

	if now.Second == 0 {
		for i := range s.reminders {
			r := &s.reminders[i]
			if r.Active && !r.Triggered && r.Hour == now.Hour && r.Minute == now.Minute {
				r.Triggered = true
				fired = append(fired, *r)
			}
		}
	}

	for i := range s.reminders {
		r := &s.reminders[i]
		if r.Triggered && (r.Hour != now.Hour || r.Minute != now.Minute) {
			r.Triggered = false
		}
	}

	return fired
}
