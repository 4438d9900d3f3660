package engine

import (
	"time"

	"github.com/Oluwatunmise116/caremini/internal/device"
)

// WallClock is the engine's source of real instants, used for pacing anchors
// and loop scheduling. Implemented by SystemClock (production) and
// testutil.ManualClock (tests).
type WallClock interface {
	Now() time.Time
}

// SystemClock reads the operating system clock.
type SystemClock struct{}

// Now returns the current OS time.
func (SystemClock) Now() time.Time { return time.Now() }

// ClockKeeper holds the band's local civil time.
//
// The band has no battery-backed RTC: the keeper starts at device.BootTime
// and only moves through Tick (one second per clock-loop cycle) and SetTime
// (a push from the paired device).
//
// Thread-safety: NONE here. The keeper is plain state; the Engine serializes
// all access through the time lock.
type ClockKeeper struct {
	t device.DeviceTime
}

// NewClockKeeper creates a keeper at the boot default, unsynchronized.
func NewClockKeeper() *ClockKeeper {
	return &ClockKeeper{t: device.BootTime()}
}

// Snapshot returns a copy of the current time.
func (c *ClockKeeper) Snapshot() device.DeviceTime {
	return c.t
}

// Tick advances the clock by one second.
//
// Seconds roll into minutes and minutes into hours; 23:59:59 rolls to
// 00:00:00 with the calendar fields untouched. The band does no calendar
// math, so an unsynchronized clock drifts through the same date until the
// next time-set corrects it.
func (c *ClockKeeper) Tick() {
	c.t.Second++
	if c.t.Second < 60 {
		return
	}
	c.t.Second = 0
	c.t.Minute++
	if c.t.Minute < 60 {
		return
	}
	c.t.Minute = 0
	c.t.Hour++
	if c.t.Hour < 24 {
		return
	}
	c.t.Hour = 0
}

// SetTime applies a time push from the paired device.
//
// Hour and Minute are mandatory and validated. Absent optional fields take
// documented defaults: Second becomes 0 (the pushed minute starts fresh),
// Day/Month/Year keep their current values (a clock-only sync does not
// invent a date). The wall instant `at` is recorded as the sync time.
//
// Day is validated 1-31 without month-length checks; the calendar is
// display-only on the band.
func (c *ClockKeeper) SetTime(ts device.TimeSet, at time.Time) error {
	if ts.Hour < 0 || ts.Hour > 23 {
		return device.NewValidationError("hour %d out of range 0-23", ts.Hour)
	}
	if ts.Minute < 0 || ts.Minute > 59 {
		return device.NewValidationError("minute %d out of range 0-59", ts.Minute)
	}

	next := c.t
	next.Hour = ts.Hour
	next.Minute = ts.Minute
	next.Second = 0

	if ts.Second != nil {
		if *ts.Second < 0 || *ts.Second > 59 {
			return device.NewValidationError("second %d out of range 0-59", *ts.Second)
		}
		next.Second = *ts.Second
	}
	if ts.Day != nil {
		if *ts.Day < 1 || *ts.Day > 31 {
			return device.NewValidationError("day %d out of range 1-31", *ts.Day)
		}
		next.Day = *ts.Day
	}
	if ts.Month != nil {
		if *ts.Month < 1 || *ts.Month > 12 {
			return device.NewValidationError("month %d out of range 1-12", *ts.Month)
		}
		next.Month = *ts.Month
	}
	if ts.Year != nil {
		if *ts.Year < 2000 || *ts.Year > 2099 {
			return device.NewValidationError("year %d out of range 2000-2099", *ts.Year)
		}
		next.Year = *ts.Year
	}

	next.Synced = true
	next.SyncedAt = at
	c.t = next
	return nil
}
