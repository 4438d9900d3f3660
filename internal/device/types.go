package device

import (
	"fmt"
	"time"
)

// Capacity is the maximum number of reminders the band stores.
// The slot count is fixed by the band's screen and memory budget.
const Capacity = 10

// DeviceTime is the band's local civil time. The band has no battery-backed
// RTC and no network time: the clock starts from BootTime and only a time-set
// from the paired device makes it meaningful.
type DeviceTime struct {
	Hour   int // 0-23
	Minute int // 0-59
	Second int // 0-59
	Day    int
	Month  int
	Year   int

	// Synced reports whether a paired device has pushed time since boot.
	Synced bool
	// SyncedAt is the wall instant of the last time-set (zero until Synced).
	SyncedAt time.Time
}

// BootTime is the clock value the band shows until the first time-set.
// The stale date makes an unsynced band recognizable at a glance.
func BootTime() DeviceTime {
	return DeviceTime{Hour: 0, Minute: 0, Second: 0, Day: 1, Month: 1, Year: 2024}
}

// ClockString renders the time portion as HH:MM:SS.
func (t DeviceTime) ClockString() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// DateString renders the calendar portion as YYYY-MM-DD.
func (t DeviceTime) DateString() string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year, t.Month, t.Day)
}

// Reminder is one daily reminder slot. Hour and Minute are the daily firing
// time; reminders carry no date and recur every day while Active.
type Reminder struct {
	ID      int    // positive, allocated monotonically, never reused
	Hour    int    // 0-23
	Minute  int    // 0-59
	Kind    string // short category tag ("medicine", "water", ...)
	Message string // display text, NFC-normalized on ingest
	Active  bool
	// Triggered guards against re-firing within the matching minute.
	// Cleared when the clock leaves the minute, which is what makes the
	// reminder recur the next day.
	Triggered bool
}

// AlertStatus is the presentation-facing view of the alert engine.
// Pacing bookkeeping stays internal to the engine.
type AlertStatus struct {
	Active    bool
	Kind      string
	Message   string
	StartedAt time.Time
}

// Frame is the presentation surface handed to a renderer: what the band's
// screen shows right now.
type Frame struct {
	Time      DeviceTime
	Alert     AlertStatus
	Connected bool
}

// Snapshot is the persisted form of the reminder store, written in full
// after every mutation and read back once at boot.
type Snapshot struct {
	ReminderCount  int                `json:"reminderCount"`
	NextReminderID int                `json:"nextReminderId"`
	Reminders      []SnapshotReminder `json:"reminders"`
}

// SnapshotReminder is one stored reminder. Active and Triggered are pointers
// so a record written by an older firmware that lacked the fields still loads:
// absent Active defaults to true, absent Triggered to false.
type SnapshotReminder struct {
	ID        int    `json:"id"`
	Hour      int    `json:"hour"`
	Minute    int    `json:"minute"`
	Kind      string `json:"type"`
	Message   string `json:"message"`
	Active    *bool  `json:"active,omitempty"`
	Triggered *bool  `json:"triggered,omitempty"`
}

// ToReminder converts a stored record to the in-memory form, applying the
// load-time defaults for absent fields.
func (s SnapshotReminder) ToReminder() Reminder {
	r := Reminder{
		ID:        s.ID,
		Hour:      s.Hour,
		Minute:    s.Minute,
		Kind:      s.Kind,
		Message:   s.Message,
		Active:    true,
		Triggered: false,
	}
	if s.Active != nil {
		r.Active = *s.Active
	}
	if s.Triggered != nil {
		r.Triggered = *s.Triggered
	}
	return r
}

// SnapshotFrom builds the persisted form of a reminder list.
func SnapshotFrom(nextID int, reminders []Reminder) Snapshot {
	snap := Snapshot{
		ReminderCount:  len(reminders),
		NextReminderID: nextID,
		Reminders:      make([]SnapshotReminder, 0, len(reminders)),
	}
	for _, r := range reminders {
		active, triggered := r.Active, r.Triggered
		snap.Reminders = append(snap.Reminders, SnapshotReminder{
			ID:        r.ID,
			Hour:      r.Hour,
			Minute:    r.Minute,
			Kind:      r.Kind,
			Message:   r.Message,
			Active:    &active,
			Triggered: &triggered,
		})
	}
	return snap
}
