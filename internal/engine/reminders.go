package engine

import (
	"context"
	"log/slog"

	"golang.org/x/text/unicode/norm"

	"github.com/Oluwatunmise116/caremini/internal/device"
)

// Persister writes and reads the reminder snapshot. Implemented by
// storage.Store (SQLite) in production and by test fakes here.
type Persister interface {
	// SaveSnapshot replaces the persisted snapshot with snap.
	SaveSnapshot(ctx context.Context, snap device.Snapshot) error
	// LoadSnapshot returns the persisted snapshot, or nil when none exists.
	LoadSnapshot(ctx context.Context) (*device.Snapshot, error)
}

// ReminderStore holds the band's reminder slots.
//
// Capacity is fixed at device.Capacity. IDs are allocated from a counter
// that only moves forward: deleting a reminder never frees its id, and a
// rejected add consumes none. The full snapshot is persisted synchronously
// after every successful mutation; a persistence failure is logged and the
// in-memory state stays authoritative.
//
// Thread-safety: NONE here. The Engine serializes all access (mutations from
// the channel loop, match evaluation from the clock loop) through the time
// lock.
type ReminderStore struct {
	persist   Persister
	reminders []device.Reminder
	nextID    int
}

// NewReminderStore creates an empty store backed by p.
func NewReminderStore(p Persister) *ReminderStore {
	return &ReminderStore{
		persist:   p,
		reminders: make([]device.Reminder, 0, device.Capacity),
		nextID:    1,
	}
}

// Load restores the store from the persisted snapshot.
//
// A missing snapshot leaves the store empty. A snapshot claiming more
// reminders than the band can hold is treated as corrupt: the store resets
// to empty with the id sequence restarted at 1. Per-reminder defaults for
// absent fields are applied by device.SnapshotReminder. The id counter is
// bumped past every loaded id so restored state can never re-issue one.
func (s *ReminderStore) Load(ctx context.Context) error {
	snap, err := s.persist.LoadSnapshot(ctx)
	if err != nil {
		return device.NewStorageError("load snapshot", err)
	}
	if snap == nil {
		return nil
	}

	if snap.ReminderCount > device.Capacity || len(snap.Reminders) > device.Capacity {
		slog.Warn("persisted snapshot exceeds capacity, resetting",
			"count", snap.ReminderCount,
			"records", len(snap.Reminders),
			"capacity", device.Capacity,
		)
		s.reminders = s.reminders[:0]
		s.nextID = 1
		return nil
	}

	s.reminders = s.reminders[:0]
	maxID := 0
	for _, sr := range snap.Reminders {
		r := sr.ToReminder()
		s.reminders = append(s.reminders, r)
		if r.ID > maxID {
			maxID = r.ID
		}
	}

	s.nextID = snap.NextReminderID
	if s.nextID <= maxID {
		s.nextID = maxID + 1
	}
	if s.nextID < 1 {
		s.nextID = 1
	}

	slog.Info("reminders restored", "count", len(s.reminders), "next_id", s.nextID)
	return nil
}

// Add creates a new reminder in the next free slot.
//
// The capacity check happens before id allocation, so a rejected add leaves
// the id sequence untouched. Messages are NFC-normalized so the band's
// renderer and the wire truncation rule both count the same runes.
func (s *ReminderStore) Add(ctx context.Context, hour, minute int, kind, message string) (device.Reminder, error) {
	if hour < 0 || hour > 23 {
		return device.Reminder{}, device.NewValidationError("hour %d out of range 0-23", hour)
	}
	if minute < 0 || minute > 59 {
		return device.Reminder{}, device.NewValidationError("minute %d out of range 0-59", minute)
	}
	if kind == "" {
		return device.Reminder{}, device.NewValidationError("reminder type must not be empty")
	}
	if message == "" {
		return device.Reminder{}, device.NewValidationError("reminder message must not be empty")
	}
	if len(s.reminders) >= device.Capacity {
		return device.Reminder{}, device.NewCapacityError(device.Capacity)
	}

	r := device.Reminder{
		ID:      s.nextID,
		Hour:    hour,
		Minute:  minute,
		Kind:    norm.NFC.String(kind),
		Message: norm.NFC.String(message),
		Active:  true,
	}
	s.nextID++
	s.reminders = append(s.reminders, r)

	s.persistNow(ctx, "add")
	return r, nil
}

// Delete removes the reminder with the given id, preserving the order of
// the remaining slots. The freed id is never reissued.
func (s *ReminderStore) Delete(ctx context.Context, id int) error {
	for i, r := range s.reminders {
		if r.ID != id {
			continue
		}
		s.reminders = append(s.reminders[:i], s.reminders[i+1:]...)
		s.persistNow(ctx, "delete")
		return nil
	}
	return device.NewNotFoundError(id)
}

// Clear removes every reminder. The id counter keeps its value: ids stay
// unique across the band's whole lifetime, not per generation.
func (s *ReminderStore) Clear(ctx context.Context) {
	s.reminders = s.reminders[:0]
	s.persistNow(ctx, "clear")
}

// List returns the reminders in slot order. The slice is a copy; callers
// may not reach the store's internals through it.
func (s *ReminderStore) List() []device.Reminder {
	out := make([]device.Reminder, len(s.reminders))
	copy(out, s.reminders)
	return out
}

// Len returns the number of occupied slots.
func (s *ReminderStore) Len() int {
	return len(s.reminders)
}

// NextID returns the id the next successful Add will assign.
func (s *ReminderStore) NextID() int {
	return s.nextID
}

// persistNow writes the full snapshot after a mutation. Failure is logged
// and swallowed: the in-memory store stays authoritative, and the next
// successful write repairs the stored copy.
func (s *ReminderStore) persistNow(ctx context.Context, op string) {
	snap := device.SnapshotFrom(s.nextID, s.reminders)
	if err := s.persist.SaveSnapshot(ctx, snap); err != nil {
		serr := device.NewStorageError("persist after "+op, err)
		slog.Error("reminder snapshot not persisted", "op", op, "error", serr)
	}
}
