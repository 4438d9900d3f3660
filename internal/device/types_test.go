package device

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootTimeIsUnsynced(t *testing.T) {
	bt := BootTime()

	assert.Equal(t, "00:00:00", bt.ClockString())
	assert.Equal(t, "2024-01-01", bt.DateString())
	assert.False(t, bt.Synced)
	assert.True(t, bt.SyncedAt.IsZero())
}

func TestSnapshotReminderLoadDefaults(t *testing.T) {
	// A record written by firmware that predates the active/triggered
	// fields: both must default safely (active, not triggered).
	raw := `{"id":3,"hour":7,"minute":30,"type":"medicine","message":"Take pills"}`

	var sr SnapshotReminder
	require.NoError(t, json.Unmarshal([]byte(raw), &sr))

	r := sr.ToReminder()
	assert.Equal(t, 3, r.ID)
	assert.Equal(t, 7, r.Hour)
	assert.Equal(t, 30, r.Minute)
	assert.Equal(t, "medicine", r.Kind)
	assert.True(t, r.Active, "absent active defaults to true")
	assert.False(t, r.Triggered, "absent triggered defaults to false")
}

func TestSnapshotReminderExplicitFields(t *testing.T) {
	raw := `{"id":5,"hour":12,"minute":0,"type":"water","message":"Drink","active":false,"triggered":true}`

	var sr SnapshotReminder
	require.NoError(t, json.Unmarshal([]byte(raw), &sr))

	r := sr.ToReminder()
	assert.False(t, r.Active)
	assert.True(t, r.Triggered)
}

func TestSnapshotFromRoundTrip(t *testing.T) {
	reminders := []Reminder{
		{ID: 1, Hour: 7, Minute: 30, Kind: "medicine", Message: "Take pills", Active: true},
		{ID: 4, Hour: 21, Minute: 0, Kind: "sleep", Message: "Wind down", Active: false, Triggered: true},
	}

	snap := SnapshotFrom(5, reminders)
	assert.Equal(t, 2, snap.ReminderCount)
	assert.Equal(t, 5, snap.NextReminderID)
	require.Len(t, snap.Reminders, 2)

	// The persisted form always carries explicit flags.
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"reminderCount":2`)
	assert.Contains(t, string(data), `"nextReminderId":5`)
	assert.Contains(t, string(data), `"active":false`)
	assert.Contains(t, string(data), `"triggered":true`)

	back := snap.Reminders[1].ToReminder()
	assert.Equal(t, reminders[1], back)
}

func TestActionValid(t *testing.T) {
	for _, a := range []Action{ActionAdd, ActionDelete, ActionClear, ActionList} {
		assert.True(t, a.Valid(), "action %q", a)
	}
	assert.False(t, Action("snooze").Valid())
	assert.False(t, Action("").Valid())
}
