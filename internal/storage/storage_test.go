package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Oluwatunmise116/caremini/internal/device"
)

// createTestStore creates a store on a throwaway database file.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func boolPtr(v bool) *bool { return &v }

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	// Verify file was created
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// Open multiple times
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	// Final open should work and the schema should be intact
	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	var name string
	err = s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='snapshot'",
	).Scan(&name)
	if err != nil {
		t.Errorf("snapshot table not found after idempotent opens: %v", err)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	// Try to open in non-existent directory
	path := "/nonexistent/dir/test.db"

	_, err := Open(path)
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_RefusesNewerSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := s.db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("set user_version failed: %v", err)
	}
	s.Close()

	if _, err := Open(path); err == nil {
		t.Error("expected error for database from a newer build, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestClose_MultipleCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("first Close() failed: %v", err)
	}

	// Second close should not panic (though may error)
	_ = s.Close()
}

// Pragma tests

func TestPragma_JournalMode(t *testing.T) {
	s := createTestStore(t)

	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_Synchronous(t *testing.T) {
	s := createTestStore(t)

	// NORMAL = 1
	if err := s.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	s := createTestStore(t)

	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestPragma_ForeignKeys(t *testing.T) {
	s := createTestStore(t)

	// ON = 1
	if err := s.verifyPragma("foreign_keys", "1"); err != nil {
		t.Error(err)
	}
}

// Snapshot tests

func TestLoadSnapshot_MissingReturnsNil(t *testing.T) {
	s := createTestStore(t)

	snap, err := s.LoadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("LoadSnapshot() failed: %v", err)
	}
	if snap != nil {
		t.Errorf("expected nil snapshot on fresh database, got %+v", snap)
	}
}

func TestSaveSnapshot_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	in := device.Snapshot{
		ReminderCount:  2,
		NextReminderID: 5,
		Reminders: []device.SnapshotReminder{
			{ID: 1, Hour: 7, Minute: 30, Kind: "medicine", Message: "Take pills", Active: boolPtr(true), Triggered: boolPtr(false)},
			{ID: 4, Hour: 21, Minute: 0, Kind: "sleep", Message: "Wind down", Active: boolPtr(false), Triggered: boolPtr(true)},
		},
	}

	if err := s.SaveSnapshot(ctx, in); err != nil {
		t.Fatalf("SaveSnapshot() failed: %v", err)
	}

	out, err := s.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot() failed: %v", err)
	}
	if out == nil {
		t.Fatal("LoadSnapshot() returned nil after save")
	}

	if out.ReminderCount != in.ReminderCount {
		t.Errorf("ReminderCount = %d, want %d", out.ReminderCount, in.ReminderCount)
	}
	if out.NextReminderID != in.NextReminderID {
		t.Errorf("NextReminderID = %d, want %d", out.NextReminderID, in.NextReminderID)
	}
	if len(out.Reminders) != 2 {
		t.Fatalf("len(Reminders) = %d, want 2", len(out.Reminders))
	}
	if out.Reminders[0].Message != "Take pills" {
		t.Errorf("Reminders[0].Message = %q, want %q", out.Reminders[0].Message, "Take pills")
	}
	if out.Reminders[1].Active == nil || *out.Reminders[1].Active {
		t.Error("Reminders[1].Active should round-trip as false")
	}
	if out.Reminders[1].Triggered == nil || !*out.Reminders[1].Triggered {
		t.Error("Reminders[1].Triggered should round-trip as true")
	}
}

func TestSaveSnapshot_ReplacesPrevious(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := device.Snapshot{
		ReminderCount:  1,
		NextReminderID: 2,
		Reminders: []device.SnapshotReminder{
			{ID: 1, Hour: 7, Minute: 0, Kind: "medicine", Message: "Old", Active: boolPtr(true), Triggered: boolPtr(false)},
		},
	}
	second := device.Snapshot{
		ReminderCount:  0,
		NextReminderID: 2,
		Reminders:      []device.SnapshotReminder{},
	}

	if err := s.SaveSnapshot(ctx, first); err != nil {
		t.Fatalf("first SaveSnapshot() failed: %v", err)
	}
	if err := s.SaveSnapshot(ctx, second); err != nil {
		t.Fatalf("second SaveSnapshot() failed: %v", err)
	}

	out, err := s.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot() failed: %v", err)
	}
	if out.ReminderCount != 0 || len(out.Reminders) != 0 {
		t.Errorf("load did not see the replacing snapshot: %+v", out)
	}

	// The upsert must never grow the table past its single slot
	var rows int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM snapshot").Scan(&rows); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if rows != 1 {
		t.Errorf("snapshot table has %d rows, want 1", rows)
	}
}

func TestSaveSnapshot_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	in := device.Snapshot{
		ReminderCount:  1,
		NextReminderID: 3,
		Reminders: []device.SnapshotReminder{
			{ID: 2, Hour: 12, Minute: 15, Kind: "hydration", Message: "Drink water", Active: boolPtr(true), Triggered: boolPtr(false)},
		},
	}
	if err := s1.SaveSnapshot(ctx, in); err != nil {
		t.Fatalf("SaveSnapshot() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	out, err := s2.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot() after reopen failed: %v", err)
	}
	if out == nil || out.NextReminderID != 3 || len(out.Reminders) != 1 {
		t.Errorf("snapshot did not survive reopen: %+v", out)
	}
}

func TestLoadSnapshot_HandEditedRowWithoutFlags(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// A row written by an older build may omit active/triggered; the
	// loader must surface them as absent, not as false.
	_, err := s.db.Exec(`
		INSERT INTO snapshot (slot, reminder_count, next_reminder_id, reminders)
		VALUES (1, 1, 2, '[{"id":1,"hour":7,"minute":30,"type":"medicine","message":"Take pills"}]')
	`)
	if err != nil {
		t.Fatalf("raw insert failed: %v", err)
	}

	out, err := s.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot() failed: %v", err)
	}
	if len(out.Reminders) != 1 {
		t.Fatalf("len(Reminders) = %d, want 1", len(out.Reminders))
	}
	if out.Reminders[0].Active != nil {
		t.Error("absent active flag should load as nil")
	}
	if out.Reminders[0].Triggered != nil {
		t.Error("absent triggered flag should load as nil")
	}
}

func TestLoadSnapshot_CorruptRemindersColumn(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.db.Exec(`
		INSERT INTO snapshot (slot, reminder_count, next_reminder_id, reminders)
		VALUES (1, 1, 2, '{not json')
	`)
	if err != nil {
		t.Fatalf("raw insert failed: %v", err)
	}

	if _, err := s.LoadSnapshot(ctx); err == nil {
		t.Error("expected error for corrupt reminders column, got nil")
	}
}
