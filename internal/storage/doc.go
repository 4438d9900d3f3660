// Package storage provides SQLite-backed persistence for the reminder
// snapshot.
//
// The band persists exactly one snapshot document and replaces it
// wholesale after every reminder mutation. The document is decomposed
// into one single-slot row:
//   - reminder_count: claimed number of reminders (validated on load)
//   - next_reminder_id: the id allocation counter
//   - reminders: the reminder records as a JSON array
//
// # Database Configuration
//
//   - WAL mode: a crash mid-write never leaves a torn snapshot
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// Open is the only storage operation the band treats as fatal; a failed
// save or load after boot is logged and the in-memory state stays
// authoritative.
package storage
