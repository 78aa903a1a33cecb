// Package storage keeps the playback history.
//
// Two drivers are available:
//   - "file": append-only JSON Lines, compacted down to the newest records
//   - "sqlite": a SQLite database file (pure Go driver)
//
// History is informational. Nothing in the scheduler depends on it, so callers
// treat a nil Store as "history disabled".
package storage
