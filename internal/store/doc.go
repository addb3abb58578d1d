// Package store provides SQLite-backed persistence for murder games.
//
// A game is saved as a whole: SaveGame writes the game row, its players,
// circles, assignments and notification addresses, and appends the journal
// entries of the operation, all in one transaction. The games.seq column is
// the sequence number of the last journal entry and doubles as an
// optimistic concurrency token: a save only succeeds if the stored seq still
// equals the seq the caller loaded.
//
// # Invariants backed by the schema
//
//   - Player and circle names are unique per game (primary keys)
//   - At most one assignment per (circle, victim) (primary key)
//   - Positions are unique per circle once set (UNIQUE constraint)
//   - completed_at and reason are set together (CHECK constraint)
//   - Journal seq is unique per game
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Timestamps are stored as RFC 3339 text in UTC with nanoseconds.
package store
