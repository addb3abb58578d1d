package domain

import "time"

// Event is one entry of a game's append-only journal. Every successful
// operation records exactly one event, committed together with its effect.
type Event struct {
	// ID is a time-sortable unique id.
	ID string

	GameID string

	// Seq orders events within a game. It starts at 1 and has no gaps.
	Seq int64

	// Action names the operation, e.g. "record_murder".
	Action string

	// Args holds the operation arguments as strings.
	Args map[string]string

	At time.Time
}
