package testutil

import (
	"strings"

	"github.com/roach88/murder/internal/domain"
)

// JoinOrderShuffler places unplaced assignments in the order players
// joined, so tests know every chain in advance.
type JoinOrderShuffler struct{}

// Shuffle implements engine.Shuffler.
func (JoinOrderShuffler) Shuffle(c *domain.Circle) error {
	return c.Place(c.Unplaced())
}

// StaticCodes derives readable codes: "<victim>-<circle>" in lower case.
type StaticCodes struct{}

// Code implements engine.CodeProvider.
func (StaticCodes) Code(_, circle, victim string) string {
	return strings.ToLower(victim + "-" + circle)
}
