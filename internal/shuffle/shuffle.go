// Package shuffle builds the initial circular order of a circle.
//
// The order is a uniform random permutation adjusted by a soft heuristic:
// when filling the next slot, the first remaining candidate whose group
// differs from the previous victim's group is preferred. The heuristic is
// best effort and silently gives up when every remaining candidate shares
// a group.
package shuffle

import (
	crand "crypto/rand"
	"math/rand/v2"
	"sync"

	"github.com/roach88/murder/internal/domain"
)

// Shuffler orders and places circle assignments.
//
// Thread-safety: Shuffler is safe for concurrent use via internal mutex.
type Shuffler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Shuffler drawing from src.
func New(src rand.Source) *Shuffler {
	return &Shuffler{rng: rand.New(src)}
}

// NewSeeded creates a reproducible Shuffler for tests and scenarios.
func NewSeeded(seed uint64) *Shuffler {
	return New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewRandom creates a Shuffler seeded from the operating system.
func NewRandom() *Shuffler {
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	return New(rand.NewChaCha8(seed))
}

// Order returns assignments in their new chain order. prev is the victim
// placed immediately before the first slot, or nil.
func (s *Shuffler) Order(assignments []*domain.Assignment, prev *domain.Player) []*domain.Assignment {
	remaining := make([]*domain.Assignment, len(assignments))
	copy(remaining, assignments)

	s.mu.Lock()
	s.rng.Shuffle(len(remaining), func(i, j int) {
		remaining[i], remaining[j] = remaining[j], remaining[i]
	})
	s.mu.Unlock()

	order := make([]*domain.Assignment, 0, len(remaining))
	for len(remaining) > 0 {
		pick := 0
		for i, a := range remaining {
			if prefer(prev, a.Victim) {
				pick = i
				break
			}
		}
		chosen := remaining[pick]
		remaining = append(remaining[:pick], remaining[pick+1:]...)
		order = append(order, chosen)
		prev = chosen.Victim
	}
	return order
}

// prefer reports whether next may follow prev without a group clash.
// Empty groups never clash.
func prefer(prev, next *domain.Player) bool {
	if prev == nil || prev.Group == "" || next.Group == "" {
		return true
	}
	return prev.Group != next.Group
}

// Shuffle places every unplaced assignment of c after the ones already
// placed. A fully placed circle is left alone.
func (s *Shuffler) Shuffle(c *domain.Circle) error {
	unplaced := c.Unplaced()
	if len(unplaced) == 0 {
		return nil
	}
	var prev *domain.Player
	if ring := c.Ring(); len(ring) > 0 {
		prev = ring[len(ring)-1].Victim
	}
	return c.Place(s.Order(unplaced, prev))
}
