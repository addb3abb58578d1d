package domain

import (
	"fmt"
	"slices"
)

// Circle is one independent chain of assignments within a game.
type Circle struct {
	Name string

	// Set groups circles of a multi-game in which different subsets of
	// players play in different subsets of circles.
	Set string

	// Assignments in join order. Chain order is given by Position.
	Assignments []*Assignment
}

// Assignment returns the assignment whose victim is the named player.
func (c *Circle) Assignment(victim string) (*Assignment, bool) {
	for _, a := range c.Assignments {
		if a.Victim.Name == victim {
			return a, true
		}
	}
	return nil, false
}

// Join creates the assignment that makes p a potential victim in c.
func (c *Circle) Join(p *Player) (*Assignment, error) {
	if _, ok := c.Assignment(p.Name); ok {
		return nil, Errorf(CodeAlreadyMember, "player %q is already part of circle %q", p.Name, c.Name)
	}
	a := &Assignment{Circle: c, Victim: p, Position: Unplaced}
	c.Assignments = append(c.Assignments, a)
	return a, nil
}

// Shuffled reports whether every assignment of the circle has a position.
// An empty circle counts as shuffled.
func (c *Circle) Shuffled() bool {
	for _, a := range c.Assignments {
		if !a.Placed() {
			return false
		}
	}
	return true
}

// Unplaced returns the assignments that have no position yet, in join order.
func (c *Circle) Unplaced() []*Assignment {
	var out []*Assignment
	for _, a := range c.Assignments {
		if !a.Placed() {
			out = append(out, a)
		}
	}
	return out
}

// Place assigns consecutive positions in the given order, continuing after
// the highest position already taken. order must contain every unplaced
// assignment of the circle exactly once. Placed assignments keep their
// positions.
func (c *Circle) Place(order []*Assignment) error {
	unplaced := c.Unplaced()
	if len(order) != len(unplaced) {
		return fmt.Errorf("place circle %q: got %d assignments, circle has %d unplaced", c.Name, len(order), len(unplaced))
	}
	seen := make(map[*Assignment]bool, len(order))
	for _, a := range order {
		if a.Circle != c {
			return fmt.Errorf("place circle %q: assignment of %q belongs to another circle", c.Name, a.Victim.Name)
		}
		if seen[a] {
			return fmt.Errorf("place circle %q: assignment of %q listed twice", c.Name, a.Victim.Name)
		}
		if a.Placed() {
			return fmt.Errorf("place circle %q: assignment of %q already has position %d", c.Name, a.Victim.Name, a.Position)
		}
		seen[a] = true
	}
	next := 0
	for _, a := range c.Assignments {
		if a.Placed() && a.Position >= next {
			next = a.Position + 1
		}
	}
	for i, a := range order {
		a.Position = next + i
	}
	return nil
}

// Ring returns the placed assignments ordered by ascending position.
func (c *Circle) Ring() []*Assignment {
	ring := make([]*Assignment, 0, len(c.Assignments))
	for _, a := range c.Assignments {
		if a.Placed() {
			ring = append(ring, a)
		}
	}
	slices.SortFunc(ring, func(x, y *Assignment) int {
		return x.Position - y.Position
	})
	return ring
}
