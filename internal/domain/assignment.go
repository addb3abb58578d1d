package domain

import "time"

// Unplaced is the position of an assignment whose circle has not been
// shuffled yet.
const Unplaced = -1

// Assignment makes Victim a target in Circle. Whoever currently owns the
// assignment has to complete it; see CurrentOwner.
type Assignment struct {
	Circle *Circle
	Victim *Player

	// Position is the slot in the circle's chain, or Unplaced.
	Position int

	// Completion is nil while the victim is alive in this circle.
	Completion *Completion
}

// Completion records how an assignment was completed.
type Completion struct {
	// Killer is nil when the assignment was completed administratively,
	// for example when a player was kicked.
	Killer *Player
	Time   time.Time
	Reason string
}

// Placed reports whether the assignment has a position in its circle.
func (a *Assignment) Placed() bool {
	return a.Position != Unplaced
}

// Completed reports whether the assignment has been completed.
func (a *Assignment) Completed() bool {
	return a.Completion != nil
}

// Killer returns the player who completed the assignment, or nil.
func (a *Assignment) Killer() *Player {
	if a.Completion == nil {
		return nil
	}
	return a.Completion.Killer
}

// Complete records the completion. An assignment is completed at most once.
func (a *Assignment) Complete(killer *Player, when time.Time, reason string) error {
	if a.Completion != nil {
		return Errorf(CodeAlreadyCompleted, "%s is already dead in circle %q", a.Victim.Name, a.Circle.Name)
	}
	a.Completion = &Completion{Killer: killer, Time: when, Reason: reason}
	return nil
}
