package domain

// Chain traversal works on the ordered ring of a circle. Completed
// assignments stay in the ring, so walking backwards over them always finds
// whoever holds an assignment now, without re-linking anything.

// locate returns the ring and the index of a in it, or -1 if a is unplaced.
func (a *Assignment) locate() ([]*Assignment, int) {
	if !a.Placed() || a.Circle == nil {
		return nil, -1
	}
	ring := a.Circle.Ring()
	for i, x := range ring {
		if x == a {
			return ring, i
		}
	}
	return nil, -1
}

// step walks the ring from a in direction dir (+1 or -1), returning the
// first assignment accepted by match. The walk wraps at most once and may
// end on a itself.
func (a *Assignment) step(dir int, match func(*Assignment) bool) *Assignment {
	ring, i := a.locate()
	if i < 0 {
		return nil
	}
	n := len(ring)
	for k := 1; k <= n; k++ {
		cand := ring[((i+dir*k)%n+n)%n]
		if match(cand) {
			return cand
		}
	}
	return nil
}

func anyAssignment(*Assignment) bool { return true }

func isOpen(x *Assignment) bool { return !x.Completed() }

// Previous returns the preceding assignment in the ring.
func (a *Assignment) Previous() *Assignment {
	return a.step(-1, anyAssignment)
}

// Next returns the following assignment in the ring.
func (a *Assignment) Next() *Assignment {
	return a.step(1, anyAssignment)
}

// PreviousUncompleted walks backwards to the nearest open assignment.
// Returns nil only if every assignment in the circle is completed.
func (a *Assignment) PreviousUncompleted() *Assignment {
	return a.step(-1, isOpen)
}

// NextUncompleted walks forwards to the nearest open assignment.
// Returns nil only if every assignment in the circle is completed.
func (a *Assignment) NextUncompleted() *Assignment {
	return a.step(1, isOpen)
}

// InitialOwner is the player who got this assignment when the game started.
func (a *Assignment) InitialOwner() *Player {
	if prev := a.Previous(); prev != nil {
		return prev.Victim
	}
	return nil
}

// CurrentOwner is the player who currently has to complete this assignment.
func (a *Assignment) CurrentOwner() *Player {
	if prev := a.PreviousUncompleted(); prev != nil {
		return prev.Victim
	}
	return nil
}

// Mission returns the assignment p currently has to complete in c: the next
// open assignment after p's own. Returns nil if p is not alive in c.
// In a finished circle this is p's own assignment.
func (c *Circle) Mission(p *Player) *Assignment {
	own, ok := c.Assignment(p.Name)
	if !ok || own.Completed() || !own.Placed() {
		return nil
	}
	return own.NextUncompleted()
}
