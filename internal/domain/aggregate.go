package domain

// Achievable returns the open assignments of the circle. A circle down to
// its last open assignment has nothing achievable left: the last survivor
// would have to be their own owner.
func (c *Circle) Achievable() []*Assignment {
	var open []*Assignment
	for _, a := range c.Assignments {
		if !a.Completed() {
			open = append(open, a)
		}
	}
	if len(open) < 2 {
		return nil
	}
	return open
}

// Completed returns the completed assignments of the circle.
func (c *Circle) Completed() []*Assignment {
	var done []*Assignment
	for _, a := range c.Assignments {
		if a.Completed() {
			done = append(done, a)
		}
	}
	return done
}

// Achievable returns the achievable assignments of all circles.
func (g *Game) Achievable() []*Assignment {
	var out []*Assignment
	for _, c := range g.Circles {
		out = append(out, c.Achievable()...)
	}
	return out
}

// Completed returns the completed assignments of all circles.
func (g *Game) Completed() []*Assignment {
	var out []*Assignment
	for _, c := range g.Circles {
		out = append(out, c.Completed()...)
	}
	return out
}

// KillCount returns how many assignments p completed as the killer.
func (g *Game) KillCount(p *Player) int {
	n := 0
	for _, a := range g.Completed() {
		if k := a.Killer(); k != nil && k.Name == p.Name {
			n++
		}
	}
	return n
}

// MassMurderers returns every player tied for the most kills, in player
// order. Empty if nobody has killed yet.
func (g *Game) MassMurderers() []*Player {
	counts := make(map[string]int)
	top := 0
	for _, a := range g.Completed() {
		k := a.Killer()
		if k == nil {
			continue
		}
		counts[k.Name]++
		if counts[k.Name] > top {
			top = counts[k.Name]
		}
	}
	if top == 0 {
		return nil
	}
	var out []*Player
	for _, p := range g.Players {
		if counts[p.Name] == top {
			out = append(out, p)
		}
	}
	return out
}

// OwnedMissions returns the achievable assignments p currently owns, at
// most one per circle, in circle order.
func (g *Game) OwnedMissions(p *Player) []*Assignment {
	var out []*Assignment
	for _, c := range g.Circles {
		m := c.Mission(p)
		if m == nil || m.Victim.Name == p.Name {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Alive reports whether p is still alive in at least one circle.
func (g *Game) Alive(p *Player) bool {
	for _, c := range g.Circles {
		if a, ok := c.Assignment(p.Name); ok && !a.Completed() {
			return true
		}
	}
	return false
}
