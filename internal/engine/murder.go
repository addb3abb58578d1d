package engine

import (
	"strings"
	"time"

	"github.com/roach88/murder/internal/domain"
	"github.com/roach88/murder/internal/notify"
)

// MurderReport describes a murder as reported by a player or the game
// master.
type MurderReport struct {
	Killer string
	Victim string
	Circle string

	// When is when the murder happened. Zero means now.
	When   time.Time
	Reason string

	// Code is the victim's secret code. Empty skips the check.
	Code string
}

// RecordMurder completes the victim's assignment in a circle.
//
// Guards, in order: the game is running; killer, victim and circle exist;
// killer and victim differ; the victim is in the circle and still alive
// there; the code matches if one was given; the killer is in the circle
// and was not dead yet at the time of the murder; the circle still has an
// achievable assignment.
//
// The victim's current owner is freed up and gets the victim's mission;
// both are notified.
func (s *Service) RecordMurder(r MurderReport) error {
	when := s.when(r.When)
	args := map[string]string{
		"killer": r.Killer,
		"victim": r.Victim,
		"circle": r.Circle,
		"when":   when.UTC().Format(time.RFC3339Nano),
		"reason": r.Reason,
	}
	return s.run("record_murder", args, func() error {
		g := s.game
		if err := requireState(g, domain.StateRunning); err != nil {
			return err
		}
		killer, err := s.player(r.Killer)
		if err != nil {
			return err
		}
		victim, err := s.player(r.Victim)
		if err != nil {
			return err
		}
		c, err := s.circle(r.Circle)
		if err != nil {
			return err
		}
		if killer == victim {
			return domain.Errorf(domain.CodeSelfMurder, "%s cannot murder themselves", killer.Name)
		}

		target, ok := c.Assignment(victim.Name)
		if !ok {
			return domain.Errorf(domain.CodeNotInCircle, "%s is not part of circle %q", victim.Name, c.Name)
		}
		if target.Completed() {
			return domain.Errorf(domain.CodeAlreadyCompleted, "%s is already dead in circle %q", victim.Name, c.Name)
		}
		if r.Code != "" && !s.codeMatches(target, r.Code) {
			return domain.Errorf(domain.CodeCodeMismatch, "wrong code for %s in circle %q", victim.Name, c.Name)
		}

		own, ok := c.Assignment(killer.Name)
		if !ok {
			return domain.Errorf(domain.CodeKillerNotInCircle, "%s is not part of circle %q", killer.Name, c.Name)
		}
		if own.Completed() && own.Completion.Time.Before(when) {
			return domain.Errorf(domain.CodeKillerAlreadyDead, "%s was already dead in circle %q at %s",
				killer.Name, c.Name, when.Format(time.RFC3339))
		}
		if len(c.Achievable()) == 0 {
			return domain.Errorf(domain.CodeCircleFinished, "circle %q has no achievable assignments left", c.Name)
		}

		owner := target.CurrentOwner()
		if err := target.Complete(killer, when, r.Reason); err != nil {
			return err
		}
		s.e.metrics.Murders.WithLabelValues("murder").Inc()
		s.e.logger.InfoContext(s.ctx, "murder recorded",
			"game", g.ID, "circle", c.Name, "killer", killer.Name, "victim", victim.Name)

		if owner != nil && owner != victim {
			s.notify(owner, notify.ReasonNewMission)
		}
		s.notify(victim, notify.ReasonMurdered)
		return nil
	})
}

// codeMatches compares a reported code with the derived one. Without a
// CodeProvider no code can match.
func (s *Service) codeMatches(a *domain.Assignment, code string) bool {
	if s.e.codes == nil {
		return false
	}
	want := s.e.codes.Code(s.game.ID, a.Circle.Name, a.Victim.Name)
	return strings.EqualFold(strings.TrimSpace(code), want)
}

// KickPlayer completes every open assignment of a player without crediting
// a killer. The players who owned those assignments are notified.
func (s *Service) KickPlayer(player string, when time.Time, reason string) error {
	when = s.when(when)
	if reason == "" {
		reason = "kicked"
	}
	args := map[string]string{
		"player": player,
		"when":   when.UTC().Format(time.RFC3339Nano),
		"reason": reason,
	}
	return s.run("kick_player", args, func() error {
		g := s.game
		if err := requireState(g, domain.StateRunning); err != nil {
			return err
		}
		p, err := s.player(player)
		if err != nil {
			return err
		}

		var open []*domain.Assignment
		for _, c := range g.Circles {
			if a, ok := c.Assignment(p.Name); ok && !a.Completed() {
				open = append(open, a)
			}
		}
		if len(open) == 0 {
			return domain.Errorf(domain.CodeAlreadyCompleted, "%s has no open assignments", p.Name)
		}

		var owners []*domain.Player
		seen := map[string]bool{p.Name: true}
		for _, a := range open {
			owner := a.CurrentOwner()
			if err := a.Complete(nil, when, reason); err != nil {
				return err
			}
			s.e.metrics.Murders.WithLabelValues("kick").Inc()
			if owner != nil && !seen[owner.Name] {
				seen[owner.Name] = true
				owners = append(owners, owner)
			}
		}
		s.e.logger.InfoContext(s.ctx, "player kicked", "game", g.ID, "player", p.Name, "assignments", len(open))

		for _, o := range owners {
			s.notify(o, notify.ReasonPlayerKicked)
		}
		return nil
	})
}
