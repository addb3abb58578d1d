package engine

import (
	"context"
	"time"

	"github.com/roach88/murder/internal/domain"
	"github.com/roach88/murder/internal/notify"
)

// Service applies operations to one loaded game inside Engine.Update.
// A Service must not be used after its Update returned.
type Service struct {
	ctx    context.Context
	e      *Engine
	game   *domain.Game
	clock  *Clock
	events []domain.Event
	outbox []notify.Update
}

func (e *Engine) newService(ctx context.Context, g *domain.Game) *Service {
	return &Service{ctx: ctx, e: e, game: g, clock: NewClockAt(g.Seq)}
}

// Game returns the game being modified.
func (s *Service) Game() *domain.Game {
	return s.game
}

// run checks and applies one operation. fn must return before mutating
// anything if a guard fails. On success the operation is journaled.
func (s *Service) run(op string, args map[string]string, fn func() error) error {
	_, span := s.e.tracer.Start(s.ctx, "Service."+op)
	defer span.End()

	if err := fn(); err != nil {
		s.e.fail(span, op, err)
		return err
	}
	s.record(op, args)
	s.e.metrics.Operations.WithLabelValues(op, "ok").Inc()
	s.e.logger.DebugContext(s.ctx, "operation applied", "game", s.game.ID, "op", op, "seq", s.game.Seq)
	return nil
}

// record appends a journal entry and advances the game's Seq.
func (s *Service) record(op string, args map[string]string) {
	seq := s.clock.Next()
	s.game.Seq = seq
	s.events = append(s.events, domain.Event{
		ID:     s.e.ids.Generate(),
		GameID: s.game.ID,
		Seq:    seq,
		Action: op,
		Args:   args,
		At:     s.e.now().UTC(),
	})
}

// notify queues a mission update for p, computed from the current state.
func (s *Service) notify(p *domain.Player, reason string) {
	s.outbox = append(s.outbox, notify.Update{
		GameID:    s.game.ID,
		GameTitle: s.game.Title,
		Player:    p.Name,
		Reason:    reason,
		Addresses: p.ActiveAddresses(),
		Missions:  s.e.Missions(s.game, p),
	})
}

// Code returns the secret code of a, or "" without a CodeProvider.
func (s *Service) Code(a *domain.Assignment) string {
	return s.e.Code(s.game, a)
}

func (s *Service) player(name string) (*domain.Player, error) {
	p, ok := s.game.Player(name)
	if !ok {
		return nil, notFound("player", name)
	}
	return p, nil
}

func (s *Service) circle(name string) (*domain.Circle, error) {
	c, ok := s.game.Circle(name)
	if !ok {
		return nil, notFound("circle", name)
	}
	return c, nil
}

// AddPlayer adds a player to a game that has not started.
func (s *Service) AddPlayer(name, group string) error {
	return s.run("add_player", map[string]string{"name": name, "group": group}, func() error {
		if err := requireState(s.game, domain.StateNew); err != nil {
			return err
		}
		_, err := s.game.AddPlayer(name, group)
		return err
	})
}

// AddCircle adds a circle to a game that has not started.
func (s *Service) AddCircle(name, set string) error {
	return s.run("add_circle", map[string]string{"name": name, "set": set}, func() error {
		if err := requireState(s.game, domain.StateNew); err != nil {
			return err
		}
		_, err := s.game.AddCircle(name, set)
		return err
	})
}

// JoinCircle makes a player a potential victim in a circle.
func (s *Service) JoinCircle(player, circle string) error {
	return s.run("join_circle", map[string]string{"player": player, "circle": circle}, func() error {
		if err := requireState(s.game, domain.StateNew); err != nil {
			return err
		}
		p, err := s.player(player)
		if err != nil {
			return err
		}
		c, err := s.circle(circle)
		if err != nil {
			return err
		}
		_, err = c.Join(p)
		return err
	})
}

// ShuffleCircle fixes the chain order of a circle before the game starts.
// Players who join afterwards are appended at game start.
func (s *Service) ShuffleCircle(circle string) error {
	return s.run("shuffle_circle", map[string]string{"circle": circle}, func() error {
		if err := requireState(s.game, domain.StateNew); err != nil {
			return err
		}
		c, err := s.circle(circle)
		if err != nil {
			return err
		}
		return s.e.shuffler.Shuffle(c)
	})
}

// StartGame shuffles every circle, moves the game to RUNNING and tells
// every player with an achievable mission what it is.
func (s *Service) StartGame() error {
	return s.run("start_game", nil, func() error {
		g := s.game
		if err := requireState(g, domain.StateNew); err != nil {
			return err
		}
		if len(g.Circles) == 0 {
			return domain.Errorf(domain.CodeNoCircles, "game %q has no circles", g.ID)
		}
		if len(g.Players) == 0 {
			return domain.Errorf(domain.CodeNoPlayers, "game %q has no players", g.ID)
		}
		for _, c := range g.Circles {
			if err := s.e.shuffler.Shuffle(c); err != nil {
				return err
			}
		}
		if err := g.Advance(domain.StateRunning); err != nil {
			return err
		}
		for _, p := range g.Players {
			if len(g.OwnedMissions(p)) > 0 {
				s.notify(p, notify.ReasonGameStarted)
			}
		}
		return nil
	})
}

// EndGame moves a running game to ENDED.
func (s *Service) EndGame() error {
	return s.run("end_game", nil, func() error {
		if err := requireState(s.game, domain.StateRunning); err != nil {
			return err
		}
		return s.game.Advance(domain.StateEnded)
	})
}

// AddAddress registers where a player wants updates delivered. Allowed in
// any state; in a running game the player gets an update right away.
func (s *Service) AddAddress(player string, kind domain.AddressKind, address string) error {
	args := map[string]string{"player": player, "kind": string(kind), "address": address}
	return s.run("add_address", args, func() error {
		p, err := s.player(player)
		if err != nil {
			return err
		}
		if kind != domain.AddressEmail && kind != domain.AddressNATS {
			return domain.Errorf(domain.CodeInvalidAddress, "unknown address kind %q", kind)
		}
		if address == "" {
			return domain.Errorf(domain.CodeInvalidAddress, "address must not be empty")
		}
		p.AddAddress(kind, address)
		if s.game.State == domain.StateRunning {
			s.notify(p, notify.ReasonAddressAdded)
		}
		return nil
	})
}

// SetPassword replaces the game master password.
func (s *Service) SetPassword(password string) error {
	return s.run("set_password", nil, func() error {
		return s.game.SetPassword(password)
	})
}

// when returns t, or the engine's current time if t is zero.
func (s *Service) when(t time.Time) time.Time {
	if t.IsZero() {
		return s.e.now()
	}
	return t
}
