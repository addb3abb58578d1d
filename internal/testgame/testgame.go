// Package testgame creates populated games for trying things out:
// generated players in every circle, a started game and some murders.
package testgame

import (
	"context"
	"fmt"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/roach88/murder/internal/engine"
)

// Reason is the murder reason recorded for generated murders.
const Reason = "test murder"

// Options configure Create.
type Options struct {
	ID       string
	Title    string
	Password string
	Players  int
	Circles  int
	Murders  int
	Seed     uint64
}

// Player is a generated player.
type Player struct {
	Name  string
	Group string
}

// Generator produces reproducible players and murder choices.
type Generator struct {
	faker *gofakeit.Faker
}

// New creates a Generator. The same seed gives the same game.
func New(seed uint64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

// Players returns n players with distinct names. Groups are drawn from a
// small pool so that group avoidance has something to do.
func (g *Generator) Players(n int) []Player {
	groups := make([]string, max(1, n/4))
	for i := range groups {
		groups[i] = g.faker.City()
	}

	seen := make(map[string]bool, n)
	out := make([]Player, 0, n)
	for len(out) < n {
		name := g.faker.FirstName() + " " + g.faker.LastName()
		if seen[name] {
			name = fmt.Sprintf("%s %d", name, len(out)+1)
			if seen[name] {
				continue
			}
		}
		seen[name] = true
		out = append(out, Player{Name: name, Group: groups[g.faker.IntN(len(groups))]})
	}
	return out
}

// Populate adds players to the game and joins each of them to every circle.
func Populate(s *engine.Service, players []Player) error {
	for _, p := range players {
		if err := s.AddPlayer(p.Name, p.Group); err != nil {
			return err
		}
	}
	for _, c := range s.Game().Circles {
		for _, p := range players {
			if err := s.JoinCircle(p.Name, c.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordRandomMurder has the current owner of a random achievable
// assignment complete it with the correct code. It reports false if
// nothing is achievable.
func (g *Generator) RecordRandomMurder(s *engine.Service) (bool, error) {
	achievable := s.Game().Achievable()
	if len(achievable) == 0 {
		return false, nil
	}
	a := achievable[g.faker.IntN(len(achievable))]
	owner := a.CurrentOwner()
	err := s.RecordMurder(engine.MurderReport{
		Killer: owner.Name,
		Victim: a.Victim.Name,
		Circle: a.Circle.Name,
		Reason: Reason,
		Code:   s.Code(a),
	})
	return err == nil, err
}

// Create creates, populates and starts a game, then records up to
// opts.Murders random murders, each in its own transaction.
func Create(ctx context.Context, e *engine.Engine, opts Options) error {
	if opts.Players < 2 {
		return fmt.Errorf("a test game needs at least 2 players, got %d", opts.Players)
	}
	if opts.Circles < 1 {
		return fmt.Errorf("a test game needs at least 1 circle, got %d", opts.Circles)
	}
	circles := make([]string, opts.Circles)
	for i := range circles {
		circles[i] = fmt.Sprintf("circle-%d", i+1)
	}
	title := opts.Title
	if title == "" {
		title = "Test game " + opts.ID
	}
	if err := e.CreateGame(ctx, engine.NewGame{
		ID:          opts.ID,
		Title:       title,
		Description: "Generated test game",
		Password:    opts.Password,
		Circles:     circles,
	}); err != nil {
		return err
	}

	gen := New(opts.Seed)
	players := gen.Players(opts.Players)
	if err := e.Update(ctx, opts.ID, func(s *engine.Service) error {
		if err := Populate(s, players); err != nil {
			return err
		}
		return s.StartGame()
	}); err != nil {
		return err
	}

	for range opts.Murders {
		var done bool
		if err := e.Update(ctx, opts.ID, func(s *engine.Service) error {
			var err error
			done, err = gen.RecordRandomMurder(s)
			return err
		}); err != nil {
			return err
		}
		if !done {
			break
		}
	}
	return nil
}
