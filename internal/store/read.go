package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/murder/internal/domain"
)

// GameSummary is one row of ListGames.
type GameSummary struct {
	ID    string
	Title string
	State domain.State
	Seq   int64
}

// queryer is the subset of *sql.Tx used by the row readers.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// LoadGame reads a game with all players, circles and assignments.
// Returns ErrNotFound if no game has the given id.
//
// All rows come from one read transaction, so a concurrent SaveGame is
// seen either entirely or not at all.
func (s *Store) LoadGame(ctx context.Context, id string) (*domain.Game, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("load game: begin: %w", err)
	}
	defer tx.Rollback()

	g := &domain.Game{ID: id}
	var state string
	var endTime sql.NullString
	err = tx.QueryRowContext(ctx, `
		SELECT title, description, state, password_hash, contact, end_time, seq
		FROM games WHERE id = ?
	`, id).Scan(&g.Title, &g.Description, &state, &g.PasswordHash, &g.Contact, &endTime, &g.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	if g.State, err = domain.ParseState(state); err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	if g.EndTime, err = parseNullTime(endTime); err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}

	if err := loadPlayers(ctx, tx, g); err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	if err := loadAddresses(ctx, tx, g); err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	if err := loadCircles(ctx, tx, g); err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	if err := loadAssignments(ctx, tx, g); err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("load game: commit: %w", err)
	}
	return g, nil
}

func loadPlayers(ctx context.Context, q queryer, g *domain.Game) error {
	rows, err := q.QueryContext(ctx, `
		SELECT name, grp FROM players WHERE game_id = ? ORDER BY ord ASC, name ASC
	`, g.ID)
	if err != nil {
		return fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p := &domain.Player{}
		if err := rows.Scan(&p.Name, &p.Group); err != nil {
			return fmt.Errorf("scan player: %w", err)
		}
		g.Players = append(g.Players, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate players: %w", err)
	}
	return nil
}

func loadAddresses(ctx context.Context, q queryer, g *domain.Game) error {
	rows, err := q.QueryContext(ctx, `
		SELECT player, kind, address, active FROM addresses
		WHERE game_id = ? ORDER BY player ASC, ord ASC
	`, g.ID)
	if err != nil {
		return fmt.Errorf("query addresses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, kind string
		var a domain.Address
		if err := rows.Scan(&name, &kind, &a.Address, &a.Active); err != nil {
			return fmt.Errorf("scan address: %w", err)
		}
		a.Kind = domain.AddressKind(kind)
		p, ok := g.Player(name)
		if !ok {
			return fmt.Errorf("address of unknown player %q", name)
		}
		p.Addresses = append(p.Addresses, a)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate addresses: %w", err)
	}
	return nil
}

func loadCircles(ctx context.Context, q queryer, g *domain.Game) error {
	rows, err := q.QueryContext(ctx, `
		SELECT name, set_name FROM circles WHERE game_id = ? ORDER BY ord ASC, name ASC
	`, g.ID)
	if err != nil {
		return fmt.Errorf("query circles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c := &domain.Circle{}
		if err := rows.Scan(&c.Name, &c.Set); err != nil {
			return fmt.Errorf("scan circle: %w", err)
		}
		g.Circles = append(g.Circles, c)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate circles: %w", err)
	}
	return nil
}

func loadAssignments(ctx context.Context, q queryer, g *domain.Game) error {
	rows, err := q.QueryContext(ctx, `
		SELECT circle, victim, position, killer, completed_at, reason
		FROM assignments WHERE game_id = ?
		ORDER BY circle ASC, ord ASC
	`, g.ID)
	if err != nil {
		return fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var circle, victim string
		var position sql.NullInt64
		var killer, completedAt, reason sql.NullString
		if err := rows.Scan(&circle, &victim, &position, &killer, &completedAt, &reason); err != nil {
			return fmt.Errorf("scan assignment: %w", err)
		}

		c, ok := g.Circle(circle)
		if !ok {
			return fmt.Errorf("assignment in unknown circle %q", circle)
		}
		p, ok := g.Player(victim)
		if !ok {
			return fmt.Errorf("assignment of unknown player %q", victim)
		}
		a := &domain.Assignment{Circle: c, Victim: p, Position: domain.Unplaced}
		if position.Valid {
			a.Position = int(position.Int64)
		}
		if completedAt.Valid {
			at, err := parseTime(completedAt.String)
			if err != nil {
				return err
			}
			a.Completion = &domain.Completion{Time: at, Reason: reason.String}
			if killer.Valid {
				k, ok := g.Player(killer.String)
				if !ok {
					return fmt.Errorf("killer %q of %s/%s unknown", killer.String, circle, victim)
				}
				a.Completion.Killer = k
			}
		}
		c.Assignments = append(c.Assignments, a)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate assignments: %w", err)
	}
	return nil
}

// ReadEvents returns the journal of a game in seq order.
// Returns an empty slice (not nil) if the game has no entries.
func (s *Store) ReadEvents(ctx context.Context, gameID string) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, game_id, seq, action, args, at
		FROM events
		WHERE game_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		var ev domain.Event
		var argsJSON, at string
		if err := rows.Scan(&ev.ID, &ev.GameID, &ev.Seq, &ev.Action, &argsJSON, &at); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if ev.Args, err = unmarshalArgs(argsJSON); err != nil {
			return nil, fmt.Errorf("event %d: %w", ev.Seq, err)
		}
		if ev.At, err = parseTime(at); err != nil {
			return nil, fmt.Errorf("event %d: %w", ev.Seq, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// ListGames returns a summary of every stored game ordered by id.
func (s *Store) ListGames(ctx context.Context) ([]GameSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, state, seq FROM games ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var games []GameSummary
	for rows.Next() {
		var gs GameSummary
		var state string
		if err := rows.Scan(&gs.ID, &gs.Title, &state, &gs.Seq); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		if gs.State, err = domain.ParseState(state); err != nil {
			return nil, fmt.Errorf("game %q: %w", gs.ID, err)
		}
		games = append(games, gs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return games, nil
}
