package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/murder/internal/domain"
)

// execer is the subset of *sql.Tx used by the row writers.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateGame inserts a new game with its current contents and journal
// entries. Returns ErrGameExists if the id is already taken.
func (s *Store) CreateGame(ctx context.Context, g *domain.Game, events []domain.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create game: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO games
		(id, title, description, state, password_hash, contact, end_time, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		g.ID,
		g.Title,
		g.Description,
		g.State.String(),
		g.PasswordHash,
		g.Contact,
		nullTime(g.EndTime),
		g.Seq,
	)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return ErrGameExists
		}
		return fmt.Errorf("create game: %w", err)
	}

	if err := writeContents(ctx, tx, g); err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	if err := writeEvents(ctx, tx, events); err != nil {
		return fmt.Errorf("create game: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create game: commit: %w", err)
	}
	return nil
}

// SaveGame persists g and appends events in one transaction.
//
// expectedSeq is the Seq the game had when it was loaded. If the stored
// game has moved on since, nothing is written and ErrConflict is returned.
func (s *Store) SaveGame(ctx context.Context, g *domain.Game, expectedSeq int64, events []domain.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save game: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		UPDATE games
		SET title = ?, description = ?, state = ?, password_hash = ?,
		    contact = ?, end_time = ?, seq = ?
		WHERE id = ? AND seq = ?
	`,
		g.Title,
		g.Description,
		g.State.String(),
		g.PasswordHash,
		g.Contact,
		nullTime(g.EndTime),
		g.Seq,
		g.ID,
		expectedSeq,
	)
	if err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save game: rows affected: %w", err)
	}
	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM games WHERE id = ?`, g.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("save game: %w", err)
		}
		return ErrConflict
	}

	if err := writeContents(ctx, tx, g); err != nil {
		return fmt.Errorf("save game: %w", err)
	}
	if err := writeEvents(ctx, tx, events); err != nil {
		return fmt.Errorf("save game: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save game: commit: %w", err)
	}
	return nil
}

// writeContents upserts players, addresses, circles and assignments.
// Players go first so that assignment foreign keys resolve.
func writeContents(ctx context.Context, tx execer, g *domain.Game) error {
	for i, p := range g.Players {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO players (game_id, name, grp, ord)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(game_id, name) DO UPDATE SET grp = excluded.grp
		`, g.ID, p.Name, p.Group, i)
		if err != nil {
			return fmt.Errorf("write player %q: %w", p.Name, err)
		}
		for j, a := range p.Addresses {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO addresses (game_id, player, kind, address, active, ord)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(game_id, player, kind, address) DO UPDATE SET active = excluded.active
			`, g.ID, p.Name, string(a.Kind), a.Address, a.Active, j)
			if err != nil {
				return fmt.Errorf("write address of %q: %w", p.Name, err)
			}
		}
	}

	for i, c := range g.Circles {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO circles (game_id, name, set_name, ord)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(game_id, name) DO NOTHING
		`, g.ID, c.Name, c.Set, i)
		if err != nil {
			return fmt.Errorf("write circle %q: %w", c.Name, err)
		}
		for j, a := range c.Assignments {
			if err := writeAssignment(ctx, tx, g.ID, j, a); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeAssignment(ctx context.Context, tx execer, gameID string, ord int, a *domain.Assignment) error {
	var position sql.NullInt64
	if a.Placed() {
		position = sql.NullInt64{Int64: int64(a.Position), Valid: true}
	}
	var killer, completedAt, reason sql.NullString
	if c := a.Completion; c != nil {
		if c.Killer != nil {
			killer = sql.NullString{String: c.Killer.Name, Valid: true}
		}
		completedAt = sql.NullString{String: formatTime(c.Time), Valid: true}
		reason = sql.NullString{String: c.Reason, Valid: true}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO assignments
		(game_id, circle, victim, ord, position, killer, completed_at, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(game_id, circle, victim) DO UPDATE SET
			position = excluded.position,
			killer = excluded.killer,
			completed_at = excluded.completed_at,
			reason = excluded.reason
	`,
		gameID,
		a.Circle.Name,
		a.Victim.Name,
		ord,
		position,
		killer,
		completedAt,
		reason,
	)
	if err != nil {
		return fmt.Errorf("write assignment %s/%s: %w", a.Circle.Name, a.Victim.Name, err)
	}
	return nil
}

// writeEvents appends journal entries. A duplicate (game, seq) fails the
// whole transaction.
func writeEvents(ctx context.Context, tx execer, events []domain.Event) error {
	for _, ev := range events {
		argsJSON, err := marshalArgs(ev.Args)
		if err != nil {
			return fmt.Errorf("write event %d: %w", ev.Seq, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO events (id, game_id, seq, action, args, at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, ev.ID, ev.GameID, ev.Seq, ev.Action, argsJSON, formatTime(ev.At))
		if err != nil {
			return fmt.Errorf("write event %d: %w", ev.Seq, err)
		}
	}
	return nil
}
