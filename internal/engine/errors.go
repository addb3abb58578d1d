package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/murder/internal/domain"
	"github.com/roach88/murder/internal/store"
)

// ErrConflict reports that a game was saved by someone else between load
// and save. The operation can be retried.
var ErrConflict = errors.New("game was modified concurrently, try again")

// translateStoreError maps store sentinels to game errors or engine errors.
// Anything else is wrapped with op.
func translateStoreError(op, gameID string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.Errorf(domain.CodeNotFound, "game %q does not exist", gameID)
	case errors.Is(err, store.ErrGameExists):
		return domain.Errorf(domain.CodeGameExists, "a game with id %q already exists", gameID)
	case errors.Is(err, store.ErrConflict):
		return fmt.Errorf("%s %s: %w", op, gameID, ErrConflict)
	default:
		return fmt.Errorf("%s %s: %w", op, gameID, err)
	}
}

func notFound(kind, name string) error {
	return domain.Errorf(domain.CodeNotFound, "%s %q does not exist", kind, name)
}

func requireState(g *domain.Game, want domain.State) error {
	if g.State == want {
		return nil
	}
	switch want {
	case domain.StateNew:
		return domain.Errorf(domain.CodeNotNew, "game %q has already started", g.ID)
	case domain.StateRunning:
		if g.State == domain.StateNew {
			return domain.Errorf(domain.CodeNotRunning, "game %q has not started yet", g.ID)
		}
		return domain.Errorf(domain.CodeNotRunning, "game %q has already ended", g.ID)
	}
	return fmt.Errorf("unexpected state requirement %s", want)
}
