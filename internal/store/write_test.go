package store

import (
	"context"
	"errors"
	"testing"

	"github.com/roach88/murder/internal/domain"
)

func TestCreateGame_DuplicateID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.CreateGame(ctx, createTestGame(t, "g1"), nil); err != nil {
		t.Fatalf("CreateGame() failed: %v", err)
	}
	err := s.CreateGame(ctx, createTestGame(t, "g1"), nil)
	if !errors.Is(err, ErrGameExists) {
		t.Fatalf("expected ErrGameExists, got %v", err)
	}
}

func TestSaveGame_Conflict(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	g := createTestGame(t, "g1")
	g.Seq = 1
	if err := s.CreateGame(ctx, g, []domain.Event{createTestEvent("g1", 1, "create_game")}); err != nil {
		t.Fatalf("CreateGame() failed: %v", err)
	}

	g.Seq = 2
	if err := s.SaveGame(ctx, g, 1, []domain.Event{createTestEvent("g1", 2, "add_player")}); err != nil {
		t.Fatalf("SaveGame() failed: %v", err)
	}

	// A second writer that loaded seq 1 must not overwrite.
	g.Seq = 2
	err := s.SaveGame(ctx, g, 1, []domain.Event{createTestEvent("g1", 2, "add_circle")})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	events, err := s.ReadEvents(ctx, "g1")
	if err != nil {
		t.Fatalf("ReadEvents() failed: %v", err)
	}
	if len(events) != 2 || events[1].Action != "add_player" {
		t.Errorf("unexpected journal after conflict: %+v", events)
	}
}

func TestSaveGame_NotFound(t *testing.T) {
	s := createTestStore(t)
	err := s.SaveGame(context.Background(), createTestGame(t, "missing"), 0, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveGame_RollsBackOnFailure(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	g := createTestGame(t, "g1")
	g.Seq = 1
	if err := s.CreateGame(ctx, g, []domain.Event{createTestEvent("g1", 1, "create_game")}); err != nil {
		t.Fatalf("CreateGame() failed: %v", err)
	}

	// Reusing seq 1 violates UNIQUE(game_id, seq) after the game row was
	// already updated; the whole transaction must roll back.
	g.Title = "renamed"
	g.Seq = 2
	dup := createTestEvent("g1", 1, "again")
	dup.ID = "other-id"
	if err := s.SaveGame(ctx, g, 1, []domain.Event{dup}); err == nil {
		t.Fatal("expected error for duplicate journal seq")
	}

	loaded, err := s.LoadGame(ctx, "g1")
	if err != nil {
		t.Fatalf("LoadGame() failed: %v", err)
	}
	if loaded.Title != "Test game" || loaded.Seq != 1 {
		t.Errorf("partial write survived: title=%q seq=%d", loaded.Title, loaded.Seq)
	}
}

func TestSchema_CompletionPairing(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	if err := s.CreateGame(ctx, createTestGame(t, "g1"), nil); err != nil {
		t.Fatalf("CreateGame() failed: %v", err)
	}

	_, err := s.db.Exec(`UPDATE assignments SET completed_at = '2024-05-01T12:00:00Z' WHERE victim = 'B' AND circle = 'c1'`)
	if err == nil {
		t.Error("completed_at without reason should violate CHECK constraint")
	}

	_, err = s.db.Exec(`UPDATE assignments SET killer = 'A' WHERE victim = 'B' AND circle = 'c1'`)
	if err == nil {
		t.Error("killer without completion should violate CHECK constraint")
	}
}

func TestSchema_UniquePosition(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	if err := s.CreateGame(ctx, createTestGame(t, "g1"), nil); err != nil {
		t.Fatalf("CreateGame() failed: %v", err)
	}

	_, err := s.db.Exec(`UPDATE assignments SET position = 0 WHERE victim = 'B' AND circle = 'c1'`)
	if err == nil {
		t.Error("duplicate position should violate UNIQUE constraint")
	}
}
