package store

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/murder/internal/domain"
)

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// createTestStore creates a new temporary store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestGame builds an unsaved running game with one placed circle
// A → B → C and a second, unplaced circle with only A.
func createTestGame(t *testing.T, id string) *domain.Game {
	t.Helper()
	g := &domain.Game{
		ID:           id,
		Title:        "Test game",
		Description:  "for tests",
		PasswordHash: "$2a$04$notarealhash",
		Contact:      "gm@example.org",
		State:        domain.StateNew,
	}
	c1, err := g.AddCircle("c1", "main")
	if err != nil {
		t.Fatal(err)
	}
	var order []*domain.Assignment
	for _, n := range []string{"A", "B", "C"} {
		p, err := g.AddPlayer(n, "grp-"+n)
		if err != nil {
			t.Fatal(err)
		}
		a, err := c1.Join(p)
		if err != nil {
			t.Fatal(err)
		}
		order = append(order, a)
	}
	if err := c1.Place(order); err != nil {
		t.Fatal(err)
	}
	c2, err := g.AddCircle("c2", "")
	if err != nil {
		t.Fatal(err)
	}
	a, _ := g.Player("A")
	if _, err := c2.Join(a); err != nil {
		t.Fatal(err)
	}
	a.AddAddress(domain.AddressEmail, "a@example.org")
	return g
}

// createTestEvent creates a journal entry with minimal required fields.
func createTestEvent(gameID string, seq int64, action string) domain.Event {
	return domain.Event{
		ID:     fmt.Sprintf("%s-ev-%d", gameID, seq),
		GameID: gameID,
		Seq:    seq,
		Action: action,
		Args:   map[string]string{"n": action},
		At:     testTime.Add(time.Duration(seq) * time.Minute),
	}
}
