package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/murder/internal/domain"
)

func TestLoadGame_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	g := createTestGame(t, "g1")
	end := testTime.Add(48 * time.Hour)
	g.EndTime = &end
	if err := s.CreateGame(ctx, g, nil); err != nil {
		t.Fatalf("CreateGame() failed: %v", err)
	}

	// Start the game and complete B in c1.
	g.State = domain.StateRunning
	c1, _ := g.Circle("c1")
	b, _ := c1.Assignment("B")
	a, _ := g.Player("A")
	if err := b.Complete(a, testTime, "poisoned tea"); err != nil {
		t.Fatal(err)
	}
	c3, _ := c1.Assignment("C")
	if err := c3.Complete(nil, testTime.Add(time.Hour), "kicked"); err != nil {
		t.Fatal(err)
	}
	g.Seq = 1
	if err := s.SaveGame(ctx, g, 0, []domain.Event{createTestEvent("g1", 1, "record_murder")}); err != nil {
		t.Fatalf("SaveGame() failed: %v", err)
	}

	loaded, err := s.LoadGame(ctx, "g1")
	if err != nil {
		t.Fatalf("LoadGame() failed: %v", err)
	}

	if loaded.Title != "Test game" || loaded.Description != "for tests" || loaded.Contact != "gm@example.org" {
		t.Errorf("game attributes not preserved: %+v", loaded)
	}
	if loaded.State != domain.StateRunning || loaded.Seq != 1 {
		t.Errorf("state=%s seq=%d", loaded.State, loaded.Seq)
	}
	if loaded.EndTime == nil || !loaded.EndTime.Equal(end) {
		t.Errorf("end time = %v, want %v", loaded.EndTime, end)
	}

	if diff := cmp.Diff(summarize(g), summarize(loaded)); diff != "" {
		t.Errorf("loaded game differs (-want +got):\n%s", diff)
	}

	lc1, _ := loaded.Circle("c1")
	lb, _ := lc1.Assignment("B")
	if lb.Killer() == nil || lb.Killer() != mustPlayer(t, loaded, "A") {
		t.Error("killer must point at the loaded player")
	}
	if got := lb.CurrentOwner(); got == nil || got.Name != "A" {
		t.Errorf("CurrentOwner(B) = %v, want A", got)
	}
	lc2, _ := loaded.Circle("c2")
	if lc2.Set != "" || lc2.Assignments[0].Placed() {
		t.Error("unplaced assignment must stay unplaced")
	}
	la := mustPlayer(t, loaded, "A")
	if len(la.Addresses) != 1 || la.Addresses[0].Address != "a@example.org" || !la.Addresses[0].Active {
		t.Errorf("addresses = %+v", la.Addresses)
	}
}

func TestLoadGame_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.LoadGame(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReadEvents_Ordering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	g := createTestGame(t, "g1")
	g.Seq = 3
	events := []domain.Event{
		createTestEvent("g1", 3, "start_game"),
		createTestEvent("g1", 1, "create_game"),
		createTestEvent("g1", 2, "add_player"),
	}
	if err := s.CreateGame(ctx, g, events); err != nil {
		t.Fatalf("CreateGame() failed: %v", err)
	}

	got, err := s.ReadEvents(ctx, "g1")
	if err != nil {
		t.Fatalf("ReadEvents() failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	for i, ev := range got {
		if ev.Seq != int64(i+1) {
			t.Errorf("event %d has seq %d", i, ev.Seq)
		}
	}
	if got[0].Args["n"] != "create_game" {
		t.Errorf("args not preserved: %v", got[0].Args)
	}
	if !got[0].At.Equal(testTime.Add(time.Minute)) {
		t.Errorf("at = %v", got[0].At)
	}
}

func TestReadEvents_Empty(t *testing.T) {
	s := createTestStore(t)
	got, err := s.ReadEvents(context.Background(), "none")
	if err != nil {
		t.Fatalf("ReadEvents() failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestListGames(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"zeta", "alpha"} {
		if err := s.CreateGame(ctx, createTestGame(t, id), nil); err != nil {
			t.Fatalf("CreateGame(%s) failed: %v", id, err)
		}
	}

	games, err := s.ListGames(ctx)
	if err != nil {
		t.Fatalf("ListGames() failed: %v", err)
	}
	if len(games) != 2 || games[0].ID != "alpha" || games[1].ID != "zeta" {
		t.Errorf("unexpected games: %+v", games)
	}
	if games[0].State != domain.StateNew {
		t.Errorf("state = %s", games[0].State)
	}
}

type assignmentSummary struct {
	Circle, Victim, Killer, Reason string
	Position                       int
	Completed                      bool
	At                             time.Time
}

func summarize(g *domain.Game) []assignmentSummary {
	var out []assignmentSummary
	for _, c := range g.Circles {
		for _, a := range c.Assignments {
			s := assignmentSummary{Circle: c.Name, Victim: a.Victim.Name, Position: a.Position}
			if a.Completion != nil {
				s.Completed = true
				s.Reason = a.Completion.Reason
				s.At = a.Completion.Time
				if k := a.Killer(); k != nil {
					s.Killer = k.Name
				}
			}
			out = append(out, s)
		}
	}
	return out
}

func mustPlayer(t *testing.T, g *domain.Game, name string) *domain.Player {
	t.Helper()
	p, ok := g.Player(name)
	if !ok {
		t.Fatalf("player %q missing", name)
	}
	return p
}

func TestLoadGame_ConsistentWhileAnotherStoreWrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")
	writer, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer writer.Close()
	reader, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer reader.Close()

	g := createTestGame(t, "g1")
	if err := writer.CreateGame(ctx, g, nil); err != nil {
		t.Fatalf("CreateGame() failed: %v", err)
	}
	c2, _ := g.Circle("c2")

	// Every save adds one player who joins c2, so a consistent read has
	// 3+seq players and 1+seq c2 assignments.
	const saves = 40
	done := make(chan error, 1)
	go func() {
		for i := 1; i <= saves; i++ {
			p, err := g.AddPlayer(fmt.Sprintf("P%02d", i), "")
			if err == nil {
				_, err = c2.Join(p)
			}
			if err != nil {
				done <- err
				return
			}
			g.Seq = int64(i)
			if err := writer.SaveGame(ctx, g, int64(i-1), nil); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	for finished := false; !finished; {
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("writer failed: %v", err)
			}
			finished = true
		default:
		}
		loaded, err := reader.LoadGame(ctx, "g1")
		if err != nil {
			t.Fatalf("LoadGame() failed: %v", err)
		}
		if got, want := len(loaded.Players), 3+int(loaded.Seq); got != want {
			t.Fatalf("seq %d: got %d players, want %d", loaded.Seq, got, want)
		}
		lc2, _ := loaded.Circle("c2")
		if got, want := len(lc2.Assignments), 1+int(loaded.Seq); got != want {
			t.Fatalf("seq %d: got %d c2 assignments, want %d", loaded.Seq, got, want)
		}
	}
}
