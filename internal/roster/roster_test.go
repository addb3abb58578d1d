package roster

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/murder/internal/domain"
	"github.com/roach88/murder/internal/engine"
	"github.com/roach88/murder/internal/store"
	"github.com/roach88/murder/internal/testutil"
)

func TestMain(m *testing.M) {
	domain.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func TestLoadFile(t *testing.T) {
	r, err := LoadFile("testdata/roster.yaml")
	require.NoError(t, err)

	assert.Equal(t, []Circle{{Name: "main"}, {Name: "teachers", Set: "staff"}}, r.Circles)
	require.Len(t, r.Players, 3)
	assert.Equal(t, Player{Name: "Alice", Group: "10b", Email: "alice@example.org"}, r.Players[0])
	assert.Equal(t, []string{"main", "teachers"}, r.Players[2].Circles)
	assert.Equal(t, "murder.carol", r.Players[2].NATS)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown field", "players:\n  - name: Alice\n    phone: 123\n"},
		{"empty name", "players:\n  - name: \"\"\n"},
		{"blank name", "players:\n  - name: \"   \"\n"},
		{"missing name", "players:\n  - group: x\n"},
		{"bad email", "players:\n  - name: Alice\n    email: alice\n"},
		{"no players", "circles:\n  - name: main\n"},
		{"empty players", "players: []\n"},
		{"circles not a list", "players:\n  - name: Alice\ncircles: main\n"},
		{"empty document", ""},
		{"not yaml", "players: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("test.yaml", []byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "test.yaml")
		})
	}
}

func TestRead(t *testing.T) {
	r, err := Read("stdin", strings.NewReader("players:\n  - name: Alice\n"))
	require.NoError(t, err)
	assert.Equal(t, []Player{{Name: "Alice"}}, r.Players)
}

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	e := engine.New(s, testutil.JoinOrderShuffler{},
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, e.CreateGame(context.Background(), engine.NewGame{
		ID:       "g1",
		Password: "secret",
		Circles:  []string{"main"},
	}))
	return e
}

func TestApply(t *testing.T) {
	e := newEngine(t)
	r, err := LoadFile("testdata/roster.yaml")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, e.Update(ctx, "g1", func(s *engine.Service) error { return Apply(s, r) }))

	require.NoError(t, e.View(ctx, "g1", func(g *domain.Game) error {
		require.Len(t, g.Circles, 2)
		require.Len(t, g.Players, 3)

		main, _ := g.Circle("main")
		teachers, _ := g.Circle("teachers")
		assert.Len(t, main.Assignments, 3)
		assert.Len(t, teachers.Assignments, 2)
		assert.Equal(t, "staff", teachers.Set)

		alice, _ := g.Player("Alice")
		assert.Equal(t, "10b", alice.Group)
		assert.Equal(t, []domain.Address{{Kind: domain.AddressEmail, Address: "alice@example.org", Active: true}}, alice.Addresses)
		_, inTeachers := teachers.Assignment("Alice")
		assert.True(t, inTeachers, "player without circles joins all")

		carol, _ := g.Player("Carol")
		assert.Equal(t, domain.AddressNATS, carol.Addresses[0].Kind)
		return nil
	}))
}

func TestApply_IsAtomic(t *testing.T) {
	e := newEngine(t)
	r, err := Parse("bad.yaml", []byte("players:\n  - name: Alice\n  - name: Bob\n    circles: [nope]\n"))
	require.NoError(t, err)

	ctx := context.Background()
	err = e.Update(ctx, "g1", func(s *engine.Service) error { return Apply(s, r) })
	require.True(t, domain.IsCode(err, domain.CodeNotFound), "got %v", err)

	require.NoError(t, e.View(ctx, "g1", func(g *domain.Game) error {
		assert.Empty(t, g.Players)
		return nil
	}))
}
