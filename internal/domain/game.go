package domain

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// State is the lifecycle state of a game.
// States only advance: StateNew → StateRunning → StateEnded.
type State int

const (
	StateNew State = iota
	StateRunning
	StateEnded
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateRunning:
		return "running"
	case StateEnded:
		return "ended"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ParseState parses a state name as produced by State.String.
func ParseState(s string) (State, error) {
	switch s {
	case "new":
		return StateNew, nil
	case "running":
		return StateRunning, nil
	case "ended":
		return StateEnded, nil
	}
	return 0, fmt.Errorf("unknown game state %q", s)
}

// PasswordCost is the bcrypt cost used when hashing game master passwords.
// Tests lower it to bcrypt.MinCost.
var PasswordCost = bcrypt.DefaultCost

// Game is one murder game with its circles and players.
type Game struct {
	// ID is chosen by the game master and visible to players.
	ID string

	Title       string
	Description string
	State       State

	// PasswordHash is the bcrypt hash of the game master password.
	// The plaintext is never stored.
	PasswordHash string

	// Contact is how the game master can be reached. Not shown to players.
	Contact string

	// EndTime is the planned end of the game, if any.
	EndTime *time.Time

	// Seq is the sequence number of the last journal entry for this game.
	Seq int64

	Circles []*Circle
	Players []*Player
}

// NewGameParams holds the inputs for NewGame.
type NewGameParams struct {
	ID          string
	Title       string
	Description string
	Password    string
	Contact     string
	EndTime     *time.Time
}

// NewGame creates a game in StateNew, hashing the game master password once.
func NewGame(p NewGameParams) (*Game, error) {
	if p.ID == "" {
		return nil, errors.New("game id must not be empty")
	}
	g := &Game{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		State:       StateNew,
		Contact:     p.Contact,
		EndTime:     p.EndTime,
	}
	if g.Title == "" {
		g.Title = p.ID
	}
	if err := g.SetPassword(p.Password); err != nil {
		return nil, err
	}
	return g, nil
}

// SetPassword replaces the game master password.
func (g *Game) SetPassword(password string) error {
	if password == "" {
		return errors.New("game master password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	g.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether candidate matches the game master password.
func (g *Game) CheckPassword(candidate string) bool {
	if g.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(g.PasswordHash), []byte(candidate)) == nil
}

// Started reports whether the game is running or has ended.
func (g *Game) Started() bool {
	return g.State == StateRunning || g.State == StateEnded
}

// Ended reports whether the game has ended.
func (g *Game) Ended() bool {
	return g.State == StateEnded
}

// Player returns the player with the given name.
func (g *Game) Player(name string) (*Player, bool) {
	for _, p := range g.Players {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Circle returns the circle with the given name.
func (g *Game) Circle(name string) (*Circle, bool) {
	for _, c := range g.Circles {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// AddPlayer adds a new player. Names are unique within a game.
func (g *Game) AddPlayer(name, group string) (*Player, error) {
	if name == "" {
		return nil, Errorf(CodeInvalidName, "player name must not be empty")
	}
	if _, ok := g.Player(name); ok {
		return nil, Errorf(CodeDuplicateName, "a player named %q already exists in this game", name)
	}
	p := &Player{Name: name, Group: group}
	g.Players = append(g.Players, p)
	return p, nil
}

// AddCircle adds a new circle. Names are unique within a game.
func (g *Game) AddCircle(name, set string) (*Circle, error) {
	if name == "" {
		return nil, Errorf(CodeInvalidName, "circle name must not be empty")
	}
	if _, ok := g.Circle(name); ok {
		return nil, Errorf(CodeDuplicateName, "a circle named %q already exists in this game", name)
	}
	c := &Circle{Name: name, Set: set}
	g.Circles = append(g.Circles, c)
	return c, nil
}

// Advance moves the game to the next lifecycle state.
// It fails if next is not the immediate successor of the current state.
func (g *Game) Advance(next State) error {
	if next != g.State+1 || next > StateEnded {
		return fmt.Errorf("invalid state transition %s -> %s", g.State, next)
	}
	g.State = next
	return nil
}
