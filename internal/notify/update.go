// Package notify delivers mission updates to players.
//
// The engine decides when a player's missions changed and hands an Update
// to a Sink. Sinks only format and deliver; they never look at game state.
package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/murder/internal/domain"
)

// Reasons an update is sent.
const (
	ReasonGameStarted  = "game_started"
	ReasonMurdered     = "murdered"
	ReasonNewMission   = "new_mission"
	ReasonPlayerKicked = "player_kicked"
	ReasonAddressAdded = "address_added"
)

// Mission is one assignment a player currently has to complete.
type Mission struct {
	Circle string `json:"circle"`
	Victim string `json:"victim"`
	Owner  string `json:"owner"`
	Code   string `json:"code,omitempty"`
}

// Update tells a player what their missions are now.
type Update struct {
	GameID    string           `json:"game_id"`
	GameTitle string           `json:"game_title"`
	Player    string           `json:"player"`
	Reason    string           `json:"reason"`
	Addresses []domain.Address `json:"-"`
	Missions  []Mission        `json:"missions"`
}

// Sink delivers updates.
type Sink interface {
	Notify(ctx context.Context, u Update) error
}

// Fanout delivers every update to all sinks and joins their errors.
type Fanout []Sink

// Notify implements Sink.
func (f Fanout) Notify(ctx context.Context, u Update) error {
	var errs []error
	for _, s := range f {
		if err := s.Notify(ctx, u); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every update.
type Discard struct{}

// Notify implements Sink.
func (Discard) Notify(context.Context, Update) error { return nil }

// Recorder keeps updates in memory for tests and dry runs.
//
// Thread-safety: Recorder is safe for concurrent use via internal mutex.
type Recorder struct {
	mu      sync.Mutex
	updates []Update
}

// Notify implements Sink.
func (r *Recorder) Notify(_ context.Context, u Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
	return nil
}

// Updates returns a copy of everything recorded so far.
func (r *Recorder) Updates() []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Update, len(r.updates))
	copy(out, r.updates)
	return out
}

// For returns the recorded updates addressed to player.
func (r *Recorder) For(player string) []Update {
	var out []Update
	for _, u := range r.Updates() {
		if u.Player == player {
			out = append(out, u)
		}
	}
	return out
}

// Reset forgets all recorded updates.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = nil
}
