package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/murder/internal/domain"
	"github.com/roach88/murder/internal/engine"
	"github.com/roach88/murder/internal/notify"
	"github.com/roach88/murder/internal/shuffle"
	"github.com/roach88/murder/internal/store"
	"github.com/roach88/murder/internal/testutil"
)

// Harness executes the steps of one scenario against a fresh engine.
type Harness struct {
	store    *store.Store
	engine   *engine.Engine
	recorder *notify.Recorder
	gameID   string
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Journal times come from a step clock and codes are "<victim>-<circle>",
// so traces are reproducible.
//
// Execution flow:
// 1. Create fresh in-memory database and engine
// 2. Create the game
// 3. Apply each step in its own transaction, checking its expected outcome
// 4. Evaluate assertions against the trace and the final game
//
// A returned error means the scenario could not be executed at all;
// expectation and assertion failures are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	var shuffler engine.Shuffler = testutil.JoinOrderShuffler{}
	if scenario.Seed != nil {
		shuffler = shuffle.NewSeeded(*scenario.Seed)
	}
	rec := &notify.Recorder{}
	clock := testutil.NewStepClock(time.Time{}, time.Minute)
	eng := engine.New(st, shuffler,
		engine.WithCodes(testutil.StaticCodes{}),
		engine.WithNotifier(rec),
		engine.WithIDs(engine.NewSequentialGenerator("ev")),
		engine.WithNow(clock.Now),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	h := &Harness{store: st, engine: eng, recorder: rec, gameID: scenario.Game.ID}
	ctx := context.Background()

	password := scenario.Game.Password
	if password == "" {
		password = DefaultPassword
	}
	if err := eng.CreateGame(ctx, engine.NewGame{
		ID:       scenario.Game.ID,
		Title:    scenario.Game.Title,
		Password: password,
		Circles:  scenario.Game.Circles,
	}); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, err
		}
	}

	game, err := st.LoadGame(ctx, scenario.Game.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load final game: %w", err)
	}
	actx := &AssertionContext{Store: st, Ctx: ctx, Game: game}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeStep applies one step, records it and the notifications it caused
// in the trace and checks its expected outcome.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) error {
	var seq int64
	var err error
	if step.Op == "check_password" {
		err = h.engine.CheckGamemasterPassword(ctx, h.gameID, step.Args["password"])
	} else {
		err = h.engine.Update(ctx, h.gameID, func(s *engine.Service) error {
			if err := apply(s, step); err != nil {
				return err
			}
			seq = s.Game().Seq
			return nil
		})
	}

	var code string
	if err != nil {
		if !domain.IsGameError(err) {
			return fmt.Errorf("steps[%d] %s: %w", i, step.Op, err)
		}
		code = string(codeOf(err))
		seq = 0
	}
	result.AddStepTrace(step.Op, step.Args, code, seq)

	for _, u := range h.recorder.Updates() {
		missions := make([]string, 0, len(u.Missions))
		for _, m := range u.Missions {
			missions = append(missions, fmt.Sprintf("%s@%s:%s", m.Victim, m.Circle, m.Code))
		}
		result.AddNotificationTrace(u.Player, u.Reason, missions)
	}
	h.recorder.Reset()

	want := ""
	if step.Expect != nil {
		want = step.Expect.Error
	}
	switch {
	case want == "" && code != "":
		result.AddError(fmt.Sprintf("steps[%d] %s: unexpected error: %v", i, step.Op, err))
	case want != "" && code == "":
		result.AddError(fmt.Sprintf("steps[%d] %s: expected error %s, but the step succeeded", i, step.Op, want))
	case want != code:
		result.AddError(fmt.Sprintf("steps[%d] %s: expected error %s, got %s", i, step.Op, want, code))
	}
	return nil
}

// apply dispatches a step to the matching Service operation.
func apply(s *engine.Service, step Step) error {
	a := step.Args
	switch step.Op {
	case "add_player":
		return s.AddPlayer(a["name"], a["group"])
	case "add_circle":
		return s.AddCircle(a["name"], a["set"])
	case "join_circle":
		return s.JoinCircle(a["player"], a["circle"])
	case "shuffle_circle":
		return s.ShuffleCircle(a["circle"])
	case "start_game":
		return s.StartGame()
	case "end_game":
		return s.EndGame()
	case "record_murder":
		when, err := parseWhen(a["when"])
		if err != nil {
			return err
		}
		return s.RecordMurder(engine.MurderReport{
			Killer: a["killer"],
			Victim: a["victim"],
			Circle: a["circle"],
			When:   when,
			Reason: a["reason"],
			Code:   a["code"],
		})
	case "kick_player":
		when, err := parseWhen(a["when"])
		if err != nil {
			return err
		}
		return s.KickPlayer(a["player"], when, a["reason"])
	case "add_address":
		return s.AddAddress(a["player"], domain.AddressKind(a["kind"]), a["address"])
	case "set_password":
		return s.SetPassword(a["password"])
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

// parseWhen parses an RFC 3339 time. Empty means now.
func parseWhen(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t, nil
}

func codeOf(err error) domain.Code {
	var ge *domain.GameError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}
