package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted game: a game definition, a list of steps with
// their expected outcome and assertions on the final state.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Seed seeds the shuffler. Without a seed circles are chained in join
	// order, which makes owners easy to predict.
	Seed *uint64 `yaml:"seed,omitempty"`

	Game GameSpec `yaml:"game"`

	// Steps are applied one per transaction, in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and the final game.
	Assertions []Assertion `yaml:"assertions"`
}

// GameSpec describes the game a scenario starts with.
type GameSpec struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title,omitempty"`
	Password string   `yaml:"password,omitempty"`
	Circles  []string `yaml:"circles,omitempty"`
}

// DefaultPassword is the game master password when GameSpec leaves it empty.
const DefaultPassword = "secret"

// Step is one game operation.
type Step struct {
	// Op is the operation name as it appears in the journal, e.g.
	// "record_murder".
	Op string `yaml:"op"`

	// Args are the operation arguments. Times use RFC 3339.
	Args map[string]string `yaml:"args,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Error is the expected game error code, e.g. "self_murder".
	// Empty means the step must succeed.
	Error string `yaml:"error"`
}

// Assertion validates the trace or the final game.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": a successful step with op and matching args
	// - "trace_order": successful steps appear in order
	// - "trace_count": op succeeded exactly Count times
	// - "final_state": query a table and verify the single matching row
	// - "game_state": the game is in State
	// - "owner": the current owner of Victim in Circle is Owner
	// - "achievable", "completed": number of such assignments is Count
	// - "mass_murderers", "alive": exactly these Players, in player order
	Type string `yaml:"type"`

	Op   string            `yaml:"op,omitempty"`
	Args map[string]string `yaml:"args,omitempty"`
	Ops  []string          `yaml:"ops,omitempty"`

	// Count is the expected number (trace_count, achievable, completed).
	Count int `yaml:"count,omitempty"`

	Table  string         `yaml:"table,omitempty"`
	Where  map[string]any `yaml:"where,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`

	State string `yaml:"state,omitempty"`

	Circle string `yaml:"circle,omitempty"`
	Victim string `yaml:"victim,omitempty"`
	Owner  string `yaml:"owner,omitempty"`

	Players []string `yaml:"players,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertGameState     = "game_state"
	AssertOwner         = "owner"
	AssertAchievable    = "achievable"
	AssertCompleted     = "completed"
	AssertMassMurderers = "mass_murderers"
	AssertAlive         = "alive"
)

// knownOps maps each step operation to its required arguments.
var knownOps = map[string][]string{
	"add_player":     {"name"},
	"add_circle":     {"name"},
	"join_circle":    {"player", "circle"},
	"shuffle_circle": {"circle"},
	"start_game":     nil,
	"end_game":       nil,
	"record_murder":  {"killer", "victim", "circle"},
	"kick_player":    {"player"},
	"add_address":    {"player", "kind", "address"},
	"set_password":   {"password"},
	"check_password": {"password"},
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Game.ID == "" {
		return fmt.Errorf("game.id is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		required, ok := knownOps[step.Op]
		if !ok {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		for _, arg := range required {
			if _, ok := step.Args[arg]; !ok {
				return fmt.Errorf("steps[%d]: %s requires arg %q", i, step.Op, arg)
			}
		}
		if step.Expect != nil && step.Expect.Error == "" {
			return fmt.Errorf("steps[%d].expect: error is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertGameState:
		if a.State == "" {
			return fmt.Errorf("assertions[%d]: state is required for game_state", index)
		}
	case AssertOwner:
		if a.Circle == "" || a.Victim == "" {
			return fmt.Errorf("assertions[%d]: circle and victim are required for owner", index)
		}
	case AssertAchievable, AssertCompleted:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertMassMurderers, AssertAlive:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
