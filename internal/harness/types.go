package harness

// Trace event types.
const (
	EventStep         = "step"
	EventNotification = "notification"
)

// TraceEvent is one entry of a scenario trace: a step as it was applied, or
// a mission update sent because of the step before it.
type TraceEvent struct {
	Type string `json:"type"`

	// Step fields. Seq is the game's journal position after a successful
	// step; Error is the game error code of a rejected one.
	Op    string            `json:"op,omitempty"`
	Args  map[string]string `json:"args,omitempty"`
	Error string            `json:"error,omitempty"`
	Seq   int64             `json:"seq,omitempty"`

	// Notification fields. Missions are written as victim@circle:code.
	Player   string   `json:"player,omitempty"`
	Reason   string   `json:"reason,omitempty"`
	Missions []string `json:"missions,omitempty"`
}

// Succeeded reports whether the event is a step that was applied.
func (e TraceEvent) Succeeded() bool {
	return e.Type == EventStep && e.Error == ""
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step behaved as expected and every assertion
	// held.
	Pass bool `json:"pass"`

	// Trace contains all steps and notifications in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStepTrace adds a step to the trace.
func (r *Result) AddStepTrace(op string, args map[string]string, errCode string, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:  EventStep,
		Op:    op,
		Args:  args,
		Error: errCode,
		Seq:   seq,
	})
}

// AddNotificationTrace adds a mission update to the trace.
func (r *Result) AddNotificationTrace(player, reason string, missions []string) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:     EventNotification,
		Player:   player,
		Reason:   reason,
		Missions: missions,
	})
}
