package harness

// OutcomeOK is the outcome of a step that succeeded.
const OutcomeOK = "ok"

// TraceEvent is one executed flow step.
//
// Result holds only canonical-JSON-safe values (strings, integers, bools,
// []any, []string and map[string]any) so that traces can be written as
// golden files.
type TraceEvent struct {
	Index   int            `json:"index"`
	Op      string         `json:"op"`
	Outcome string         `json:"outcome"`
	Result  map[string]any `json:"result,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Scenario is the scenario name.
	Scenario string `json:"scenario"`

	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Trace contains the flow steps in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State summarizes the final registry state: "records" (canonical
	// names in order), "transfers" (executed transfer count) and "digest".
	State map[string]any `json:"state,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult(scenario string) *Result {
	return &Result{
		Scenario: scenario,
		Pass:     true,
		Trace:    []TraceEvent{},
		Errors:   []string{},
		State:    make(map[string]any),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a flow step to the trace.
func (r *Result) AddTrace(op, outcome string, result map[string]any) {
	r.Trace = append(r.Trace, TraceEvent{
		Index:   len(r.Trace),
		Op:      op,
		Outcome: outcome,
		Result:  result,
	})
}
