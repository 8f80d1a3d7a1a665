package harness

// TraceEvent records one executed step.
type TraceEvent struct {
	Phase   string         `json:"phase"` // "setup" or "flow"
	Index   int            `json:"index"`
	Op      string         `json:"op"`
	As      string         `json:"as,omitempty"`
	Args    map[string]any `json:"args,omitempty"`
	Outcome string         `json:"outcome"` // "ok" or the error kind
	Result  map[string]any `json:"result,omitempty"`
}

// EventLine is one committed event as read back from the store.
type EventLine struct {
	Seq  int64  `json:"seq"`
	Type string `json:"type"`
	OpID string `json:"op_id"`
}

// OutcomeOK marks a step that succeeded.
const OutcomeOK = "ok"

// Result is the outcome of a scenario run.
type Result struct {
	Pass   bool         `json:"pass"`
	Trace  []TraceEvent `json:"trace"`
	Events []EventLine  `json:"events"`
	Errors []string     `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Events: []EventLine{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addStep(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
