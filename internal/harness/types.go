package harness

// TraceEvent is one journalled phase transition.
type TraceEvent struct {
	Seq    int64          `json:"seq"`
	Cycle  string         `json:"cycle"`
	From   string         `json:"from"`
	To     string         `json:"to"`
	Detail map[string]any `json:"detail,omitempty"`
}

// StepResult is the outcome of one step.
type StepResult struct {
	Index     int    `json:"index"`
	Action    string `json:"action"`
	ErrorCode string `json:"error_code,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds every transition in seq order.
	Trace []TraceEvent `json:"trace"`

	// Steps records what each step did.
	Steps []StepResult `json:"steps"`

	// Errors holds failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the final engine view.
	State map[string]any `json:"state"`

	// Submissions is the number of mutations the ledger received.
	Submissions int `json:"submissions"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Steps:  []StepResult{},
		Errors: []string{},
		State:  make(map[string]any),
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
