package store

import "github.com/roach88/ecosoul/internal/wire"

// Cycle outcomes.
const (
	OutcomeRunning   = "running"
	OutcomeConfirmed = "confirmed"
	OutcomeFailed    = "failed"
)

// Cycle is one reconciliation cycle.
type Cycle struct {
	ID       string
	Seq      int64
	Activity string
	Kind     string

	SubmissionID string
	Hash         string
	Digest       string

	Outcome      string
	ErrorCode    string
	ErrorMessage string

	Identifier      *int64
	EcoScore        *int64
	CumulativeScore int64
	FinishedSeq     *int64
}

// Transition is one phase change inside a cycle.
type Transition struct {
	Seq     int64
	CycleID string
	From    string
	To      string
	Detail  wire.Object
}
