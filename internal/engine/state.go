package engine

import (
	"github.com/roach88/ecosoul/internal/ledger"
	"github.com/roach88/ecosoul/internal/resource"
)

// NoActivity is the activity label before anything was recorded.
const NoActivity = "no activity yet"

// viewState is the engine-owned view. It is only touched under Engine.mu.
type viewState struct {
	phase            Phase
	cycleID          string
	identifier       *ledger.Identifier
	record           *ledger.ResourceRecord
	cumulativeScore  uint64
	currentActivity  string
	previousActivity string
	pending          *resource.RequestHandle
	lastError        *ErrorInfo
	status           string
	seq              int64
}

func newViewState() viewState {
	return viewState{
		phase:            PhaseIdle,
		currentActivity:  NoActivity,
		previousActivity: NoActivity,
	}
}

// Snapshot is a consistent copy of the view at one sequence number.
type Snapshot struct {
	Phase   Phase
	CycleID string

	// Identifier is nil until a create has been confirmed.
	Identifier *ledger.Identifier
	// Record is the last record read from the ledger. Shared read-only.
	Record *ledger.ResourceRecord

	CumulativeScore  uint64
	CurrentActivity  string
	PreviousActivity string

	Pending   *resource.RequestHandle
	LastError *ErrorInfo

	// Status is a human-readable line describing the last transition.
	Status string
	// Seq is the sequence number of the last transition.
	Seq int64
}

// Busy reports whether a cycle is running.
func (s Snapshot) Busy() bool {
	return s.Phase.Busy()
}

func (v *viewState) snapshot() Snapshot {
	s := Snapshot{
		Phase:            v.phase,
		CycleID:          v.cycleID,
		Record:           v.record,
		CumulativeScore:  v.cumulativeScore,
		CurrentActivity:  v.currentActivity,
		PreviousActivity: v.previousActivity,
		LastError:        v.lastError,
		Status:           v.status,
		Seq:              v.seq,
	}
	if v.identifier != nil {
		id := *v.identifier
		s.Identifier = &id
	}
	if v.pending != nil {
		h := *v.pending
		s.Pending = &h
	}
	return s
}
