package resource

import (
	"fmt"

	"github.com/roach88/ecosoul/internal/ledger"
)

// Kind is the kind of mutation a handle represents.
type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
)

// Status is the lifecycle status of a handle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether s is a final status.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// Payload is what the caller asks to record.
type Payload struct {
	Activity   string
	Identifier *ledger.Identifier // required for update, forbidden for create
}

// RequestHandle is one in-flight mutation.
type RequestHandle struct {
	SubmissionID string
	Hash         ledger.SubmissionHash
	Kind         Kind
	Status       Status

	// Activity is the normalized label sent to the ledger.
	Activity string
	// Digest is the content digest of the submitted arguments.
	Digest string
}

func (h RequestHandle) String() string {
	return fmt.Sprintf("%s %s (%s)", h.Kind, h.Hash, h.Status)
}

// ConfirmationResult is the terminal outcome of a handle.
type ConfirmationResult struct {
	SubmissionID string
	Hash         ledger.SubmissionHash
	Kind         Kind
	Status       Status

	// Identifier is set for confirmed creates.
	Identifier *ledger.Identifier
	// Err is set for failed results; it is always a *ConfirmationError.
	Err error
}
