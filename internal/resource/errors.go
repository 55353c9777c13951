package resource

import (
	"errors"
	"fmt"

	"github.com/roach88/ecosoul/internal/ledger"
)

// SubmissionReason classifies a synchronous submission failure.
type SubmissionReason string

const (
	// ReasonNotConnected means there is no active session.
	ReasonNotConnected SubmissionReason = "not_connected"
	// ReasonWrongNetwork means the session points at a non-target network.
	ReasonWrongNetwork SubmissionReason = "wrong_network"
	// ReasonInvalidPayload means the payload failed local validation.
	ReasonInvalidPayload SubmissionReason = "invalid_payload"
	// ReasonRejected means the ledger client refused the request.
	ReasonRejected SubmissionReason = "rejected"
)

// SubmissionError is returned by Submitter.Submit. No handle exists when it
// is returned.
type SubmissionError struct {
	Reason  SubmissionReason
	Kind    Kind
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	msg := fmt.Sprintf("submit %s: %s: %s", e.Kind, e.Reason, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// ConfirmationError describes a submission the ledger finalized as failed,
// or one whose receipt could not be interpreted.
type ConfirmationError struct {
	Hash   ledger.SubmissionHash
	Kind   Kind
	Reason string
	Err    error
}

func (e *ConfirmationError) Error() string {
	msg := fmt.Sprintf("confirm %s %s: %s", e.Kind, e.Hash, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfirmationError) Unwrap() error {
	return e.Err
}

// ReadError is returned by Reader.Fetch.
type ReadError struct {
	Identifier ledger.Identifier
	Err        error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %d: %v", e.Identifier, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// IsSubmissionReason reports whether err is a SubmissionError with reason r.
func IsSubmissionReason(err error, r SubmissionReason) bool {
	var se *SubmissionError
	if errors.As(err, &se) {
		return se.Reason == r
	}
	return false
}
