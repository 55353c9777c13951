package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/ecosoul/internal/resource"
)

// ErrorCode categorizes the errors the engine reports through LastError.
type ErrorCode string

const (
	// CodeConnection means there is no active wallet session.
	CodeConnection ErrorCode = "CONNECTION"

	// CodeNetworkMismatch means the session points at a non-target network.
	CodeNetworkMismatch ErrorCode = "NETWORK_MISMATCH"

	// CodeValidation means the submitter refused the payload locally.
	CodeValidation ErrorCode = "VALIDATION"

	// CodeSubmission means the ledger client refused the mutation.
	CodeSubmission ErrorCode = "SUBMISSION"

	// CodeConfirmation means the mutation failed on the ledger, its receipt
	// was unusable, or the confirmation deadline expired.
	CodeConfirmation ErrorCode = "CONFIRMATION"

	// CodeRead means the post-confirmation re-read failed.
	CodeRead ErrorCode = "READ"

	// CodeInProgress means a cycle was already running.
	CodeInProgress ErrorCode = "IN_PROGRESS"
)

// ErrorInfo is the error recorded in the view. It is immutable once
// published.
type ErrorInfo struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ErrorInfo) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ErrorInfo) Unwrap() error {
	return e.Cause
}

// IsCode reports whether err is an ErrorInfo with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code ErrorCode) bool {
	var info *ErrorInfo
	if errors.As(err, &info) {
		return info.Code == code
	}
	return false
}

// IsInProgress reports whether err rejected a call made during a cycle.
func IsInProgress(err error) bool {
	return IsCode(err, CodeInProgress)
}

func errInProgress() *ErrorInfo {
	return &ErrorInfo{Code: CodeInProgress, Message: "operation in progress"}
}

// classify maps a collaborator error onto the engine's error codes.
func classify(err error) *ErrorInfo {
	var info *ErrorInfo
	if errors.As(err, &info) {
		return info
	}

	var se *resource.SubmissionError
	if errors.As(err, &se) {
		code := CodeSubmission
		switch se.Reason {
		case resource.ReasonNotConnected:
			code = CodeConnection
		case resource.ReasonWrongNetwork:
			code = CodeNetworkMismatch
		case resource.ReasonInvalidPayload:
			code = CodeValidation
		}
		return &ErrorInfo{Code: code, Message: se.Message, Cause: err}
	}

	var ce *resource.ConfirmationError
	if errors.As(err, &ce) {
		return &ErrorInfo{Code: CodeConfirmation, Message: ce.Reason, Cause: err}
	}

	var re *resource.ReadError
	if errors.As(err, &re) {
		return &ErrorInfo{Code: CodeRead, Message: "could not read state: " + unwrapMessage(re), Cause: err}
	}

	return &ErrorInfo{Code: CodeSubmission, Message: err.Error(), Cause: err}
}

func unwrapMessage(re *resource.ReadError) string {
	if re.Err == nil {
		return "unknown error"
	}
	return re.Err.Error()
}
