package ledger

import (
	"context"
	"errors"
)

// Client is the ledger client collaborator.
//
// Implementations must be safe for concurrent use. WaitForSubmission may
// block for an unbounded time; callers bound it with ctx.
type Client interface {
	// Connect establishes a session, or returns the existing one.
	Connect(ctx context.Context) (Session, error)

	// CurrentSession reports the active session without any network I/O.
	CurrentSession() (Session, bool)

	// Query calls a read-only method on the contract at address.
	Query(ctx context.Context, address, method string, args ...any) (Values, error)

	// Submit dispatches a state-changing method call and returns as soon as
	// the ledger has accepted it.
	Submit(ctx context.Context, address, method string, args ...any) (SubmissionHash, error)

	// WaitForSubmission blocks until the submission is finalized.
	WaitForSubmission(ctx context.Context, hash SubmissionHash) (Receipt, error)
}

// Sentinel errors returned by clients.
var (
	ErrNotConnected      = errors.New("no active session")
	ErrUnknownIdentifier = errors.New("unknown identifier")
	ErrUnknownSubmission = errors.New("unknown submission")
	ErrUnknownMethod     = errors.New("unknown method")
)
