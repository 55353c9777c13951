// Package resource implements the three leaf operations the reconciler
// drives against the ledger:
//
//   - Reader fetches a token's current record (pure query, never cached)
//   - Submitter dispatches one create or update and returns a pending handle
//   - Waiter resolves a handle to confirmed or failed, exactly once
//
// None of them retry. Failures surface as typed errors (SubmissionError,
// ConfirmationError, ReadError) so the engine can classify them with
// errors.As.
package resource
