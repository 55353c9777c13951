package resource

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/ecosoul/internal/ledger"
	"github.com/roach88/ecosoul/internal/schema"
)

// Waiter resolves pending handles to a terminal result.
//
// Await blocks for as long as the ledger takes; bounding it is the
// caller's job via ctx. Each handle resolves exactly once: the first
// terminal result is cached and every later Await returns it unchanged.
//
// Thread-safety: safe for concurrent use.
type Waiter struct {
	client ledger.Client
	schema schema.Schema

	mu       sync.Mutex
	resolved map[ledger.SubmissionHash]ConfirmationResult
}

// NewWaiter creates a Waiter.
func NewWaiter(client ledger.Client, s schema.Schema) *Waiter {
	return &Waiter{
		client:   client,
		schema:   s,
		resolved: make(map[ledger.SubmissionHash]ConfirmationResult),
	}
}

// Await waits for h to finalize. A non-nil error means the wait itself was
// abandoned (ctx done) and h is still unresolved; ledger-side failures are
// reported through a result with StatusFailed.
func (w *Waiter) Await(ctx context.Context, h RequestHandle) (ConfirmationResult, error) {
	if res, ok := w.cached(h.Hash); ok {
		return res, nil
	}

	receipt, err := w.client.WaitForSubmission(ctx, h.Hash)
	if err != nil && ctx.Err() != nil {
		return ConfirmationResult{}, ctx.Err()
	}

	var res ConfirmationResult
	if err != nil {
		res = w.failed(h, "receipt unavailable", err)
	} else {
		res = w.interpret(h, receipt)
	}
	return w.store(h.Hash, res), nil
}

func (w *Waiter) interpret(h RequestHandle, receipt ledger.Receipt) ConfirmationResult {
	if receipt.Status != ledger.ReceiptSuccess {
		reason := receipt.Reason
		if reason == "" {
			reason = "transaction " + receipt.Status.String()
		}
		return w.failed(h, reason, nil)
	}

	res := ConfirmationResult{
		SubmissionID: h.SubmissionID,
		Hash:         h.Hash,
		Kind:         h.Kind,
		Status:       StatusConfirmed,
	}
	if h.Kind != KindCreate {
		return res
	}

	// The identifier comes from the emitted event, never from local counting.
	ev, ok := receipt.FindEvent(w.schema.CreatedEvent)
	if !ok {
		return w.failed(h, fmt.Sprintf("receipt has no %s event", w.schema.CreatedEvent), nil)
	}
	raw, ok := ev.Fields[w.schema.IdentifierField]
	if !ok {
		return w.failed(h, fmt.Sprintf("%s event has no %s field", w.schema.CreatedEvent, w.schema.IdentifierField), nil)
	}
	n, err := ledger.Uint64(raw)
	if err != nil {
		return w.failed(h, "undecodable identifier", err)
	}
	id := ledger.Identifier(n)
	res.Identifier = &id
	return res
}

func (w *Waiter) failed(h RequestHandle, reason string, err error) ConfirmationResult {
	return ConfirmationResult{
		SubmissionID: h.SubmissionID,
		Hash:         h.Hash,
		Kind:         h.Kind,
		Status:       StatusFailed,
		Err:          &ConfirmationError{Hash: h.Hash, Kind: h.Kind, Reason: reason, Err: err},
	}
}

func (w *Waiter) cached(hash ledger.SubmissionHash) (ConfirmationResult, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	res, ok := w.resolved[hash]
	return res, ok
}

// store records a terminal res unless another Await resolved the handle
// first, and returns whichever result won.
func (w *Waiter) store(hash ledger.SubmissionHash, res ConfirmationResult) ConfirmationResult {
	if !res.Status.Terminal() {
		return res
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if prev, ok := w.resolved[hash]; ok {
		return prev
	}
	w.resolved[hash] = res
	return res
}
