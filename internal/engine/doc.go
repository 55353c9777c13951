// Package engine implements the eco-score reconciliation engine.
//
// The engine owns the client-side view of one eco-score resource: its
// identifier, the last record read from the ledger, the cumulative score
// earned this session, the current and previous activity labels, the
// pending mutation and the last error.
//
// A recordActivity call drives one cycle through the phases
//
//	Idle -> Submitting -> AwaitingConfirmation -> Refetching -> Idle
//
// with failures passing through Failed back to Idle. Only one cycle runs at
// a time: the entry guard checks the phase under the view mutex and refuses
// new work with IN_PROGRESS while a cycle is active.
//
// Single-writer execution:
// Cycles run either inline through Do or on the Run loop goroutine after
// RecordActivity queues them. Every transition is one locked update of the
// view, stamped with a logical sequence number from Clock, journalled, and
// then delivered to subscribers in order.
//
// Local state is never advanced past what the ledger confirmed. The
// identifier comes from the confirmation's creation event and the score only
// grows after a successful re-read.
package engine
