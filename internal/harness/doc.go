// Package harness runs ecosoul scenarios end to end.
//
// A scenario is a YAML file describing a simulated ledger, a sequence of
// steps (record an activity, switch network, inject a rejection, a revert
// or a read failure) and assertions over the result. Each run gets a fresh
// simulator, a fresh in-memory journal and deterministic identifiers, so
// the same scenario always yields byte-identical traces.
//
// Steps drive the real engine: every record step is a full reconciliation
// cycle against the simulator, and the trace is read back from the journal
// the engine wrote.
//
// Assertion types:
//
//	trace_contains   a transition with the given from/to phases and detail subset
//	trace_order      target phases appear in the given order
//	trace_count      number of transitions into a phase
//	final_state      subset match on the final view, or on a journal table row
//	submission_count number of mutations the ledger received
//
// Golden traces live in testdata/golden and are compared with goldie.
package harness
