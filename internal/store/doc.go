// Package store provides the SQLite-backed session journal for ecosoul.
//
// The journal records every reconciliation cycle and each phase transition
// inside it:
//   - cycles: one row per recordActivity call that reached Submitting
//   - transitions: from/to phase pairs with a canonical JSON detail payload
//
// The journal is an audit trail for the current session only. The engine
// never reads it back to rebuild view state, and the default DSN is
// ":memory:" so nothing outlives the process.
//
// # Ordering
//
// All ordering uses the engine's logical seq. Queries always ORDER BY seq.
//
// # Database Configuration
//
//   - WAL mode when file backed
//   - busy_timeout=5000
//   - foreign_keys=ON
//   - a single connection, so ":memory:" stays one database
package store
