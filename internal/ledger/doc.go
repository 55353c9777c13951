// Package ledger defines the boundary to the external ledger client: session
// and network identity, read-only queries, mutation submission and receipt
// waiting. It also holds the value types shared across the reconciler
// (identifiers, weather readings, resource records) and an in-memory
// Simulator that stands in for the deployed token contract.
//
// Signing and broadcast are owned by the Client implementation; nothing in
// this module constructs or signs transactions.
package ledger
