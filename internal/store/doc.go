// Package store is a SQLite-backed sink for transaction logs.
//
// The store is append-only. Each submitted log becomes one row in
// transactions, holding its canonical wire body, and one row per operation
// in operations, holding what an indexer needs to find it again: the kind,
// the identity touched, the validity window and the operation's own body.
//
// The store records and returns logs; it does not evaluate them. Match
// preconditions, Fn expansion and bitemporal queries belong to the engine
// that consumes the log.
//
// # Idempotency
//
// transactions.log_hash is UNIQUE. Submitting a log equal to one already
// stored returns the original sequence number and inserts nothing.
//
// # Ordering
//
// seq is assigned by SQLite and defines transaction-time order. Every read
// orders by (seq, position); wall-clock tx_time is never used for ordering.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
