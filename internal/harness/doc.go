// Package harness runs transaction scenarios against a fresh store.
//
// A scenario submits a sequence of transaction files and checks how each
// one was received, then asserts on the resulting store.
//
// # Scenario Format
//
//	name: overlapping_delete_rejected
//	description: "A delete overlapping a put in one log is rejected"
//	steps:
//	  - ops:
//	      - put: {id: ":person/ivan", doc: {name: Ivan}, valid_from: 2024-01-01}
//	    expect: {outcome: committed}
//	  - file: fixtures/conflict.yaml
//	    expect: {outcome: rejected, code: CONFLICTING_IDENTITY}
//	assertions:
//	  - type: latest
//	    seq: 1
//	  - type: history_kinds
//	    id: ":person/ivan"
//	    kinds: [put]
//
// A step either lists ops inline or names a transaction file relative to
// the scenario. Outcomes are committed, duplicate and rejected.
//
// # Assertion Types
//
//   - latest: the highest committed sequence number
//   - tx_ops: the operation count of one stored transaction
//   - history_count: how many stored operations touch an identity
//   - history_kinds: the exact kind sequence of an identity's history
//
// # Deterministic Testing
//
// Every run uses an in-memory SQLite store and testutil.DeterministicClock,
// so transaction times, and therefore golden traces, are identical across
// runs.
package harness
