// Package tx defines the transaction operations a client submits to a
// bitemporal document store.
//
// The operation set is closed: Put, Delete, Match, Evict and Fn. Each is an
// immutable value built by a constructor that checks its invariants exactly
// once. Consumers handle operations through Visitor and Accept, which route
// statically to one method per variant; a new variant breaks every existing
// Visitor at compile time.
//
// Operations compare structurally (Equal) and carry a content hash (Hash)
// computed over the variant discriminator and all fields, so equal
// operations always hash equal and may be deduplicated by value.
package tx
