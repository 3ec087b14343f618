// Package ir provides the canonical value representation shared by every
// layer of cruxtx.
//
// Document payloads, function arguments and the wire form of operations are
// all expressed as IRValue trees. ir imports nothing internal; every other
// package may import it.
//
// Constraints carried by every IRValue:
//   - no floats: numbers are int64
//   - no null inside canonical output
//   - object keys ordered by UTF-16 code units (RFC 8785)
//   - strings NFC-normalized at construction (Normalize), never by encoding
package ir
