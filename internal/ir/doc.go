// Package ir holds the declarative types shared by the compiler, harness,
// store and CLI: timeline descriptions and trace records.
//
// ir imports nothing internal, so every other package can depend on it.
//
// Trace records are serialized with MarshalCanonical (RFC 8785 key order,
// NFC strings, no floats, no nulls) so that golden snapshots and stored
// digests are byte-stable. Times in trace records are integer ticks for the
// same reason.
package ir
