// Package registry keeps the set of self-driving intervals and advances them
// once per frame.
//
// Each registered interval occupies a slot. Slot indexes are stable for the
// interval's lifetime and are reused through a freelist once released. A
// name index maps each NFC-normalized name to at most one slot: adding an
// interval under a name that is already taken finishes and evicts the old
// occupant first.
//
// External intervals are driven by the host. When they stop they are not
// released immediately but queued as pending removals, so the host can tear
// down whatever it associated with the slot before NextRemoval frees it.
//
// A Registry is not safe for concurrent use. It is meant to be owned by the
// single goroutine that drives the frame loop.
package registry
