// Package interval implements the lifecycle contract shared by every
// time-parameterized action in tempo.
//
// An Interval is a named action with a nominal duration that is advanced
// forward or backward through local time by a caller. Every implementation
// follows the same state machine:
//
//	initial --Initialize/ReverseInitialize--> started --Finalize--> final
//	started --Interrupt--> paused --Step--> started
//	final   --ReverseInitialize--> started --ReverseFinalize--> initial
//
// Instant and ReverseInstant collapse a whole pass into one call.
//
// Leaf actions embed *Base and supply an Action whose Apply method performs
// the per-tick work. Composite intervals (see package timeline) embed *Base
// for identity, state and play bookkeeping and override the lifecycle
// methods themselves.
//
// # Self-driving mode
//
// SetupPlay and StepPlay let an interval compute its own local time from a
// frame clock. StepPlay issues the correct Initialize/Step/Finalize (or
// reverse) calls for the elapsed time and counts whole loops that were
// skipped since the previous poll. The registry polls StepPlay once per tick.
//
// # Threading
//
// Nothing in this package is safe for concurrent use. All calls happen on
// the driver's goroutine, synchronously, once per tick.
package interval
