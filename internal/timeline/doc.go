// Package timeline implements the composite interval: an ordered list of
// child definitions flattened into a single time-sorted event list and
// played forward or backward through that list.
//
// # Definitions
//
// A Timeline is built by appending definitions:
//
//   - AddChild: an owned child interval, placed relative to its previous
//     sibling's end, its previous sibling's begin, or the begin of the
//     enclosing level.
//   - AddExternal: a placeholder for an action that lives outside the
//     scheduler, known only by an opaque integer handle.
//   - PushLevel / PopLevel: a nested level whose LevelBegin anchor is
//     independent of its siblings. PopLevel may assign a fixed duration.
//
// # Flattening
//
// Before any time-dependent query the definitions are resolved into
// absolute begin/end times, quantized to integer ticks (Precision ticks per
// second) so floating-point drift can never reorder coincident events, and
// emitted as begin/end pairs or single instant events. Events are stably
// sorted by time, so events at the same instant keep authoring order.
//
// # Playback
//
// Initialize, Step, Finalize and their reverse counterparts scan the event
// list from where the previous call stopped, dispatching Instant/Finalize
// (or the reverse forms) to children whose spans were crossed and then
// Step/Initialize to children that remain active, in the order their begin
// events were met.
//
// # Pending queue
//
// A Timeline never recurses into itself. A lifecycle call that arrives
// while a pass is executing (for example from a child's callback) is queued
// and run after the pass. Events for external definitions are also queued:
// they wait at the head of the queue until the driver reads them with
// NextEvent and acknowledges them with AckEvent. Native child events queued
// behind an external one wait with it, preserving order.
package timeline
