// Package harness runs timeline scenarios as executable tests.
//
// A scenario builds one timeline, registers it with a tick registry on a
// manual frame clock, and steps the registry once per listed frame time.
// Every dispatch the timeline performs is recorded as an ir.TraceEvent, so
// the resulting trace can be asserted on or compared against a golden file.
//
// # Scenario Format
//
//	name: intro
//	description: "Fade in with a sound effect"
//	timeline:                  # inline, or timeline_file: show.cue
//	  name: intro
//	  entries:
//	    - {kind: func, name: cue}
//	    - {kind: lerp, name: fade, duration: 1, from: 0, to: 1}
//	play: {rate: 1, loop: false}
//	external: true             # the harness acknowledges external events
//	ticks: [0, 0.5, 1.0, 1.5]
//	assertions:
//	  - {type: dispatch_contains, name: fade, event: initialize}
//	  - {type: final_state, state: final}
//
// # Assertion Types
//
//   - dispatch_contains: a dispatch to name (optionally with event and ticks) occurred
//   - dispatch_order: "name" or "name:event" entries occurred in this order
//   - dispatch_count: exactly count dispatches matched name (and event)
//   - final_state: the timeline ended in the given state
//   - removed: the registry no longer holds the timeline
//   - duration: the timeline's computed duration
//   - value: the last value a lerp entry produced
//
// # Deterministic Testing
//
// The frame clock only moves when the scenario says so, and trace records
// are stamped by a logical sequence counter, so the same scenario always
// yields the same trace.
package harness
