package interval

import (
	"fmt"
	"log/slog"
	"slices"
)

// Interval is the lifecycle contract every action implements.
//
// The lifecycle methods return *Error with ErrCodeInvalidState when called
// from a state that does not permit them. Step may be called with t moving
// in either direction.
type Interval interface {
	// Core returns the shared identity, state and play bookkeeping.
	Core() *Base

	Name() string
	Duration() float64
	OpenEnded() bool
	State() State
	T() float64

	Initialize(t float64) error
	Instant() error
	Step(t float64) error
	Finalize() error
	ReverseInitialize(t float64) error
	ReverseInstant() error
	ReverseFinalize() error
	Interrupt() error
}

// Action is the per-tick work of a leaf interval. Apply is called with the
// local time the interval is being moved to and must not block.
type Action interface {
	Apply(t float64) error
}

// ActionFunc adapts a function to Action.
type ActionFunc func(t float64) error

// Apply calls f(t).
func (f ActionFunc) Apply(t float64) error { return f(t) }

// Interrupter is implemented by actions that hold a resource (for example a
// playing sound) which must be suspended when the interval is paused.
type Interrupter interface {
	OnInterrupt()
}

// Filler is implemented by intervals that only occupy time. A composite
// timestamps filler children but never dispatches events to them.
type Filler interface {
	Filler() bool
}

// Parent receives dirty notifications from a child interval. Parents are
// observers only: a child never owns or keeps alive the composites that
// contain it.
type Parent interface {
	MarkDirty()
}

// Base carries the state every interval shares and implements the default
// lifecycle in terms of an Action.
type Base struct {
	name      string
	duration  float64
	openEnded bool

	state State
	currT float64
	dirty bool

	parents []Parent
	action  Action
	onDone  func()

	autoPause  bool
	autoFinish bool

	play playState
}

var _ Interval = (*Base)(nil)

// NewBase creates an interval in StateInitial. Negative durations are
// treated as zero. action may be nil for intervals that do nothing but
// occupy time.
func NewBase(name string, duration float64, openEnded bool, action Action) *Base {
	return &Base{
		name:      name,
		duration:  max(duration, 0),
		openEnded: openEnded,
		action:    action,
	}
}

// Core returns b.
func (b *Base) Core() *Base { return b }

// Name returns the interval name. Names need not be unique.
func (b *Base) Name() string { return b.name }

// OpenEnded reports whether an orchestrator that skips over this interval
// entirely during an initialize or finalize pass should still play it.
func (b *Base) OpenEnded() bool { return b.openEnded }

// State returns the lifecycle state.
func (b *Base) State() State { return b.state }

// T returns the current local time.
func (b *Base) T() float64 { return b.currT }

// Duration returns the nominal duration.
func (b *Base) Duration() float64 {
	b.dirty = false
	return b.duration
}

// Dirty reports whether the duration must be recomputed before use.
func (b *Base) Dirty() bool { return b.dirty }

// SetDuration changes the nominal duration and notifies every parent.
func (b *Base) SetDuration(d float64) {
	b.duration = max(d, 0)
	b.dirty = true
	b.notifyParents()
}

// SetComputedDuration records a duration derived by a composite's recompute
// pass and clears the dirty flag. Parents are not notified: they were
// already marked when this interval became dirty.
func (b *Base) SetComputedDuration(d float64) {
	b.duration = max(d, 0)
	b.dirty = false
}

// MarkDirty flags the interval and every containing composite, transitively.
// An interval that is already dirty stops the propagation: its parents were
// marked when it became dirty.
func (b *Base) MarkDirty() {
	if b.dirty {
		return
	}
	b.dirty = true
	b.notifyParents()
}

func (b *Base) notifyParents() {
	for _, p := range b.parents {
		p.MarkDirty()
	}
}

// AddParent registers a composite that contains this interval.
func (b *Base) AddParent(p Parent) {
	b.parents = append(b.parents, p)
}

// RemoveParent deregisters one occurrence of p. It reports whether p was
// registered.
func (b *Base) RemoveParent(p Parent) bool {
	i := slices.Index(b.parents, p)
	if i < 0 {
		return false
	}
	b.parents = slices.Delete(b.parents, i, i+1)
	return true
}

// NumParents returns the number of registered parents.
func (b *Base) NumParents() int { return len(b.parents) }

// OnDone sets the function called whenever the interval reaches its final
// state through Instant or Finalize.
func (b *Base) OnDone(fn func()) { b.onDone = fn }

// Done fires the done notification.
func (b *Base) Done() {
	slog.Debug("interval done", "interval", b.name)
	if b.onDone != nil {
		b.onDone()
	}
}

// SetState is used by composite implementations that drive their own
// lifecycle.
func (b *Base) SetState(s State) { b.state = s }

// SetCurrentT is used by composite implementations that drive their own
// lifecycle.
func (b *Base) SetCurrentT(t float64) { b.currT = t }

// AutoPause reports whether a bulk registry interrupt should pause this
// interval.
func (b *Base) AutoPause() bool { return b.autoPause }

// SetAutoPause sets the auto-pause flag.
func (b *Base) SetAutoPause(v bool) { b.autoPause = v }

// AutoFinish reports whether a bulk registry interrupt should finish this
// interval.
func (b *Base) AutoFinish() bool { return b.autoFinish }

// SetAutoFinish sets the auto-finish flag.
func (b *Base) SetAutoFinish(v bool) { b.autoFinish = v }

// CheckStopped returns an invalid-state error unless a fresh initialization
// may begin.
func (b *Base) CheckStopped(op string) error {
	if !b.state.Stopped() {
		return NewInvalidStateError(b.name, op, b.state)
	}
	return nil
}

// CheckStarted returns an invalid-state error unless the interval is
// started or paused.
func (b *Base) CheckStarted(op string) error {
	if b.state != StateStarted && b.state != StatePaused {
		return NewInvalidStateError(b.name, op, b.state)
	}
	return nil
}

func (b *Base) String() string {
	return fmt.Sprintf("%s dur %g", b.name, b.duration)
}

// stepTo applies the action at t and records the new time. A NotSameGraph
// failure skips the step with no state change. Initialize and
// ReverseInitialize still leave the interval started when their first step
// is skipped, so later ticks can step it.
func (b *Base) stepTo(op string, t float64) error {
	if b.action != nil {
		if err := b.action.Apply(t); err != nil {
			if IsNotSameGraph(err) {
				slog.Warn("skipping step", "interval", b.name, "op", op, "error", err)
				return nil
			}
			return fmt.Errorf("%s %q: %w", op, b.name, err)
		}
	}
	b.state = StateStarted
	b.currT = t
	return nil
}

// Initialize begins a forward pass at local time t. The interval is started
// even when a NotSameGraph failure skips the first step.
func (b *Base) Initialize(t float64) error {
	if err := b.CheckStopped("initialize"); err != nil {
		return err
	}
	b.state = StateStarted
	return b.stepTo("initialize", t)
}

// Instant plays the whole interval within one call.
func (b *Base) Instant() error {
	if err := b.CheckStopped("instant"); err != nil {
		return err
	}
	d := b.Duration()
	b.state = StateStarted
	if err := b.stepTo("instant", d); err != nil {
		return err
	}
	b.state = StateFinal
	b.currT = d
	b.Done()
	return nil
}

// Step advances the action to local time t.
func (b *Base) Step(t float64) error {
	if err := b.CheckStarted("step"); err != nil {
		return err
	}
	return b.stepTo("step", t)
}

// Finalize steps to the full duration and ends in StateFinal. It is legal
// from any state but StateFinal.
func (b *Base) Finalize() error {
	if b.state == StateFinal {
		return NewInvalidStateError(b.name, "finalize", b.state)
	}
	d := b.Duration()
	if err := b.stepTo("finalize", d); err != nil {
		return err
	}
	b.state = StateFinal
	b.currT = d
	b.Done()
	return nil
}

// ReverseInitialize begins a backward pass at local time t. As with
// Initialize, a skipped first step still starts the interval.
func (b *Base) ReverseInitialize(t float64) error {
	if err := b.CheckStopped("reverse_initialize"); err != nil {
		return err
	}
	b.state = StateStarted
	return b.stepTo("reverse_initialize", t)
}

// ReverseInstant undoes the whole interval within one call, ending in
// StateInitial.
func (b *Base) ReverseInstant() error {
	if err := b.CheckStopped("reverse_instant"); err != nil {
		return err
	}
	b.state = StateStarted
	if err := b.stepTo("reverse_instant", 0); err != nil {
		return err
	}
	b.state = StateInitial
	b.currT = 0
	return nil
}

// ReverseFinalize steps back to time zero and ends in StateInitial. It is
// legal from any state but StateInitial.
func (b *Base) ReverseFinalize() error {
	if b.state == StateInitial {
		return NewInvalidStateError(b.name, "reverse_finalize", b.state)
	}
	if err := b.stepTo("reverse_finalize", 0); err != nil {
		return err
	}
	b.state = StateInitial
	b.currT = 0
	return nil
}

// Interrupt pauses a started interval in place. Interrupting a paused
// interval does nothing.
func (b *Base) Interrupt() error {
	switch b.state {
	case StateStarted:
		if in, ok := b.action.(Interrupter); ok {
			in.OnInterrupt()
		}
		b.state = StatePaused
		return nil
	case StatePaused:
		return nil
	default:
		return NewInvalidStateError(b.name, "interrupt", b.state)
	}
}
