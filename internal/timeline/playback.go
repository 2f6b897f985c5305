package timeline

import (
	"slices"

	"github.com/roach88/tempo/internal/interval"
)

// Initialize begins a forward pass at t. Every child whose begin lies at or
// before t is brought up to date: children already ended by t are played as
// instants only if open-ended, the rest are initialized at their local time.
func (tl *Timeline) Initialize(t float64) error {
	if tl.processing {
		tl.enqueueSelf(interval.EventInitialize, t)
		return nil
	}
	if err := tl.CheckStopped("initialize"); err != nil {
		return err
	}
	tl.initialize(t)
	return tl.settle()
}

func (tl *Timeline) initialize(t float64) {
	tl.recompute()
	tl.nextEvent = 0
	tl.active = nil

	now := tl.toTicks(t)
	tl.processing = true
	var newActive []*playbackEvent
	for tl.nextEvent < len(tl.events) && tl.events[tl.nextEvent].time <= now {
		ev := tl.events[tl.nextEvent]
		tl.nextEvent++
		tl.forwardEvent(ev, &newActive, true)
	}
	tl.finishForward(now, newActive)
	tl.processing = false

	tl.SetCurrentT(t)
	tl.SetState(interval.StateStarted)
}

// Instant plays the whole timeline in one call. Only open-ended children
// are dispatched.
func (tl *Timeline) Instant() error {
	if tl.processing {
		tl.enqueueSelf(interval.EventInstant, 0)
		return nil
	}
	if err := tl.CheckStopped("instant"); err != nil {
		return err
	}
	tl.recompute()
	tl.active = nil

	tl.processing = true
	for _, ev := range tl.events {
		if ev.kind != eventBegin {
			tl.enqueueEvent(ev.n, interval.EventInstant, true, 0)
		}
	}
	tl.processing = false
	tl.nextEvent = len(tl.events)

	tl.SetCurrentT(tl.Base.Duration())
	tl.SetState(interval.StateFinal)
	tl.doneOrDefer()
	return tl.settle()
}

// Step moves the timeline to t, forward or backward from its current
// position in the event list.
func (tl *Timeline) Step(t float64) error {
	if tl.processing {
		tl.enqueueSelf(interval.EventStep, t)
		return nil
	}
	if err := tl.CheckStarted("step"); err != nil {
		return err
	}
	now := tl.toTicks(t)

	tl.processing = true
	var newActive []*playbackEvent
	if tl.nextEvent < len(tl.events) && tl.events[tl.nextEvent].time <= now {
		for tl.nextEvent < len(tl.events) && tl.events[tl.nextEvent].time <= now {
			ev := tl.events[tl.nextEvent]
			tl.nextEvent++
			tl.forwardEvent(ev, &newActive, false)
		}
		tl.finishForward(now, newActive)
	} else {
		for tl.nextEvent > 0 && tl.events[tl.nextEvent-1].time > now {
			tl.nextEvent--
			ev := tl.events[tl.nextEvent]
			tl.reverseEvent(ev, &newActive, false)
		}
		tl.finishReverse(now, newActive)
	}
	tl.processing = false

	tl.SetCurrentT(t)
	tl.SetState(interval.StateStarted)
	return tl.settle()
}

// Finalize plays every remaining event and leaves the timeline final.
func (tl *Timeline) Finalize() error {
	if tl.processing {
		tl.enqueueSelf(interval.EventFinalize, 0)
		return nil
	}
	if tl.State() == interval.StateFinal {
		return interval.NewInvalidStateError(tl.Name(), "finalize", tl.State())
	}
	duration := tl.Duration()
	if tl.State() == interval.StateInitial {
		tl.initialize(duration)
	}

	tl.processing = true
	var newActive []*playbackEvent
	for tl.nextEvent < len(tl.events) {
		ev := tl.events[tl.nextEvent]
		tl.nextEvent++
		tl.forwardEvent(ev, &newActive, true)
	}
	tl.finishForward(tl.toTicks(duration), newActive)
	tl.processing = false

	tl.SetCurrentT(duration)
	tl.SetState(interval.StateFinal)
	tl.doneOrDefer()
	return tl.settle()
}

// ReverseInitialize begins a backward pass at t, working from the end of
// the event list.
func (tl *Timeline) ReverseInitialize(t float64) error {
	if tl.processing {
		tl.enqueueSelf(interval.EventReverseInitialize, t)
		return nil
	}
	if err := tl.CheckStopped("reverse_initialize"); err != nil {
		return err
	}
	tl.recompute()
	tl.nextEvent = len(tl.events)
	tl.active = nil

	now := tl.toTicks(t)
	tl.processing = true
	var newActive []*playbackEvent
	for tl.nextEvent > 0 && tl.events[tl.nextEvent-1].time > now {
		tl.nextEvent--
		ev := tl.events[tl.nextEvent]
		tl.reverseEvent(ev, &newActive, true)
	}
	tl.finishReverse(now, newActive)
	tl.processing = false

	tl.SetCurrentT(t)
	tl.SetState(interval.StateStarted)
	return tl.settle()
}

// ReverseInstant plays the whole timeline backward in one call. Only
// open-ended children are dispatched.
func (tl *Timeline) ReverseInstant() error {
	if tl.processing {
		tl.enqueueSelf(interval.EventReverseInstant, 0)
		return nil
	}
	if err := tl.CheckStopped("reverse_instant"); err != nil {
		return err
	}
	tl.recompute()
	tl.active = nil

	tl.processing = true
	for i := len(tl.events) - 1; i >= 0; i-- {
		ev := tl.events[i]
		if ev.kind != eventEnd {
			tl.enqueueEvent(ev.n, interval.EventReverseInstant, true, 0)
		}
	}
	tl.processing = false
	tl.nextEvent = 0

	tl.SetCurrentT(0)
	tl.SetState(interval.StateInitial)
	return tl.settle()
}

// ReverseFinalize plays every event before the current position backward
// and leaves the timeline initial.
func (tl *Timeline) ReverseFinalize() error {
	if tl.processing {
		tl.enqueueSelf(interval.EventReverseFinalize, 0)
		return nil
	}
	if tl.State() == interval.StateInitial {
		return interval.NewInvalidStateError(tl.Name(), "reverse_finalize", tl.State())
	}

	tl.processing = true
	var newActive []*playbackEvent
	for tl.nextEvent > 0 {
		tl.nextEvent--
		ev := tl.events[tl.nextEvent]
		tl.reverseEvent(ev, &newActive, true)
	}
	tl.finishReverse(0, newActive)
	tl.processing = false

	tl.SetCurrentT(0)
	tl.SetState(interval.StateInitial)
	return tl.settle()
}

// Interrupt pauses every active child and the timeline itself.
func (tl *Timeline) Interrupt() error {
	if tl.processing {
		tl.enqueueSelf(interval.EventInterrupt, 0)
		return nil
	}
	switch tl.State() {
	case interval.StatePaused:
		return nil
	case interval.StateStarted:
	default:
		return interval.NewInvalidStateError(tl.Name(), "interrupt", tl.State())
	}

	tl.processing = true
	for _, ev := range tl.active {
		tl.enqueueEvent(ev.n, interval.EventInterrupt, false, 0)
	}
	tl.processing = false

	tl.SetState(interval.StatePaused)
	return tl.settle()
}

// forwardEvent handles one event crossed while moving forward. A begin
// event joins newActive. An end event either closes an active child with
// Finalize or, when its begin was met in this same pass, collapses into an
// Instant. An instant event plays as an Instant.
func (tl *Timeline) forwardEvent(ev *playbackEvent, newActive *[]*playbackEvent, isInitial bool) {
	switch ev.kind {
	case eventBegin:
		*newActive = append(*newActive, ev)

	case eventEnd:
		if i := slices.Index(*newActive, ev.begin); i >= 0 {
			*newActive = slices.Delete(*newActive, i, i+1)
			tl.enqueueEvent(ev.n, interval.EventInstant, isInitial, 0)
		} else if i := slices.Index(tl.active, ev.begin); i >= 0 {
			tl.enqueueEvent(ev.n, interval.EventFinalize, isInitial, 0)
			tl.active = slices.Delete(tl.active, i, i+1)
		} else {
			// Ending something that was never begun: the timeline was
			// modified while playing. Play it as an instant.
			tl.enqueueEvent(ev.n, interval.EventInstant, isInitial, 0)
		}

	case eventInstant:
		tl.enqueueEvent(ev.n, interval.EventInstant, isInitial, 0)
	}
}

// finishForward steps children that stayed active and initializes the ones
// that began in this pass, then merges them into the active set.
func (tl *Timeline) finishForward(now int64, newActive []*playbackEvent) {
	for _, ev := range tl.active {
		tl.enqueueEvent(ev.n, interval.EventStep, false, now-ev.time)
	}
	for _, ev := range newActive {
		tl.enqueueEvent(ev.n, interval.EventInitialize, false, now-ev.time)
		tl.active = append(tl.active, ev)
	}
}

// reverseEvent is the mirror of forwardEvent for backward motion. Events
// are met in decreasing time order, so an end event opens a child and a
// begin event closes it.
func (tl *Timeline) reverseEvent(ev *playbackEvent, newActive *[]*playbackEvent, isInitial bool) {
	switch ev.kind {
	case eventEnd:
		*newActive = slices.Insert(*newActive, 0, ev.begin)

	case eventBegin:
		if i := slices.Index(*newActive, ev); i >= 0 {
			*newActive = slices.Delete(*newActive, i, i+1)
			tl.enqueueEvent(ev.n, interval.EventReverseInstant, isInitial, 0)
		} else if i := slices.Index(tl.active, ev); i >= 0 {
			tl.enqueueEvent(ev.n, interval.EventReverseFinalize, isInitial, 0)
			tl.active = slices.Delete(tl.active, i, i+1)
		} else {
			tl.enqueueEvent(ev.n, interval.EventReverseInstant, isInitial, 0)
		}

	case eventInstant:
		tl.enqueueEvent(ev.n, interval.EventReverseInstant, isInitial, 0)
	}
}

func (tl *Timeline) finishReverse(now int64, newActive []*playbackEvent) {
	for _, ev := range tl.active {
		tl.enqueueEvent(ev.n, interval.EventStep, false, now-ev.time)
	}
	for _, ev := range newActive {
		tl.enqueueEvent(ev.n, interval.EventReverseInitialize, false, now-ev.time)
		tl.active = slices.Insert(tl.active, 0, ev)
	}
}
