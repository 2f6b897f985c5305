package timeline

import (
	"errors"
	"log/slog"

	"github.com/roach88/tempo/internal/interval"
)

const (
	selfEntry = -1
	doneEntry = -2
)

// queueEntry is a deferred event. n indexes defs, or is selfEntry for a
// reentrant call on the timeline itself, or doneEntry for a deferred done
// notification.
type queueEntry struct {
	n     int
	event interval.EventType
	time  int64
}

// ExternalEvent is an event the driver must execute on behalf of an
// external definition.
type ExternalEvent struct {
	Index  int
	Handle int
	Name   string
	Event  interval.EventType
	T      float64
}

// ErrNoExternalEvent is returned by AckEvent when no external event is at
// the head of the queue.
var ErrNoExternalEvent = errors.New("timeline: no external event pending")

// enqueueEvent delivers an event to definition n. During an initial pass,
// instants for children that are not open-ended are dropped. A native child
// runs immediately when nothing is queued ahead of it. External events are
// always queued.
func (tl *Timeline) enqueueEvent(n int, event interval.EventType, isInitial bool, ticks int64) {
	d := &tl.defs[n]
	skippable := isInitial && (event == interval.EventInstant || event == interval.EventReverseInstant)

	switch d.kind {
	case defChild:
		if skippable && !d.child.OpenEnded() {
			return
		}
		if len(tl.queue) == 0 {
			tl.dispatch(n, event, ticks)
			return
		}
	case defExternal:
		if skippable && !d.openEnded {
			return
		}
	default:
		slog.Error("event for level definition", "timeline", tl.Name(), "def", n)
		return
	}
	tl.queue = append(tl.queue, queueEntry{n: n, event: event, time: ticks})
}

func (tl *Timeline) enqueueSelf(event interval.EventType, t float64) {
	slog.Info("recursive reentry detected", "timeline", tl.Name(), "event", event.String())
	tl.queue = append(tl.queue, queueEntry{n: selfEntry, event: event, time: tl.toTicks(t)})
}

func (tl *Timeline) doneOrDefer() {
	if len(tl.queue) == 0 {
		tl.Done()
		return
	}
	tl.queue = append(tl.queue, queueEntry{n: doneEntry})
}

func (tl *Timeline) dispatch(n int, event interval.EventType, ticks int64) {
	d := &tl.defs[n]
	t := tl.toSeconds(ticks)
	if err := interval.Do(d.child, event, t); err != nil {
		slog.Error("child event failed", "timeline", tl.Name(), "child", d.child.Name(), "event", event.String(), "error", err)
		tl.errs = append(tl.errs, err)
	}
	tl.notify(Dispatch{Timeline: tl.Name(), Index: n, Name: d.child.Name(), Event: event, T: t})
}

// settle runs whatever the finished pass left in the queue and returns the
// child failures collected along the way.
func (tl *Timeline) settle() error {
	tl.serviceQueue()
	return tl.takeErrors()
}

// serviceQueue runs queued native and self entries in arrival order until
// it reaches an external event or the queue is empty.
func (tl *Timeline) serviceQueue() {
	if tl.servicing || tl.processing {
		return
	}
	tl.servicing = true
	defer func() { tl.servicing = false }()

	for len(tl.queue) > 0 {
		e := tl.queue[0]
		switch {
		case e.n == selfEntry:
			tl.queue = tl.queue[1:]
			if err := interval.Do(tl, e.event, tl.toSeconds(e.time)); err != nil {
				tl.errs = append(tl.errs, err)
			}
		case e.n == doneEntry:
			tl.queue = tl.queue[1:]
			tl.Done()
		case tl.defs[e.n].kind == defExternal:
			return
		default:
			tl.queue = tl.queue[1:]
			tl.dispatch(e.n, e.event, e.time)
		}
	}
}

// ServiceQueue runs every queued native event that is not waiting behind an
// external one. It reports whether an external event is ready, together
// with any child failures.
func (tl *Timeline) ServiceQueue() (bool, error) {
	tl.serviceQueue()
	return tl.externalReady(), tl.takeErrors()
}

// EventReady reports whether an external event is waiting for the driver.
// Child failures met while servicing the queue are logged only.
func (tl *Timeline) EventReady() bool {
	ready, _ := tl.ServiceQueue()
	return ready
}

func (tl *Timeline) externalReady() bool {
	return len(tl.queue) > 0 && tl.queue[0].n >= 0 && tl.defs[tl.queue[0].n].kind == defExternal
}

// NextEvent returns the external event at the head of the queue without
// removing it.
func (tl *Timeline) NextEvent() (ExternalEvent, bool) {
	if !tl.EventReady() {
		return ExternalEvent{}, false
	}
	e := tl.queue[0]
	d := &tl.defs[e.n]
	return ExternalEvent{
		Index:  e.n,
		Handle: d.handle,
		Name:   d.name,
		Event:  e.event,
		T:      tl.toSeconds(e.time),
	}, true
}

// AckEvent acknowledges the external event returned by NextEvent and runs
// the queued events behind it.
func (tl *Timeline) AckEvent() error {
	if !tl.externalReady() {
		return ErrNoExternalEvent
	}
	e := tl.queue[0]
	tl.queue = tl.queue[1:]
	d := &tl.defs[e.n]
	tl.notify(Dispatch{Timeline: tl.Name(), Index: e.n, Name: d.name, Event: e.event, T: tl.toSeconds(e.time), External: true, Handle: d.handle})
	return tl.settle()
}

// Drained reports whether nothing is left in the queue.
func (tl *Timeline) Drained() bool {
	return len(tl.queue) == 0
}

// Pending returns the number of queued entries.
func (tl *Timeline) Pending() int {
	return len(tl.queue)
}
