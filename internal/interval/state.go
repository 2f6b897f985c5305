package interval

// State is the lifecycle state of an interval.
type State int

const (
	// StateInitial is the state before the interval has started, and the
	// state a reverse pass ends in.
	StateInitial State = iota
	// StateStarted means the interval is between initialize and finalize.
	StateStarted
	// StatePaused means the interval was interrupted while started. The next
	// Step returns it to StateStarted.
	StatePaused
	// StateFinal is the state after a forward pass has completed.
	StateFinal
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateStarted:
		return "started"
	case StatePaused:
		return "paused"
	case StateFinal:
		return "final"
	default:
		return "unknown"
	}
}

// Stopped reports whether a fresh initialization may begin from s.
func (s State) Stopped() bool {
	return s == StateInitial || s == StateFinal
}

// EventType names a lifecycle operation so it can be queued and dispatched
// later by an orchestrator.
type EventType int

const (
	EventInitialize EventType = iota + 1
	EventInstant
	EventStep
	EventFinalize
	EventReverseInitialize
	EventReverseInstant
	EventReverseFinalize
	EventInterrupt
)

var eventNames = map[EventType]string{
	EventInitialize:        "initialize",
	EventInstant:           "instant",
	EventStep:              "step",
	EventFinalize:          "finalize",
	EventReverseInitialize: "reverse_initialize",
	EventReverseInstant:    "reverse_instant",
	EventReverseFinalize:   "reverse_finalize",
	EventInterrupt:         "interrupt",
}

func (e EventType) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return "unknown"
}

// ParseEventType is the inverse of EventType.String.
func ParseEventType(s string) (EventType, bool) {
	for et, name := range eventNames {
		if name == s {
			return et, true
		}
	}
	return 0, false
}

// Timed reports whether the event carries a meaningful local time.
func (e EventType) Timed() bool {
	return e == EventInitialize || e == EventReverseInitialize || e == EventStep
}

// Do dispatches the named event to iv. t is only used by timed events.
func Do(iv Interval, e EventType, t float64) error {
	switch e {
	case EventInitialize:
		return iv.Initialize(t)
	case EventInstant:
		return iv.Instant()
	case EventStep:
		return iv.Step(t)
	case EventFinalize:
		return iv.Finalize()
	case EventReverseInitialize:
		return iv.ReverseInitialize(t)
	case EventReverseInstant:
		return iv.ReverseInstant()
	case EventReverseFinalize:
		return iv.ReverseFinalize()
	case EventInterrupt:
		return iv.Interrupt()
	default:
		return &Error{
			Code:     ErrCodeInvalidState,
			Op:       "do",
			Interval: iv.Name(),
			State:    iv.State(),
			Message:  "unknown event type",
		}
	}
}
