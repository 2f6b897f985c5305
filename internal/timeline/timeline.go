package timeline

import (
	"errors"
	"math"

	"github.com/roach88/tempo/internal/interval"
)

// DefaultPrecision is the number of integer ticks per second used to
// quantize event times.
const DefaultPrecision = 1000.0

// RelativeStart selects the anchor a definition's offset is measured from.
type RelativeStart int

const (
	// PreviousEnd anchors at the end of the previous sibling.
	PreviousEnd RelativeStart = iota
	// PreviousBegin anchors at the begin of the previous sibling.
	PreviousBegin
	// LevelBegin anchors at the begin of the enclosing level.
	LevelBegin
)

func (r RelativeStart) String() string {
	switch r {
	case PreviousEnd:
		return "previous_end"
	case PreviousBegin:
		return "previous_begin"
	case LevelBegin:
		return "level_begin"
	default:
		return "invalid"
	}
}

// ParseRelativeStart is the inverse of RelativeStart.String. An empty string
// means PreviousEnd.
func ParseRelativeStart(s string) (RelativeStart, bool) {
	switch s {
	case "", "previous_end":
		return PreviousEnd, true
	case "previous_begin":
		return PreviousBegin, true
	case "level_begin":
		return LevelBegin, true
	default:
		return 0, false
	}
}

// Dispatch describes one event delivered to a child, or one external event
// acknowledged by the driver.
type Dispatch struct {
	Timeline string
	Index    int
	Name     string
	Event    interval.EventType
	T        float64
	External bool

	// Handle identifies the host action of an external dispatch.
	Handle int
}

// Observer is told about every dispatch a Timeline performs.
type Observer func(Dispatch)

// Option configures a Timeline.
type Option func(*Timeline)

// WithPrecision sets the number of ticks per second. Non-positive values are
// ignored.
func WithPrecision(p float64) Option {
	return func(tl *Timeline) {
		if p > 0 {
			tl.precision = p
		}
	}
}

// WithObserver installs a dispatch observer.
func WithObserver(o Observer) Option {
	return func(tl *Timeline) {
		tl.observer = o
	}
}

// Timeline is a composite interval.
//
// A Timeline exclusively owns its child intervals. Each child holds the
// Timeline only as a dirty-notification observer.
type Timeline struct {
	*interval.Base

	precision float64
	observer  Observer

	defs    []def
	nesting int

	events    []*playbackEvent
	active    []*playbackEvent
	nextEvent int

	processing bool
	servicing  bool
	queue      []queueEntry

	warnings []error
	errs     []error
}

var _ interval.Interval = (*Timeline)(nil)

// New creates an empty timeline. Timelines are open-ended.
func New(name string, opts ...Option) *Timeline {
	tl := &Timeline{
		Base:      interval.NewBase(name, 0, true, nil),
		precision: DefaultPrecision,
	}
	for _, opt := range opts {
		opt(tl)
	}
	return tl
}

// Precision returns the number of ticks per second.
func (tl *Timeline) Precision() float64 { return tl.precision }

// Duration returns the flattened duration, recomputing first if needed.
func (tl *Timeline) Duration() float64 {
	tl.recompute()
	return tl.Base.Duration()
}

// Warnings returns the structure warnings raised by the last flattening.
func (tl *Timeline) Warnings() []error {
	tl.recompute()
	return tl.warnings
}

// ActiveNames returns the names of the definitions currently between their
// begin and end, in activation order.
func (tl *Timeline) ActiveNames() []string {
	names := make([]string, 0, len(tl.active))
	for _, ev := range tl.active {
		names = append(names, tl.defs[ev.n].displayName())
	}
	return names
}

func (tl *Timeline) toTicks(t float64) int64 {
	return int64(math.Floor(t*tl.precision + 0.5))
}

func (tl *Timeline) toSeconds(ticks int64) float64 {
	return float64(ticks) / tl.precision
}

func (tl *Timeline) busy() bool {
	return tl.processing || len(tl.queue) > 0
}

// takeErrors returns and clears the child failures collected so far.
func (tl *Timeline) takeErrors() error {
	if len(tl.errs) == 0 {
		return nil
	}
	err := errors.Join(tl.errs...)
	tl.errs = nil
	return err
}

func (tl *Timeline) notify(d Dispatch) {
	if tl.observer != nil {
		tl.observer(d)
	}
}
