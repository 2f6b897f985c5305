package timeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/tempo/internal/interval"
)

type defKind int

const (
	defChild defKind = iota
	defExternal
	defPushLevel
	defPopLevel
)

// def is one entry in the authored definition list. Which fields are
// meaningful depends on kind.
type def struct {
	kind    defKind
	relTime float64
	relTo   RelativeStart

	// actualBegin is the resolved absolute begin, in ticks.
	actualBegin int64

	child interval.Interval

	// name labels external definitions and levels.
	name string

	handle    int
	openEnded bool

	// duration is the external duration, or the fixed pop-level duration
	// (negative when the level takes the duration of its content).
	duration float64
}

func (d *def) displayName() string {
	if d.kind == defChild {
		return d.child.Name()
	}
	return d.name
}

// ErrNilChild is returned when AddChild is given a nil interval.
var ErrNilChild = errors.New("timeline: nil child interval")

// ErrNestingCycle is returned when AddChild would make a timeline contain
// itself, directly or through nested timelines.
var ErrNestingCycle = errors.New("timeline: nesting cycle")

func (tl *Timeline) checkMutable(op string) error {
	if tl.busy() {
		return interval.NewBusyError(tl.Name(), op)
	}
	return nil
}

func (tl *Timeline) appendDef(d def) int {
	tl.defs = append(tl.defs, d)
	tl.MarkDirty()
	return len(tl.defs) - 1
}

// PushLevel opens a nested level. Definitions added until the matching
// PopLevel are anchored at the level's begin when they use LevelBegin.
func (tl *Timeline) PushLevel(name string, relTime float64, relTo RelativeStart) (int, error) {
	if err := tl.checkMutable("push_level"); err != nil {
		return -1, err
	}
	tl.nesting++
	return tl.appendDef(def{kind: defPushLevel, name: name, relTime: relTime, relTo: relTo}), nil
}

// AddChild appends an owned child interval.
func (tl *Timeline) AddChild(iv interval.Interval, relTime float64, relTo RelativeStart) (int, error) {
	if err := tl.checkMutable("add_child"); err != nil {
		return -1, err
	}
	if iv == nil {
		return -1, ErrNilChild
	}
	if contains(iv, tl) {
		return -1, fmt.Errorf("timeline %q: adding %q: %w", tl.Name(), iv.Name(), ErrNestingCycle)
	}
	iv.Core().AddParent(tl)
	return tl.appendDef(def{kind: defChild, child: iv, relTime: relTime, relTo: relTo}), nil
}

// contains reports whether target occurs in the subtree rooted at iv.
func contains(iv interval.Interval, target *Timeline) bool {
	sub, ok := iv.(*Timeline)
	if !ok {
		return false
	}
	if sub == target {
		return true
	}
	for i := range sub.defs {
		if sub.defs[i].kind == defChild && contains(sub.defs[i].child, target) {
			return true
		}
	}
	return false
}

// AddExternal appends a placeholder for an action executed outside the
// scheduler. Its events are delivered through NextEvent.
func (tl *Timeline) AddExternal(handle int, name string, duration float64, openEnded bool, relTime float64, relTo RelativeStart) (int, error) {
	if err := tl.checkMutable("add_external"); err != nil {
		return -1, err
	}
	return tl.appendDef(def{
		kind:      defExternal,
		handle:    handle,
		name:      name,
		duration:  max(duration, 0),
		openEnded: openEnded,
		relTime:   relTime,
		relTo:     relTo,
	}), nil
}

// PopLevel closes the innermost level. A non-negative duration fixes the
// level's length regardless of its content; a negative duration takes the
// content's end.
//
// An unbalanced PopLevel is recorded and logged. Flattening reports it as a
// structure warning and ignores the definitions that follow it.
func (tl *Timeline) PopLevel(duration float64) (int, error) {
	if err := tl.checkMutable("pop_level"); err != nil {
		return -1, err
	}
	if tl.nesting <= 0 {
		slog.Warn("pop_level without matching push_level", "timeline", tl.Name())
	} else {
		tl.nesting--
	}
	return tl.appendDef(def{kind: defPopLevel, duration: duration}), nil
}

// Clear removes every definition. Outstanding queued events are discarded
// with a warning.
func (tl *Timeline) Clear() error {
	if tl.processing {
		return interval.NewBusyError(tl.Name(), "clear")
	}
	if len(tl.queue) > 0 {
		slog.Warn("clearing timeline with outstanding events", "timeline", tl.Name(), "pending", len(tl.queue))
		tl.queue = nil
	}
	tl.clearEvents()
	for _, d := range tl.defs {
		if d.kind == defChild {
			d.child.Core().RemoveParent(tl)
		}
	}
	tl.defs = nil
	tl.nesting = 0
	tl.MarkDirty()
	return nil
}

// Len returns the number of definitions.
func (tl *Timeline) Len() int { return len(tl.defs) }

// findDef returns the index of the first child or external definition
// whose name matches under NFC normalization.
func (tl *Timeline) findDef(name string) int {
	for i := range tl.defs {
		d := &tl.defs[i]
		if d.kind != defChild && d.kind != defExternal {
			continue
		}
		if interval.SameName(d.displayName(), name) {
			return i
		}
	}
	return -1
}

// SetIntervalStartTime re-anchors the named child or external definition.
// It reports whether a definition was found.
func (tl *Timeline) SetIntervalStartTime(name string, relTime float64, relTo RelativeStart) (bool, error) {
	if err := tl.checkMutable("set_interval_start_time"); err != nil {
		return false, err
	}
	i := tl.findDef(name)
	if i < 0 {
		return false, nil
	}
	tl.defs[i].relTime = relTime
	tl.defs[i].relTo = relTo
	tl.MarkDirty()
	return true, nil
}

// IntervalStartTime returns the absolute begin of the named definition.
func (tl *Timeline) IntervalStartTime(name string) (float64, bool) {
	tl.recompute()
	i := tl.findDef(name)
	if i < 0 {
		return 0, false
	}
	return tl.toSeconds(tl.defs[i].actualBegin), true
}

// IntervalEndTime returns the absolute end of the named definition.
func (tl *Timeline) IntervalEndTime(name string) (float64, bool) {
	tl.recompute()
	i := tl.findDef(name)
	if i < 0 {
		return 0, false
	}
	return tl.toSeconds(tl.defs[i].actualBegin) + tl.defDuration(i), true
}

func (tl *Timeline) defDuration(i int) float64 {
	d := &tl.defs[i]
	switch d.kind {
	case defChild:
		return d.child.Duration()
	case defExternal:
		return d.duration
	default:
		return 0
	}
}
