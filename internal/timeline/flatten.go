package timeline

import (
	"log/slog"
	"sort"

	"github.com/roach88/tempo/internal/interval"
)

type eventKind int

const (
	eventBegin eventKind = iota
	eventEnd
	eventInstant
)

func (k eventKind) String() string {
	switch k {
	case eventBegin:
		return "begin"
	case eventEnd:
		return "end"
	case eventInstant:
		return "instant"
	default:
		return "?"
	}
}

// playbackEvent is one entry of the flattened list. An end event links to
// its begin so active-set membership can be tested by identity.
type playbackEvent struct {
	time  int64
	n     int
	kind  eventKind
	begin *playbackEvent
}

// Event is an exported view of a flattened event.
type Event struct {
	Ticks int64
	Time  float64
	Kind  string
	Index int
	Name  string
}

// Events returns the flattened event list, recomputing first if needed.
func (tl *Timeline) Events() []Event {
	tl.recompute()
	out := make([]Event, 0, len(tl.events))
	for _, ev := range tl.events {
		out = append(out, Event{
			Ticks: ev.time,
			Time:  tl.toSeconds(ev.time),
			Kind:  ev.kind.String(),
			Index: ev.n,
			Name:  tl.defs[ev.n].displayName(),
		})
	}
	return out
}

func (tl *Timeline) clearEvents() {
	tl.events = nil
	tl.active = nil
	tl.nextEvent = 0
}

func (tl *Timeline) recompute() {
	if tl.Base.Dirty() {
		tl.flatten()
	}
}

// flatten resolves every definition to absolute ticks and rebuilds the
// sorted event list. Running it twice on unchanged definitions yields the
// same list.
func (tl *Timeline) flatten() {
	tl.clearEvents()
	tl.warnings = nil

	var end int64
	n := tl.flattenLevel(0, 0, &end)
	if n != len(tl.defs) {
		w := interval.NewStructureWarning(tl.Name(), "pushes don't match pops")
		slog.Warn("unbalanced timeline levels", "timeline", tl.Name(), "defs", len(tl.defs), "consumed", n)
		tl.warnings = append(tl.warnings, w)
	}

	sort.SliceStable(tl.events, func(i, j int) bool {
		return tl.events[i].time < tl.events[j].time
	})
	tl.SetComputedDuration(tl.toSeconds(end))
}

// flattenLevel resolves definitions from n up to the pop that closes the
// level beginning at levelBegin. It returns the index of that pop (or the
// end of the list) and stores the level's end in levelEnd.
func (tl *Timeline) flattenLevel(n int, levelBegin int64, levelEnd *int64) int {
	*levelEnd = levelBegin
	prevBegin, prevEnd := levelBegin, levelBegin

	for n < len(tl.defs) && tl.defs[n].kind != defPopLevel {
		d := &tl.defs[n]
		begin := tl.beginTime(d, levelBegin, prevBegin, prevEnd)
		d.actualBegin = begin

		switch d.kind {
		case defChild:
			end := begin + tl.toTicks(d.child.Duration())
			if f, ok := d.child.(interval.Filler); !ok || !f.Filler() {
				tl.addEventPair(n, begin, end)
			}
			prevBegin, prevEnd = begin, end
			*levelEnd = max(*levelEnd, end)

		case defExternal:
			end := begin + tl.toTicks(d.duration)
			tl.addEventPair(n, begin, end)
			prevBegin, prevEnd = begin, end
			*levelEnd = max(*levelEnd, end)

		case defPushLevel:
			var end int64
			n = tl.flattenLevel(n+1, begin, &end)
			prevBegin, prevEnd = begin, end
			*levelEnd = max(*levelEnd, end)
		}
		n++
	}

	if n < len(tl.defs) {
		d := &tl.defs[n]
		if d.duration >= 0 {
			*levelEnd = levelBegin + tl.toTicks(d.duration)
		}
		d.actualBegin = *levelEnd
	}
	return n
}

func (tl *Timeline) beginTime(d *def, levelBegin, prevBegin, prevEnd int64) int64 {
	rel := tl.toTicks(d.relTime)
	switch d.relTo {
	case PreviousBegin:
		return prevBegin + rel
	case LevelBegin:
		return levelBegin + rel
	default:
		return prevEnd + rel
	}
}

func (tl *Timeline) addEventPair(n int, begin, end int64) {
	if begin == end {
		ev := &playbackEvent{time: begin, n: n, kind: eventInstant}
		ev.begin = ev
		tl.events = append(tl.events, ev)
		return
	}
	b := &playbackEvent{time: begin, n: n, kind: eventBegin}
	b.begin = b
	e := &playbackEvent{time: end, n: n, kind: eventEnd, begin: b}
	tl.events = append(tl.events, b, e)
}
