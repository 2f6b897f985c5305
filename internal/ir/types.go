package ir

import "math"

// EntryKind selects what a timeline entry builds.
type EntryKind string

const (
	// KindWait is a filler that occupies time without playback events.
	KindWait EntryKind = "wait"
	// KindFunc is a zero-duration callback.
	KindFunc EntryKind = "func"
	// KindLerp interpolates a value from From to To over Duration.
	KindLerp EntryKind = "lerp"
	// KindExternal is an action executed by the host, known by Handle.
	KindExternal EntryKind = "external"
	// KindLevel groups nested entries with their own LevelBegin anchor.
	KindLevel EntryKind = "level"
	// KindRef embeds another named timeline of the same document.
	KindRef EntryKind = "ref"
)

// ValidEntryKinds lists every kind the builder understands.
var ValidEntryKinds = map[EntryKind]bool{
	KindWait:     true,
	KindFunc:     true,
	KindLerp:     true,
	KindExternal: true,
	KindLevel:    true,
	KindRef:      true,
}

// ValidRelTo lists the accepted anchor names. Empty means previous_end.
var ValidRelTo = map[string]bool{
	"":               true,
	"previous_end":   true,
	"previous_begin": true,
	"level_begin":    true,
}

// TimelineSpec describes a composite timeline.
type TimelineSpec struct {
	Name      string      `json:"name" yaml:"name"`
	Precision float64     `json:"precision,omitempty" yaml:"precision,omitempty"`
	Entries   []EntrySpec `json:"entries" yaml:"entries"`
}

// EntrySpec describes one definition of a timeline. Which fields apply
// depends on Kind.
type EntrySpec struct {
	Kind      EntryKind `json:"kind" yaml:"kind"`
	Name      string    `json:"name" yaml:"name"`
	Duration  float64   `json:"duration,omitempty" yaml:"duration,omitempty"`
	OpenEnded bool      `json:"open_ended,omitempty" yaml:"open_ended,omitempty"`

	// Start is the offset from the anchor selected by RelTo.
	Start float64 `json:"start,omitempty" yaml:"start,omitempty"`
	RelTo string  `json:"rel_to,omitempty" yaml:"rel_to,omitempty"`

	Handle int `json:"handle,omitempty" yaml:"handle,omitempty"`

	From  float64 `json:"from,omitempty" yaml:"from,omitempty"`
	To    float64 `json:"to,omitempty" yaml:"to,omitempty"`
	Blend string  `json:"blend,omitempty" yaml:"blend,omitempty"`

	// Entries are the children of a level.
	Entries []EntrySpec `json:"entries,omitempty" yaml:"entries,omitempty"`

	// LevelDuration fixes the length of a level. Nil means the level lasts
	// as long as its content.
	LevelDuration *float64 `json:"level_duration,omitempty" yaml:"level_duration,omitempty"`

	// Ref names the timeline a KindRef entry embeds.
	Ref string `json:"ref,omitempty" yaml:"ref,omitempty"`
}

// Millis converts seconds to integer milliseconds for canonical encoding.
func Millis(seconds float64) Int {
	return Int(math.Floor(seconds*1000 + 0.5))
}

// ToValue converts the timeline description to a canonical value. Times are encoded in
// milliseconds.
func (s *TimelineSpec) ToValue() Object {
	entries := make(Array, 0, len(s.Entries))
	for i := range s.Entries {
		entries = append(entries, s.Entries[i].ToValue())
	}
	obj := Object{
		"name":    String(s.Name),
		"entries": entries,
	}
	if s.Precision > 0 {
		obj["precision"] = Int(math.Floor(s.Precision + 0.5))
	}
	return obj
}

// ToValue converts the entry to a canonical value.
func (e *EntrySpec) ToValue() Object {
	obj := Object{
		"kind":        String(e.Kind),
		"name":        String(e.Name),
		"duration_ms": Millis(e.Duration),
		"start_ms":    Millis(e.Start),
		"rel_to":      String(e.RelTo),
	}
	if e.OpenEnded {
		obj["open_ended"] = Bool(true)
	}
	switch e.Kind {
	case KindExternal:
		obj["handle"] = Int(e.Handle)
	case KindLerp:
		obj["from_milli"] = Millis(e.From)
		obj["to_milli"] = Millis(e.To)
		obj["blend"] = String(e.Blend)
	case KindLevel:
		children := make(Array, 0, len(e.Entries))
		for i := range e.Entries {
			children = append(children, e.Entries[i].ToValue())
		}
		obj["entries"] = children
		if e.LevelDuration != nil {
			obj["level_duration_ms"] = Millis(*e.LevelDuration)
		}
	case KindRef:
		obj["ref"] = String(e.Ref)
	}
	return obj
}
