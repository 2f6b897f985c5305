package ir

// TraceEvent is one dispatch recorded while driving a timeline: an event
// delivered to a child, or an external event acknowledged by the host.
type TraceEvent struct {
	// Seq orders records within a run.
	Seq int64 `json:"seq"`

	// Frame is the tick number the record was produced on.
	Frame int64 `json:"frame"`

	Timeline string `json:"timeline"`
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Event    string `json:"event"`

	// Ticks is the child-local time in timeline ticks.
	Ticks int64 `json:"ticks"`

	External bool `json:"external,omitempty"`
	Handle   int  `json:"handle,omitempty"`
}

// ToValue converts the record to a canonical value.
func (e TraceEvent) ToValue() Object {
	obj := Object{
		"seq":      Int(e.Seq),
		"frame":    Int(e.Frame),
		"timeline": String(e.Timeline),
		"index":    Int(e.Index),
		"name":     String(e.Name),
		"event":    String(e.Event),
		"ticks":    Int(e.Ticks),
	}
	if e.External {
		obj["external"] = Bool(true)
		obj["handle"] = Int(e.Handle)
	}
	return obj
}

// MarshalTrace encodes a trace as a canonical JSON array.
func MarshalTrace(events []TraceEvent) ([]byte, error) {
	arr := make(Array, 0, len(events))
	for _, e := range events {
		arr = append(arr, e.ToValue())
	}
	return MarshalCanonical(arr)
}
