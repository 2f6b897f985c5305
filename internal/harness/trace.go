package harness

import (
	"github.com/roach88/tempo/internal/ir"
	"github.com/roach88/tempo/internal/timeline"
)

// ToTraceEvent converts a dispatch, quantizing its local time with
// precision. Seq and Frame are left to the caller.
func ToTraceEvent(d timeline.Dispatch, precision float64) ir.TraceEvent {
	e := ir.TraceEvent{
		Timeline: d.Timeline,
		Index:    d.Index,
		Name:     d.Name,
		Event:    d.Event.String(),
		Ticks:    quantize(d.T, precision),
		External: d.External,
	}
	if d.External {
		e.Handle = d.Handle
	}
	return e
}
