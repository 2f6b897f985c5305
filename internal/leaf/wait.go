package leaf

import "github.com/roach88/tempo/internal/interval"

// Wait occupies time and does nothing. Composite timelines use it as a
// spacer: it is placed but never receives events.
type Wait struct {
	*interval.Base
}

// NewWait creates a filler of the given duration.
func NewWait(name string, duration float64) *Wait {
	return &Wait{Base: interval.NewBase(name, duration, false, nil)}
}

// Filler marks Wait as a spacer.
func (w *Wait) Filler() bool { return true }
