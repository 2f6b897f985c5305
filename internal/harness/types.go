package harness

import "github.com/roach88/tempo/internal/ir"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held and no frame failed.
	Pass bool `json:"pass"`

	// Trace contains every dispatch in order.
	Trace []ir.TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Spec is the timeline description that was played.
	Spec *ir.TimelineSpec `json:"-"`

	// Frames is the number of frames stepped.
	Frames int64 `json:"frames"`

	// State is the timeline's state after the last frame.
	State string `json:"state"`

	// Duration is the timeline's computed duration in seconds.
	Duration float64 `json:"duration"`

	// Removed reports whether the registry dropped the timeline.
	Removed bool `json:"removed"`

	// Values holds the last value each lerp entry produced.
	Values map[string]float64 `json:"values,omitempty"`

	// Calls lists func entries in the order they fired.
	Calls []string `json:"calls,omitempty"`

	// Warnings are structure warnings reported while flattening.
	Warnings []string `json:"warnings,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []ir.TraceEvent{},
		Errors: []string{},
		Values: make(map[string]float64),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
