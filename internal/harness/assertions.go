package harness

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/tempo/internal/interval"
	"github.com/roach88/tempo/internal/ir"
)

// valueTolerance bounds float comparisons of durations and lerp values.
const valueTolerance = 1e-9

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string          // Assertion type for categorization
	Expected string          // Human-readable expected outcome
	Actual   string          // Human-readable actual outcome
	Trace    []ir.TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] frame %d %s/%s %s @%d", ev.Seq, ev.Frame, ev.Timeline, ev.Name, ev.Event, ev.Ticks)
			if ev.External {
				fmt.Fprintf(&buf, " (external %d)", ev.Handle)
			}
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

// matcher selects trace events by name and optional event.
type matcher struct {
	name  string
	event string
}

// parseMatcher reads "name" or "name:event".
func parseMatcher(s string) matcher {
	name, event, _ := strings.Cut(s, ":")
	return matcher{name: name, event: event}
}

func (m matcher) matches(ev ir.TraceEvent) bool {
	if !interval.SameName(ev.Name, m.name) {
		return false
	}
	return m.event == "" || ev.Event == m.event
}

func (m matcher) String() string {
	if m.event == "" {
		return m.name
	}
	return m.name + ":" + m.event
}

// assertDispatchContains checks that a matching dispatch occurred.
func assertDispatchContains(trace []ir.TraceEvent, a Assertion) error {
	m := matcher{name: a.Name, event: a.Event}
	for _, ev := range trace {
		if m.matches(ev) && (a.Ticks == nil || ev.Ticks == *a.Ticks) {
			return nil
		}
	}

	expected := fmt.Sprintf("dispatch %s", m)
	if a.Ticks != nil {
		expected += fmt.Sprintf(" at %d ticks", *a.Ticks)
	}
	return &AssertionError{
		Type:     AssertDispatchContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertDispatchOrder checks that the listed dispatches occur in order.
// Other dispatches may come between them.
func assertDispatchOrder(trace []ir.TraceEvent, a Assertion) error {
	pos := 0
	for i, want := range a.Dispatches {
		m := parseMatcher(want)
		found := false
		for pos < len(trace) {
			ev := trace[pos]
			pos++
			if m.matches(ev) {
				found = true
				break
			}
		}
		if !found {
			actual := fmt.Sprintf("%s not found after %v", want, a.Dispatches[:i])
			if i == 0 {
				actual = fmt.Sprintf("%s not found", want)
			}
			return &AssertionError{
				Type:     AssertDispatchOrder,
				Expected: fmt.Sprintf("dispatches in order: %v", a.Dispatches),
				Actual:   actual,
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertDispatchCount checks the exact number of matching dispatches.
func assertDispatchCount(trace []ir.TraceEvent, a Assertion) error {
	m := matcher{name: a.Name, event: a.Event}
	count := 0
	for _, ev := range trace {
		if m.matches(ev) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertDispatchCount,
			Expected: fmt.Sprintf("%d dispatches of %s", a.Count, m),
			Actual:   fmt.Sprintf("%d dispatches", count),
			Trace:    trace,
		}
	}
	return nil
}

func assertFinalState(r *Result, a Assertion) error {
	if r.State != a.State {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("state %s", a.State),
			Actual:   fmt.Sprintf("state %s", r.State),
		}
	}
	return nil
}

func assertRemoved(r *Result, a Assertion) error {
	want := a.Removed == nil || *a.Removed
	if r.Removed != want {
		return &AssertionError{
			Type:     AssertRemoved,
			Expected: fmt.Sprintf("removed = %t", want),
			Actual:   fmt.Sprintf("removed = %t", r.Removed),
		}
	}
	return nil
}

func assertDuration(r *Result, a Assertion) error {
	if math.Abs(r.Duration-*a.Value) > valueTolerance {
		return &AssertionError{
			Type:     AssertDuration,
			Expected: fmt.Sprintf("duration %g", *a.Value),
			Actual:   fmt.Sprintf("duration %g", r.Duration),
		}
	}
	return nil
}

func assertValue(r *Result, a Assertion) error {
	got, ok := r.Values[a.Name]
	if !ok {
		return &AssertionError{
			Type:     AssertValue,
			Expected: fmt.Sprintf("%s = %g", a.Name, *a.Value),
			Actual:   "no value produced",
		}
	}
	if math.Abs(got-*a.Value) > valueTolerance {
		return &AssertionError{
			Type:     AssertValue,
			Expected: fmt.Sprintf("%s = %g", a.Name, *a.Value),
			Actual:   fmt.Sprintf("%s = %g", a.Name, got),
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertDispatchContains:
			err = assertDispatchContains(result.Trace, a)
		case AssertDispatchOrder:
			err = assertDispatchOrder(result.Trace, a)
		case AssertDispatchCount:
			err = assertDispatchCount(result.Trace, a)
		case AssertFinalState:
			err = assertFinalState(result, a)
		case AssertRemoved:
			err = assertRemoved(result, a)
		case AssertDuration:
			err = assertDuration(result, a)
		case AssertValue:
			err = assertValue(result, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}
