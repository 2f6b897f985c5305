package harness

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/roach88/tempo/internal/clock"
	"github.com/roach88/tempo/internal/compiler"
	"github.com/roach88/tempo/internal/registry"
	"github.com/roach88/tempo/internal/timeline"
)

// Harness is the scenario execution engine for one run.
type Harness struct {
	frame     *clock.Frame
	seq       *clock.Sequence
	reg       *registry.Registry
	tl        *timeline.Timeline
	slot      int
	precision float64
	result    *Result
}

// Run executes a scenario and returns the result. A returned error means
// the scenario could not be set up; failures while playing are reported in
// the result.
//
// Execution flow:
//  1. Resolve and build the timeline
//  2. Register it with a registry on a manual frame clock
//  3. For each tick: set the clock, step the registry, drain events and removals
//  4. Evaluate assertions against the trace and final state
func Run(scenario *Scenario) (*Result, error) {
	spec, lib, err := scenario.Resolve()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	h := &Harness{
		frame:  clock.NewFrame(),
		seq:    clock.NewSequence(),
		result: NewResult(),
	}
	h.result.Spec = spec
	h.reg = registry.New(h.frame)

	h.tl, err = compiler.Build(spec, compiler.BuildOptions{
		Observer: h.record,
		OnFunc:   func(name string) { h.result.Calls = append(h.result.Calls, name) },
		OnValue:  func(name string, v float64) { h.result.Values[name] = v },
		Library:  lib,
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	h.precision = h.tl.Precision()
	h.tl.SetAutoPause(scenario.Play.AutoPause)
	h.tl.SetAutoFinish(scenario.Play.AutoFinish)

	h.slot, err = h.reg.Start(h.tl, scenario.External, scenario.Play.Options())
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	for i, t := range scenario.Ticks {
		h.frame.Set(t)
		if err := h.reg.Step(); err != nil {
			h.result.AddError(fmt.Sprintf("frame %d: %v", h.frame.Frames(), err))
		}
		h.drain(scenario.autoAck())

		if scenario.InterruptAfter == i+1 {
			n := h.reg.Interrupt()
			slog.Debug("registry interrupted", "scenario", scenario.Name, "frame", h.frame.Frames(), "affected", n)
			h.drain(scenario.autoAck())
		}
	}

	h.result.Frames = h.frame.Frames()
	h.result.State = h.tl.State().String()
	h.result.Duration = h.tl.Duration()
	h.result.Removed = h.reg.Find(h.tl.Name()) < 0
	for _, w := range h.tl.Warnings() {
		h.result.Warnings = append(h.result.Warnings, w.Error())
	}

	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions) {
		h.result.AddError(msg)
	}

	slog.Info("scenario finished",
		"scenario", scenario.Name,
		"pass", h.result.Pass,
		"frames", h.result.Frames,
		"dispatches", len(h.result.Trace),
	)
	return h.result, nil
}

// record turns a dispatch into a trace event.
func (h *Harness) record(d timeline.Dispatch) {
	e := ToTraceEvent(d, h.precision)
	e.Seq = h.seq.Next()
	e.Frame = h.frame.Frames()
	h.result.Trace = append(h.result.Trace, e)
}

// drain acknowledges ready external events and collects removals.
func (h *Harness) drain(autoAck bool) {
	for autoAck {
		idx, ok := h.reg.NextEvent()
		if !ok {
			break
		}
		tl, ok := h.reg.Get(idx).(*timeline.Timeline)
		if !ok {
			break
		}
		if ev, ok := tl.NextEvent(); ok {
			slog.Debug("acknowledging external event",
				"timeline", tl.Name(),
				"name", ev.Name,
				"handle", ev.Handle,
				"event", ev.Event.String(),
			)
		}
		if err := tl.AckEvent(); err != nil {
			if errors.Is(err, timeline.ErrNoExternalEvent) {
				break
			}
			h.result.AddError(fmt.Sprintf("frame %d: ack: %v", h.frame.Frames(), err))
		}
	}

	for {
		idx, ok := h.reg.NextRemoval()
		if !ok {
			break
		}
		slog.Debug("external interval removed", "index", idx, "own", idx == h.slot)
	}
}

// quantize converts seconds to ticks the way a timeline does.
func quantize(t, precision float64) int64 {
	return int64(math.Floor(t*precision + 0.5))
}
