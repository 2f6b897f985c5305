package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tempo/internal/compiler"
	"github.com/roach88/tempo/internal/interval"
	"github.com/roach88/tempo/internal/ir"
)

// Scenario drives one timeline through a list of frame times.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Timeline is an inline timeline description.
	Timeline *ir.TimelineSpec `yaml:"timeline,omitempty"`

	// TimelineFile is a CUE document, relative to the scenario file.
	TimelineFile string `yaml:"timeline_file,omitempty"`

	// TimelineName picks one timeline of TimelineFile. It may be omitted
	// when the document defines a single timeline.
	TimelineName string `yaml:"timeline_name,omitempty"`

	// Play selects the play window and rate.
	Play PlaySpec `yaml:"play,omitempty"`

	// External registers the timeline as external: the harness services
	// its external events and drains its removal.
	External bool `yaml:"external,omitempty"`

	// Ticks lists the frame time of every frame, in seconds.
	Ticks []float64 `yaml:"ticks"`

	// AutoAck acknowledges external events as soon as they are ready.
	// Defaults to true.
	AutoAck *bool `yaml:"auto_ack,omitempty"`

	// InterruptAfter calls the registry's bulk interrupt after that many
	// frames. Zero never interrupts.
	InterruptAfter int `yaml:"interrupt_after,omitempty"`

	// Assertions validate the trace and the final state.
	Assertions []Assertion `yaml:"assertions"`

	baseDir string
}

// PlaySpec mirrors interval.PlayOptions with YAML defaults.
type PlaySpec struct {
	Start float64  `yaml:"start,omitempty"`
	End   *float64 `yaml:"end,omitempty"`
	Rate  *float64 `yaml:"rate,omitempty"`
	Loop  bool     `yaml:"loop,omitempty"`

	// AutoPause and AutoFinish select how a bulk interrupt treats the
	// timeline.
	AutoPause  bool `yaml:"auto_pause,omitempty"`
	AutoFinish bool `yaml:"auto_finish,omitempty"`
}

// Options converts the play block to interval play options.
func (p PlaySpec) Options() interval.PlayOptions {
	opts := interval.DefaultPlayOptions()
	opts.StartT = p.Start
	if p.End != nil {
		opts.EndT = *p.End
	}
	if p.Rate != nil {
		opts.Rate = *p.Rate
	}
	opts.Loop = p.Loop
	return opts
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Name is the dispatched interval name (dispatch_contains,
	// dispatch_count, value).
	Name string `yaml:"name,omitempty"`

	// Event optionally narrows a dispatch match to one lifecycle event.
	Event string `yaml:"event,omitempty"`

	// Ticks optionally narrows dispatch_contains to one local time.
	Ticks *int64 `yaml:"ticks,omitempty"`

	// Dispatches lists "name" or "name:event" entries (dispatch_order).
	Dispatches []string `yaml:"dispatches,omitempty"`

	// Count is the expected number of matches (dispatch_count).
	Count int `yaml:"count,omitempty"`

	// State is the expected final state (final_state).
	State string `yaml:"state,omitempty"`

	// Value is the expected number (duration, value).
	Value *float64 `yaml:"value,omitempty"`

	// Removed negates the removed assertion when false.
	Removed *bool `yaml:"removed,omitempty"`
}

// Assertion type constants.
const (
	AssertDispatchContains = "dispatch_contains"
	AssertDispatchOrder    = "dispatch_order"
	AssertDispatchCount    = "dispatch_count"
	AssertFinalState       = "final_state"
	AssertRemoved          = "removed"
	AssertDuration         = "duration"
	AssertValue            = "value"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	s.baseDir = filepath.Dir(path)
	if s.TimelineFile != "" {
		if _, err := os.Stat(s.TimelinePath()); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: timeline file not found: %s", s.TimelinePath())
		}
	}
	return s, nil
}

// ParseScenario parses scenario YAML. A timeline_file is resolved against
// the working directory.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func (s *Scenario) autoAck() bool {
	return s.AutoAck == nil || *s.AutoAck
}

// TimelinePath returns the timeline file the scenario plays, resolved
// against the scenario's directory. It is empty for inline timelines.
func (s *Scenario) TimelinePath() string {
	if s.TimelineFile == "" || filepath.IsAbs(s.TimelineFile) || s.baseDir == "" {
		return s.TimelineFile
	}
	return filepath.Join(s.baseDir, s.TimelineFile)
}

// Resolve returns the timeline the scenario plays and the library its ref
// entries resolve against. Timeline documents are validated first.
func (s *Scenario) Resolve() (*ir.TimelineSpec, map[string]*ir.TimelineSpec, error) {
	if s.Timeline != nil {
		if verrs := compiler.ValidateTimeline(s.Timeline); len(verrs) > 0 {
			return nil, nil, validationError(verrs)
		}
		lib := compiler.Library([]ir.TimelineSpec{*s.Timeline})
		return s.Timeline, lib, nil
	}

	specs, errs := compiler.LoadFile(s.TimelinePath())
	if len(errs) > 0 {
		return nil, nil, errors.Join(errs...)
	}
	if verrs := compiler.Validate(specs); len(verrs) > 0 {
		return nil, nil, validationError(verrs)
	}
	lib := compiler.Library(specs)

	switch {
	case s.TimelineName != "":
		spec, ok := lib[s.TimelineName]
		if !ok {
			return nil, nil, fmt.Errorf("timeline %q not defined in %s", s.TimelineName, s.TimelineFile)
		}
		return spec, lib, nil
	case len(specs) == 1:
		return &specs[0], lib, nil
	default:
		return nil, nil, fmt.Errorf("%s defines %d timelines; timeline_name is required", s.TimelineFile, len(specs))
	}
}

func validationError(verrs []compiler.ValidationError) error {
	msgs := make([]string, len(verrs))
	for i, v := range verrs {
		msgs[i] = v.Error()
	}
	return fmt.Errorf("timeline validation failed: %s", strings.Join(msgs, "; "))
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Timeline == nil && s.TimelineFile == "":
		return fmt.Errorf("one of timeline or timeline_file is required")
	case s.Timeline != nil && s.TimelineFile != "":
		return fmt.Errorf("timeline and timeline_file are mutually exclusive")
	case s.Timeline != nil && s.TimelineName != "":
		return fmt.Errorf("timeline_name only applies to timeline_file")
	}

	if s.Play.Rate != nil && *s.Play.Rate == 0 {
		return fmt.Errorf("play.rate must be non-zero")
	}
	if len(s.Ticks) == 0 {
		return fmt.Errorf("ticks list is required and must be non-empty")
	}
	if s.InterruptAfter < 0 || s.InterruptAfter > len(s.Ticks) {
		return fmt.Errorf("interrupt_after must be between 0 and %d", len(s.Ticks))
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Event != "" {
		if _, ok := interval.ParseEventType(a.Event); !ok {
			return fmt.Errorf("assertions[%d]: unknown event %q", index, a.Event)
		}
	}

	switch a.Type {
	case AssertDispatchContains:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for dispatch_contains", index)
		}
	case AssertDispatchOrder:
		if len(a.Dispatches) == 0 {
			return fmt.Errorf("assertions[%d]: dispatches list is required for dispatch_order", index)
		}
		for _, d := range a.Dispatches {
			if _, event, ok := strings.Cut(d, ":"); ok {
				if _, valid := interval.ParseEventType(event); !valid {
					return fmt.Errorf("assertions[%d]: unknown event in %q", index, d)
				}
			}
		}
	case AssertDispatchCount:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for dispatch_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for dispatch_count", index)
		}
	case AssertFinalState:
		if a.State == "" {
			return fmt.Errorf("assertions[%d]: state is required for final_state", index)
		}
	case AssertRemoved:
	case AssertDuration:
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for duration", index)
		}
	case AssertValue:
		if a.Name == "" || a.Value == nil {
			return fmt.Errorf("assertions[%d]: name and value are required for value", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
