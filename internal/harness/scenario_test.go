package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalScenario = `
name: minimal
description: "One wait"
timeline:
  name: tl
  entries:
    - {kind: lerp, name: a, duration: 1}
ticks: [0, 2]
assertions:
  - {type: final_state, state: final}
`

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/intro.yaml")
	require.NoError(t, err)

	assert.Equal(t, "intro", s.Name)
	require.NotNil(t, s.Timeline)
	assert.Len(t, s.Timeline.Entries, 4)
	assert.Equal(t, 3, s.Timeline.Entries[2].Handle)
	assert.Equal(t, "previous_begin", s.Timeline.Entries[2].RelTo)
	assert.True(t, s.External)
	assert.True(t, s.autoAck())
	assert.Equal(t, []float64{0, 0.5, 1.0, 1.5}, s.Ticks)
	assert.Len(t, s.Assertions, 8)
}

func TestLoadScenario_TimelineFileResolvedRelative(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/show.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "scenarios", "..", "timelines", "show.cue"), s.TimelinePath())

	spec, lib, err := s.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "show", spec.Name)
	assert.Contains(t, lib, "outro")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, minimalScenario+"assertion: []\n")
	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, "failed to parse YAML")
}

func TestLoadScenario_UnknownEntryField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: "typo in an entry"
timeline:
  name: tl
  entries:
    - {kind: lerp, name: a, durration: 1}
ticks: [0]
assertions:
  - {type: removed}
`))
	assert.ErrorContains(t, err, "failed to parse YAML")
}

func TestLoadScenario_MissingTimelineFile(t *testing.T) {
	path := writeScenario(t, `
name: missing
description: "points nowhere"
timeline_file: nowhere.cue
ticks: [0]
assertions:
  - {type: removed}
`)
	_, err := LoadScenario(path)
	assert.ErrorContains(t, err, "timeline file not found")
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: `description: d
timeline: {name: tl, entries: [{kind: wait, name: w, duration: 1}]}
ticks: [0]
assertions: [{type: removed}]`,
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: `name: n
timeline: {name: tl, entries: [{kind: wait, name: w, duration: 1}]}
ticks: [0]
assertions: [{type: removed}]`,
			want: "description is required",
		},
		{
			name: "no timeline",
			yaml: `name: n
description: d
ticks: [0]
assertions: [{type: removed}]`,
			want: "one of timeline or timeline_file",
		},
		{
			name: "both timelines",
			yaml: `name: n
description: d
timeline: {name: tl, entries: [{kind: wait, name: w, duration: 1}]}
timeline_file: x.cue
ticks: [0]
assertions: [{type: removed}]`,
			want: "mutually exclusive",
		},
		{
			name: "zero rate",
			yaml: `name: n
description: d
timeline: {name: tl, entries: [{kind: wait, name: w, duration: 1}]}
play: {rate: 0}
ticks: [0]
assertions: [{type: removed}]`,
			want: "play.rate must be non-zero",
		},
		{
			name: "no ticks",
			yaml: `name: n
description: d
timeline: {name: tl, entries: [{kind: wait, name: w, duration: 1}]}
assertions: [{type: removed}]`,
			want: "ticks list is required",
		},
		{
			name: "interrupt out of range",
			yaml: `name: n
description: d
timeline: {name: tl, entries: [{kind: wait, name: w, duration: 1}]}
ticks: [0]
interrupt_after: 2
assertions: [{type: removed}]`,
			want: "interrupt_after must be between 0 and 1",
		},
		{
			name: "no assertions",
			yaml: `name: n
description: d
timeline: {name: tl, entries: [{kind: wait, name: w, duration: 1}]}
ticks: [0]`,
			want: "assertions list is required",
		},
		{
			name: "unknown assertion",
			yaml: `name: n
description: d
timeline: {name: tl, entries: [{kind: wait, name: w, duration: 1}]}
ticks: [0]
assertions: [{type: trace_contains}]`,
			want: `unknown assertion type "trace_contains"`,
		},
		{
			name: "unknown event",
			yaml: `name: n
description: d
timeline: {name: tl, entries: [{kind: wait, name: w, duration: 1}]}
ticks: [0]
assertions: [{type: dispatch_contains, name: w, event: begin}]`,
			want: `unknown event "begin"`,
		},
		{
			name: "unknown event in order",
			yaml: `name: n
description: d
timeline: {name: tl, entries: [{kind: wait, name: w, duration: 1}]}
ticks: [0]
assertions: [{type: dispatch_order, dispatches: ["w:begin"]}]`,
			want: `unknown event in "w:begin"`,
		},
		{
			name: "value without name",
			yaml: `name: n
description: d
timeline: {name: tl, entries: [{kind: wait, name: w, duration: 1}]}
ticks: [0]
assertions: [{type: value, value: 1}]`,
			want: "name and value are required",
		},
		{
			name: "duration without value",
			yaml: `name: n
description: d
timeline: {name: tl, entries: [{kind: wait, name: w, duration: 1}]}
ticks: [0]
assertions: [{type: duration}]`,
			want: "value is required for duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPlaySpec_Options(t *testing.T) {
	opts := PlaySpec{}.Options()
	assert.Equal(t, -1.0, opts.EndT)
	assert.Equal(t, 1.0, opts.Rate)

	end, rate := 2.0, -0.5
	opts = PlaySpec{Start: 1, End: &end, Rate: &rate, Loop: true}.Options()
	assert.Equal(t, 1.0, opts.StartT)
	assert.Equal(t, 2.0, opts.EndT)
	assert.Equal(t, -0.5, opts.Rate)
	assert.True(t, opts.Loop)
}

func TestResolve_InvalidInlineTimeline(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: bad
description: "negative duration"
timeline:
  name: tl
  entries:
    - {kind: wait, name: w, duration: -1}
ticks: [0]
assertions: [{type: removed}]
`))
	require.NoError(t, err)

	_, _, err = s.Resolve()
	assert.ErrorContains(t, err, "timeline validation failed")
}

func TestResolve_AmbiguousDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "two.cue"), []byte(`
timeline: a: entries: [{kind: "wait", name: "w", duration: 1}]
timeline: b: entries: [{kind: "wait", name: "w", duration: 1}]
`), 0o644))
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: two
description: "two timelines"
timeline_file: two.cue
ticks: [0]
assertions: [{type: removed}]
`), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	_, _, err = s.Resolve()
	assert.ErrorContains(t, err, "timeline_name is required")

	s.TimelineName = "b"
	spec, _, err := s.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "b", spec.Name)

	s.TimelineName = "c"
	_, _, err = s.Resolve()
	assert.ErrorContains(t, err, `timeline "c" not defined`)
}
