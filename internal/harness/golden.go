package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tempo/internal/ir"
)

// Snapshot encodes the parts of a result a golden file pins down: the
// trace, the final state and whether the timeline was removed. Values and
// durations stay out since they are floats.
func Snapshot(name string, result *Result) ([]byte, error) {
	trace := make(ir.Array, 0, len(result.Trace))
	for _, ev := range result.Trace {
		trace = append(trace, ev.ToValue())
	}
	return ir.MarshalCanonical(ir.Object{
		"scenario": ir.String(name),
		"state":    ir.String(result.State),
		"removed":  ir.Bool(result.Removed),
		"trace":    trace,
	})
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, snapshot)
	return nil
}
