package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tempo/internal/harness"
	"github.com/roach88/tempo/internal/ir"
	"github.com/roach88/tempo/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Update   bool   // regenerate golden files
	Filter   string // scenario filter (glob pattern)
	Database string // optional SQLite database to record runs in
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name        string   `json:"name"`
	Pass        bool     `json:"pass"`
	Frames      int64    `json:"frames,omitempty"`
	Dispatches  int      `json:"dispatches,omitempty"`
	TraceDigest string   `json:"trace_digest,omitempty"`
	RunID       string   `json:"run_id,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

// RunResult holds the overall result of a run.
type RunResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario-file|scenarios-dir>",
		Short: "Run timeline scenarios",
		Long: `Run timeline scenarios against a manual frame clock.

Each scenario plays one timeline through a registry, ticking the clock at
the listed frame times, and checks its assertions. When a golden file
exists next to the scenario (golden/<file>.golden) the canonical trace must
match it byte for byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  tempo run ./scenarios
  tempo run ./scenarios --filter "intro*"
  tempo run ./scenarios --update
  tempo run ./scenarios --db ./tempo.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record runs in this SQLite database")

	return cmd
}

func runScenarios(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	files, err := findScenarioFiles(path, opts.Filter)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	if len(files) == 0 {
		if formatter.JSON() {
			return outputRunJSON(formatter, RunResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
	}

	result := RunResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		scenResult := runScenarioFile(commandContext(cmd), file, st, opts, formatter)
		result.Scenarios = append(result.Scenarios, scenResult)
		if scenResult.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if formatter.JSON() {
		return outputRunJSON(formatter, result)
	}
	return outputRunText(formatter, result)
}

// findScenarioFiles lists scenario files and applies the glob filter to
// their base names.
func findScenarioFiles(path, filter string) ([]string, error) {
	files, err := harness.DiscoverScenarios(path)
	if err != nil {
		return nil, err
	}
	if filter == "" {
		return files, nil
	}

	var matched []string
	for _, f := range files {
		base := filepath.Base(f)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		ok, err := filepath.Match(filter, name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if ok {
			matched = append(matched, f)
		}
	}
	return matched, nil
}

// executeScenario loads and runs one scenario file.
func executeScenario(file string) (*harness.Scenario, *harness.Result, error) {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load scenario: %w", err)
	}
	result, err := harness.Run(scenario)
	if err != nil {
		return scenario, nil, fmt.Errorf("execution failed: %w", err)
	}
	return scenario, result, nil
}

// runScenarioFile executes a single scenario and returns its result.
func runScenarioFile(ctx context.Context, file string, st *store.Store, opts *RunOptions, formatter *OutputFormatter) ScenarioResult {
	scenario, result, err := executeScenario(file)
	if err != nil {
		name := filepath.Base(file)
		if scenario != nil {
			name = scenario.Name
		}
		formatter.Printf("✗ %s\n  %v\n", name, err)
		return ScenarioResult{Name: name, Errors: []string{err.Error()}}
	}

	sr := ScenarioResult{
		Name:       scenario.Name,
		Pass:       result.Pass,
		Frames:     result.Frames,
		Dispatches: len(result.Trace),
		Errors:     result.Errors,
	}
	if digest, err := ir.TraceDigest(result.Trace); err == nil {
		sr.TraceDigest = digest
	}

	goldenPath := goldenFilePath(file)
	switch {
	case opts.Update:
		if err := updateGoldenFile(scenario, result, goldenPath); err != nil {
			sr.Pass = false
			sr.Errors = append(sr.Errors, fmt.Sprintf("failed to update golden file: %v", err))
		}
	case fileExists(goldenPath):
		match, err := compareWithGolden(scenario, result, goldenPath)
		if err != nil {
			sr.Pass = false
			sr.Errors = append(sr.Errors, fmt.Sprintf("golden comparison failed: %v", err))
		} else if !match {
			sr.Pass = false
			sr.Errors = append(sr.Errors, "trace does not match golden file (run with --update to regenerate)")
		}
	}

	if st != nil {
		id, err := persistRun(ctx, st, scenario, result)
		if err != nil {
			sr.Pass = false
			sr.Errors = append(sr.Errors, fmt.Sprintf("failed to record run: %v", err))
		}
		sr.RunID = id
	}

	if sr.Pass {
		if opts.Update {
			formatter.Printf("✓ %s (golden updated)\n", sr.Name)
		} else {
			formatter.Printf("✓ %s\n", sr.Name)
		}
		formatter.VerboseLog("  %d frame(s), %d dispatch(es)", sr.Frames, sr.Dispatches)
		return sr
	}

	formatter.Printf("✗ %s\n", sr.Name)
	for _, e := range sr.Errors {
		formatter.Printf("  %s\n", e)
	}
	return sr
}

// persistRun records a result and its trace in the store.
func persistRun(ctx context.Context, st *store.Store, scenario *harness.Scenario, result *harness.Result) (string, error) {
	digest, err := ir.TimelineDigest(result.Spec)
	if err != nil {
		return "", err
	}
	return st.WriteRun(ctx, store.Run{
		Scenario:       scenario.Name,
		Timeline:       result.Spec.Name,
		TimelineDigest: digest,
		Passed:         result.Pass,
		Frames:         result.Frames,
	}, result.Trace)
}

// goldenFilePath returns the path to the golden file for a scenario.
func goldenFilePath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// updateGoldenFile writes the current snapshot as the golden file.
func updateGoldenFile(scenario *harness.Scenario, result *harness.Result, goldenPath string) error {
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	data, err := harness.Snapshot(scenario.Name, result)
	if err != nil {
		return fmt.Errorf("failed to marshal trace: %w", err)
	}
	if err := os.WriteFile(goldenPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// compareWithGolden compares the result snapshot against the golden file.
func compareWithGolden(scenario *harness.Scenario, result *harness.Result, goldenPath string) (bool, error) {
	goldenData, err := os.ReadFile(goldenPath)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	currentData, err := harness.Snapshot(scenario.Name, result)
	if err != nil {
		return false, fmt.Errorf("failed to marshal current trace: %w", err)
	}
	return string(goldenData) == string(currentData), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// commandContext returns the command's context, or a background context
// when the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// outputRunJSON outputs the run result as JSON.
func outputRunJSON(formatter *OutputFormatter, result RunResult) error {
	if result.Failed > 0 {
		msg := fmt.Sprintf("%d scenario(s) failed", result.Failed)
		if err := formatter.Failure(result, "E_RUN_FAILED", msg); err != nil {
			return err
		}
		// Scenario failures = exit code 1
		return NewExitError(ExitFailure, msg)
	}
	return formatter.Success(result)
}

// outputRunText prints the summary line after per-scenario lines.
func outputRunText(formatter *OutputFormatter, result RunResult) error {
	fmt.Fprintln(formatter.Writer)
	fmt.Fprintf(formatter.Writer, "%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}
