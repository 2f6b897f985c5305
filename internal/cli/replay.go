package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tempo/internal/ir"
	"github.com/roach88/tempo/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Record   bool // record the replayed run as the new latest
}

// Replay statuses.
const (
	ReplayMatch    = "match"
	ReplayMismatch = "mismatch"
	ReplayMissing  = "missing"
)

// ReplayScenarioResult holds the replay result for a single scenario.
type ReplayScenarioResult struct {
	Scenario        string `json:"scenario"`
	Status          string `json:"status"`
	RunID           string `json:"run_id,omitempty"`
	StoredDigest    string `json:"stored_digest,omitempty"`
	ReplayDigest    string `json:"replay_digest"`
	TimelineChanged bool   `json:"timeline_changed,omitempty"`
	FirstDivergence int64  `json:"first_divergence,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Scenarios        []ReplayScenarioResult `json:"scenarios"`
	Total            int                    `json:"total"`
	AllDeterministic bool                   `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <scenario-file|scenarios-dir>",
		Short: "Re-run scenarios and verify determinism",
		Long: `Re-run scenarios and compare each trace against the latest recorded run.

Scenarios run on a manual frame clock, so replaying one must reproduce the
recorded trace digest exactly. A difference means the scheduler is not
deterministic, or the timeline changed since it was recorded.

Exit codes:
  0 - All replayed traces match
  1 - At least one trace differs
  2 - Command error (database not found, etc.)

Examples:
  tempo run ./scenarios --db ./tempo.db
  tempo replay ./scenarios --db ./tempo.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "record replayed runs")

	return cmd
}

func runReplay(opts *ReplayOptions, path string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	files, err := findScenarioFiles(path, "")
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	result := ReplayResult{
		Scenarios:        make([]ReplayScenarioResult, 0, len(files)),
		Total:            len(files),
		AllDeterministic: true,
	}
	for _, file := range files {
		r, err := replayScenario(ctx, st, file, opts.Record)
		if err != nil {
			_ = formatter.Error(ErrCodeScenarioLoad, err.Error(), nil)
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay %s", file), err)
		}
		formatter.VerboseLog("%s: %s", r.Scenario, r.Status)
		result.Scenarios = append(result.Scenarios, r)
		if r.Status == ReplayMismatch {
			result.AllDeterministic = false
		}
	}

	if formatter.JSON() {
		if !result.AllDeterministic {
			if err := formatter.Failure(result, "E_NONDETERMINISTIC", "replayed trace differs from recorded run"); err != nil {
				return err
			}
			return NewExitError(ExitFailure, "determinism verification failed")
		}
		return formatter.Success(result)
	}
	return outputReplayText(formatter, result)
}

// replayScenario re-runs one scenario and compares it with its latest run.
func replayScenario(ctx context.Context, st *store.Store, file string, record bool) (ReplayScenarioResult, error) {
	scenario, result, err := executeScenario(file)
	if err != nil {
		return ReplayScenarioResult{}, err
	}

	digest, err := ir.TraceDigest(result.Trace)
	if err != nil {
		return ReplayScenarioResult{}, err
	}
	r := ReplayScenarioResult{Scenario: scenario.Name, ReplayDigest: digest}

	stored, err := st.LatestRun(ctx, scenario.Name)
	switch {
	case errors.Is(err, store.ErrRunNotFound):
		r.Status = ReplayMissing
	case err != nil:
		return ReplayScenarioResult{}, err
	default:
		r.RunID = stored.ID
		r.StoredDigest = stored.TraceDigest
		if tlDigest, err := ir.TimelineDigest(result.Spec); err == nil {
			r.TimelineChanged = tlDigest != stored.TimelineDigest
		}
		r.Status = ReplayMatch
		if stored.TraceDigest != digest {
			r.Status = ReplayMismatch
			trace, err := st.ReadTrace(ctx, stored.ID)
			if err != nil {
				return ReplayScenarioResult{}, err
			}
			r.FirstDivergence = firstDivergence(trace, result.Trace)
		}
	}

	if record {
		if _, err := persistRun(ctx, st, scenario, result); err != nil {
			return ReplayScenarioResult{}, err
		}
	}
	return r, nil
}

// firstDivergence returns the seq of the first record where two traces
// differ, counting a missing record as a difference.
func firstDivergence(stored, replayed []ir.TraceEvent) int64 {
	n := min(len(stored), len(replayed))
	for i := range n {
		if stored[i] != replayed[i] {
			return stored[i].Seq
		}
	}
	return int64(n + 1)
}

// outputReplayText prints one line per scenario.
func outputReplayText(formatter *OutputFormatter, result ReplayResult) error {
	w := formatter.Writer
	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}

	for _, r := range result.Scenarios {
		switch r.Status {
		case ReplayMatch:
			fmt.Fprintf(w, "✓ %s  %s\n", r.Scenario, shortDigest(r.ReplayDigest))
		case ReplayMissing:
			fmt.Fprintf(w, "- %s  no recorded run\n", r.Scenario)
		default:
			fmt.Fprintf(w, "✗ %s  recorded %s, replayed %s (first divergence at seq %d)\n",
				r.Scenario, shortDigest(r.StoredDigest), shortDigest(r.ReplayDigest), r.FirstDivergence)
		}
		if r.TimelineChanged {
			fmt.Fprintln(w, "  timeline changed since the run was recorded")
		}
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
