package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/tempo/internal/ir"
	"github.com/roach88/tempo/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Name     string // optional - filter to one interval name
}

// TraceResult holds the trace of one recorded run.
type TraceResult struct {
	Run   store.Run       `json:"run"`
	Trace []ir.TraceEvent `json:"trace"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [run-id]",
		Short: "Query recorded runs",
		Long: `Query runs recorded with "tempo run --db".

Without a run id, lists every recorded run. With one, prints its dispatch
trace in order, optionally narrowed to one interval name.

Examples:
  tempo trace --db ./tempo.db
  tempo trace --db ./tempo.db 01928c4e-... --name fade
  tempo trace --db ./tempo.db 01928c4e-... --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runListRuns(opts, cmd)
			}
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Name, "name", "", "filter to one interval name")

	return cmd
}

func runListRuns(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(commandContext(cmd))
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if formatter.JSON() {
		return formatter.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSCENARIO\tTIMELINE\tPASS\tFRAMES\tDISPATCHES\tTRACE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%d\t%d\t%s\n",
			r.ID, r.Scenario, r.Timeline, r.Passed, r.Frames, r.Dispatches, shortDigest(r.TraceDigest))
	}
	return tw.Flush()
}

func runTrace(opts *TraceOptions, id string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	run, err := st.ReadRun(ctx, id)
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("run %s not found", id), nil)
		return WrapExitError(ExitCommandError, "run not found", err)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	var trace []ir.TraceEvent
	if opts.Name != "" {
		trace, err = st.ReadIntervalTrace(ctx, id, opts.Name)
	} else {
		trace, err = st.ReadTrace(ctx, id)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read trace", err)
	}

	if formatter.JSON() {
		return formatter.Success(TraceResult{Run: run, Trace: trace})
	}
	return outputTraceText(formatter, run, trace)
}

// outputTraceText prints a run header followed by one line per dispatch.
func outputTraceText(formatter *OutputFormatter, run store.Run, trace []ir.TraceEvent) error {
	w := formatter.Writer
	status := "passed"
	if !run.Passed {
		status = "failed"
	}
	fmt.Fprintf(w, "Run %s (%s, timeline %s, %s)\n", run.ID, run.Scenario, run.Timeline, status)
	formatter.VerboseLog("trace digest %s, timeline digest %s, engine %s", run.TraceDigest, run.TimelineDigest, run.EngineVersion)

	if len(trace) == 0 {
		fmt.Fprintln(w, "No dispatches.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tFRAME\tNAME\tEVENT\tTICKS\t")
	for _, ev := range trace {
		ext := ""
		if ev.External {
			ext = fmt.Sprintf("external %d", ev.Handle)
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%d\t%s\n", ev.Seq, ev.Frame, ev.Name, ev.Event, ev.Ticks, ext)
	}
	return tw.Flush()
}
