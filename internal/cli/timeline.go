package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tempo/internal/compiler"
)

// TimelineOptions holds flags for the timeline command.
type TimelineOptions struct {
	*RootOptions
	Name   string // timeline to dump when the document defines several
	Events bool   // dump the flattened event list instead of definitions
}

// TimelineDump is the JSON form of the timeline command output.
type TimelineDump struct {
	Name     string       `json:"name"`
	Duration float64      `json:"duration"`
	Dump     string       `json:"dump"`
	Events   []EventEntry `json:"events,omitempty"`
	Warnings []string     `json:"warnings,omitempty"`
}

// EventEntry is one flattened begin or end event.
type EventEntry struct {
	Ticks int64   `json:"ticks"`
	Time  float64 `json:"time"`
	Kind  string  `json:"kind"`
	Name  string  `json:"name"`
}

// NewTimelineCommand creates the timeline command.
func NewTimelineCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TimelineOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "timeline <path>",
		Short: "Print a timeline's resolved structure",
		Long: `Print a timeline's definitions with resolved begin times, or its
flattened begin/end event list with --events.

Examples:
  tempo timeline ./show.cue
  tempo timeline ./timelines --name intro --events`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimeline(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "timeline name (required when several are defined)")
	cmd.Flags().BoolVar(&opts.Events, "events", false, "print the flattened event list")

	return cmd
}

func runTimeline(opts *TimelineOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, loadErrors := LoadTimelines(path, LoadModeFailFast)
	if len(loadErrors) > 0 {
		code, message := loadErrorCode(loadErrors[0])
		_ = formatter.Error(code, message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
	}

	spec, err := loadResult.Find(opts.Name)
	if err != nil {
		code, message := loadErrorCode(err)
		_ = formatter.Error(code, message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
	}

	if verrs := compiler.Validate(loadResult.Timelines); len(verrs) > 0 {
		return outputValidationErrors(formatter, verrs)
	}

	tl, err := compiler.Build(spec, compiler.BuildOptions{Library: compiler.Library(loadResult.Timelines)})
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to build timeline", err)
	}

	var sb strings.Builder
	if opts.Events {
		err = tl.WriteTimeline(&sb)
	} else {
		err = tl.Write(&sb)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to write timeline", err)
	}

	if formatter.JSON() {
		dump := TimelineDump{Name: spec.Name, Duration: tl.Duration(), Dump: sb.String()}
		if opts.Events {
			for _, ev := range tl.Events() {
				dump.Events = append(dump.Events, EventEntry{Ticks: ev.Ticks, Time: ev.Time, Kind: ev.Kind, Name: ev.Name})
			}
		}
		for _, w := range tl.Warnings() {
			dump.Warnings = append(dump.Warnings, w.Error())
		}
		return formatter.Success(dump)
	}

	fmt.Fprint(formatter.Writer, sb.String())
	for _, w := range tl.Warnings() {
		fmt.Fprintf(formatter.GetErrWriter(), "warning: %s\n", w)
	}
	return nil
}
