package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tempo/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                       `json:"valid"`
	Timelines []TimelineSummary          `json:"timelines,omitempty"`
	Errors    []compiler.ValidationError `json:"errors,omitempty"`
}

// TimelineSummary describes one valid timeline.
type TimelineSummary struct {
	Name     string   `json:"name"`
	Duration float64  `json:"duration"`
	Entries  int      `json:"entries"`
	Warnings []string `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Validate timeline documents",
		Long: `Validate CUE timeline documents.

Checks syntax, entry kinds, anchors, blend names, external handles and
timeline references, then builds every timeline to report its duration
and any structure warnings.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, loadErrors := LoadTimelines(path, LoadModeCollectAll)
	if loadResult == nil {
		code, message := loadErrorCode(loadErrors[0])
		_ = formatter.Error(code, message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, path)

	var verrs []compiler.ValidationError
	for _, err := range loadErrors {
		code, message := loadErrorCode(err)
		verrs = append(verrs, compiler.ValidationError{Field: "load", Message: message, Code: code})
	}
	verrs = append(verrs, compiler.Validate(loadResult.Timelines)...)
	if len(verrs) > 0 {
		return outputValidationErrors(formatter, verrs)
	}

	lib := compiler.Library(loadResult.Timelines)
	summaries := make([]TimelineSummary, 0, len(loadResult.Timelines))
	for i := range loadResult.Timelines {
		spec := &loadResult.Timelines[i]
		formatter.VerboseLog("Building timeline: %s", spec.Name)
		tl, err := compiler.Build(spec, compiler.BuildOptions{Library: lib})
		if err != nil {
			return outputValidationErrors(formatter, []compiler.ValidationError{{
				Field: "timeline." + spec.Name, Message: err.Error(), Code: ErrCodeGeneric,
			}})
		}
		s := TimelineSummary{Name: spec.Name, Duration: tl.Duration(), Entries: tl.Len()}
		for _, w := range tl.Warnings() {
			s.Warnings = append(s.Warnings, w.Error())
		}
		summaries = append(summaries, s)
	}

	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true, Timelines: summaries})
	}

	fmt.Fprintf(formatter.Writer, "✓ %d timeline(s) valid\n", len(summaries))
	for _, s := range summaries {
		fmt.Fprintf(formatter.Writer, "  %-20s %8.3fs  %d definition(s)\n", s.Name, s.Duration, s.Entries)
		for _, w := range s.Warnings {
			fmt.Fprintf(formatter.Writer, "    warning: %s\n", w)
		}
	}
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.JSON() {
		if err := formatter.Failure(ValidationResult{Valid: false, Errors: errs}, errs[0].Code, errs[0].Message); err != nil {
			return err
		}
		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
