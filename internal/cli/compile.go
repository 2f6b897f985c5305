package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tempo/internal/compiler"
	"github.com/roach88/tempo/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledTimeline is one entry of the compile output.
type CompiledTimeline struct {
	Name    string `json:"name"`
	Digest  string `json:"digest"`
	Entries int    `json:"entries"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <path>",
		Short: "Compile CUE timelines to canonical JSON",
		Long: `Compile CUE timeline documents to canonical JSON.

The output is an array of timeline descriptions with object keys sorted,
times in integer milliseconds, and names NFC normalized, so equal documents
always compile to equal bytes.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, loadErrors := LoadTimelines(path, LoadModeCollectAll)
	if len(loadErrors) > 0 {
		code, message := loadErrorCode(loadErrors[0])
		_ = formatter.Error(code, message, errorStrings(loadErrors))
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, path)

	if verrs := compiler.Validate(loadResult.Timelines); len(verrs) > 0 {
		return outputValidationErrors(formatter, verrs)
	}

	arr := make(ir.Array, 0, len(loadResult.Timelines))
	summary := make([]CompiledTimeline, 0, len(loadResult.Timelines))
	for i := range loadResult.Timelines {
		spec := &loadResult.Timelines[i]
		digest, err := ir.TimelineDigest(spec)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to hash timeline", err)
		}
		arr = append(arr, ir.Object{
			"digest":   ir.String(digest),
			"timeline": spec.ToValue(),
		})
		summary = append(summary, CompiledTimeline{Name: spec.Name, Digest: digest, Entries: len(spec.Entries)})
	}

	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode timelines", err)
	}

	if opts.Output == "" {
		if formatter.JSON() {
			return formatter.Success(summary)
		}
		fmt.Fprintln(formatter.Writer, string(data))
		return nil
	}

	if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}

	if formatter.JSON() {
		return formatter.Success(summary)
	}
	fmt.Fprintf(formatter.Writer, "✓ Compiled %d timeline(s) to %s\n", len(summary), opts.Output)
	for _, s := range summary {
		fmt.Fprintf(formatter.Writer, "  %s  %s\n", s.Digest[:12], s.Name)
	}
	return nil
}

func errorStrings(errs []error) []string {
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}
