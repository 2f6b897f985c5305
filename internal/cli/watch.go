package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/roach88/tempo/internal/harness"
	"github.com/roach88/tempo/internal/store"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	RunOptions
	Debounce time.Duration // quiet period before re-running
	MaxRuns  int           // stop after this many runs; 0 watches until interrupted
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RunOptions: RunOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "watch <scenario-file>",
		Short: "Re-run a scenario whenever it or its timeline changes",
		Long: `Run a scenario, then watch the scenario file and the timeline file it
plays, re-running it after every change. Stops on interrupt.

Examples:
  tempo watch ./scenarios/intro.yaml
  tempo watch ./scenarios/intro.yaml --db ./tempo.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Debounce, "debounce", 200*time.Millisecond, "quiet period before re-running")
	cmd.Flags().IntVar(&opts.MaxRuns, "max-runs", 0, "stop after this many runs (0 = until interrupted)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record runs in this SQLite database")

	return cmd
}

func runWatch(opts *WatchOptions, path string, cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		msg := fmt.Sprintf("scenario file not found: %s", path)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
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

	runs := 0
	runOnce := func() {
		runs++
		sr := runScenarioFile(ctx, path, st, &opts.RunOptions, formatter)
		if formatter.JSON() {
			_ = formatter.Success(sr)
		}
	}

	runOnce()
	if opts.MaxRuns > 0 && runs >= opts.MaxRuns {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start watcher", err)
	}
	defer w.Close()

	targets, err := watchTargets(w, path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to watch files", err)
	}
	formatter.VerboseLog("Watching %d file(s)", len(targets))

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !targets[filepath.Clean(ev.Name)] || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			slog.Debug("watched file changed", "file", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(opts.Debounce)
			} else {
				timer.Reset(opts.Debounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "err", err)
		case <-fire:
			fire = nil
			runOnce()
			if opts.MaxRuns > 0 && runs >= opts.MaxRuns {
				return nil
			}
			// The scenario may now point at a different timeline file.
			if targets, err = watchTargets(w, path); err != nil {
				return WrapExitError(ExitCommandError, "failed to watch files", err)
			}
		}
	}
}

// watchTargets adds the directories of the scenario file and its timeline
// file to w and returns the cleaned absolute paths of both files. Watching
// directories survives editors that replace files on save.
func watchTargets(w *fsnotify.Watcher, scenarioPath string) (map[string]bool, error) {
	files := []string{scenarioPath}
	if s, err := harness.LoadScenario(scenarioPath); err == nil && s.TimelinePath() != "" {
		files = append(files, s.TimelinePath())
	}

	targets := make(map[string]bool, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, err
		}
		targets[abs] = true
		if err := w.Add(filepath.Dir(abs)); err != nil {
			return nil, err
		}
	}
	return targets, nil
}
