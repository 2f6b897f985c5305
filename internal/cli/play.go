package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/roach88/tempo/internal/clock"
	"github.com/roach88/tempo/internal/compiler"
	"github.com/roach88/tempo/internal/harness"
	"github.com/roach88/tempo/internal/interval"
	"github.com/roach88/tempo/internal/ir"
	"github.com/roach88/tempo/internal/registry"
	"github.com/roach88/tempo/internal/timeline"
)

// Clock modes for the play command.
const (
	ClockWall  = "wall"
	ClockFrame = "frame"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Name        string
	FPS         float64
	Rate        float64
	Start       float64
	End         float64
	Loop        bool
	External    bool
	Clock       string // "wall" paces frames in real time, "frame" steps as fast as possible
	MaxFrames   int64
	OnInterrupt string // "finish" or "pause"
}

// PlayResult is the JSON form of a finished playback.
type PlayResult struct {
	Timeline    string             `json:"timeline"`
	Frames      int64              `json:"frames"`
	State       string             `json:"state"`
	Interrupted bool               `json:"interrupted,omitempty"`
	Calls       []string           `json:"calls,omitempty"`
	Values      map[string]float64 `json:"values,omitempty"`
	Trace       []ir.TraceEvent    `json:"trace"`
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play <path>",
		Short: "Play a timeline and print its dispatches",
		Long: `Play a timeline through a registry, printing every dispatch as it
happens. External entries are acknowledged as soon as they are ready.

With the wall clock, frames are paced at --fps in real time; with the frame
clock, the clock advances 1/fps per frame without waiting. Playback ends
when the timeline is removed, after --max-frames, or on interrupt.

Examples:
  tempo play ./show.cue
  tempo play ./timelines --name intro --rate 2 --loop --max-frames 600
  tempo play ./show.cue --clock frame --fps 10 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "timeline name (required when several are defined)")
	cmd.Flags().Float64Var(&opts.FPS, "fps", 60, "frames per second")
	cmd.Flags().Float64Var(&opts.Rate, "rate", 1, "play rate (negative plays backward)")
	cmd.Flags().Float64Var(&opts.Start, "start", 0, "local start time in seconds")
	cmd.Flags().Float64Var(&opts.End, "end", -1, "local end time in seconds (-1 = full duration)")
	cmd.Flags().BoolVar(&opts.Loop, "loop", false, "loop playback")
	cmd.Flags().BoolVar(&opts.External, "external", false, "register as external and acknowledge its events")
	cmd.Flags().StringVar(&opts.Clock, "clock", ClockWall, "clock mode (wall|frame)")
	cmd.Flags().Int64Var(&opts.MaxFrames, "max-frames", 0, "stop after this many frames (0 = no limit)")
	cmd.Flags().StringVar(&opts.OnInterrupt, "on-interrupt", "finish", "what an interrupt does (finish|pause)")

	return cmd
}

// player drives one timeline through a registry.
type player struct {
	opts      *PlayOptions
	formatter *OutputFormatter
	frame     *clock.Frame
	seq       *clock.Sequence
	reg       *registry.Registry
	tl        *timeline.Timeline
	result    PlayResult
}

func runPlay(opts *PlayOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if err := checkPlayOptions(opts); err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid play options", err)
	}

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

	p := &player{
		opts:      opts,
		formatter: formatter,
		seq:       clock.NewSequence(),
		result: PlayResult{
			Timeline: spec.Name,
			Values:   make(map[string]float64),
			Trace:    []ir.TraceEvent{},
		},
	}

	var c clock.Clock
	if opts.Clock == ClockFrame {
		p.frame = clock.NewFrame()
		c = p.frame
	} else {
		c = clock.NewWall()
	}
	p.reg = registry.New(c)

	p.tl, err = compiler.Build(spec, compiler.BuildOptions{
		Observer: p.record,
		OnFunc:   p.call,
		OnValue:  func(name string, v float64) { p.result.Values[name] = v },
		Library:  compiler.Library(loadResult.Timelines),
	})
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to build timeline", err)
	}
	p.tl.SetAutoPause(opts.OnInterrupt == "pause")
	p.tl.SetAutoFinish(opts.OnInterrupt == "finish")

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := p.play(ctx); err != nil {
		return WrapExitError(ExitFailure, "playback failed", err)
	}

	p.result.State = p.tl.State().String()
	if formatter.JSON() {
		return formatter.Success(p.result)
	}
	fmt.Fprintf(formatter.Writer, "%s: %s after %d frame(s)\n", spec.Name, p.result.State, p.result.Frames)
	return nil
}

func checkPlayOptions(opts *PlayOptions) error {
	switch {
	case opts.FPS <= 0:
		return fmt.Errorf("fps must be positive, got %g", opts.FPS)
	case opts.Rate == 0:
		return errors.New("rate must be non-zero")
	case opts.Clock != ClockWall && opts.Clock != ClockFrame:
		return fmt.Errorf("invalid clock %q: must be %s or %s", opts.Clock, ClockWall, ClockFrame)
	case opts.OnInterrupt != "finish" && opts.OnInterrupt != "pause":
		return fmt.Errorf("invalid on-interrupt %q: must be finish or pause", opts.OnInterrupt)
	}
	return nil
}

// play runs the frame loop until the timeline is removed, the frame limit
// is reached, or ctx is canceled.
func (p *player) play(ctx context.Context) error {
	playOpts := interval.DefaultPlayOptions()
	playOpts.StartT = p.opts.Start
	playOpts.EndT = p.opts.End
	playOpts.Rate = p.opts.Rate
	playOpts.Loop = p.opts.Loop
	if _, err := p.reg.Start(p.tl, p.opts.External, playOpts); err != nil {
		return err
	}

	dt := 1 / p.opts.FPS
	limiter := rate.NewLimiter(rate.Every(time.Duration(dt*float64(time.Second))), 1)

	var errs []error
	for p.reg.Len() > 0 {
		if p.opts.MaxFrames > 0 && p.result.Frames >= p.opts.MaxFrames {
			break
		}
		if p.frame != nil {
			if ctx.Err() != nil {
				return p.interrupt()
			}
			p.frame.Advance(dt)
		} else if err := limiter.Wait(ctx); err != nil {
			return p.interrupt()
		}
		p.result.Frames++

		if err := p.reg.Step(); err != nil {
			errs = append(errs, fmt.Errorf("frame %d: %w", p.result.Frames, err))
		}
		p.drain()
	}
	return errors.Join(errs...)
}

// interrupt applies the registry's bulk interrupt after a signal.
func (p *player) interrupt() error {
	p.result.Interrupted = true
	n := p.reg.Interrupt()
	p.formatter.VerboseLog("interrupted %d interval(s)", n)
	p.drain()
	return nil
}

// drain acknowledges ready external events, then frees removed slots.
func (p *player) drain() {
	for {
		idx, ok := p.reg.NextEvent()
		if !ok {
			break
		}
		src, ok := p.reg.Get(idx).(*timeline.Timeline)
		if !ok {
			break
		}
		if err := src.AckEvent(); err != nil {
			if !errors.Is(err, timeline.ErrNoExternalEvent) {
				p.formatter.VerboseLog("ack failed: %v", err)
			}
			break
		}
	}
	for {
		if _, ok := p.reg.NextRemoval(); !ok {
			break
		}
	}
}

func (p *player) record(d timeline.Dispatch) {
	e := harness.ToTraceEvent(d, p.tl.Precision())
	e.Seq = p.seq.Next()
	e.Frame = p.result.Frames
	p.result.Trace = append(p.result.Trace, e)

	ext := ""
	if e.External {
		ext = fmt.Sprintf("  (external %d)", e.Handle)
	}
	p.formatter.Printf("%6d  %-10s %-10s %s%s\n", e.Frame, e.Name, e.Event, formatSeconds(d.T), ext)
}

func (p *player) call(name string) {
	p.result.Calls = append(p.result.Calls, name)
	p.formatter.Printf("%6d  %-10s call\n", p.result.Frames, name)
}

func formatSeconds(t float64) string {
	return fmt.Sprintf("%.3fs", t)
}
