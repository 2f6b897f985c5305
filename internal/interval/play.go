package interval

import (
	"fmt"
	"math"
)

// playState holds the self-driving bookkeeping of an interval.
type playState struct {
	startT       float64
	startAtStart bool
	endT         float64
	endAtEnd     bool
	clockStart   float64
	rate         float64
	loop         bool
	loopCount    int
}

// PlayOptions selects the window and rate for self-driving mode.
type PlayOptions struct {
	// StartT is the local time playback starts from. Values <= 0 mean the
	// very beginning.
	StartT float64

	// EndT is the local time playback stops at. A negative value, or one at
	// or beyond the duration, means the full duration; in that case the
	// duration is re-read on every poll.
	EndT float64

	// Rate scales elapsed frame time. Negative rates play backward. Zero is
	// rejected.
	Rate float64

	// Loop keeps the interval playing after a full pass.
	Loop bool
}

// DefaultPlayOptions plays the full interval once at normal speed.
func DefaultPlayOptions() PlayOptions {
	return PlayOptions{StartT: 0, EndT: -1, Rate: 1}
}

// SetupPlay prepares iv for StepPlay, anchoring the play window at frame
// time now.
func SetupPlay(iv Interval, now float64, opts PlayOptions) error {
	if opts.Rate == 0 {
		return fmt.Errorf("setup play %q: play rate must be non-zero", iv.Name())
	}
	if opts.EndT >= 0 && opts.StartT >= opts.EndT {
		return fmt.Errorf("setup play %q: start %g must precede end %g", iv.Name(), opts.StartT, opts.EndT)
	}

	p := &iv.Core().play
	duration := iv.Duration()

	switch {
	case opts.StartT <= 0:
		p.startT = 0
		p.startAtStart = true
	case opts.StartT > duration:
		p.startT = duration
		p.startAtStart = false
	default:
		p.startT = opts.StartT
		p.startAtStart = false
	}

	if opts.EndT < 0 || opts.EndT >= duration {
		p.endT = duration
		p.endAtEnd = true
	} else {
		p.endT = opts.EndT
		p.endAtEnd = false
	}

	p.clockStart = now
	p.rate = opts.Rate
	p.loop = opts.Loop
	p.loopCount = 0
	return nil
}

// Resume re-anchors the play clock so that playback continues from the
// interval's current time at frame time now.
func Resume(iv Interval, now float64) {
	p := &iv.Core().play
	switch {
	case p.rate > 0:
		p.clockStart = now - (iv.T()-p.startT)/p.rate
	case p.rate < 0:
		p.clockStart = now - (iv.T()-p.endT)/p.rate
	}
	p.loopCount = 0
}

// LoopCount returns the number of complete passes counted since SetupPlay or
// Resume.
func LoopCount(iv Interval) int {
	return iv.Core().play.loopCount
}

// Continues reports whether a registry should keep polling iv.
func Continues(iv Interval) bool {
	p := &iv.Core().play
	return p.loopCount == 0 || p.loop
}

// StepPlay advances iv to the local time implied by frame time now and
// returns the loop counter. When more than one cycle elapsed since the last
// poll, the counter advances by the whole number of skipped cycles and the
// play clock is moved forward by the same amount instead of replaying them.
// A zero-length play window counts exactly one loop per poll.
//
// When the interval will not continue and is left mid-pass (because the play
// window ended before the duration), it is interrupted.
func StepPlay(iv Interval, now float64) (int, error) {
	p := &iv.Core().play

	var err error
	if p.rate >= 0 {
		err = stepForward(iv, p, now)
	} else {
		err = stepReverse(iv, p, now)
	}
	if err != nil {
		return p.loopCount, err
	}

	if !Continues(iv) && iv.State() == StateStarted {
		if err := iv.Interrupt(); err != nil {
			return p.loopCount, err
		}
	}
	return p.loopCount, nil
}

func stepForward(iv Interval, p *playState, now float64) error {
	t := (now-p.clockStart)*p.rate + p.startT
	if p.endAtEnd {
		p.endT = iv.Duration()
	}

	if t < p.endT {
		if iv.State().Stopped() {
			return iv.Initialize(t)
		}
		return iv.Step(t)
	}

	var err error
	switch {
	case p.endAtEnd && iv.State().Stopped():
		// Only replay a skipped-over interval if it wants to be seen.
		if iv.OpenEnded() || p.loopCount != 0 {
			err = iv.Instant()
		}
	case p.endAtEnd:
		err = iv.Finalize()
	case iv.State().Stopped():
		err = iv.Initialize(p.endT)
	default:
		err = iv.Step(p.endT)
	}
	// A failed terminal dispatch still ends the pass.
	advanceLoops(p, now, p.rate)
	return err
}

func stepReverse(iv Interval, p *playState, now float64) error {
	t := (now-p.clockStart)*p.rate + p.endT

	if t >= p.startT {
		if iv.State().Stopped() {
			return iv.ReverseInitialize(t)
		}
		return iv.Step(t)
	}

	var err error
	switch {
	case p.startAtStart && iv.State().Stopped():
		if iv.OpenEnded() || p.loopCount != 0 {
			err = iv.ReverseInstant()
		}
	case p.startAtStart:
		err = iv.ReverseFinalize()
	case iv.State().Stopped():
		err = iv.ReverseInitialize(p.startT)
	default:
		err = iv.Step(p.startT)
	}
	advanceLoops(p, now, -p.rate)
	return err
}

// advanceLoops counts the whole cycles elapsed since clockStart.
func advanceLoops(p *playState, now, speed float64) {
	if p.endT == p.startT {
		p.loopCount++
		return
	}
	timePerLoop := (p.endT - p.startT) / speed
	numLoops := math.Floor((now - p.clockStart) / timePerLoop)
	p.loopCount += int(numLoops)
	p.clockStart += numLoops * timePerLoop
}

// Seek moves iv to local time t and leaves it paused there, whatever state
// it was in. Use Resume to continue self-driving playback from t.
func Seek(iv Interval, t float64) error {
	var err error
	switch iv.State() {
	case StateInitial:
		err = iv.Initialize(t)
	case StateStarted, StatePaused:
		err = iv.Step(t)
	case StateFinal:
		err = iv.ReverseInitialize(t)
	}
	if err != nil {
		return err
	}
	if iv.State() == StateStarted {
		return iv.Interrupt()
	}
	return nil
}
