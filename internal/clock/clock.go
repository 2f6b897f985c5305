package clock

import (
	"sync/atomic"
	"time"
)

// Clock reports the current frame time in seconds.
type Clock interface {
	Now() float64
}

// Frame is a manually advanced frame clock.
//
// The driver calls Advance (or Set) once per tick before stepping the
// registry. Frame never moves on its own, which makes every time-based test
// deterministic.
type Frame struct {
	now    float64
	frames int64
}

// NewFrame creates a frame clock at time 0.
func NewFrame() *Frame {
	return &Frame{}
}

// NewFrameAt creates a frame clock at the given time.
func NewFrameAt(t float64) *Frame {
	return &Frame{now: t}
}

// Now returns the current frame time.
func (f *Frame) Now() float64 {
	return f.now
}

// Advance moves the clock forward by dt seconds and counts one frame.
func (f *Frame) Advance(dt float64) float64 {
	f.now += dt
	f.frames++
	return f.now
}

// Set jumps the clock to t and counts one frame. t may be earlier than the
// current time; intervals handle time running backward.
func (f *Frame) Set(t float64) {
	f.now = t
	f.frames++
}

// Frames returns how many times the clock has been advanced.
func (f *Frame) Frames() int64 {
	return f.frames
}

// Wall reads elapsed real time since it was created.
type Wall struct {
	start time.Time
}

// NewWall creates a wall clock whose zero is now.
func NewWall() *Wall {
	return &Wall{start: time.Now()}
}

// Now returns seconds elapsed since NewWall, using the monotonic clock.
func (w *Wall) Now() float64 {
	return time.Since(w.start).Seconds()
}

// Sequence is a monotonic logical counter for ordering trace records.
//
// Thread-safety: Sequence is safe for concurrent use, although the scheduler
// itself only ever touches it from the driver goroutine.
type Sequence struct {
	seq atomic.Int64
}

// NewSequence creates a sequence starting at 0. The first Next returns 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// NewSequenceAt creates a sequence that resumes after start.
func NewSequenceAt(start int64) *Sequence {
	s := &Sequence{}
	s.seq.Store(start)
	return s
}

// Next returns the next sequence number.
func (s *Sequence) Next() int64 {
	return s.seq.Add(1)
}

// Current returns the last issued sequence number without incrementing.
func (s *Sequence) Current() int64 {
	return s.seq.Load()
}
