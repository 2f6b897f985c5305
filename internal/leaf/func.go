package leaf

import "github.com/roach88/tempo/internal/interval"

// Func calls a function once, when played forward through Instant.
// Reverse passes do not call it.
type Func struct {
	*interval.Base
	fn func()
}

// NewFunc creates a zero-length callback interval. An open-ended Func still
// fires when a timeline initializes past it.
func NewFunc(name string, openEnded bool, fn func()) *Func {
	return &Func{
		Base: interval.NewBase(name, 0, openEnded, nil),
		fn:   fn,
	}
}

// Instant completes the interval and calls the function.
func (f *Func) Instant() error {
	if err := f.Base.Instant(); err != nil {
		return err
	}
	if f.fn != nil {
		f.fn()
	}
	return nil
}
