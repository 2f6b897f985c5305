package leaf

import (
	"github.com/roach88/tempo/internal/blend"
	"github.com/roach88/tempo/internal/interval"
)

// LerpFunc interpolates a scalar between From and To over its duration and
// passes each value to a function.
type LerpFunc struct {
	*interval.Base
	From  float64
	To    float64
	curve blend.Curve
	fn    func(v float64)
}

// NewLerpFunc creates a value lerp. A nil curve means blend.NoBlend.
func NewLerpFunc(name string, duration, from, to float64, curve blend.Curve, fn func(v float64)) *LerpFunc {
	if curve == nil {
		curve = blend.NoBlend
	}
	l := &LerpFunc{From: from, To: to, curve: curve, fn: fn}
	l.Base = interval.NewBase(name, duration, true, l)
	return l
}

// Value returns the lerped value at local time t.
func (l *LerpFunc) Value(t float64) float64 {
	d := l.Duration()
	if t >= d {
		return l.To
	}
	bt := blend.At(l.curve, t, d)
	return l.From*(1-bt) + l.To*bt
}

// Apply implements interval.Action.
func (l *LerpFunc) Apply(t float64) error {
	if l.fn != nil {
		l.fn(l.Value(t))
	}
	return nil
}
