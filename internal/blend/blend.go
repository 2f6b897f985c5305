// Package blend maps duration-normalized time onto eased time for
// value-interpolating intervals.
package blend

import (
	"fmt"
	"strings"

	"github.com/tanema/gween/ease"
)

// Curve maps t in [0,1] to an eased value. Implementations clamp t first.
type Curve interface {
	Eval(t float64) float64
}

// Type is one of the built-in blend curves.
type Type int

const (
	NoBlend Type = iota
	EaseIn
	EaseOut
	EaseInOut
)

func (b Type) String() string {
	switch b {
	case NoBlend:
		return "noBlend"
	case EaseIn:
		return "easeIn"
	case EaseOut:
		return "easeOut"
	case EaseInOut:
		return "easeInOut"
	default:
		return "invalid"
	}
}

// Eval evaluates the curve at t, clamped to [0,1].
func (b Type) Eval(t float64) float64 {
	t = clamp(t)
	switch b {
	case EaseIn:
		t2 := t * t
		return (3*t2 - t2*t) * 0.5
	case EaseOut:
		return (3*t - t*t*t) * 0.5
	case EaseInOut:
		t2 := t * t
		return 3*t2 - 2*t*t2
	default:
		return t
	}
}

// Ease adapts a gween easing function to Curve.
type Ease struct {
	Name string
	Fn   ease.TweenFunc
}

// Eval evaluates the easing function over a unit change in unit time.
func (e Ease) Eval(t float64) float64 {
	return float64(e.Fn(float32(clamp(t)), 0, 1, 1))
}

var easings = map[string]ease.TweenFunc{
	"linear":     ease.Linear,
	"inquad":     ease.InQuad,
	"outquad":    ease.OutQuad,
	"inoutquad":  ease.InOutQuad,
	"incubic":    ease.InCubic,
	"outcubic":   ease.OutCubic,
	"inoutcubic": ease.InOutCubic,
	"insine":     ease.InSine,
	"outsine":    ease.OutSine,
	"inoutsine":  ease.InOutSine,
	"outbounce":  ease.OutBounce,
	"outelastic": ease.OutElastic,
}

// Parse resolves a curve name. The built-in names are noBlend, easeIn,
// easeOut and easeInOut (an empty name means noBlend). Names of the form
// "ease:<name>", such as "ease:outBounce", select a named easing function.
func Parse(name string) (Curve, error) {
	switch name {
	case "", "noBlend":
		return NoBlend, nil
	case "easeIn":
		return EaseIn, nil
	case "easeOut":
		return EaseOut, nil
	case "easeInOut":
		return EaseInOut, nil
	}

	if rest, ok := strings.CutPrefix(name, "ease:"); ok {
		if fn, ok := easings[strings.ToLower(rest)]; ok {
			return Ease{Name: rest, Fn: fn}, nil
		}
	}
	return nil, fmt.Errorf("unknown blend type %q", name)
}

// At evaluates c at elapsed time t of an interval lasting duration. A
// zero-length interval always evaluates to the terminal value 1.
func At(c Curve, t, duration float64) float64 {
	if duration <= 0 {
		return 1
	}
	return c.Eval(t / duration)
}

func clamp(t float64) float64 {
	return min(max(t, 0), 1)
}
