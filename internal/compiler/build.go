package compiler

import (
	"fmt"
	"slices"

	"github.com/roach88/tempo/internal/blend"
	"github.com/roach88/tempo/internal/ir"
	"github.com/roach88/tempo/internal/leaf"
	"github.com/roach88/tempo/internal/timeline"
)

// BuildOptions wires a built timeline to its surroundings.
type BuildOptions struct {
	// Observer is installed on the timeline and every embedded timeline.
	Observer timeline.Observer

	// OnFunc is called when a func entry fires.
	OnFunc func(name string)

	// OnValue receives every value a lerp entry produces.
	OnValue func(name string, v float64)

	// Library resolves ref entries by timeline name.
	Library map[string]*ir.TimelineSpec
}

// Library indexes specs by name for BuildOptions.Library.
func Library(specs []ir.TimelineSpec) map[string]*ir.TimelineSpec {
	lib := make(map[string]*ir.TimelineSpec, len(specs))
	for i := range specs {
		lib[specs[i].Name] = &specs[i]
	}
	return lib
}

// Build creates a live timeline from spec. Every ref entry gets its own
// copy of the embedded timeline, since a timeline owns its children.
//
// Func entries are always open-ended: a callback skipped over by a late
// first tick still fires.
func Build(spec *ir.TimelineSpec, opts BuildOptions) (*timeline.Timeline, error) {
	b := &builder{opts: opts}
	return b.build(spec, spec.Name)
}

type builder struct {
	opts  BuildOptions
	stack []string
}

func (b *builder) build(spec *ir.TimelineSpec, name string) (*timeline.Timeline, error) {
	if slices.Contains(b.stack, spec.Name) {
		return nil, fmt.Errorf("timeline %q embeds itself", spec.Name)
	}
	b.stack = append(b.stack, spec.Name)
	defer func() { b.stack = b.stack[:len(b.stack)-1] }()

	opts := []timeline.Option{timeline.WithPrecision(spec.Precision)}
	if b.opts.Observer != nil {
		opts = append(opts, timeline.WithObserver(b.opts.Observer))
	}
	tl := timeline.New(name, opts...)
	if err := b.addEntries(tl, spec.Entries); err != nil {
		return nil, fmt.Errorf("timeline %q: %w", spec.Name, err)
	}
	return tl, nil
}

func (b *builder) addEntries(tl *timeline.Timeline, entries []ir.EntrySpec) error {
	for i := range entries {
		if err := b.addEntry(tl, &entries[i]); err != nil {
			return fmt.Errorf("entry %d (%s %q): %w", i, entries[i].Kind, entries[i].Name, err)
		}
	}
	return nil
}

func (b *builder) addEntry(tl *timeline.Timeline, e *ir.EntrySpec) error {
	relTo, ok := timeline.ParseRelativeStart(e.RelTo)
	if !ok {
		return fmt.Errorf("unknown anchor %q", e.RelTo)
	}

	var err error
	switch e.Kind {
	case ir.KindWait:
		_, err = tl.AddChild(leaf.NewWait(e.Name, e.Duration), e.Start, relTo)

	case ir.KindFunc:
		name := e.Name
		_, err = tl.AddChild(leaf.NewFunc(name, true, func() {
			if b.opts.OnFunc != nil {
				b.opts.OnFunc(name)
			}
		}), e.Start, relTo)

	case ir.KindLerp:
		curve, perr := blend.Parse(e.Blend)
		if perr != nil {
			return perr
		}
		name := e.Name
		lerp := leaf.NewLerpFunc(name, e.Duration, e.From, e.To, curve, func(v float64) {
			if b.opts.OnValue != nil {
				b.opts.OnValue(name, v)
			}
		})
		_, err = tl.AddChild(lerp, e.Start, relTo)

	case ir.KindExternal:
		_, err = tl.AddExternal(e.Handle, e.Name, e.Duration, e.OpenEnded, e.Start, relTo)

	case ir.KindLevel:
		if _, err = tl.PushLevel(e.Name, e.Start, relTo); err != nil {
			return err
		}
		if err = b.addEntries(tl, e.Entries); err != nil {
			return err
		}
		levelDuration := -1.0
		if e.LevelDuration != nil {
			levelDuration = *e.LevelDuration
		}
		_, err = tl.PopLevel(levelDuration)

	case ir.KindRef:
		target, found := b.opts.Library[e.Ref]
		if !found {
			return fmt.Errorf("unknown timeline %q", e.Ref)
		}
		name := e.Name
		if name == "" {
			name = e.Ref
		}
		child, berr := b.build(target, name)
		if berr != nil {
			return berr
		}
		_, err = tl.AddChild(child, e.Start, relTo)

	default:
		return fmt.Errorf("unknown entry kind %q", e.Kind)
	}
	return err
}
