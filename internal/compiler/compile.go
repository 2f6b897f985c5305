package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tempo/internal/ir"
)

// CompileTimeline parses a CUE value into a TimelineSpec. The value is the
// timeline struct itself, and its name is taken from the last path label:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`timeline: intro: { entries: [...] }`)
//	spec, err := CompileTimeline(v.LookupPath(cue.ParsePath("timeline.intro")))
func CompileTimeline(v cue.Value) (*ir.TimelineSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.TimelineSpec{}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		sel := labels[len(labels)-1]
		if sel.LabelType() == cue.StringLabel {
			spec.Name = sel.Unquoted()
		} else {
			spec.Name = sel.String()
		}
	}
	if name, ok, err := lookupString(v, "name"); err != nil {
		return nil, err
	} else if ok {
		spec.Name = name
	}

	precision, _, err := lookupFloat(v, "precision")
	if err != nil {
		return nil, err
	}
	spec.Precision = precision

	entriesVal := v.LookupPath(cue.ParsePath("entries"))
	if !entriesVal.Exists() {
		return nil, &CompileError{Field: "entries", Message: "entries is required", Pos: v.Pos()}
	}
	spec.Entries, err = parseEntries(entriesVal)
	if err != nil {
		return nil, err
	}
	return spec, nil
}

// CompileDocument compiles every timeline under the top-level "timeline"
// field. All failures are collected.
func CompileDocument(v cue.Value) ([]ir.TimelineSpec, []error) {
	if err := v.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}
	root := v.LookupPath(cue.ParsePath("timeline"))
	if !root.Exists() {
		return nil, []error{&CompileError{Field: "timeline", Message: "no timelines defined", Pos: v.Pos()}}
	}
	iter, err := root.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}

	var specs []ir.TimelineSpec
	var errs []error
	for iter.Next() {
		spec, err := CompileTimeline(iter.Value())
		if err != nil {
			errs = append(errs, fmt.Errorf("timeline.%s: %w", iter.Label(), err))
			continue
		}
		specs = append(specs, *spec)
	}
	return specs, errs
}

// CompileSource compiles CUE source text. filename is used in positions.
func CompileSource(filename string, src []byte) ([]ir.TimelineSpec, []error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	return CompileDocument(v)
}

// LoadFile reads and compiles a single CUE file.
func LoadFile(path string) ([]ir.TimelineSpec, []error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, []error{fmt.Errorf("reading %s: %w", path, err)}
	}
	return CompileSource(path, src)
}

func parseEntries(v cue.Value) ([]ir.EntrySpec, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var entries []ir.EntrySpec
	for iter.Next() {
		entry, err := parseEntry(iter.Value())
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseEntry(v cue.Value) (ir.EntrySpec, error) {
	var e ir.EntrySpec

	kind, ok, err := lookupString(v, "kind")
	if err != nil {
		return e, err
	}
	if !ok {
		return e, &CompileError{Field: "kind", Message: "kind is required", Pos: v.Pos()}
	}
	e.Kind = ir.EntryKind(kind)

	if e.Name, _, err = lookupString(v, "name"); err != nil {
		return e, err
	}
	if e.Duration, _, err = lookupFloat(v, "duration"); err != nil {
		return e, err
	}
	if e.OpenEnded, _, err = lookupBool(v, "open_ended"); err != nil {
		return e, err
	}
	if e.Start, _, err = lookupFloat(v, "start"); err != nil {
		return e, err
	}
	if e.RelTo, _, err = lookupString(v, "rel_to"); err != nil {
		return e, err
	}
	handle, _, err := lookupInt(v, "handle")
	if err != nil {
		return e, err
	}
	e.Handle = int(handle)
	if e.From, _, err = lookupFloat(v, "from"); err != nil {
		return e, err
	}
	if e.To, _, err = lookupFloat(v, "to"); err != nil {
		return e, err
	}
	if e.Blend, _, err = lookupString(v, "blend"); err != nil {
		return e, err
	}
	if e.Ref, _, err = lookupString(v, "ref"); err != nil {
		return e, err
	}

	levelDuration, ok, err := lookupFloat(v, "level_duration")
	if err != nil {
		return e, err
	}
	if ok {
		e.LevelDuration = &levelDuration
	}

	if children := v.LookupPath(cue.ParsePath("entries")); children.Exists() {
		if e.Entries, err = parseEntries(children); err != nil {
			return e, err
		}
	}
	return e, nil
}

func lookupString(v cue.Value, field string) (string, bool, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return "", false, nil
	}
	s, err := f.String()
	if err != nil {
		return "", true, &CompileError{Field: field, Message: "must be a string", Pos: f.Pos()}
	}
	return s, true, nil
}

func lookupFloat(v cue.Value, field string) (float64, bool, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return 0, false, nil
	}
	n, err := f.Float64()
	if err != nil {
		return 0, true, &CompileError{Field: field, Message: "must be a number", Pos: f.Pos()}
	}
	return n, true, nil
}

func lookupInt(v cue.Value, field string) (int64, bool, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return 0, false, nil
	}
	n, err := f.Int64()
	if err != nil {
		return 0, true, &CompileError{Field: field, Message: "must be an integer", Pos: f.Pos()}
	}
	return n, true, nil
}

func lookupBool(v cue.Value, field string) (bool, bool, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return false, false, nil
	}
	b, err := f.Bool()
	if err != nil {
		return false, true, &CompileError{Field: field, Message: "must be a boolean", Pos: f.Pos()}
	}
	return b, true, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
