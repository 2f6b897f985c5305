package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/tempo/internal/blend"
	"github.com/roach88/tempo/internal/ir"
)

// Validation error codes (E100-E199).
const (
	ErrTimelineNameEmpty  = "E101" // timeline name is required
	ErrTimelineNoEntries  = "E102" // at least one entry required
	ErrUnknownEntryKind   = "E103" // kind is not one of the builder kinds
	ErrNegativeDuration   = "E104" // duration or level_duration below zero
	ErrInvalidRelTo       = "E105" // unknown anchor name
	ErrInvalidBlend       = "E106" // unknown blend curve
	ErrExternalHandle     = "E107" // external entry without a positive handle
	ErrDuplicateHandle    = "E108" // two external entries share a handle
	ErrUnknownRef         = "E109" // ref names a timeline that does not exist
	ErrRefCycle           = "E110" // timelines embed each other
	ErrNestedExternal     = "E111" // external entry in an embedded timeline
	ErrDuplicateName      = "E112" // two timelines share a name
	ErrUnexpectedChildren = "E113" // entries on a kind other than level
	ErrInvalidPrecision   = "E114" // precision below zero
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a document of timelines. It returns every problem found
// rather than stopping at the first.
func Validate(specs []ir.TimelineSpec) []ValidationError {
	var errs []ValidationError

	byName := make(map[string]int, len(specs))
	for i := range specs {
		name := specs[i].Name
		if _, dup := byName[name]; dup {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("timeline[%d].name", i),
				Message: fmt.Sprintf("duplicate timeline name: %q", name),
				Code:    ErrDuplicateName,
			})
			continue
		}
		byName[name] = i
	}

	embedded := make(map[string]bool)
	for i := range specs {
		errs = append(errs, ValidateTimeline(&specs[i])...)
		collectRefs(specs[i].Name, specs[i].Entries, byName, embedded, &errs)
	}

	for _, name := range sortedKeys(embedded) {
		idx, ok := byName[name]
		if !ok {
			continue
		}
		if path, found := findExternal(specs[idx].Entries, "entries"); found {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("timeline.%s.%s", name, path),
				Message: fmt.Sprintf("timeline %q is embedded by ref and cannot hold external entries", name),
				Code:    ErrNestedExternal,
			})
		}
	}

	for _, cycle := range AnalyzeRefs(specs) {
		errs = append(errs, ValidationError{
			Field:   "timeline." + cycle.Path[0],
			Message: cycle.Message,
			Code:    ErrRefCycle,
		})
	}
	return errs
}

// ValidateTimeline checks a single timeline in isolation. Refs are not
// resolved.
func ValidateTimeline(spec *ir.TimelineSpec) []ValidationError {
	var errs []ValidationError
	prefix := "timeline." + spec.Name

	if strings.TrimSpace(spec.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "timeline.name",
			Message: "timeline name is required and must be non-empty",
			Code:    ErrTimelineNameEmpty,
		})
	}
	if len(spec.Entries) == 0 {
		errs = append(errs, ValidationError{
			Field:   prefix + ".entries",
			Message: "at least one entry is required",
			Code:    ErrTimelineNoEntries,
		})
	}
	if spec.Precision < 0 {
		errs = append(errs, ValidationError{
			Field:   prefix + ".precision",
			Message: fmt.Sprintf("precision must be positive, got %g", spec.Precision),
			Code:    ErrInvalidPrecision,
		})
	}

	handles := make(map[int]string)
	validateEntries(spec.Entries, prefix+".entries", handles, &errs)
	return errs
}

func validateEntries(entries []ir.EntrySpec, path string, handles map[int]string, errs *[]ValidationError) {
	for i := range entries {
		e := &entries[i]
		field := fmt.Sprintf("%s[%d]", path, i)

		if !ir.ValidEntryKinds[e.Kind] {
			*errs = append(*errs, ValidationError{
				Field:   field + ".kind",
				Message: fmt.Sprintf("unknown entry kind %q", e.Kind),
				Code:    ErrUnknownEntryKind,
			})
			continue
		}
		if e.Duration < 0 {
			*errs = append(*errs, ValidationError{
				Field:   field + ".duration",
				Message: fmt.Sprintf("duration must not be negative, got %g", e.Duration),
				Code:    ErrNegativeDuration,
			})
		}
		if !ir.ValidRelTo[e.RelTo] {
			*errs = append(*errs, ValidationError{
				Field:   field + ".rel_to",
				Message: fmt.Sprintf("unknown anchor %q (want previous_end, previous_begin or level_begin)", e.RelTo),
				Code:    ErrInvalidRelTo,
			})
		}
		if len(e.Entries) > 0 && e.Kind != ir.KindLevel {
			*errs = append(*errs, ValidationError{
				Field:   field + ".entries",
				Message: fmt.Sprintf("only level entries may have children, got %q", e.Kind),
				Code:    ErrUnexpectedChildren,
			})
		}

		switch e.Kind {
		case ir.KindLerp:
			if _, err := blend.Parse(e.Blend); err != nil {
				*errs = append(*errs, ValidationError{
					Field:   field + ".blend",
					Message: err.Error(),
					Code:    ErrInvalidBlend,
				})
			}
		case ir.KindExternal:
			if e.Handle <= 0 {
				*errs = append(*errs, ValidationError{
					Field:   field + ".handle",
					Message: "external entries need a positive handle",
					Code:    ErrExternalHandle,
				})
			} else if other, dup := handles[e.Handle]; dup {
				*errs = append(*errs, ValidationError{
					Field:   field + ".handle",
					Message: fmt.Sprintf("handle %d already used by %s", e.Handle, other),
					Code:    ErrDuplicateHandle,
				})
			} else {
				handles[e.Handle] = field
			}
		case ir.KindLevel:
			if e.LevelDuration != nil && *e.LevelDuration < 0 {
				*errs = append(*errs, ValidationError{
					Field:   field + ".level_duration",
					Message: fmt.Sprintf("level_duration must not be negative, got %g", *e.LevelDuration),
					Code:    ErrNegativeDuration,
				})
			}
			validateEntries(e.Entries, field+".entries", handles, errs)
		}
	}
}

func collectRefs(owner string, entries []ir.EntrySpec, known map[string]int, embedded map[string]bool, errs *[]ValidationError) {
	for i := range entries {
		e := &entries[i]
		switch e.Kind {
		case ir.KindRef:
			if _, ok := known[e.Ref]; !ok {
				*errs = append(*errs, ValidationError{
					Field:   fmt.Sprintf("timeline.%s.ref", owner),
					Message: fmt.Sprintf("unknown timeline %q", e.Ref),
					Code:    ErrUnknownRef,
				})
				continue
			}
			embedded[e.Ref] = true
		case ir.KindLevel:
			collectRefs(owner, e.Entries, known, embedded, errs)
		}
	}
}

func findExternal(entries []ir.EntrySpec, path string) (string, bool) {
	for i := range entries {
		field := fmt.Sprintf("%s[%d]", path, i)
		switch entries[i].Kind {
		case ir.KindExternal:
			return field, true
		case ir.KindLevel:
			if p, ok := findExternal(entries[i].Entries, field+".entries"); ok {
				return p, true
			}
		}
	}
	return "", false
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
