package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tempo/internal/ir"
)

func codes(errs []ValidationError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestValidateAcceptsShowDocument(t *testing.T) {
	specs, errs := CompileSource("show.cue", []byte(showDoc))
	require.Empty(t, errs)
	assert.Empty(t, Validate(specs))
}

func TestValidateTimeline(t *testing.T) {
	negative := -1.0
	tests := []struct {
		name string
		spec ir.TimelineSpec
		want []string
	}{
		{
			name: "empty name and entries",
			spec: ir.TimelineSpec{},
			want: []string{ErrTimelineNameEmpty, ErrTimelineNoEntries},
		},
		{
			name: "unknown kind",
			spec: ir.TimelineSpec{Name: "a", Entries: []ir.EntrySpec{{Kind: "sound"}}},
			want: []string{ErrUnknownEntryKind},
		},
		{
			name: "negative duration",
			spec: ir.TimelineSpec{Name: "a", Entries: []ir.EntrySpec{{Kind: ir.KindWait, Duration: -2}}},
			want: []string{ErrNegativeDuration},
		},
		{
			name: "bad anchor",
			spec: ir.TimelineSpec{Name: "a", Entries: []ir.EntrySpec{{Kind: ir.KindWait, RelTo: "previous_middle"}}},
			want: []string{ErrInvalidRelTo},
		},
		{
			name: "bad blend",
			spec: ir.TimelineSpec{Name: "a", Entries: []ir.EntrySpec{{Kind: ir.KindLerp, Blend: "wobble"}}},
			want: []string{ErrInvalidBlend},
		},
		{
			name: "gween blend accepted",
			spec: ir.TimelineSpec{Name: "a", Entries: []ir.EntrySpec{{Kind: ir.KindLerp, Blend: "ease:OutBounce"}}},
			want: []string{},
		},
		{
			name: "external handles",
			spec: ir.TimelineSpec{Name: "a", Entries: []ir.EntrySpec{
				{Kind: ir.KindExternal, Name: "x"},
				{Kind: ir.KindExternal, Name: "y", Handle: 3},
				{Kind: ir.KindLevel, Entries: []ir.EntrySpec{{Kind: ir.KindExternal, Name: "z", Handle: 3}}},
			}},
			want: []string{ErrExternalHandle, ErrDuplicateHandle},
		},
		{
			name: "negative level duration",
			spec: ir.TimelineSpec{Name: "a", Entries: []ir.EntrySpec{{Kind: ir.KindLevel, LevelDuration: &negative}}},
			want: []string{ErrNegativeDuration},
		},
		{
			name: "children on a leaf",
			spec: ir.TimelineSpec{Name: "a", Entries: []ir.EntrySpec{{Kind: ir.KindWait, Entries: []ir.EntrySpec{{Kind: ir.KindFunc}}}}},
			want: []string{ErrUnexpectedChildren},
		},
		{
			name: "negative precision",
			spec: ir.TimelineSpec{Name: "a", Precision: -1, Entries: []ir.EntrySpec{{Kind: ir.KindFunc}}},
			want: []string{ErrInvalidPrecision},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codes(ValidateTimeline(&tt.spec)))
		})
	}
}

func TestValidateDocumentRefs(t *testing.T) {
	specs := []ir.TimelineSpec{
		{Name: "main", Entries: []ir.EntrySpec{
			{Kind: ir.KindRef, Ref: "host"},
			{Kind: ir.KindRef, Ref: "nowhere"},
		}},
		{Name: "host", Entries: []ir.EntrySpec{
			{Kind: ir.KindLevel, Entries: []ir.EntrySpec{{Kind: ir.KindExternal, Name: "x", Handle: 1}}},
		}},
		{Name: "main", Entries: []ir.EntrySpec{{Kind: ir.KindFunc}}},
	}

	errs := Validate(specs)
	assert.ElementsMatch(t, []string{ErrDuplicateName, ErrUnknownRef, ErrNestedExternal}, codes(errs))
}

func TestValidateDocumentCycle(t *testing.T) {
	specs := []ir.TimelineSpec{
		{Name: "a", Entries: []ir.EntrySpec{{Kind: ir.KindRef, Ref: "b"}}},
		{Name: "b", Entries: []ir.EntrySpec{{Kind: ir.KindLevel, Entries: []ir.EntrySpec{{Kind: ir.KindRef, Ref: "a"}}}}},
	}
	errs := Validate(specs)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrRefCycle, errs[0].Code)
	assert.Equal(t, "timeline.a", errs[0].Field)
}
