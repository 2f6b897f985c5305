package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tempo/internal/compiler"
)

func timelineNames(r *LoadResult) []string {
	names := make([]string, 0, len(r.Timelines))
	for _, tl := range r.Timelines {
		names = append(names, tl.Name)
	}
	return names
}

func TestLoadTimelinesFile(t *testing.T) {
	result, errs := LoadTimelines(showCUE, LoadModeFailFast)
	require.Empty(t, errs)
	require.NotNil(t, result)

	assert.Equal(t, 1, result.FileCount)
	assert.ElementsMatch(t, []string{"show", "outro"}, timelineNames(result))
}

func TestLoadTimelinesDirectory(t *testing.T) {
	result, errs := LoadTimelines(timelinesDir, LoadModeCollectAll)
	require.Empty(t, errs)

	assert.Equal(t, 2, result.FileCount)
	assert.ElementsMatch(t, []string{"show", "outro", "pulse"}, timelineNames(result))
}

func TestLoadTimelinesErrors(t *testing.T) {
	empty := t.TempDir()
	notCUE := filepath.Join(empty, "notes.txt")
	require.NoError(t, os.WriteFile(notCUE, []byte("hi"), 0o644))

	noTimelines := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(noTimelines, "x.cue"), []byte("other: 1\n"), 0o644))

	syntax := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(syntax, "x.cue"), []byte("timeline: {\n"), 0o644))

	tests := []struct {
		name string
		path string
		code string
	}{
		{"missing path", "/nonexistent/timelines", ErrCodeNotFound},
		{"empty directory", t.TempDir(), ErrCodeNoFiles},
		{"not a cue file", notCUE, ErrCodeNoFiles},
		{"no timelines", noTimelines, ErrCodeNoTimelines},
		{"syntax error", syntax, ErrCodeLoadFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := LoadTimelines(tt.path, LoadModeCollectAll)
			require.NotEmpty(t, errs)
			code, _ := loadErrorCode(errs[0])
			assert.Equal(t, tt.code, code, "error: %v", errs[0])
		})
	}
}

func TestLoadTimelinesCollectsCompileErrors(t *testing.T) {
	dir := t.TempDir()
	src := `timeline: a: {entries: [{kind: "wait", name: 3}]}
timeline: b: {entries: [{kind: "wait", name: "w", duration: "long"}]}
timeline: c: {entries: [{kind: "wait", name: "ok", duration: 1}]}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "t.cue"), []byte(src), 0o644))

	result, errs := LoadTimelines(dir, LoadModeCollectAll)
	require.NotNil(t, result)
	assert.Len(t, errs, 2)
	assert.Equal(t, []string{"c"}, timelineNames(result))

	_, errs = LoadTimelines(dir, LoadModeFailFast)
	assert.Len(t, errs, 1)
}

func TestLoadResultFind(t *testing.T) {
	result, errs := LoadTimelines(showCUE, LoadModeFailFast)
	require.Empty(t, errs)

	spec, err := result.Find("outro")
	require.NoError(t, err)
	assert.Equal(t, "outro", spec.Name)

	_, err = result.Find("")
	code, _ := loadErrorCode(err)
	assert.Equal(t, ErrCodeAmbiguous, code)

	_, err = result.Find("finale")
	code, msg := loadErrorCode(err)
	assert.Equal(t, ErrCodeNotFound, code)
	assert.Contains(t, msg, "finale")

	single, errs := LoadTimelines(pulseCUE, LoadModeFailFast)
	require.Empty(t, errs)
	spec, err = single.Find("")
	require.NoError(t, err)
	assert.Equal(t, "pulse", spec.Name)
}

func TestFindCUEFilesSorted(t *testing.T) {
	files, err := FindCUEFiles(timelinesDir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(timelinesDir, "pulse.cue"),
		filepath.Join(timelinesDir, "show.cue"),
	}, files)
}

func TestMapFieldToErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNoTimelines, MapFieldToErrorCode("timeline"))
	assert.Equal(t, compiler.ErrTimelineNoEntries, MapFieldToErrorCode("entries"))
	assert.Equal(t, compiler.ErrUnknownEntryKind, MapFieldToErrorCode("kind"))
	assert.Equal(t, ErrCodeFieldType, MapFieldToErrorCode("duration"))
	assert.Equal(t, ErrCodeGeneric, MapFieldToErrorCode("something"))
}
