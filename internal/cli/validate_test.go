package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tempo/internal/compiler"
)

func TestValidateValidTimelines(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), timelinesDir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ 3 timeline(s) valid")
	assert.Contains(t, out, "show")
	assert.Contains(t, out, "5.000s")
}

func TestValidateValidTimelinesJSON(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), showCUE)
	require.NoError(t, err)

	var result ValidationResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Valid)
	require.Len(t, result.Timelines, 2)

	durations := map[string]float64{}
	for _, s := range result.Timelines {
		durations[s.Name] = s.Duration
	}
	assert.Equal(t, 5.0, durations["show"])
	assert.Equal(t, 0.5, durations["outro"])
}

func TestValidateInvalidTimelines(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), invalidDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, compiler.ErrInvalidBlend)
	assert.Contains(t, out, compiler.ErrUnknownRef)
}

func TestValidateInvalidTimelinesJSON(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), invalidDir)
	require.Error(t, err)

	var result ValidationResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	assert.False(t, result.Valid)
	codes := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		codes = append(codes, e.Code)
	}
	assert.Contains(t, codes, compiler.ErrInvalidBlend)
	assert.Contains(t, codes, compiler.ErrUnknownRef)
}

func TestValidateNonExistentDirectory(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "/nonexistent/directory/path")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "not found")
}

func TestValidateEmptyDirectory(t *testing.T) {
	_, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNoFiles)
}
