package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))

	wrapped := fmt.Errorf("outer: %w", NewExitError(ExitFailure, "failed"))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
}

func TestExitErrorMessage(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "failed to write", cause)
	assert.Equal(t, "failed to write: disk full", err.Error())
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, "just this", NewExitError(ExitFailure, "just this").Error())
}

func TestFormatterSuccessJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := newFormatter(&RootOptions{Format: "json"}, buf, nil)

	require.NoError(t, f.Success(map[string]int{"count": 2}))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, map[string]any{"count": float64(2)}, resp["data"])
	assert.NotContains(t, resp, "error")
}

func TestFormatterErrorText(t *testing.T) {
	buf := &bytes.Buffer{}
	f := newFormatter(&RootOptions{Format: "text", Verbose: true}, buf, nil)

	require.NoError(t, f.Error(ErrCodeNotFound, "path not found: x", []string{"detail"}))
	assert.Contains(t, buf.String(), "Error [E005]: path not found: x")
	assert.Contains(t, buf.String(), "Details: [detail]")
}

func TestFormatterFailureCarriesData(t *testing.T) {
	buf := &bytes.Buffer{}
	f := newFormatter(&RootOptions{Format: "json"}, buf, nil)

	require.NoError(t, f.Failure(map[string]bool{"valid": false}, "E106", "unknown blend"))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E106", resp.Error.Code)
	assert.NotNil(t, resp.Data)
}

func TestFormatterPrintfSilentInJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	newFormatter(&RootOptions{Format: "json"}, buf, nil).Printf("hello %d\n", 1)
	assert.Empty(t, buf.String())

	newFormatter(&RootOptions{Format: "text"}, buf, nil).Printf("hello %d\n", 1)
	assert.Equal(t, "hello 1\n", buf.String())
}

func TestFormatterVerboseLogUsesErrWriter(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	newFormatter(&RootOptions{Format: "json"}, out, errOut).VerboseLog("quiet")
	assert.Empty(t, errOut.String())

	newFormatter(&RootOptions{Format: "json", Verbose: true}, out, errOut).VerboseLog("loaded %d", 3)
	assert.Equal(t, "loaded 3\n", errOut.String())
	assert.Empty(t, out.String())
}

func TestFormatterErrWriterFallback(t *testing.T) {
	out := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: out}
	assert.Same(t, out, f.GetErrWriter())
}
