package harness

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverScenarios_Directory(t *testing.T) {
	files, err := DiscoverScenarios("testdata/scenarios")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("testdata", "scenarios", "interrupt.yaml"),
		filepath.Join("testdata", "scenarios", "intro.yaml"),
		filepath.Join("testdata", "scenarios", "show.yaml"),
	}, files)
}

func TestDiscoverScenarios_File(t *testing.T) {
	files, err := DiscoverScenarios("testdata/scenarios/intro.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"testdata/scenarios/intro.yaml"}, files)
}

func TestDiscoverScenarios_NotFound(t *testing.T) {
	_, err := DiscoverScenarios("testdata/nowhere")
	var nf *ScenarioNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "testdata/nowhere", nf.Path)

	_, err = DiscoverScenarios("testdata/timelines")
	assert.True(t, errors.As(err, &nf), "directory without yaml files")
}

func TestLoadSuite(t *testing.T) {
	scenarios, err := LoadSuite("testdata/scenarios")
	require.NoError(t, err)
	require.Len(t, scenarios, 3)
	assert.Equal(t, "interrupt", scenarios[0].Name)

	for _, s := range scenarios {
		result, err := Run(s)
		require.NoError(t, err)
		assert.True(t, result.Pass, "%s: %v", s.Name, result.Errors)
	}
}

func TestLoadSuite_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"a.yaml", "b.yml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte(minimalScenario), 0o644))
	}
	_, err := LoadSuite(dir)
	assert.ErrorContains(t, err, `scenario name "minimal" already used`)
}
