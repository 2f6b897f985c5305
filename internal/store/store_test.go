package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func verifyPragma(t *testing.T, st *Store, name, want string) {
	t.Helper()
	got, err := st.pragma(name)
	require.NoError(t, err)
	assert.Equal(t, want, got, "PRAGMA %s", name)
}

func TestOpen_Pragmas(t *testing.T) {
	st := createTestStore(t)

	verifyPragma(t, st, "journal_mode", "wal")
	verifyPragma(t, st, "synchronous", "1")
	verifyPragma(t, st, "busy_timeout", "5000")
	verifyPragma(t, st, "foreign_keys", "1")
	verifyPragma(t, st, "user_version", "1")
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	st, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = Open(path)
	require.NoError(t, err)
	defer st.Close()
	verifyPragma(t, st, "user_version", "1")
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "test.db"))
	assert.Error(t, err)
}

func TestClose_Twice(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	assert.NoError(t, st.Close())
	assert.NotPanics(t, func() { st.Close() })
}
