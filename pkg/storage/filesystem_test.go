package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveOpenDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("salary/2025-03.csv", []byte("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, "salary/2025-03.csv", name)

	f, err := store.Open(name)
	require.NoError(t, err)
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "a,b\n", string(body))

	require.NoError(t, store.Delete(name))
	require.NoError(t, store.Delete(name))
	_, err = store.Open(name)
	assert.Error(t, err)
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../outside.csv", []byte("x"))
	assert.Error(t, err)
	_, err = store.Save("/etc/passwd", []byte("x"))
	assert.Error(t, err)
}

func TestLocalStorageCleanup(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("old.csv", []byte("x"))
	require.NoError(t, err)
	_, err = store.Save("new.csv", []byte("y"))
	require.NoError(t, err)
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.csv"), past, past))

	deleted, err := store.CleanupOlderThan(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.csv"}, deleted)
}
