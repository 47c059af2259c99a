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

	name, err := store.Save("org-1/register.csv", []byte("id\n1\n"))
	require.NoError(t, err)
	assert.Equal(t, "org-1/register.csv", name)

	rc, size, err := store.Open(name)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "id\n1\n", string(body))
	assert.EqualValues(t, len(body), size)

	require.NoError(t, store.Delete(name))
	require.NoError(t, store.Delete(name))
	_, _, err = store.Open(name)
	assert.Error(t, err)
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../secret", "a/../../b", "/etc/passwd", ""} {
		_, err := store.Save(name, []byte("x"))
		assert.ErrorIs(t, err, ErrOutsideRoot, name)
	}
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("old.csv", []byte("old"))
	require.NoError(t, err)
	_, err = store.Save("new.csv", []byte("new"))
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(store.baseDir, "old.csv"), past, past))

	deleted, err := store.CleanupOlderThan(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.csv"}, deleted)

	_, err = os.Stat(filepath.Join(store.baseDir, "new.csv"))
	assert.NoError(t, err)
}
