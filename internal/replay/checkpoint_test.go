package replay

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckpointRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "checkpoint.json")
	store := NewCheckpointStore(path, true)

	_, ok, err := store.Load()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Save(42, 7))
	cp, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(42), cp.LastAppliedLine)
	require.Equal(t, uint64(7), cp.LastSeq)
	require.NoFileExists(t, path+".tmp")
}

func TestCheckpointDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	store := NewCheckpointStore(path, false)
	require.NoError(t, store.Save(1, 1))
	require.NoFileExists(t, path)
}

func TestCheckpointPathIsDirectory(t *testing.T) {
	store := NewCheckpointStore(t.TempDir(), true)
	_, _, err := store.Load()
	require.Error(t, err)
}
