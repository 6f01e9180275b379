package save_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jetsetilly/crowdcade/internal/save"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempManager(t *testing.T) *save.Manager {
	t.Helper()
	dir := t.TempDir()
	return save.New(dir)
}

func TestSnapshotWritesAndReadsBack(t *testing.T) {
	m := tempManager(t)
	name, err := m.Snapshot(context.Background(), []byte("fake state"), time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "save_20240102_030405.state", name)

	b, err := m.Read(name)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake state"), b)
}

func TestSnapshotLeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	m := save.New(dir)
	_, err := m.Snapshot(context.Background(), []byte("x"), time.Now())
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestLatestReturnsNewestByName(t *testing.T) {
	m := tempManager(t)
	_, err := m.Snapshot(context.Background(), []byte("1"), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = m.Snapshot(context.Background(), []byte("2"), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	latest, err := m.Latest()
	require.NoError(t, err)
	assert.Equal(t, "save_20240102_000000.state", latest)
}

func TestLatestEmptyDirReturnsEmptyString(t *testing.T) {
	m := tempManager(t)
	latest, err := m.Latest()
	require.NoError(t, err)
	assert.Equal(t, "", latest)
}

func TestRotationKeepsAtMostMaxSaves(t *testing.T) {
	m := tempManager(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < save.MaxSaves+5; i++ {
		_, err := m.Snapshot(context.Background(), []byte("x"), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	names, err := m.AllNewestFirst()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(names), save.MaxSaves)
}

func TestRotationDeletesOldestFirst(t *testing.T) {
	m := tempManager(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var firstName string
	for i := 0; i < save.MaxSaves+3; i++ {
		n, err := m.Snapshot(context.Background(), []byte("x"), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		if i == 0 {
			firstName = n
		}
	}

	names, err := m.AllNewestFirst()
	require.NoError(t, err)
	assert.NotContains(t, names, firstName)
}

func TestCleanShutdownMarkerLifecycle(t *testing.T) {
	m := tempManager(t)
	assert.False(t, m.CleanShutdownMarkerPresent())

	require.NoError(t, m.WriteCleanShutdownMarker())
	assert.True(t, m.CleanShutdownMarkerPresent())

	require.NoError(t, m.RemoveCleanShutdownMarker())
	assert.False(t, m.CleanShutdownMarkerPresent())
}

func TestRemoveMarkerIsIdempotent(t *testing.T) {
	m := tempManager(t)
	assert.NoError(t, m.RemoveCleanShutdownMarker())
}

func TestReadMissingSnapshotErrors(t *testing.T) {
	m := tempManager(t)
	_, err := m.Read(filepath.Join("save_00000000_000000.state"))
	assert.Error(t, err)
}
