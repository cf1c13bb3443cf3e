package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/artifactindex/internal/artifact"
	apperrors "github.com/Aman-CERP/artifactindex/internal/errors"
	"github.com/Aman-CERP/artifactindex/internal/logging"
)

func newTestLocation(t *testing.T, opts ...Option) *Location {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index")
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	loc := NewLocation(path, opts...)
	t.Cleanup(func() { _ = loc.Close() })
	return loc
}

func TestLocation_HasFiles_MissingDirectory(t *testing.T) {
	loc := newTestLocation(t)

	assert.False(t, loc.HasFiles())
	_, err := os.Stat(loc.Path())
	assert.True(t, os.IsNotExist(err), "HasFiles must not create the directory")
}

func TestLocation_Index_CreatesLazily(t *testing.T) {
	// Given: a fresh location
	loc := newTestLocation(t)

	// When: the index is first requested
	idx, err := loc.Index(context.Background())
	require.NoError(t, err)

	// Then: the directory is created and empty
	assert.True(t, loc.HasFiles())
	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.Zero(t, count)

	// And: later calls return the same handle
	again, err := loc.Index(context.Background())
	require.NoError(t, err)
	assert.Same(t, idx, again)
}

func TestLocation_Index_RecoversCorruptDirectory(t *testing.T) {
	// Given: a non-empty directory without index metadata
	loc := newTestLocation(t)
	require.NoError(t, os.MkdirAll(loc.Path(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(loc.Path(), "garbage.bin"), []byte("x"), 0o644))

	// When: opened
	_, err := loc.Index(context.Background())

	// Then: it was cleared and recreated
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(loc.Path(), "garbage.bin"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(loc.Path(), indexMetaFile))
	assert.NoError(t, err)
}

func TestLocation_Index_CorruptMetaIsRecreated(t *testing.T) {
	loc := newTestLocation(t)
	require.NoError(t, os.MkdirAll(loc.Path(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(loc.Path(), indexMetaFile), []byte("{not json"), 0o644))

	_, err := loc.Index(context.Background())
	assert.NoError(t, err)
}

func TestLocation_Index_ForceUnlockDeletesStaleLockFile(t *testing.T) {
	// Given: a leftover write.lock from a crashed writer
	loc := newTestLocation(t)
	require.NoError(t, os.MkdirAll(loc.Path(), 0o755))
	lockPath := filepath.Join(loc.Path(), LockFileName)
	require.NoError(t, os.WriteFile(lockPath, nil, 0o644))

	// When: the directory is accessed
	_, err := loc.Index(context.Background())
	require.NoError(t, err)

	// Then: the lock file is gone
	_, err = os.Stat(lockPath)
	assert.True(t, os.IsNotExist(err))
}

func TestLocation_Index_ForceUnlockOffKeepsLockFile(t *testing.T) {
	loc := newTestLocation(t, WithForceUnlock(false))
	require.NoError(t, os.MkdirAll(loc.Path(), 0o755))
	lockPath := filepath.Join(loc.Path(), LockFileName)
	require.NoError(t, os.WriteFile(lockPath, nil, 0o644))

	_, err := loc.Index(context.Background())
	require.NoError(t, err)

	_, err = os.Stat(lockPath)
	assert.NoError(t, err)
}

func TestLocation_Writer_ForceUnlockEvictsHeldWriter(t *testing.T) {
	// Given: an open writer session
	loc := newTestLocation(t)
	first, err := loc.Writer(context.Background())
	require.NoError(t, err)

	// When: a second writer opens
	second, err := loc.Writer(context.Background())

	// Then: it succeeds by breaking the first writer's lock
	require.NoError(t, err)
	assert.NoError(t, first.Close())
	assert.True(t, loc.lock.Held(), "closing the evicted writer keeps the new lock")
	assert.NoError(t, second.Close())
	assert.False(t, loc.lock.Held())
}

func TestLocation_Writer_LockedWithoutForceUnlock(t *testing.T) {
	// Given: force unlock off and a held writer
	loc := newTestLocation(t, WithForceUnlock(false), WithLockTimeout(50*time.Millisecond))
	first, err := loc.Writer(context.Background())
	require.NoError(t, err)
	defer func() { _ = first.Close() }()

	// When: a second writer opens
	_, err = loc.Writer(context.Background())

	// Then: it fails with the locked code after the timeout
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeIndexLocked, apperrors.GetCode(err))
}

func TestLocation_SequenceSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	ctx := context.Background()

	// Given: two committed documents
	loc := NewLocation(path, WithLogger(logging.Discard()))
	w, err := loc.Writer(ctx)
	require.NoError(t, err)
	for _, id := range []int{1, 2} {
		require.NoError(t, w.Upsert(artifact.ToDocument(&artifact.Artifact{ID: id, Name: "n"})))
	}
	require.NoError(t, w.Commit(ctx))
	require.NoError(t, w.Close())
	require.NoError(t, loc.Close())

	// When: the directory is reopened
	reopened := NewLocation(path, WithLogger(logging.Discard()))
	defer func() { _ = reopened.Close() }()
	stats, err := reopened.Stats(ctx)

	// Then: numbering continues where it stopped
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.DocumentCount)
	assert.Equal(t, uint64(2), stats.LastSequence)
	assert.Equal(t, uint64(3), reopened.nextSeq(1))
}

func TestLocation_Stats_NeverInitialised(t *testing.T) {
	loc := newTestLocation(t)

	stats, err := loc.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.DocumentCount)
	assert.Equal(t, loc.Path(), stats.Path)
	assert.False(t, loc.HasFiles())
}

func TestLocation_Close_RejectsFurtherUse(t *testing.T) {
	loc := newTestLocation(t)
	_, err := loc.Index(context.Background())
	require.NoError(t, err)

	require.NoError(t, loc.Close())
	require.NoError(t, loc.Close())

	_, err = loc.Index(context.Background())
	assert.Equal(t, apperrors.ErrCodeIndexClosed, apperrors.GetCode(err))
}
