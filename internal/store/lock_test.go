package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Aman-CERP/artifactindex/internal/errors"
)

func TestWriterLock_TryAcquire_ExclusiveWithinProcess(t *testing.T) {
	// Given: a lock held by one writer
	lock := NewWriterLock(t.TempDir())
	token, err := lock.TryAcquire()
	require.NoError(t, err)
	require.NotZero(t, token)
	defer func() { _ = lock.Release(token) }()

	// When: a second writer tries
	second, err := lock.TryAcquire()

	// Then: it is refused
	require.NoError(t, err)
	assert.Zero(t, second)
	assert.True(t, lock.Held())
	assert.True(t, lock.FileExists())
}

func TestWriterLock_Acquire_TimesOutWithLockedCode(t *testing.T) {
	lock := NewWriterLock(t.TempDir())
	token, err := lock.TryAcquire()
	require.NoError(t, err)
	defer func() { _ = lock.Release(token) }()

	start := time.Now()
	_, err = lock.Acquire(context.Background(), 60*time.Millisecond)

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeIndexLocked, apperrors.GetCode(err))
	assert.True(t, apperrors.IsRetryable(err))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestWriterLock_Acquire_WaitsForRelease(t *testing.T) {
	lock := NewWriterLock(t.TempDir())
	token, err := lock.TryAcquire()
	require.NoError(t, err)

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = lock.Release(token)
	}()

	next, err := lock.Acquire(context.Background(), 2*time.Second)
	require.NoError(t, err)
	assert.NotZero(t, next)
	assert.NotEqual(t, token, next)
	require.NoError(t, lock.Release(next))
}

func TestWriterLock_Acquire_HonoursContext(t *testing.T) {
	lock := NewWriterLock(t.TempDir())
	token, err := lock.TryAcquire()
	require.NoError(t, err)
	defer func() { _ = lock.Release(token) }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = lock.Acquire(ctx, time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWriterLock_ForceRelease(t *testing.T) {
	lock := NewWriterLock(t.TempDir())

	// Nothing held: nothing evicted
	evicted, err := lock.ForceRelease()
	require.NoError(t, err)
	assert.False(t, evicted)

	token, err := lock.TryAcquire()
	require.NoError(t, err)

	evicted, err = lock.ForceRelease()
	require.NoError(t, err)
	assert.True(t, evicted)
	assert.False(t, lock.Held())

	// The evicted holder's release is a no-op
	assert.NoError(t, lock.Release(token))

	next, err := lock.TryAcquire()
	require.NoError(t, err)
	assert.NotZero(t, next)
	require.NoError(t, lock.Release(next))
}

func TestWriterLock_RemoveFile_MissingIsNotError(t *testing.T) {
	lock := NewWriterLock(t.TempDir())
	assert.False(t, lock.FileExists())
	assert.NoError(t, lock.RemoveFile())
}
