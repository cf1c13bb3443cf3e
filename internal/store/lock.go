package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	apperrors "github.com/Aman-CERP/artifactindex/internal/errors"
)

// LockFileName is the writer lock file inside the index directory.
const LockFileName = "write.lock"

// lockRetryDelay is the poll interval while waiting for write.lock.
const lockRetryDelay = 25 * time.Millisecond

// WriterLock guards index writers with write.lock in the index directory.
// It combines an in-process owner token with a cross-process file lock
// (gofrs/flock), so concurrent writers in one process are serialized too.
type WriterLock struct {
	path string

	mu    sync.Mutex
	flock *flock.Flock
	owner uint64 // token of the current holder, 0 when free
	next  uint64
}

// NewWriterLock creates a writer lock for the index directory dir.
// Nothing is created on disk until the lock is acquired.
func NewWriterLock(dir string) *WriterLock {
	path := filepath.Join(dir, LockFileName)
	return &WriterLock{
		path:  path,
		flock: flock.New(path),
	}
}

// Path returns the path to the lock file.
func (l *WriterLock) Path() string {
	return l.path
}

// TryAcquire attempts to take the lock without waiting. It returns a
// non-zero owner token on success and 0 when the lock is held elsewhere.
func (l *WriterLock) TryAcquire() (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.owner != 0 {
		return 0, nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return 0, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return 0, nil
	}

	l.next++
	l.owner = l.next
	return l.owner, nil
}

// Acquire takes the lock, polling until it is free, wait elapses, or ctx
// is done. A zero wait tries exactly once.
func (l *WriterLock) Acquire(ctx context.Context, wait time.Duration) (uint64, error) {
	token, err := l.TryAcquire()
	if err != nil || token != 0 {
		return token, err
	}

	if wait > 0 {
		deadline := time.NewTimer(wait)
		defer deadline.Stop()
		ticker := time.NewTicker(lockRetryDelay)
		defer ticker.Stop()

	poll:
		for {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-deadline.C:
				break poll
			case <-ticker.C:
				token, err := l.TryAcquire()
				if err != nil || token != 0 {
					return token, err
				}
			}
		}
	}

	return 0, apperrors.New(apperrors.ErrCodeIndexLocked, "index is locked by another writer", nil).
		WithDetail("lock", l.path).
		WithSuggestion("wait for the other writer to finish, or enable index.force_unlock")
}

// Release gives the lock back if token still owns it. Releasing a lock that
// was force-released is a no-op.
func (l *WriterLock) Release(token uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if token == 0 || l.owner != token {
		return nil
	}
	l.owner = 0

	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Held reports whether a writer in this process holds the lock.
func (l *WriterLock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.owner != 0
}

// ForceRelease drops the lock regardless of owner. It reports whether a
// holder was evicted.
func (l *WriterLock) ForceRelease() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.owner == 0 {
		return false, nil
	}
	l.owner = 0
	return true, l.flock.Unlock()
}

// FileExists reports whether write.lock is present on disk.
func (l *WriterLock) FileExists() bool {
	_, err := os.Stat(l.path)
	return err == nil
}

// RemoveFile deletes write.lock. A missing file is not an error.
func (l *WriterLock) RemoveFile() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
