// Package store owns the on-disk artifact index: the bleve index directory,
// its writer lock, and writer sessions over it.
//
// A Location is constructed once per index directory and shared by every
// reader and writer for the life of the process. Only one Location may open
// a given directory at a time.
package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/Aman-CERP/artifactindex/internal/artifact"
	apperrors "github.com/Aman-CERP/artifactindex/internal/errors"
)

// seqInternalKey stores the last assigned insertion sequence number in
// bleve's internal key space.
var seqInternalKey = []byte("artifactindex.seq")

// Option configures a Location.
type Option func(*Location)

// WithForceUnlock sets the stale lock recovery policy. When on (the
// default), every directory access releases a held writer lock and deletes
// write.lock, so a live concurrent writer may lose its lock.
func WithForceUnlock(on bool) Option {
	return func(l *Location) {
		l.forceUnlock = on
	}
}

// WithLockTimeout bounds how long writers wait for write.lock when force
// unlock is off.
func WithLockTimeout(d time.Duration) Option {
	return func(l *Location) {
		l.lockTimeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Location) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithFields overrides the indexed field names. Defaults to artifact.FieldNames().
func WithFields(fields []string) Option {
	return func(l *Location) {
		l.fields = append([]string(nil), fields...)
	}
}

// Location is the index directory handle.
type Location struct {
	path        string
	forceUnlock bool
	lockTimeout time.Duration
	fields      []string
	logger      *slog.Logger

	lock *WriterLock

	mu     sync.Mutex
	index  bleve.Index
	seq    uint64
	closed bool
}

// NewLocation creates a handle for the index directory at path. The
// directory is not touched until first access.
func NewLocation(path string, opts ...Option) *Location {
	l := &Location{
		path:        path,
		forceUnlock: true,
		lockTimeout: 5 * time.Second,
		fields:      artifact.FieldNames(),
		logger:      slog.Default(),
		lock:        NewWriterLock(path),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the index directory.
func (l *Location) Path() string {
	return l.path
}

// Fields returns the indexed field names.
func (l *Location) Fields() []string {
	return append([]string(nil), l.fields...)
}

// ForceUnlock reports whether the stale lock recovery policy is on.
func (l *Location) ForceUnlock() bool {
	return l.forceUnlock
}

// HasFiles reports whether the index directory exists and holds any entry.
// It never opens the index.
func (l *Location) HasFiles() bool {
	return dirHasEntries(l.path)
}

// Index returns the open bleve index, opening or creating it on first use.
// With force unlock on, every call also clears a stale writer lock; those
// failures are logged and swallowed.
func (l *Location) Index(ctx context.Context) (bleve.Index, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, apperrors.New(apperrors.ErrCodeIndexClosed, "index location is closed", nil).
			WithDetail("path", l.path)
	}

	if l.index == nil {
		idx, err := l.open()
		if err != nil {
			return nil, err
		}
		seq, err := readSeq(idx)
		if err != nil {
			_ = idx.Close()
			return nil, apperrors.New(apperrors.ErrCodeCorruptIndex, "cannot read insertion sequence", err).
				WithDetail("path", l.path)
		}
		l.index = idx
		l.seq = seq
	}

	if l.forceUnlock {
		l.clearStaleLock(ctx)
	}

	return l.index, nil
}

// clearStaleLock releases an in-process writer lock and deletes write.lock.
func (l *Location) clearStaleLock(ctx context.Context) {
	if evicted, err := l.lock.ForceRelease(); evicted {
		l.logger.WarnContext(ctx, "stale_lock_released", slog.String("path", l.lock.Path()))
	} else if err != nil {
		l.logger.WarnContext(ctx, "stale_lock_release_failed",
			slog.String("path", l.lock.Path()),
			slog.String("error", err.Error()))
	}

	if l.lock.FileExists() {
		if err := l.lock.RemoveFile(); err != nil {
			l.logger.WarnContext(ctx, "stale_lock_file_remove_failed",
				slog.String("path", l.lock.Path()),
				slog.String("error", err.Error()))
			return
		}
		l.logger.DebugContext(ctx, "stale_lock_file_removed", slog.String("path", l.lock.Path()))
	}
}

// open opens or creates the bleve index, clearing a corrupt directory first.
// Must be called with l.mu held.
func (l *Location) open() (bleve.Index, error) {
	indexMapping, err := NewIndexMapping(l.fields)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeIndexFailed, "failed to create index mapping", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeDirectory, "failed to create parent directory", err).
			WithDetail("path", l.path)
	}

	if validErr := validateIndexIntegrity(l.path); validErr != nil {
		l.logger.Warn("index_corrupted",
			slog.String("path", l.path),
			slog.String("error", validErr.Error()))
		if err := l.reset(); err != nil {
			return nil, apperrors.New(apperrors.ErrCodeCorruptIndex,
				fmt.Sprintf("index corrupted at %s and cannot be removed", l.path), err).
				WithDetail("reason", validErr.Error())
		}
	}

	if !fileExistsAt(filepath.Join(l.path, indexMetaFile)) {
		return l.create(indexMapping)
	}

	idx, err := bleve.Open(l.path)
	switch {
	case err == nil:
		l.logger.Debug("index_opened", slog.String("path", l.path))
		return idx, nil
	case err == bleve.ErrorIndexPathDoesNotExist:
		return l.create(indexMapping)
	case isCorruptionError(err):
		l.logger.Warn("index_open_failed",
			slog.String("path", l.path),
			slog.String("error", err.Error()))
		if rmErr := l.reset(); rmErr != nil {
			return nil, apperrors.New(apperrors.ErrCodeCorruptIndex, "index corrupted and cannot be cleared", rmErr).
				WithDetail("path", l.path)
		}
		return l.create(indexMapping)
	default:
		return nil, apperrors.New(apperrors.ErrCodeIndexFailed, "failed to open index", err).
			WithDetail("path", l.path)
	}
}

func (l *Location) create(indexMapping mapping.IndexMapping) (bleve.Index, error) {
	idx, err := bleve.New(l.path, indexMapping)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeIndexFailed, "failed to create index", err).
			WithDetail("path", l.path)
	}
	l.logger.Info("index_created", slog.String("path", l.path))
	return idx, nil
}

// reset removes the index directory contents so a fresh index can be created.
func (l *Location) reset() error {
	if err := os.RemoveAll(l.path); err != nil {
		return err
	}
	l.logger.Info("index_cleared",
		slog.String("path", l.path),
		slog.String("reason", "corruption detected, rebuild required"))
	return nil
}

// Writer opens a writer session. The session holds write.lock until Close.
func (l *Location) Writer(ctx context.Context) (*Writer, error) {
	idx, err := l.Index(ctx)
	if err != nil {
		return nil, err
	}

	wait := l.lockTimeout
	if l.forceUnlock {
		wait = 0
	}

	token, err := l.lock.Acquire(ctx, wait)
	if err != nil && l.forceUnlock && apperrors.GetCode(err) == apperrors.ErrCodeIndexLocked {
		// Another process still holds the old inode; take a fresh file.
		l.logger.WarnContext(ctx, "writer_lock_broken", slog.String("path", l.lock.Path()))
		l.clearStaleLock(ctx)
		token, err = l.lock.Acquire(ctx, 0)
	}
	if err != nil {
		return nil, err
	}

	return &Writer{
		loc:   l,
		index: idx,
		batch: idx.NewBatch(),
		token: token,
	}, nil
}

// nextSeq reserves n insertion sequence numbers and returns the first.
func (l *Location) nextSeq(n int) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	first := l.seq + 1
	l.seq += uint64(n)
	return first
}

// currentSeq returns the last assigned sequence number.
func (l *Location) currentSeq() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq
}

// resetSeq restarts sequence numbering, used after every document is removed.
func (l *Location) resetSeq() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq = 0
}

// Stats describes the index.
type Stats struct {
	Path          string `json:"path"`
	DocumentCount uint64 `json:"document_count"`
	LastSequence  uint64 `json:"last_sequence"`
	ForceUnlock   bool   `json:"force_unlock"`
}

// Stats returns index statistics. A never-initialised directory reports
// zero documents without being created.
func (l *Location) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Path: l.path, ForceUnlock: l.forceUnlock}
	if !l.HasFiles() {
		return stats, nil
	}

	idx, err := l.Index(ctx)
	if err != nil {
		return nil, err
	}
	count, err := idx.DocCount()
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeSearchFailed, "failed to count documents", err)
	}
	stats.DocumentCount = count
	stats.LastSequence = l.currentSeq()
	return stats, nil
}

// Close closes the index. The Location cannot be reused afterwards.
func (l *Location) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	if _, err := l.lock.ForceRelease(); err != nil {
		l.logger.Debug("lock_release_on_close_failed", slog.String("error", err.Error()))
	}

	if l.index == nil {
		return nil
	}
	err := l.index.Close()
	l.index = nil
	return err
}

func readSeq(idx bleve.Index) (uint64, error) {
	raw, err := idx.GetInternal(seqInternalKey)
	if err != nil {
		return 0, err
	}
	if len(raw) == 0 {
		return 0, nil
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("invalid sequence record of %d bytes", len(raw))
	}
	return binary.BigEndian.Uint64(raw), nil
}

func encodeSeq(seq uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	return buf
}

func fileExistsAt(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
