// Package index applies changes to the artifact index: upserts, deletes,
// clearing and compaction. Every operation runs in its own writer session.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/Aman-CERP/artifactindex/internal/artifact"
	apperrors "github.com/Aman-CERP/artifactindex/internal/errors"
	"github.com/Aman-CERP/artifactindex/internal/store"
)

// clearPageSize is the number of documents deleted per ClearAll batch.
const clearPageSize = 1000

// Option configures a Mutator.
type Option func(*Mutator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mutator) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Mutator writes to the index at a Location.
type Mutator struct {
	loc    *store.Location
	logger *slog.Logger
}

// NewMutator creates a mutator over loc.
func NewMutator(loc *store.Location, opts ...Option) *Mutator {
	m := &Mutator{
		loc:    loc,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Upsert adds records, replacing any indexed record with the same ID. All
// records are validated before anything is written.
func (m *Mutator) Upsert(ctx context.Context, records ...artifact.Artifact) error {
	if len(records) == 0 {
		return nil
	}
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return apperrors.New(apperrors.ErrCodeInvalidInput, "invalid artifact", err).
				WithDetail("position", fmt.Sprint(i))
		}
	}

	start := time.Now()
	w, err := m.loc.Writer(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	for i := range records {
		if err := w.Upsert(artifact.ToDocument(&records[i])); err != nil {
			return err
		}
	}
	if err := w.Commit(ctx); err != nil {
		return err
	}

	m.logger.InfoContext(ctx, "artifacts_upserted",
		slog.Int("count", len(records)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// Delete removes the artifact with the given ID. An unknown ID is not an
// error.
func (m *Mutator) Delete(ctx context.Context, id int) error {
	w, err := m.loc.Writer(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	if err := w.Delete(artifact.KeyOf(id)); err != nil {
		return err
	}
	if err := w.Commit(ctx); err != nil {
		return err
	}

	m.logger.DebugContext(ctx, "artifact_deleted", slog.Int("id", id))
	return nil
}

// ClearAll removes every document and restarts insertion numbering. It
// reports false, after logging the cause, when anything goes wrong.
func (m *Mutator) ClearAll(ctx context.Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.ErrorContext(ctx, "clear_all_failed",
				slog.String("path", m.loc.Path()),
				slog.String("panic", fmt.Sprint(r)))
			ok = false
		}
	}()

	removed, err := m.clearAll(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "clear_all_failed",
			slog.String("path", m.loc.Path()),
			slog.String("error", err.Error()))
		return false
	}

	m.logger.InfoContext(ctx, "index_cleared", slog.Uint64("removed", removed))
	return true
}

func (m *Mutator) clearAll(ctx context.Context) (uint64, error) {
	if !m.loc.HasFiles() {
		return 0, nil
	}

	w, err := m.loc.Writer(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = w.Close() }()

	var removed uint64
	prevTotal := ^uint64(0)
	for {
		req := bleve.NewSearchRequestOptions(query.NewMatchAllQuery(), clearPageSize, 0, false)
		res, err := w.Engine().SearchInContext(ctx, req)
		if err != nil {
			return removed, fmt.Errorf("failed to scan documents: %w", err)
		}
		if len(res.Hits) == 0 {
			break
		}
		if res.Total >= prevTotal {
			return removed, fmt.Errorf("delete made no progress with %d documents left", res.Total)
		}
		prevTotal = res.Total

		for _, hit := range res.Hits {
			if err := w.Delete(hit.ID); err != nil {
				return removed, err
			}
		}
		if err := w.Commit(ctx); err != nil {
			return removed, err
		}
		removed += uint64(len(res.Hits))
	}

	w.ResetSequence()
	if err := w.Commit(ctx); err != nil {
		return removed, err
	}
	return removed, nil
}

// Compact merges the index into a single segment, reclaiming space held by
// deleted documents. It is a no-op on an empty index.
func (m *Mutator) Compact(ctx context.Context) error {
	if !m.loc.HasFiles() {
		return nil
	}

	start := time.Now()
	w, err := m.loc.Writer(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	if err := w.ForceMerge(ctx); err != nil {
		return err
	}

	m.logger.InfoContext(ctx, "index_compacted",
		slog.String("path", m.loc.Path()),
		slog.Duration("duration", time.Since(start)))
	return nil
}
