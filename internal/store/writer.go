package store

import (
	"context"
	"log/slog"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/index/scorch/mergeplan"

	"github.com/Aman-CERP/artifactindex/internal/artifact"
	apperrors "github.com/Aman-CERP/artifactindex/internal/errors"
)

// forceMerger is implemented by the scorch engine.
type forceMerger interface {
	ForceMerge(ctx context.Context, mo *mergeplan.MergePlanOptions) error
}

// Writer is a writer session over a Location. Operations accumulate in a
// bleve batch until Commit; Close releases write.lock and discards anything
// not yet committed. A Writer is not safe for concurrent use.
type Writer struct {
	loc   *Location
	index bleve.Index
	batch *bleve.Batch
	token uint64

	resetSeq bool
	closed   bool
}

// Engine returns the underlying bleve index for reads within the session.
func (w *Writer) Engine() bleve.Index {
	return w.index
}

// Upsert stages doc, replacing any document with the same key. The
// document receives the next insertion sequence number.
func (w *Writer) Upsert(doc artifact.Document) error {
	if w.closed {
		return errWriterClosed()
	}
	id := doc.ID()
	if id == "" {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "document has no "+artifact.KeyField+" field", nil)
	}

	w.batch.Delete(id)
	seq := w.loc.nextSeq(1)
	if err := w.batch.Index(id, EngineDocument(doc, seq)); err != nil {
		return apperrors.New(apperrors.ErrCodeIndexFailed, "failed to stage document", err).
			WithDetail("id", id)
	}
	return nil
}

// Delete stages removal of the document whose key equals id. A missing id
// is not an error.
func (w *Writer) Delete(id string) error {
	if w.closed {
		return errWriterClosed()
	}
	w.batch.Delete(id)
	return nil
}

// Pending returns the number of staged operations.
func (w *Writer) Pending() int {
	return w.batch.Size()
}

// ResetSequence restarts insertion numbering at the next Commit.
func (w *Writer) ResetSequence() {
	w.resetSeq = true
}

// Commit applies the staged batch and persists the sequence counter. The
// session stays open and may be committed again.
func (w *Writer) Commit(ctx context.Context) error {
	if w.closed {
		return errWriterClosed()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if w.resetSeq {
		w.loc.resetSeq()
		w.resetSeq = false
	}
	w.batch.SetInternal(seqInternalKey, encodeSeq(w.loc.currentSeq()))

	if err := w.index.Batch(w.batch); err != nil {
		w.batch.Reset()
		return apperrors.New(apperrors.ErrCodeIndexFailed, "failed to commit index batch", err).
			WithDetail("path", w.loc.path)
	}
	w.batch.Reset()
	return nil
}

// ForceMerge merges every segment into one. It is a no-op on an empty index
// or an engine without force-merge support.
func (w *Writer) ForceMerge(ctx context.Context) error {
	if w.closed {
		return errWriterClosed()
	}

	count, err := w.index.DocCount()
	if err != nil {
		return apperrors.New(apperrors.ErrCodeCompactFailed, "failed to count documents", err)
	}
	if count == 0 {
		return nil
	}

	engine, err := w.index.Advanced()
	if err != nil {
		return apperrors.New(apperrors.ErrCodeCompactFailed, "failed to access index engine", err)
	}
	merger, ok := engine.(forceMerger)
	if !ok {
		w.loc.logger.DebugContext(ctx, "force_merge_unsupported", slog.String("path", w.loc.path))
		return nil
	}

	if err := merger.ForceMerge(ctx, &mergeplan.SingleSegmentMergePlanOptions); err != nil {
		return apperrors.New(apperrors.ErrCodeCompactFailed, "force merge failed", err).
			WithDetail("path", w.loc.path)
	}
	return nil
}

// Close ends the session and releases write.lock. It is safe to call more
// than once.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.batch.Reset()
	return w.loc.lock.Release(w.token)
}

func errWriterClosed() error {
	return apperrors.New(apperrors.ErrCodeIndexClosed, "writer session is closed", nil)
}
