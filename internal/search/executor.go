package search

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/Aman-CERP/artifactindex/internal/artifact"
	apperrors "github.com/Aman-CERP/artifactindex/internal/errors"
	"github.com/Aman-CERP/artifactindex/internal/store"
)

const (
	// DefaultMaxResults caps the hits returned by Search.
	DefaultMaxResults = 1000

	// listPageSize is the page size ListAll walks the index with.
	listPageSize = 500
)

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithMaxResults caps the hits returned by Search. Values below 1 are ignored.
func WithMaxResults(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.maxResults = n
		}
	}
}

// WithExecutorLogger sets the logger.
func WithExecutorLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Executor runs read queries against a Location and maps hits back to
// artifacts.
type Executor struct {
	loc        *store.Location
	builder    *Builder
	maxResults int
	logger     *slog.Logger
}

// NewExecutor creates an executor.
func NewExecutor(loc *store.Location, builder *Builder, opts ...ExecutorOption) *Executor {
	e := &Executor{
		loc:        loc,
		builder:    builder,
		maxResults: DefaultMaxResults,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxResults returns the search result cap.
func (e *Executor) MaxResults() int {
	return e.maxResults
}

// ListAll returns every indexed artifact in insertion order. A directory
// that was never written yields an empty result without opening a reader.
func (e *Executor) ListAll(ctx context.Context) ([]artifact.Artifact, error) {
	if !e.loc.HasFiles() {
		return []artifact.Artifact{}, nil
	}

	idx, err := e.loc.Index(ctx)
	if err != nil {
		return nil, err
	}

	out := []artifact.Artifact{}
	for from := 0; ; from += listPageSize {
		req := bleve.NewSearchRequestOptions(query.NewMatchAllQuery(), listPageSize, from, false)
		req.Fields = e.storedFields()
		req.SortBy([]string{store.SeqField, "_id"})

		res, err := idx.SearchInContext(ctx, req)
		if err != nil {
			return nil, apperrors.New(apperrors.ErrCodeSearchFailed, "failed to list documents", err)
		}

		page, err := e.mapHits(res)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)

		if len(res.Hits) < listPageSize || uint64(len(out)) >= res.Total {
			break
		}
	}
	return out, nil
}

// Search runs input against field, or against every field when field is
// empty. Blank and wildcard-only input returns an empty result without
// touching the index. Field searches rank by relevance; all-field searches
// keep insertion order.
func (e *Executor) Search(ctx context.Context, input, field string) ([]artifact.Artifact, error) {
	if strings.TrimSpace(input) == "" {
		return []artifact.Artifact{}, nil
	}

	normalized := Normalize(input)
	if IsDegenerate(normalized) {
		e.logger.DebugContext(ctx, "query_degenerate", slog.String("input", input))
		return []artifact.Artifact{}, nil
	}

	if !e.loc.HasFiles() {
		return []artifact.Artifact{}, nil
	}

	idx, err := e.loc.Index(ctx)
	if err != nil {
		return nil, err
	}

	req := bleve.NewSearchRequestOptions(e.builder.Build(normalized, field), e.maxResults, 0, false)
	req.Fields = e.storedFields()
	if field != "" {
		req.SortBy([]string{"-_score", store.SeqField})
	} else {
		req.SortBy([]string{store.SeqField, "_id"})
	}

	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeSearchFailed, "search failed", err).
			WithDetail("query", normalized).
			WithDetail("field", field)
	}

	e.logger.DebugContext(ctx, "search_completed",
		slog.String("query", normalized),
		slog.String("field", field),
		slog.Int("hits", len(res.Hits)),
		slog.Uint64("total", res.Total),
		slog.Duration("took", res.Took))

	return e.mapHits(res)
}

func (e *Executor) storedFields() []string {
	return append(e.loc.Fields(), artifact.KeyField)
}

func (e *Executor) mapHits(res *bleve.SearchResult) ([]artifact.Artifact, error) {
	out := make([]artifact.Artifact, 0, len(res.Hits))
	for _, hit := range res.Hits {
		values := make(map[string]string, len(hit.Fields)+1)
		for name, raw := range hit.Fields {
			if v, ok := storedString(raw); ok {
				values[name] = v
			}
		}
		if _, ok := values[artifact.KeyField]; !ok {
			values[artifact.KeyField] = hit.ID
		}

		a, err := artifact.FromValues(values)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// storedString flattens a stored field value as bleve returns it.
func storedString(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case []any:
		if len(v) == 0 {
			return "", false
		}
		return storedString(v[0])
	default:
		return "", false
	}
}
