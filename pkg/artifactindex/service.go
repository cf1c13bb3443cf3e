package artifactindex

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Aman-CERP/artifactindex/internal/artifact"
	"github.com/Aman-CERP/artifactindex/internal/config"
	apperrors "github.com/Aman-CERP/artifactindex/internal/errors"
	"github.com/Aman-CERP/artifactindex/internal/index"
	"github.com/Aman-CERP/artifactindex/internal/search"
	"github.com/Aman-CERP/artifactindex/internal/source"
	"github.com/Aman-CERP/artifactindex/internal/store"
)

// Artifact is the indexed record type.
type Artifact = artifact.Artifact

// Stats describes the index.
type Stats = store.Stats

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service is the artifact index. It is safe for concurrent use. Writers
// serialize on the index writer lock only when force unlock is off.
type Service struct {
	cfg      *config.Config
	logger   *slog.Logger
	loc      *store.Location
	mutator  *index.Mutator
	executor *search.Executor
}

// Open creates a Service for cfg. The index directory is not touched until
// the first operation that needs it.
func Open(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.ConfigError("invalid configuration", err)
	}

	s := &Service{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	s.loc = store.NewLocation(cfg.Index.Path,
		store.WithForceUnlock(cfg.Index.ForceUnlock),
		store.WithLockTimeout(cfg.LockTimeoutDuration()),
		store.WithLogger(s.logger),
	)

	builder, err := search.NewBuilder(artifact.FieldNames(),
		search.WithCacheSize(cfg.Search.QueryCacheSize),
		search.WithBuilderLogger(s.logger),
	)
	if err != nil {
		return nil, apperrors.ConfigError("invalid search configuration", err)
	}

	s.mutator = index.NewMutator(s.loc, index.WithLogger(s.logger))
	s.executor = search.NewExecutor(s.loc, builder,
		search.WithMaxResults(cfg.Search.MaxResults),
		search.WithExecutorLogger(s.logger),
	)
	return s, nil
}

// OpenPath creates a Service with default settings for the index at path.
func OpenPath(path string, opts ...Option) (*Service, error) {
	cfg := config.NewConfig()
	cfg.Index.Path = path
	return Open(cfg, opts...)
}

// Path returns the index directory.
func (s *Service) Path() string {
	return s.loc.Path()
}

// Config returns the configuration the service was opened with.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// Upsert indexes records, replacing any with the same ID. Every ID must be
// positive: a zero or negative ID fails the whole call with an invalid
// input error and nothing is written.
func (s *Service) Upsert(ctx context.Context, records ...Artifact) error {
	return s.mutator.Upsert(ctx, records...)
}

// UpsertOne indexes a single record. Its ID must be positive, as for Upsert.
func (s *Service) UpsertOne(ctx context.Context, record Artifact) error {
	return s.mutator.Upsert(ctx, record)
}

// Delete removes the record with id. An unknown id is not an error.
func (s *Service) Delete(ctx context.Context, id int) error {
	return s.mutator.Delete(ctx, id)
}

// ClearAll removes every record. It reports false when clearing failed; the
// cause is logged.
func (s *Service) ClearAll(ctx context.Context) bool {
	return s.mutator.ClearAll(ctx)
}

// Compact merges the index into one segment.
func (s *Service) Compact(ctx context.Context) error {
	return s.mutator.Compact(ctx)
}

// ListAll returns every indexed record in insertion order.
func (s *Service) ListAll(ctx context.Context) ([]Artifact, error) {
	return s.executor.ListAll(ctx)
}

// Search matches input against field, or against all fields when field is
// empty. Each input term is a prefix.
func (s *Service) Search(ctx context.Context, input, field string) ([]Artifact, error) {
	if field != "" && !artifact.IsField(field) {
		s.logger.DebugContext(ctx, "search_unknown_field", slog.String("field", field))
	}
	return s.executor.Search(ctx, input, field)
}

// Stats returns index statistics.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.loc.Stats(ctx)
}

// RebuildResult summarizes a rebuild.
type RebuildResult struct {
	Source   string        `json:"source"`
	Indexed  int           `json:"indexed"`
	Duration time.Duration `json:"duration"`
}

// Rebuild replaces the index contents with every record from src.
// Nothing is cleared when src cannot be read.
func (s *Service) Rebuild(ctx context.Context, src source.Source) (*RebuildResult, error) {
	start := time.Now()

	records, err := src.Read(ctx)
	if err != nil {
		return nil, err
	}

	if !s.mutator.ClearAll(ctx) {
		return nil, apperrors.New(apperrors.ErrCodeIndexFailed,
			fmt.Sprintf("failed to clear index at %s before rebuild", s.loc.Path()), nil)
	}
	if err := s.mutator.Upsert(ctx, records...); err != nil {
		return nil, err
	}

	result := &RebuildResult{
		Source:   src.Name(),
		Indexed:  len(records),
		Duration: time.Since(start),
	}
	s.logger.InfoContext(ctx, "index_rebuilt",
		slog.String("source", result.Source),
		slog.Int("indexed", result.Indexed),
		slog.Duration("duration", result.Duration))
	return result, nil
}

// Close releases the index. The Service cannot be used afterwards.
func (s *Service) Close() error {
	return s.loc.Close()
}
