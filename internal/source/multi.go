package source

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/artifactindex/internal/artifact"
)

// Multi reads several sources concurrently and concatenates their records
// in source order. When two sources share an ID the later record replaces
// the earlier one on upsert.
type Multi struct {
	sources []Source
}

// Concat combines sources. A single source is returned unchanged.
func Concat(sources ...Source) Source {
	if len(sources) == 1 {
		return sources[0]
	}
	return &Multi{sources: append([]Source(nil), sources...)}
}

// Name implements Source.
func (m *Multi) Name() string {
	names := make([]string, len(m.sources))
	for i, s := range m.sources {
		names[i] = s.Name()
	}
	return strings.Join(names, ", ")
}

// Read implements Source. The first failing source cancels the rest.
func (m *Multi) Read(ctx context.Context) ([]artifact.Artifact, error) {
	parts := make([][]artifact.Artifact, len(m.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range m.sources {
		g.Go(func() error {
			records, err := s.Read(gctx)
			if err != nil {
				return err
			}
			parts[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]artifact.Artifact, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}
