package artifactindex

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/artifactindex/internal/config"
	apperrors "github.com/Aman-CERP/artifactindex/internal/errors"
	"github.com/Aman-CERP/artifactindex/internal/logging"
	"github.com/Aman-CERP/artifactindex/internal/source"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := OpenPath(filepath.Join(t.TempDir(), "index"), WithLogger(logging.Discard()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestService_EndToEnd(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	// Given: a new index
	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	// When: records are added one at a time and in bulk
	require.NoError(t, svc.UpsertOne(ctx, Artifact{ID: 1, Name: "Ceremonial Mask", Culture: "Yoruba"}))
	require.NoError(t, svc.Upsert(ctx,
		Artifact{ID: 2, Name: "Bronze Head", Culture: "Benin"},
		Artifact{ID: 3, Name: "Stool", Culture: "Akan"},
	))

	// Then: they are searchable by field and across fields
	got, err := svc.Search(ctx, "cere", "name")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)

	got, err = svc.Search(ctx, "benin", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bronze Head", got[0].Name)

	// And: deletes and clears take effect
	require.NoError(t, svc.Delete(ctx, 2))
	all, err = svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, svc.Compact(ctx))

	assert.True(t, svc.ClearAll(ctx))
	all, err = svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestService_Stats(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	require.NoError(t, svc.Upsert(ctx, Artifact{ID: 1}, Artifact{ID: 2}))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.DocumentCount)
	assert.Equal(t, svc.Path(), stats.Path)
	assert.True(t, stats.ForceUnlock)
}

func TestService_Upsert_RejectsNonPositiveIDs(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	for _, id := range []int{0, -7} {
		err := svc.Upsert(ctx, Artifact{ID: 1, Name: "Mask"}, Artifact{ID: id, Name: "Bowl"})
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	}

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "a rejected batch writes nothing")
}

func TestService_Rebuild(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	require.NoError(t, svc.UpsertOne(ctx, Artifact{ID: 99, Name: "stale"}))

	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": 1, "name": "Mask"}, {"id": 2, "name": "Bowl"}]`), 0o644))

	// When: rebuilt from the export
	res, err := svc.Rebuild(ctx, source.NewJSONFile(path))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Indexed)

	// Then: only the exported records remain, in export order
	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].ID)
	assert.Equal(t, 2, all[1].ID)
}

func TestService_Rebuild_BadSourceKeepsIndex(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	require.NoError(t, svc.UpsertOne(ctx, Artifact{ID: 5, Name: "kept"}))

	_, err := svc.Rebuild(ctx, source.NewJSONFile(filepath.Join(t.TempDir(), "missing.json")))
	require.Error(t, err)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestOpen_RejectsInvalidConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Search.MaxResults = 0

	_, err := Open(cfg)

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeConfigInvalid, apperrors.GetCode(err))
}
