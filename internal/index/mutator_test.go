package index

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/artifactindex/internal/artifact"
	apperrors "github.com/Aman-CERP/artifactindex/internal/errors"
	"github.com/Aman-CERP/artifactindex/internal/logging"
	"github.com/Aman-CERP/artifactindex/internal/search"
	"github.com/Aman-CERP/artifactindex/internal/store"
)

type fixture struct {
	loc      *store.Location
	mutator  *Mutator
	executor *search.Executor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logging.Discard()
	loc := store.NewLocation(filepath.Join(t.TempDir(), "index"), store.WithLogger(logger))
	t.Cleanup(func() { _ = loc.Close() })

	b, err := search.NewBuilder(artifact.FieldNames(), search.WithBuilderLogger(logger))
	require.NoError(t, err)

	return &fixture{
		loc:      loc,
		mutator:  NewMutator(loc, WithLogger(logger)),
		executor: search.NewExecutor(loc, b, search.WithExecutorLogger(logger)),
	}
}

func (f *fixture) listIDs(t *testing.T) []int {
	t.Helper()
	all, err := f.executor.ListAll(context.Background())
	require.NoError(t, err)
	out := make([]int, len(all))
	for i, a := range all {
		out[i] = a.ID
	}
	return out
}

func TestMutator_Upsert_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := artifact.Artifact{ID: 11, Name: "Bronze Head"}

	// When: the same record is upserted twice
	require.NoError(t, f.mutator.Upsert(ctx, r))
	require.NoError(t, f.mutator.Upsert(ctx, r))

	// Then: one document exists for the id
	assert.Equal(t, []int{11}, f.listIDs(t))

	got, err := f.executor.Search(ctx, r.Name, "name")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 11, got[0].ID)
}

func TestMutator_Upsert_ReplacesFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.mutator.Upsert(ctx, artifact.Artifact{ID: 1, Name: "Old Name"}))
	require.NoError(t, f.mutator.Upsert(ctx, artifact.Artifact{ID: 1, Name: "Fresh Name"}))

	got, err := f.executor.Search(ctx, "old", "name")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = f.executor.Search(ctx, "fresh", "name")
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestMutator_Upsert_UpdateMovesToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.mutator.Upsert(ctx,
		artifact.Artifact{ID: 1, Name: "a"},
		artifact.Artifact{ID: 2, Name: "b"},
	))
	require.NoError(t, f.mutator.Upsert(ctx, artifact.Artifact{ID: 1, Name: "a2"}))

	assert.Equal(t, []int{2, 1}, f.listIDs(t))
}

func TestMutator_Upsert_RejectsInvalidWithoutWriting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.mutator.Upsert(ctx,
		artifact.Artifact{ID: 1, Name: "ok"},
		artifact.Artifact{ID: 0, Name: "no id"},
	)

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	assert.Empty(t, f.listIDs(t))
}

func TestMutator_Upsert_NothingIsNoop(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.mutator.Upsert(context.Background()))
	assert.False(t, f.loc.HasFiles())
}

func TestMutator_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.mutator.Upsert(ctx,
		artifact.Artifact{ID: 1, Name: "keep"},
		artifact.Artifact{ID: 2, Name: "drop"},
	))

	// When: one is deleted
	require.NoError(t, f.mutator.Delete(ctx, 2))

	// Then: listing excludes it
	assert.Equal(t, []int{1}, f.listIDs(t))

	// And: deleting an unknown id is a no-op
	require.NoError(t, f.mutator.Delete(ctx, 404))
	assert.Equal(t, []int{1}, f.listIDs(t))
}

func TestMutator_ClearAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	records := make([]artifact.Artifact, clearPageSize+10)
	for i := range records {
		records[i] = artifact.Artifact{ID: i + 1, Name: "item"}
	}
	require.NoError(t, f.mutator.Upsert(ctx, records...))

	// When: cleared
	assert.True(t, f.mutator.ClearAll(ctx))

	// Then: nothing is listed
	assert.Empty(t, f.listIDs(t))

	// And: clearing an empty index succeeds too
	assert.True(t, f.mutator.ClearAll(ctx))

	// And: numbering restarts
	require.NoError(t, f.mutator.Upsert(ctx, artifact.Artifact{ID: 7}))
	stats, err := f.loc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.LastSequence)
}

func TestMutator_ClearAll_NeverInitialised(t *testing.T) {
	f := newFixture(t)

	assert.True(t, f.mutator.ClearAll(context.Background()))
	assert.False(t, f.loc.HasFiles())
}

func TestMutator_ClearAll_ReportsFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.mutator.Upsert(ctx, artifact.Artifact{ID: 1}))
	require.NoError(t, f.loc.Close())

	assert.False(t, f.mutator.ClearAll(ctx))
}

func TestMutator_Compact(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// Never-initialised: no-op
	require.NoError(t, f.mutator.Compact(ctx))

	for id := 1; id <= 5; id++ {
		require.NoError(t, f.mutator.Upsert(ctx, artifact.Artifact{ID: id, Name: "vase"}))
	}
	require.NoError(t, f.mutator.Delete(ctx, 3))

	require.NoError(t, f.mutator.Compact(ctx))
	assert.Equal(t, []int{1, 2, 4, 5}, f.listIDs(t))
}
