package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/artifactindex/internal/errors"
	"github.com/Aman-CERP/artifactindex/internal/logging"
)

func testOptions() Options {
	return Options{DebounceWindow: 30 * time.Millisecond}
}

func receive(t *testing.T, ch <-chan []FileEvent) []FileEvent {
	t.Helper()
	select {
	case batch, ok := <-ch:
		require.True(t, ok, "events channel closed")
		return batch
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for events")
		return nil
	}
}

func TestOperation_String(t *testing.T) {
	assert.Equal(t, "CREATE", OpCreate.String())
	assert.Equal(t, "MODIFY", OpModify.String())
	assert.Equal(t, "DELETE", OpDelete.String())
	assert.Equal(t, "UNKNOWN", Operation(42).String())
}

func TestOptions_WithDefaults(t *testing.T) {
	got := Options{}.WithDefaults()
	assert.Equal(t, DefaultOptions(), got)

	custom := Options{DebounceWindow: time.Second, EventBufferSize: 2}.WithDefaults()
	assert.Equal(t, time.Second, custom.DebounceWindow)
	assert.Equal(t, 2, custom.EventBufferSize)
}

func TestNew_RejectsEmptyPaths(t *testing.T) {
	_, err := New(nil, testOptions(), logging.Discard())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
}

func TestNew_MissingDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope", "artifacts.json")

	_, err := New([]string{missing}, testOptions(), logging.Discard())

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDirectory, errors.GetCode(err))
}

func TestWatcher_ReportsWriteToWatchedFile(t *testing.T) {
	// Given: a watched file and an unrelated neighbour
	dir := t.TempDir()
	target := filepath.Join(dir, "artifacts.json")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(target, []byte("[]"), 0o644))

	w, err := New([]string{target}, testOptions(), logging.Discard())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	// When: both files are written
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(target, []byte(`[{"id":1}]`), 0o644))

	// Then: only the watched file is reported
	batch := receive(t, w.Events())
	require.Len(t, batch, 1)
	assert.Equal(t, target, batch[0].Path)
}

func TestWatcher_StopClosesEvents(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{filepath.Join(dir, "a.json")}, testOptions(), logging.Discard())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		_ = w.Start(context.Background())
		close(done)
	}()

	w.Stop()
	w.Stop()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
	_, ok := <-w.Events()
	assert.False(t, ok)
}
