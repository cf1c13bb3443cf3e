package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/artifactindex/internal/errors"
	"github.com/Aman-CERP/artifactindex/internal/logging"
)

// testEnv isolates a command run: its own HOME, user config and working
// directory holding the index.
type testEnv struct {
	dir   string
	index string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, key := range []string{
		"ARTIFACTINDEX_INDEX_PATH", "ARTIFACTINDEX_FORCE_UNLOCK", "ARTIFACTINDEX_LOCK_TIMEOUT",
		"ARTIFACTINDEX_MAX_RESULTS", "ARTIFACTINDEX_LOG_LEVEL", "ARTIFACTINDEX_SQLITE_PATH",
	} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	return &testEnv{dir: dir, index: filepath.Join(dir, "lucene_index")}
}

// run executes the CLI with args and returns its stdout.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--dir", e.dir}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, out)
	return out
}

// writeFile writes content under the env directory and returns its path.
func (e *testEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleJSON = `[
  {"id": 1, "name": "Ceremonial Mask", "culture": "Yoruba", "category": "Mask"},
  {"id": 2, "name": "Bronze Head", "culture": "Benin", "category": "Sculpture"},
  {"id": 3, "name": "Beaded Crown", "culture": "Yoruba", "category": "Regalia"}
]`

func TestRootCmd_HasSubcommands(t *testing.T) {
	root := NewRootCmd()

	for _, name := range []string{"index", "search", "list", "delete", "clear", "compact", "watch", "config", "version"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := root.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestRootCmd_IndexFlagOverridesConfig(t *testing.T) {
	env := newTestEnv(t)
	other := filepath.Join(t.TempDir(), "elsewhere")

	out := env.mustRun(t, "--index", other, "config", "path")

	assert.Contains(t, out, other)
}

func TestRootCmd_InvalidProjectConfig(t *testing.T) {
	env := newTestEnv(t)
	env.writeFile(t, ".artifactindex.yaml", "index: [broken")

	_, err := env.run(t, "list")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetCode(err))
}

func TestRootCmd_DebugWritesLogFile(t *testing.T) {
	env := newTestEnv(t)

	env.mustRun(t, "--debug", "list")

	data, err := os.ReadFile(logging.DefaultLogPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "debug_logging_enabled")
}

func TestRootCmd_ProfileFlags(t *testing.T) {
	env := newTestEnv(t)
	heap := filepath.Join(t.TempDir(), "heap.out")

	env.mustRun(t, "--profile-mem", heap, "list")

	_, err := os.Stat(heap)
	assert.NoError(t, err)
}
