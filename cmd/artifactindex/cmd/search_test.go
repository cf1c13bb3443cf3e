package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/artifactindex/internal/artifact"
	"github.com/Aman-CERP/artifactindex/internal/errors"
)

func seededEnv(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnv(t)
	env.mustRun(t, "index", env.writeFile(t, "artifacts.json", sampleJSON))
	return env
}

func searchJSON(t *testing.T, env *testEnv, args ...string) []artifact.Artifact {
	t.Helper()
	var records []artifact.Artifact
	out := env.mustRun(t, append([]string{"search", "--format", "json"}, args...)...)
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	return records
}

func TestSearchCmd_AllFieldsPrefix(t *testing.T) {
	env := seededEnv(t)

	got := searchJSON(t, env, "yor")

	assert.ElementsMatch(t, []int{1, 3}, ids(got))
}

func TestSearchCmd_JoinsArguments(t *testing.T) {
	env := seededEnv(t)

	assert.Equal(t, []int{1, 2, 3}, ids(searchJSON(t, env, "yoruba", "bronze")))
	assert.Equal(t, []int{3}, ids(searchJSON(t, env, "+yoruba", "+crown")))
}

func TestSearchCmd_SingleField(t *testing.T) {
	env := seededEnv(t)

	assert.Equal(t, []int{2}, ids(searchJSON(t, env, "--field", "name", "bronze")))
	assert.Empty(t, searchJSON(t, env, "--field", "culture", "bronze"))
}

func TestSearchCmd_NoMatchesIsEmptyArray(t *testing.T) {
	env := seededEnv(t)

	out := env.mustRun(t, "search", "--format", "json", "zzzz")

	assert.JSONEq(t, "[]", out)
}

func TestSearchCmd_TextOutput(t *testing.T) {
	env := seededEnv(t)

	out := env.mustRun(t, "search", "bronze")

	assert.Contains(t, out, "Bronze Head")
	assert.Contains(t, out, "1 result(s)")
}

func TestSearchCmd_UnknownField(t *testing.T) {
	env := seededEnv(t)

	_, err := env.run(t, "search", "--field", "colour", "red")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
}

func TestSearchCmd_UnknownFormat(t *testing.T) {
	env := seededEnv(t)

	_, err := env.run(t, "search", "--format", "xml", "mask")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "search")

	require.Error(t, err)
}
