package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_ProducesValidJSON(t *testing.T) {
	data, err := Schema()
	require.NoError(t, err)
	assert.Contains(t, string(data), "extensions")
}

func TestValidateLockFileJSON_RejectsWrongShape(t *testing.T) {
	err := validateLockFileJSON([]byte(`{"version": "not-a-number"}`))
	require.Error(t, err)
}

func TestValidateLockFileJSON_AcceptsWellFormed(t *testing.T) {
	err := validateLockFileJSON([]byte(`{
		"version": 1,
		"extensions": {
			"example.novel": {
				"name": "Example",
				"version": "1.0.0",
				"base_urls": ["https://example.com"],
				"langs": ["en"],
				"path": "extensions/example.wasm"
			}
		}
	}`))
	require.NoError(t, err)
}

func TestGenerateGlob_MatchesNestedDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "en"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "en", "broken.wasm"), []byte("not wasm"), 0o644))

	_, err := GenerateGlob(t.Context(), root, "**/*.wasm")
	require.Error(t, err) // the fixture isn't valid wasm, but it must be found and attempted
}
