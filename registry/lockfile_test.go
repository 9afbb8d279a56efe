package registry_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quellehq/quelle/registry"
)

func TestGenerate_EmptyDirectory(t *testing.T) {
	dir := t.TempDir()

	lf, err := registry.Generate(context.Background(), dir)
	require.NoError(t, err)
	require.NotNil(t, lf)
	assert.Equal(t, registry.LockFileVersion, lf.Version)
	assert.Empty(t, lf.Extensions)
}

func TestGenerate_SkipsNonWasmFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644))

	lf, err := registry.Generate(context.Background(), dir)
	require.NoError(t, err)
	assert.Empty(t, lf.Extensions)
}

func TestGenerate_InvalidWasmFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.wasm"), []byte("not wasm"), 0o644))

	_, err := registry.Generate(context.Background(), dir)
	require.Error(t, err)
}

func TestLockFile_SaveAndOpen(t *testing.T) {
	lf := &registry.LockFile{
		Version: registry.LockFileVersion,
		Extensions: map[string]registry.Extension{
			"example.novel": {
				Name:     "Example Novel Source",
				Version:  "1.0.0",
				BaseURLs: []string{"https://example.com"},
				Langs:    []string{"en"},
				Path:     "extensions/example.wasm",
			},
		},
	}

	path := filepath.Join(t.TempDir(), "lock.json")
	require.NoError(t, lf.Save(path))

	loaded, err := registry.Open(path)
	require.NoError(t, err)
	assert.Equal(t, lf.Version, loaded.Version)
	assert.Equal(t, lf.Extensions, loaded.Extensions)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Contains(t, generic, "extensions")
}

func TestLockFile_Detect(t *testing.T) {
	lf := &registry.LockFile{
		Version: registry.LockFileVersion,
		Extensions: map[string]registry.Extension{
			"example.novel": {
				Name:     "Example",
				BaseURLs: []string{"https://example.com/"},
			},
			"other.novel": {
				Name:     "Other",
				BaseURLs: []string{"https://other.test/"},
			},
		},
	}

	found, ok := lf.Detect("https://example.com/novel/42")
	require.True(t, ok)
	assert.Equal(t, "Example", found.Name)

	_, ok = lf.Detect("https://unknown.test/novel/1")
	assert.False(t, ok)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := registry.Open(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestOpen_RejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock.json")
	data := []byte(`{
		"version": 999,
		"extensions": {
			"example.novel": {
				"name": "Example",
				"version": "1.0.0",
				"base_urls": ["https://example.com"],
				"langs": ["en"],
				"path": "extensions/example.wasm"
			}
		}
	}`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err := registry.Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version")
}
