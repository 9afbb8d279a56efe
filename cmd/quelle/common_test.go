package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWasmFile_MissingFile(t *testing.T) {
	_, err := readWasmFile(filepath.Join(t.TempDir(), "missing.wasm"))
	require.Error(t, err)
}

func TestReadWasmFile_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.wasm")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := readWasmFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestReadWasmFile_ReadsContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "module.wasm")
	content := []byte("\x00asm\x01\x00\x00\x00")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	data, err := readWasmFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}
