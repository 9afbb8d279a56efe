package cabi_test

import (
	"context"
	"runtime/cgo"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quellehq/quelle/cabi"
)

func TestOpenEngineWithPath_MissingFile(t *testing.T) {
	_, err := cabi.OpenEngineWithPath(context.Background(), "/nonexistent/path.wasm")
	require.Error(t, err)
}

func TestSourceMeta_InvalidHandle(t *testing.T) {
	_, err := cabi.SourceMeta(context.Background(), cgo.Handle(0))
	require.Error(t, err)
}

func TestLastError_InvalidHandle(t *testing.T) {
	msg := cabi.LastError(cgo.Handle(0))
	assert.NotEmpty(t, msg)
}

func TestCloseEngine_InvalidHandle(t *testing.T) {
	err := cabi.CloseEngine(context.Background(), cgo.Handle(0))
	require.Error(t, err)
}
