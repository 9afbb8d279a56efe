package runtime_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quellehq/quelle/runtime"
	"github.com/quellehq/quelle/wire"
)

// getFixtureWasm loads a compiled test extension from testdata/fixtures,
// skipping the test (rather than failing it) when the fixture hasn't been
// built locally. Extension fixtures are real guest WASM binaries and
// aren't checked in prebuilt, matching the teacher's own
// build-before-test convention for its plugin WASM artifacts.
func getFixtureWasm(t *testing.T, name string) []byte {
	t.Helper()
	path := filepath.Join("testdata", "fixtures", name+".wasm")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Skipf("%s not built - see testdata/fixtures/README.md", path)
	}
	require.NoError(t, err)
	require.NotEmpty(t, data)
	return data
}

func TestNew_ClosesCleanly(t *testing.T) {
	ctx := context.Background()
	rt, err := runtime.New(ctx, runtime.Config{})
	require.NoError(t, err)
	require.NotNil(t, rt)
	assert.NoError(t, rt.Close(ctx))
}

func TestLoad_MissingRequiredExport(t *testing.T) {
	ctx := context.Background()
	rt, err := runtime.New(ctx, runtime.Config{})
	require.NoError(t, err)
	defer rt.Close(ctx)

	// A module with no exports at all is missing every required ABI
	// function; Load should fail at bind time rather than panicking on the
	// first guest call.
	emptyModule := []byte("\x00asm\x01\x00\x00\x00")
	_, err = rt.Load(ctx, "empty", emptyModule)
	require.Error(t, err)
}

func TestExtension_Meta(t *testing.T) {
	wasmBytes := getFixtureWasm(t, "minimal_novel_source")

	ctx := context.Background()
	rt, err := runtime.New(ctx, runtime.Config{})
	require.NoError(t, err)
	defer rt.Close(ctx)

	ext, err := rt.Load(ctx, "minimal_novel_source", wasmBytes)
	require.NoError(t, err)
	defer ext.Close(ctx)

	meta, err := ext.Meta(ctx)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.NotEmpty(t, meta.ID)
	assert.NotEmpty(t, meta.Name)

	// Meta is cached: a second call must not re-invoke the guest export.
	meta2, err := ext.Meta(ctx)
	require.NoError(t, err)
	assert.Same(t, meta, meta2)
}

func TestExtension_FetchNovel(t *testing.T) {
	wasmBytes := getFixtureWasm(t, "minimal_novel_source")

	ctx := context.Background()
	rt, err := runtime.New(ctx, runtime.Config{})
	require.NoError(t, err)
	defer rt.Close(ctx)

	ext, err := rt.Load(ctx, "minimal_novel_source", wasmBytes)
	require.NoError(t, err)
	defer ext.Close(ctx)

	meta, err := ext.Meta(ctx)
	require.NoError(t, err)
	home, err := meta.HomeURL()
	require.NoError(t, err)

	novel, err := ext.FetchNovel(ctx, home)
	require.NoError(t, err)
	require.NotNil(t, novel)
	assert.NotEmpty(t, novel.Title)
}

func TestExtension_CorruptsAfterFailedCall(t *testing.T) {
	wasmBytes := getFixtureWasm(t, "broken_stack_source")

	ctx := context.Background()
	rt, err := runtime.New(ctx, runtime.Config{})
	require.NoError(t, err)
	defer rt.Close(ctx)

	ext, err := rt.Load(ctx, "broken_stack_source", wasmBytes)
	require.NoError(t, err)
	defer ext.Close(ctx)

	_, err = ext.Meta(ctx)
	require.Error(t, err)

	// Once corrupted, even an unrelated operation must refuse rather than
	// touch a guest instance whose length stack is left unbalanced.
	_, err = ext.FetchNovel(ctx, "https://example.com/novel/1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupted")
}

func TestExtension_OptionalExportsReportUnsupported(t *testing.T) {
	wasmBytes := getFixtureWasm(t, "minimal_novel_source")

	ctx := context.Background()
	rt, err := runtime.New(ctx, runtime.Config{})
	require.NoError(t, err)
	defer rt.Close(ctx)

	ext, err := rt.Load(ctx, "minimal_novel_source", wasmBytes)
	require.NoError(t, err)
	defer ext.Close(ctx)

	if !ext.SupportsTextSearch() {
		_, err := ext.TextSearch(ctx, "query", 1)
		require.Error(t, err)
	}
	if !ext.SupportsPopular() {
		_, err := ext.Popular(ctx, 1)
		require.Error(t, err)
	}
	if !ext.SupportsFilters() {
		_, err := ext.FilterOptions(ctx)
		require.Error(t, err)
	}
}

func TestExtension_SetupWithConfig(t *testing.T) {
	wasmBytes := getFixtureWasm(t, "minimal_novel_source")

	ctx := context.Background()
	rt, err := runtime.New(ctx, runtime.Config{})
	require.NoError(t, err)
	defer rt.Close(ctx)

	ext, err := rt.Load(ctx, "minimal_novel_source", wasmBytes)
	require.NoError(t, err)
	defer ext.Close(ctx)

	cfg := wire.DefaultExtensionConfig()
	require.NoError(t, ext.Setup(ctx, cfg))
}
