// Package runtime loads compiled WASM extension modules, links them
// against the host import surface, and exposes the guest operation set
// (meta, fetch_novel, fetch_chapter_content, popular, text_search,
// filter_options, filter_search) as typed Go methods.
package runtime

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/quellehq/quelle/hostimport"
)

// Config controls how a Runtime's wazero engine is constructed.
type Config struct {
	// Logger receives guest log_event/io_* diagnostics. Defaults to a
	// slog-backed logger when nil.
	Logger hostimport.Logger
}

// Runtime owns one wazero engine shared by every loaded Extension. A
// single Runtime should be reused across an entire process's extension
// set rather than constructed per call: compiling a module and
// instantiating WASI are both too expensive to repeat per invocation.
type Runtime struct {
	engine wazero.Runtime
}

// New constructs a Runtime: a wazero engine with WASI and the "env" host
// import module (http_send_request, log_event, io_print/io_eprint/io_trace)
// both instantiated and ready to link against guest modules.
func New(ctx context.Context, cfg Config) (*Runtime, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = hostimport.NewSlogLogger(nil)
	}

	engine := wazero.NewRuntime(ctx)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, engine); err != nil {
		_ = engine.Close(ctx)
		return nil, fmt.Errorf("runtime: instantiating WASI: %w", err)
	}

	if err := hostimport.Register(ctx, engine, logger); err != nil {
		_ = engine.Close(ctx)
		return nil, fmt.Errorf("runtime: registering host imports: %w", err)
	}

	return &Runtime{engine: engine}, nil
}

// Close releases every resource the runtime's wazero engine holds,
// including every Extension still loaded against it.
func (r *Runtime) Close(ctx context.Context) error {
	return r.engine.Close(ctx)
}

// Compile compiles wasmBytes ahead of instantiation, letting a caller
// validate a module (or share a single compiled module across several
// concurrent Extension instances) without paying compilation cost twice.
func (r *Runtime) Compile(ctx context.Context, wasmBytes []byte) (wazero.CompiledModule, error) {
	module, err := r.engine.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("runtime: compiling module: %w", err)
	}
	return module, nil
}

// Load compiles and instantiates a single Extension from wasmBytes, named
// name for diagnostics and for the extension-attribution logging
// WithExtensionName threads through host imports.
func (r *Runtime) Load(ctx context.Context, name string, wasmBytes []byte) (*Extension, error) {
	module, err := r.Compile(ctx, wasmBytes)
	if err != nil {
		return nil, err
	}
	return r.Instantiate(ctx, name, module)
}

// Instantiate instantiates an already-compiled module as a named
// Extension. Closing the returned Extension does not close module, so a
// single CompiledModule may back multiple concurrently-instantiated
// Extensions.
func (r *Runtime) Instantiate(ctx context.Context, name string, module wazero.CompiledModule) (*Extension, error) {
	cfg := wazero.NewModuleConfig().WithName(name)

	ctx = hostimport.WithExtensionName(ctx, name)
	instance, err := r.engine.InstantiateModule(ctx, module, cfg)
	if err != nil {
		return nil, fmt.Errorf("runtime: instantiating extension %q: %w", name, err)
	}

	ext, err := newExtension(name, instance)
	if err != nil {
		_ = instance.Close(ctx)
		return nil, err
	}
	return ext, nil
}
