// Package cabi is the pure-Go half of the C-shared library facade built
// by cmd/libquelle: it owns handle lifecycle and every operation a native
// embedder can invoke, in plain Go types. cmd/libquelle's cgo shim is
// nothing but C-type <-> Go-type conversion around these functions, kept
// separate so the engine logic itself stays unit-testable without a cgo
// build.
//
// The original native binding (bindings/native/src/lib.rs) returned a raw
// engine pointer via Box::into_raw and stashed errors in a thread_local.
// Go has no equivalent of a thread-local that survives a call originating
// from arbitrary C code on arbitrary OS threads, so each Engine carries
// its own last error instead of a process-global one; callers fetch it
// through the same handle they used for the failing call.
package cabi

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime/cgo"
	"sync"

	"github.com/quellehq/quelle/runtime"
)

// Engine is one opened extension module together with the runtime that
// loaded it. A handle to an Engine is what OpenEngineWithPath hands back
// to the native caller.
type Engine struct {
	mu      sync.Mutex
	rt      *runtime.Runtime
	ext     *runtime.Extension
	lastErr error
}

// OpenEngineWithPath compiles and instantiates the extension module at
// path, wraps it in a new Engine, and returns a handle to it. The
// returned handle must eventually be passed to CloseEngine.
func OpenEngineWithPath(ctx context.Context, path string) (cgo.Handle, error) {
	wasmBytes, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("cabi: reading %q: %w", path, err)
	}

	rt, err := runtime.New(ctx, runtime.Config{})
	if err != nil {
		return 0, fmt.Errorf("cabi: creating runtime: %w", err)
	}

	ext, err := rt.Load(ctx, path, wasmBytes)
	if err != nil {
		_ = rt.Close(ctx)
		return 0, fmt.Errorf("cabi: loading %q: %w", path, err)
	}

	if _, err := ext.Meta(ctx); err != nil {
		_ = ext.Close(ctx)
		_ = rt.Close(ctx)
		return 0, fmt.Errorf("cabi: reading meta from %q: %w", path, err)
	}

	engine := &Engine{rt: rt, ext: ext}
	return cgo.NewHandle(engine), nil
}

// engineFor resolves a handle back to its Engine. Handle.Value panics for
// a zero, stale, or already-deleted handle — a real possibility given a
// native caller can pass back any value it likes — so engineFor recovers
// and reports that as an ordinary error instead of crashing the process.
func engineFor(handle cgo.Handle) (engine *Engine, err error) {
	defer func() {
		if r := recover(); r != nil {
			engine, err = nil, fmt.Errorf("cabi: invalid engine handle: %v", r)
		}
	}()

	value := handle.Value()
	e, ok := value.(*Engine)
	if !ok {
		return nil, fmt.Errorf("cabi: handle does not reference an engine")
	}
	return e, nil
}

// SourceMeta returns the opened extension's meta() result as JSON.
func SourceMeta(ctx context.Context, handle cgo.Handle) (string, error) {
	engine, err := engineFor(handle)
	if err != nil {
		return "", err
	}
	return engine.call(func() (any, error) {
		return engine.ext.Meta(ctx)
	})
}

// FetchNovel returns the opened extension's fetch_novel(url) result as
// JSON.
func FetchNovel(ctx context.Context, handle cgo.Handle, url string) (string, error) {
	engine, err := engineFor(handle)
	if err != nil {
		return "", err
	}
	return engine.call(func() (any, error) {
		return engine.ext.FetchNovel(ctx, url)
	})
}

// FetchChapterContent returns the opened extension's
// fetch_chapter_content(url) result as a raw (non-JSON) string.
func FetchChapterContent(ctx context.Context, handle cgo.Handle, url string) (string, error) {
	engine, err := engineFor(handle)
	if err != nil {
		return "", err
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.lastErr = nil

	content, err := engine.ext.FetchChapterContent(ctx, url)
	if err != nil {
		engine.lastErr = err
		return "", err
	}
	return content, nil
}

// FilterOptions returns the opened extension's filter_options() result as
// JSON, or an error if the extension doesn't support filters.
func FilterOptions(ctx context.Context, handle cgo.Handle) (string, error) {
	engine, err := engineFor(handle)
	if err != nil {
		return "", err
	}
	return engine.call(func() (any, error) {
		return engine.ext.FilterOptions(ctx)
	})
}

// LastError returns the message of the most recent operation's error on
// this handle, or an empty string if the last operation succeeded.
func LastError(handle cgo.Handle) string {
	engine, err := engineFor(handle)
	if err != nil {
		return err.Error()
	}
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.lastErr == nil {
		return ""
	}
	return engine.lastErr.Error()
}

// CloseEngine releases the engine's extension and runtime and invalidates
// handle. Calling any other function with handle afterward is an error.
func CloseEngine(ctx context.Context, handle cgo.Handle) error {
	engine, err := engineFor(handle)
	if err != nil {
		return err
	}

	engine.mu.Lock()
	closeErr := engine.ext.Close(ctx)
	if rtErr := engine.rt.Close(ctx); closeErr == nil {
		closeErr = rtErr
	}
	engine.mu.Unlock()

	handle.Delete()
	return closeErr
}

// call runs fn under the engine's lock, JSON-encodes a non-nil result,
// clears the previous last error, and records any new error as the engine's last error for later retrieval
// via LastError.
func (e *Engine) call(fn func() (any, error)) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastErr = nil

	result, err := fn()
	if err != nil {
		e.lastErr = err
		return "", err
	}

	data, err := json.Marshal(result)
	if err != nil {
		e.lastErr = fmt.Errorf("cabi: encoding result: %w", err)
		return "", e.lastErr
	}
	return string(data), nil
}
