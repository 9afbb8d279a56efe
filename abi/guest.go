package abi

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// Guest binds the fixed set of exports every guest extension module must
// (or may) provide, resolved once when an extension is loaded rather than
// looked up by name on every call.
type Guest struct {
	mod api.Module
	mem *Memory

	alloc      api.Function
	dealloc    api.Function
	stackPush  api.Function
	stackPop   api.Function
	lastResult api.Function

	setup        api.Function // optional
	setupDefault api.Function

	meta                api.Function
	fetchNovel          api.Function
	fetchChapterContent api.Function
	textSearch          api.Function // optional
	popularURL          api.Function // optional
	popular             api.Function // optional
	filterOptions       api.Function // optional
	filterSearchURL     api.Function // optional
	filterSearch        api.Function // optional
}

// Bind resolves every required export from mod, returning an error naming
// the first one missing. Optional exports that aren't present are left nil;
// callers use the Has* predicates to check before invoking them.
func Bind(mod api.Module) (*Guest, error) {
	g := &Guest{
		mod: mod,
		mem: NewMemory(mod.Memory()),

		alloc:      mod.ExportedFunction("alloc"),
		dealloc:    mod.ExportedFunction("dealloc"),
		stackPush:  mod.ExportedFunction("stack_push"),
		stackPop:   mod.ExportedFunction("stack_pop"),
		lastResult: mod.ExportedFunction("last_result"),

		setup:        mod.ExportedFunction("setup"),
		setupDefault: mod.ExportedFunction("setup_default"),

		meta:                mod.ExportedFunction("meta"),
		fetchNovel:          mod.ExportedFunction("fetch_novel"),
		fetchChapterContent: mod.ExportedFunction("fetch_chapter_content"),
		textSearch:          mod.ExportedFunction("text_search"),
		popularURL:          mod.ExportedFunction("popular_url"),
		popular:             mod.ExportedFunction("popular"),
		filterOptions:       mod.ExportedFunction("filter_options"),
		filterSearchURL:     mod.ExportedFunction("filter_search_url"),
		filterSearch:        mod.ExportedFunction("filter_search"),
	}

	required := map[string]api.Function{
		"alloc":                 g.alloc,
		"dealloc":               g.dealloc,
		"stack_push":            g.stackPush,
		"stack_pop":             g.stackPop,
		"last_result":           g.lastResult,
		"setup_default":         g.setupDefault,
		"meta":                  g.meta,
		"fetch_novel":           g.fetchNovel,
		"fetch_chapter_content": g.fetchChapterContent,
	}
	for name, fn := range required {
		if fn == nil {
			return nil, fmt.Errorf("abi: guest module does not export required function %q", name)
		}
	}

	return g, nil
}

// Memory returns the bounds-checked wrapper over the guest's linear memory.
func (g *Guest) Memory() *Memory { return g.mem }

func (g *Guest) HasSetup() bool           { return g.setup != nil }
func (g *Guest) HasTextSearch() bool      { return g.textSearch != nil }
func (g *Guest) HasPopularURL() bool      { return g.popularURL != nil }
func (g *Guest) HasPopular() bool         { return g.popular != nil }
func (g *Guest) HasFilterOptions() bool   { return g.filterOptions != nil }
func (g *Guest) HasFilterSearchURL() bool { return g.filterSearchURL != nil }
func (g *Guest) HasFilterSearch() bool    { return g.filterSearch != nil }

// Alloc calls the guest's bump allocator, returning the pointer to an
// uninitialized region of at least length bytes.
func (g *Guest) Alloc(ctx context.Context, length int32) (int32, error) {
	res, err := g.alloc.Call(ctx, api.EncodeI32(length))
	if err != nil {
		return 0, fmt.Errorf("abi: alloc(%d): %w", length, err)
	}
	return api.DecodeI32(res[0]), nil
}

// Dealloc releases a region previously returned by Alloc, or any pointer
// the guest handed back to the host as a result payload. Failures are the
// caller's to decide whether to treat as fatal; dealloc is frequently
// called from defer during error unwinding where the original error is
// already the one worth surfacing.
func (g *Guest) Dealloc(ctx context.Context, ptr, length int32) error {
	if _, err := g.dealloc.Call(ctx, api.EncodeI32(ptr), api.EncodeI32(length)); err != nil {
		return fmt.Errorf("abi: dealloc(%d, %d): %w", ptr, length, err)
	}
	return nil
}

// StackPush pushes size onto the guest's length stack. It is called once
// per host-to-guest string/bytes argument written into guest memory, so the
// guest export can recover the argument's length without a second
// host-to-guest round trip.
func (g *Guest) StackPush(ctx context.Context, size int32) error {
	if _, err := g.stackPush.Call(ctx, api.EncodeI32(size)); err != nil {
		return fmt.Errorf("abi: stack_push(%d): %w", size, err)
	}
	return nil
}

// StackPop pops and returns the most recently pushed length. Every push
// must be matched by exactly one pop by the time a call boundary is
// reached, or the guest instance is considered corrupted (see
// runtime.Extension's non-reentrant guard).
func (g *Guest) StackPop(ctx context.Context) (int32, error) {
	res, err := g.stackPop.Call(ctx)
	if err != nil {
		return 0, fmt.Errorf("abi: stack_pop(): %w", err)
	}
	return api.DecodeI32(res[0]), nil
}

// LastResult returns the guest memory offset of the most recent
// signed-length result payload. It is only meaningful immediately after
// calling an export whose own return value is the signed length itself
// (fetch_novel, fetch_chapter_content, popular, text_search,
// filter_search, filter_search_url) — never after a pointer-only export
// like meta or popular_url, which instead use StackPop for their length.
func (g *Guest) LastResult(ctx context.Context) (int32, error) {
	res, err := g.lastResult.Call(ctx)
	if err != nil {
		return 0, fmt.Errorf("abi: last_result(): %w", err)
	}
	return api.DecodeI32(res[0]), nil
}

// WriteString allocates room for s in guest memory, pushes its length onto
// the stack, and copies it in. The returned pointer (combined with the
// pushed length) is what a guest export expecting a string argument reads
// via its own stack_pop.
func (g *Guest) WriteString(ctx context.Context, s string) (int32, error) {
	return g.WriteBytes(ctx, []byte(s))
}

// WriteBytes is WriteString's byte-slice counterpart, used for
// already-serialized JSON payloads (e.g. ExtensionConfig for setup).
func (g *Guest) WriteBytes(ctx context.Context, data []byte) (int32, error) {
	ptr, err := g.Alloc(ctx, int32(len(data)))
	if err != nil {
		return 0, err
	}
	if err := g.StackPush(ctx, int32(len(data))); err != nil {
		return 0, err
	}
	if err := g.mem.Write(uint32(ptr), data); err != nil {
		return 0, fmt.Errorf("abi: writing %d bytes to guest memory at %d: %w", len(data), ptr, err)
	}
	return ptr, nil
}

// ReadPointerResult reads a pointer-only export's result: the length comes
// from StackPop, the bytes from offset, and the guest's allocation is freed
// before returning.
func (g *Guest) ReadPointerResult(ctx context.Context, offset int32) ([]byte, error) {
	length, err := g.StackPop(ctx)
	if err != nil {
		return nil, err
	}
	return g.takeBytes(ctx, offset, length)
}

// ResultOutcome classifies a signed-length guest result.
type ResultOutcome int

const (
	// ResultEmpty means the export returned a signed length of exactly
	// zero, only ever valid for string-shaped results (an empty string)
	// — never for object/array payloads, which are at minimum "{}"/"[]".
	ResultEmpty ResultOutcome = iota
	ResultSuccess
	ResultError
)

// ReadSignedLenResult reads a signed-length export's result payload. A
// positive signedLen is success data of that length; negative is error
// data of that magnitude; zero is ResultEmpty. In every non-empty case the
// offset comes from LastResult and the guest's allocation is freed before
// returning.
func (g *Guest) ReadSignedLenResult(ctx context.Context, signedLen int32) (ResultOutcome, []byte, error) {
	if signedLen == 0 {
		return ResultEmpty, nil, nil
	}

	offset, err := g.LastResult(ctx)
	if err != nil {
		return 0, nil, err
	}

	length := signedLen
	outcome := ResultSuccess
	if signedLen < 0 {
		length = -signedLen
		outcome = ResultError
	}

	data, err := g.takeBytes(ctx, offset, length)
	if err != nil {
		return 0, nil, err
	}
	return outcome, data, nil
}

func (g *Guest) takeBytes(ctx context.Context, offset, length int32) ([]byte, error) {
	data, err := g.mem.Read(uint32(offset), uint32(length))
	if err != nil {
		return nil, fmt.Errorf("abi: reading result payload: %w", err)
	}
	if err := g.Dealloc(ctx, offset, length); err != nil {
		return nil, fmt.Errorf("abi: freeing result payload: %w", err)
	}
	return data, nil
}
