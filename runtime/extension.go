package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero/api"

	"github.com/quellehq/quelle/abi"
	"github.com/quellehq/quelle/hostimport"
	"github.com/quellehq/quelle/wire"
)

// Extension is one loaded, instantiated guest module together with its
// bound ABI exports. Unlike the fresh-instance-per-call pattern a
// stateless host ABI can get away with, this spec's length stack and
// last-result slot are per-instance state that must be empty at every call
// boundary — so an Extension wraps a single long-lived instance and
// serializes every call through mu, rather than spinning up a throwaway
// instance per operation.
type Extension struct {
	name     string
	instance api.Module
	guest    *abi.Guest

	mu        sync.Mutex
	corrupted error // set once any call leaves the ABI in an inconsistent state

	meta     *wire.Meta
	metaOnce sync.Once
	metaErr  error
}

func newExtension(name string, instance api.Module) (*Extension, error) {
	guest, err := abi.Bind(instance)
	if err != nil {
		return nil, fmt.Errorf("runtime: binding extension %q: %w", name, err)
	}
	return &Extension{name: name, instance: instance, guest: guest}, nil
}

// Name returns the extension's load-time identifier (typically its file
// name), distinct from its Meta.ID which only becomes known after a
// successful Meta call.
func (e *Extension) Name() string { return e.name }

// Close releases the extension's WASM instance. It does not close the
// CompiledModule that produced it.
func (e *Extension) Close(ctx context.Context) error {
	return e.instance.Close(ctx)
}

// withLock serializes every guest call through a single mutex and poisons
// the extension if fn leaves the ABI's length stack non-empty or otherwise
// violates its own contract — a corrupted instance can't be trusted to
// produce correct results for any subsequent call, guest or host side.
func (e *Extension) withLock(ctx context.Context, fn func(ctx context.Context) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.corrupted != nil {
		return fmt.Errorf("runtime: extension %q is corrupted by a prior ABI violation: %w", e.name, e.corrupted)
	}

	ctx = hostimport.WithExtensionName(ctx, e.name)
	if err := fn(ctx); err != nil {
		// A guest-reported QuelleError is an ordinary result, not an ABI
		// violation, so it leaves the instance usable.
		var qerr *wire.QuelleError
		if !errors.As(err, &qerr) {
			e.corrupted = err
		}
		return err
	}
	return nil
}

// Setup calls the guest's setup export (or setup_default if the guest
// doesn't implement setup), passing cfg as its JSON-encoded argument.
func (e *Extension) Setup(ctx context.Context, cfg wire.ExtensionConfig) error {
	return e.withLock(ctx, func(ctx context.Context) error {
		data, err := json.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("runtime: encoding extension config: %w", err)
		}

		ptr, err := e.guest.WriteBytes(ctx, data)
		if err != nil {
			return fmt.Errorf("runtime: writing extension config: %w", err)
		}

		if e.guest.HasSetup() {
			return e.guest.CallSetup(ctx, ptr)
		}
		return e.guest.CallSetupDefault(ctx, ptr)
	})
}

// Meta calls the guest's meta export, caching the result since an
// extension's identity and base URLs never change between calls.
func (e *Extension) Meta(ctx context.Context) (*wire.Meta, error) {
	e.metaOnce.Do(func() {
		e.metaErr = e.withLock(ctx, func(ctx context.Context) error {
			offset, err := e.guest.CallMeta(ctx)
			if err != nil {
				return err
			}
			data, err := e.guest.ReadPointerResult(ctx, offset)
			if err != nil {
				return err
			}
			var m wire.Meta
			if err := json.Unmarshal(data, &m); err != nil {
				return fmt.Errorf("runtime: decoding meta result: %w", err)
			}
			if err := m.Validate(); err != nil {
				return err
			}
			e.meta = &m
			return nil
		})
	})
	return e.meta, e.metaErr
}

// MetaMemloc calls meta() and returns the raw guest memory location of its
// result, undecoded, for a foreign embedder that wants to read it directly
// rather than pay the cost of the host re-decoding and re-encoding it.
func (e *Extension) MetaMemloc(ctx context.Context) (MemLoc, error) {
	var loc MemLoc
	err := e.withLock(ctx, func(ctx context.Context) error {
		offset, err := e.guest.CallMeta(ctx)
		if err != nil {
			return err
		}
		length, err := e.guest.StackPop(ctx)
		if err != nil {
			return err
		}
		loc = MemLoc{Offset: offset, Len: length}
		return nil
	})
	return loc, err
}

// FetchNovel calls the guest's fetch_novel(url) export.
func (e *Extension) FetchNovel(ctx context.Context, url string) (*wire.Novel, error) {
	var novel wire.Novel
	err := e.withLock(ctx, func(ctx context.Context) error {
		signedLen, err := e.callWithURL(ctx, url, e.guest.CallFetchNovel)
		if err != nil {
			return err
		}
		return e.decodeRequired(ctx, signedLen, &novel)
	})
	if err != nil {
		return nil, err
	}
	return &novel, nil
}

// FetchNovelMemloc is FetchNovel's raw-memory-location counterpart.
func (e *Extension) FetchNovelMemloc(ctx context.Context, url string) (MemLoc, error) {
	return e.memlocWithURL(ctx, url, e.guest.CallFetchNovel)
}

// FetchChapterContent calls the guest's fetch_chapter_content(url) export.
func (e *Extension) FetchChapterContent(ctx context.Context, url string) (string, error) {
	var content string
	err := e.withLock(ctx, func(ctx context.Context) error {
		signedLen, err := e.callWithURL(ctx, url, e.guest.CallFetchChapterContent)
		if err != nil {
			return err
		}
		content, err = e.decodeStringResult(ctx, signedLen)
		return err
	})
	return content, err
}

// FetchChapterContentMemloc is FetchChapterContent's raw-memory-location
// counterpart.
func (e *Extension) FetchChapterContentMemloc(ctx context.Context, url string) (MemLoc, error) {
	return e.memlocWithURL(ctx, url, e.guest.CallFetchChapterContent)
}

// SupportsTextSearch reports whether the guest implements the optional
// text_search export.
func (e *Extension) SupportsTextSearch() bool { return e.guest.HasTextSearch() }

// TextSearch calls the guest's optional text_search(query, page) export.
func (e *Extension) TextSearch(ctx context.Context, query string, page int32) ([]wire.BasicNovel, error) {
	if !e.guest.HasTextSearch() {
		return nil, fmt.Errorf("runtime: extension %q does not support text_search", e.name)
	}
	var novels []wire.BasicNovel
	err := e.withLock(ctx, func(ctx context.Context) error {
		queryPtr, err := e.guest.WriteString(ctx, query)
		if err != nil {
			return err
		}
		signedLen, err := e.guest.CallTextSearch(ctx, queryPtr, page)
		if err != nil {
			return err
		}
		return e.decodeRequired(ctx, signedLen, &novels)
	})
	return novels, err
}

// TextSearchMemloc is TextSearch's raw-memory-location counterpart.
func (e *Extension) TextSearchMemloc(ctx context.Context, query string, page int32) (MemLoc, error) {
	if !e.guest.HasTextSearch() {
		return MemLoc{}, fmt.Errorf("runtime: extension %q does not support text_search", e.name)
	}
	var loc MemLoc
	err := e.withLock(ctx, func(ctx context.Context) error {
		queryPtr, err := e.guest.WriteString(ctx, query)
		if err != nil {
			return err
		}
		length, err := e.guest.CallTextSearch(ctx, queryPtr, page)
		if err != nil {
			return err
		}
		loc, err = e.lastResultLoc(ctx, length)
		return err
	})
	return loc, err
}

// SupportsPopular reports whether the guest implements the optional
// popular/popular_url exports.
func (e *Extension) SupportsPopular() bool { return e.guest.HasPopular() }

// PopularURL calls the guest's optional popular_url(page) export, a
// pointer-only result.
func (e *Extension) PopularURL(ctx context.Context, page int32) (string, error) {
	if !e.guest.HasPopularURL() {
		return "", fmt.Errorf("runtime: extension %q does not support popular_url", e.name)
	}
	var url string
	err := e.withLock(ctx, func(ctx context.Context) error {
		offset, err := e.guest.CallPopularURL(ctx, page)
		if err != nil {
			return err
		}
		data, err := e.guest.ReadPointerResult(ctx, offset)
		if err != nil {
			return err
		}
		url = string(data)
		return nil
	})
	return url, err
}

// PopularURLMemloc is PopularURL's raw-memory-location counterpart.
func (e *Extension) PopularURLMemloc(ctx context.Context, page int32) (MemLoc, error) {
	if !e.guest.HasPopularURL() {
		return MemLoc{}, fmt.Errorf("runtime: extension %q does not support popular_url", e.name)
	}
	var loc MemLoc
	err := e.withLock(ctx, func(ctx context.Context) error {
		offset, err := e.guest.CallPopularURL(ctx, page)
		if err != nil {
			return err
		}
		length, err := e.guest.StackPop(ctx)
		if err != nil {
			return err
		}
		loc = MemLoc{Offset: offset, Len: length}
		return nil
	})
	return loc, err
}

// Popular calls the guest's optional popular(page) export, a signed-length
// result.
func (e *Extension) Popular(ctx context.Context, page int32) ([]wire.BasicNovel, error) {
	if !e.guest.HasPopular() {
		return nil, fmt.Errorf("runtime: extension %q does not support popular", e.name)
	}
	var novels []wire.BasicNovel
	err := e.withLock(ctx, func(ctx context.Context) error {
		signedLen, err := e.guest.CallPopular(ctx, page)
		if err != nil {
			return err
		}
		return e.decodeRequired(ctx, signedLen, &novels)
	})
	return novels, err
}

// PopularMemloc is Popular's raw-memory-location counterpart.
func (e *Extension) PopularMemloc(ctx context.Context, page int32) (MemLoc, error) {
	if !e.guest.HasPopular() {
		return MemLoc{}, fmt.Errorf("runtime: extension %q does not support popular", e.name)
	}
	var loc MemLoc
	err := e.withLock(ctx, func(ctx context.Context) error {
		length, err := e.guest.CallPopular(ctx, page)
		if err != nil {
			return err
		}
		loc, err = e.lastResultLoc(ctx, length)
		return err
	})
	return loc, err
}

// SupportsFilters reports whether the guest implements the optional
// filter_options/filter_search exports.
func (e *Extension) SupportsFilters() bool { return e.guest.HasFilterOptions() }

// FilterOptions calls the guest's optional filter_options() export, a
// pointer-only result describing the filter field schema clients must
// populate for FilterSearch.
func (e *Extension) FilterOptions(ctx context.Context) (wire.FieldMap, error) {
	if !e.guest.HasFilterOptions() {
		return nil, fmt.Errorf("runtime: extension %q does not support filter_options", e.name)
	}
	var fields wire.FieldMap
	err := e.withLock(ctx, func(ctx context.Context) error {
		offset, err := e.guest.CallFilterOptions(ctx)
		if err != nil {
			return err
		}
		data, err := e.guest.ReadPointerResult(ctx, offset)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, &fields)
	})
	return fields, err
}

// FilterSearchURL calls the guest's optional filter_search_url(filters,
// page) export, a signed-length string result.
func (e *Extension) FilterSearchURL(ctx context.Context, filters wire.FieldMap, page int32) (string, error) {
	if !e.guest.HasFilterSearchURL() {
		return "", fmt.Errorf("runtime: extension %q does not support filter_search_url", e.name)
	}
	var url string
	err := e.withLock(ctx, func(ctx context.Context) error {
		filtersPtr, err := e.writeFilters(ctx, filters)
		if err != nil {
			return err
		}
		signedLen, err := e.guest.CallFilterSearchURL(ctx, filtersPtr, page)
		if err != nil {
			return err
		}
		url, err = e.decodeStringResult(ctx, signedLen)
		return err
	})
	return url, err
}

// FilterSearch calls the guest's optional filter_search(filters, page)
// export, a signed-length result.
func (e *Extension) FilterSearch(ctx context.Context, filters wire.FieldMap, page int32) ([]wire.BasicNovel, error) {
	if !e.guest.HasFilterSearch() {
		return nil, fmt.Errorf("runtime: extension %q does not support filter_search", e.name)
	}
	var novels []wire.BasicNovel
	err := e.withLock(ctx, func(ctx context.Context) error {
		filtersPtr, err := e.writeFilters(ctx, filters)
		if err != nil {
			return err
		}
		signedLen, err := e.guest.CallFilterSearch(ctx, filtersPtr, page)
		if err != nil {
			return err
		}
		return e.decodeRequired(ctx, signedLen, &novels)
	})
	return novels, err
}

// FilterSearchMemloc is FilterSearch's raw-memory-location counterpart.
func (e *Extension) FilterSearchMemloc(ctx context.Context, filters wire.FieldMap, page int32) (MemLoc, error) {
	if !e.guest.HasFilterSearch() {
		return MemLoc{}, fmt.Errorf("runtime: extension %q does not support filter_search", e.name)
	}
	var loc MemLoc
	err := e.withLock(ctx, func(ctx context.Context) error {
		filtersPtr, err := e.writeFilters(ctx, filters)
		if err != nil {
			return err
		}
		length, err := e.guest.CallFilterSearch(ctx, filtersPtr, page)
		if err != nil {
			return err
		}
		loc, err = e.lastResultLoc(ctx, length)
		return err
	})
	return loc, err
}

func (e *Extension) writeFilters(ctx context.Context, filters wire.FieldMap) (int32, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return 0, fmt.Errorf("runtime: encoding filters: %w", err)
	}
	return e.guest.WriteBytes(ctx, data)
}

func (e *Extension) callWithURL(ctx context.Context, url string, call func(context.Context, int32) (int32, error)) (int32, error) {
	ptr, err := e.guest.WriteString(ctx, url)
	if err != nil {
		return 0, err
	}
	return call(ctx, ptr)
}

func (e *Extension) memlocWithURL(ctx context.Context, url string, call func(context.Context, int32) (int32, error)) (MemLoc, error) {
	var loc MemLoc
	err := e.withLock(ctx, func(ctx context.Context) error {
		length, err := e.callWithURL(ctx, url, call)
		if err != nil {
			return err
		}
		loc, err = e.lastResultLoc(ctx, length)
		return err
	})
	return loc, err
}

func (e *Extension) lastResultLoc(ctx context.Context, signedLen int32) (MemLoc, error) {
	if signedLen == 0 {
		return MemLoc{}, nil
	}
	offset, err := e.guest.LastResult(ctx)
	if err != nil {
		return MemLoc{}, err
	}
	length := signedLen
	if length < 0 {
		length = -length
	}
	return MemLoc{Offset: offset, Len: length}, nil
}

// decodeRequired decodes a signed-length result into out, treating a zero
// length as an ABI violation: object/array payloads are never legitimately
// empty (the guest always emits at least "{}" or "[]"), so a guest
// returning 0 here means it broke the ABI's own contract.
func (e *Extension) decodeRequired(ctx context.Context, signedLen int32, out any) error {
	outcome, data, err := e.guest.ReadSignedLenResult(ctx, signedLen)
	if err != nil {
		return err
	}
	switch outcome {
	case abi.ResultEmpty:
		return fmt.Errorf("runtime: extension %q returned an empty result for an object/array export", e.name)
	case abi.ResultError:
		qerr, err := wire.DecodeQuelleError(data)
		if err != nil {
			return fmt.Errorf("runtime: decoding guest error payload: %w", err)
		}
		return qerr
	default:
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("runtime: decoding guest result: %w", err)
		}
		return nil
	}
}

// decodeStringResult decodes a signed-length result known to be
// string-shaped, where a zero length legitimately means an empty string.
func (e *Extension) decodeStringResult(ctx context.Context, signedLen int32) (string, error) {
	outcome, data, err := e.guest.ReadSignedLenResult(ctx, signedLen)
	if err != nil {
		return "", err
	}
	switch outcome {
	case abi.ResultEmpty:
		return "", nil
	case abi.ResultError:
		qerr, err := wire.DecodeQuelleError(data)
		if err != nil {
			return "", fmt.Errorf("runtime: decoding guest error payload: %w", err)
		}
		return "", qerr
	default:
		return string(data), nil
	}
}
