package abi

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// The Call* methods below invoke a single bound guest export and return its
// raw i32 result(s), with no interpretation of what that result means —
// decoding (stack_pop vs last_result, signed-length success/error/empty) is
// the runtime package's job, kept deliberately separate so each exported
// operation stays a thin, auditable one-liner naming exactly which guest
// function it calls and with what arguments.

// CallSetup invokes the guest's optional setup(configPtr) export. Callers
// must check HasSetup first.
func (g *Guest) CallSetup(ctx context.Context, configPtr int32) error {
	_, err := g.setup.Call(ctx, api.EncodeI32(configPtr))
	return wrapCallErr("setup", err)
}

// CallSetupDefault invokes the guest's required setup_default(configPtr)
// export, used when the guest doesn't implement setup.
func (g *Guest) CallSetupDefault(ctx context.Context, configPtr int32) error {
	_, err := g.setupDefault.Call(ctx, api.EncodeI32(configPtr))
	return wrapCallErr("setup_default", err)
}

// CallMeta invokes meta(), a pointer-only export: the returned offset's
// length must be recovered via StackPop, not LastResult.
func (g *Guest) CallMeta(ctx context.Context) (int32, error) {
	res, err := g.meta.Call(ctx)
	if err != nil {
		return 0, wrapCallErr("meta", err)
	}
	return api.DecodeI32(res[0]), nil
}

// CallFetchNovel invokes fetch_novel(urlPtr), a signed-length export.
func (g *Guest) CallFetchNovel(ctx context.Context, urlPtr int32) (int32, error) {
	res, err := g.fetchNovel.Call(ctx, api.EncodeI32(urlPtr))
	if err != nil {
		return 0, wrapCallErr("fetch_novel", err)
	}
	return api.DecodeI32(res[0]), nil
}

// CallFetchChapterContent invokes fetch_chapter_content(urlPtr), a
// signed-length export.
func (g *Guest) CallFetchChapterContent(ctx context.Context, urlPtr int32) (int32, error) {
	res, err := g.fetchChapterContent.Call(ctx, api.EncodeI32(urlPtr))
	if err != nil {
		return 0, wrapCallErr("fetch_chapter_content", err)
	}
	return api.DecodeI32(res[0]), nil
}

// CallTextSearch invokes the optional text_search(queryPtr, page), a
// signed-length export. Callers must check HasTextSearch first.
func (g *Guest) CallTextSearch(ctx context.Context, queryPtr, page int32) (int32, error) {
	res, err := g.textSearch.Call(ctx, api.EncodeI32(queryPtr), api.EncodeI32(page))
	if err != nil {
		return 0, wrapCallErr("text_search", err)
	}
	return api.DecodeI32(res[0]), nil
}

// CallPopularURL invokes the optional popular_url(page), a pointer-only
// export. Callers must check HasPopularURL first.
func (g *Guest) CallPopularURL(ctx context.Context, page int32) (int32, error) {
	res, err := g.popularURL.Call(ctx, api.EncodeI32(page))
	if err != nil {
		return 0, wrapCallErr("popular_url", err)
	}
	return api.DecodeI32(res[0]), nil
}

// CallPopular invokes the optional popular(page), a signed-length export.
// Callers must check HasPopular first.
func (g *Guest) CallPopular(ctx context.Context, page int32) (int32, error) {
	res, err := g.popular.Call(ctx, api.EncodeI32(page))
	if err != nil {
		return 0, wrapCallErr("popular", err)
	}
	return api.DecodeI32(res[0]), nil
}

// CallFilterOptions invokes the optional filter_options(), a pointer-only
// export returning the guest's filter field schema. Callers must check
// HasFilterOptions first.
func (g *Guest) CallFilterOptions(ctx context.Context) (int32, error) {
	res, err := g.filterOptions.Call(ctx)
	if err != nil {
		return 0, wrapCallErr("filter_options", err)
	}
	return api.DecodeI32(res[0]), nil
}

// CallFilterSearchURL invokes the optional filter_search_url(filtersPtr,
// page), a signed-length export. Callers must check HasFilterSearchURL
// first.
func (g *Guest) CallFilterSearchURL(ctx context.Context, filtersPtr, page int32) (int32, error) {
	res, err := g.filterSearchURL.Call(ctx, api.EncodeI32(filtersPtr), api.EncodeI32(page))
	if err != nil {
		return 0, wrapCallErr("filter_search_url", err)
	}
	return api.DecodeI32(res[0]), nil
}

// CallFilterSearch invokes the optional filter_search(filtersPtr, page), a
// signed-length export. Callers must check HasFilterSearch first.
func (g *Guest) CallFilterSearch(ctx context.Context, filtersPtr, page int32) (int32, error) {
	res, err := g.filterSearch.Call(ctx, api.EncodeI32(filtersPtr), api.EncodeI32(page))
	if err != nil {
		return 0, wrapCallErr("filter_search", err)
	}
	return api.DecodeI32(res[0]), nil
}

func wrapCallErr(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("abi: calling guest export %q: %w", name, err)
}
