// Command libquelle builds as a C shared library (-buildmode=c-shared)
// exposing the engine lifecycle a native embedder needs: open an
// extension module by path, read its meta, fetch a novel or chapter, and
// close it again. It is a thin C-type <-> Go-type shim around package
// cabi; all engine logic lives there.
package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"context"
	"runtime/cgo"
	"unsafe"

	"github.com/quellehq/quelle/cabi"
)

// cString allocates a C string the caller owns and must free with
// quelle_free_string.
func cString(s string) *C.char {
	return C.CString(s)
}

//export open_engine_with_path
func open_engine_with_path(path *C.char) C.longlong {
	handle, err := cabi.OpenEngineWithPath(context.Background(), C.GoString(path))
	if err != nil {
		return -1
	}
	return C.longlong(handle)
}

//export source_meta
func source_meta(handle C.longlong) *C.char {
	meta, err := cabi.SourceMeta(context.Background(), cgo.Handle(handle))
	if err != nil {
		return nil
	}
	return cString(meta)
}

//export fetch_novel
func fetch_novel(handle C.longlong, url *C.char) *C.char {
	novel, err := cabi.FetchNovel(context.Background(), cgo.Handle(handle), C.GoString(url))
	if err != nil {
		return nil
	}
	return cString(novel)
}

//export fetch_chapter_content
func fetch_chapter_content(handle C.longlong, url *C.char) *C.char {
	content, err := cabi.FetchChapterContent(context.Background(), cgo.Handle(handle), C.GoString(url))
	if err != nil {
		return nil
	}
	return cString(content)
}

//export filter_options
func filter_options(handle C.longlong) *C.char {
	options, err := cabi.FilterOptions(context.Background(), cgo.Handle(handle))
	if err != nil {
		return nil
	}
	return cString(options)
}

//export quelle_last_error
func quelle_last_error(handle C.longlong) *C.char {
	return cString(cabi.LastError(cgo.Handle(handle)))
}

//export close_engine
func close_engine(handle C.longlong) C.int {
	if err := cabi.CloseEngine(context.Background(), cgo.Handle(handle)); err != nil {
		return -1
	}
	return 0
}

//export quelle_free_string
func quelle_free_string(s *C.char) {
	C.free(unsafe.Pointer(s))
}

func main() {}
