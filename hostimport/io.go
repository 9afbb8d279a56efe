package hostimport

import (
	"context"
	"log/slog"

	"github.com/tetratelabs/wazero/api"
)

// ioPrint, ioEprint and ioTrace implement io_print/io_eprint/io_trace: raw
// string passthrough for a guest that wants stdout/stderr-style output
// without going through the structured log_event path. Each takes a single
// pointer argument, reading its length off the guest's stack the same way
// http_send_request's argument does.
func ioPrint(ctx context.Context, mod api.Module, stack []uint64, logger Logger) {
	writeRaw(ctx, mod, stack, logger, (Logger).Print)
}

func ioEprint(ctx context.Context, mod api.Module, stack []uint64, logger Logger) {
	writeRaw(ctx, mod, stack, logger, (Logger).Eprint)
}

func ioTrace(ctx context.Context, mod api.Module, stack []uint64, logger Logger) {
	writeRaw(ctx, mod, stack, logger, (Logger).Trace)
}

func writeRaw(ctx context.Context, mod api.Module, stack []uint64, logger Logger, sink func(Logger, context.Context, string, string)) {
	ptr := api.DecodeU32(stack[0])

	data, err := readStackString(ctx, mod, ptr)
	if err != nil {
		slog.ErrorContext(ctx, "hostimport: failed to read guest io write", "error", err)
		return
	}

	extension := ExtensionName(ctx)
	if logger != nil {
		sink(logger, ctx, extension, string(data))
		return
	}
	slog.InfoContext(ctx, string(data), "extension", extension)
}
