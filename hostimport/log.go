package hostimport

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/tetratelabs/wazero/api"

	"github.com/quellehq/quelle/wire"
)

// logEvent implements the log_event host import. Unlike http_send_request,
// its two i32 arguments (ptr, len) are explicit rather than recovered from
// the length stack, matching the original engine's module/log.rs signature.
func logEvent(ctx context.Context, mod api.Module, stack []uint64, logger Logger) {
	ptr := api.DecodeU32(stack[0])
	length := api.DecodeU32(stack[1])

	data, ok := mod.Memory().Read(ptr, length)
	if !ok {
		slog.ErrorContext(ctx, "hostimport: out-of-bounds guest read in log_event", "ptr", ptr, "len", length)
		return
	}

	var event wire.LogEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.WarnContext(ctx, "hostimport: failed to decode guest log event", "error", err)
		return
	}

	extension := ExtensionName(ctx)
	if logger != nil {
		var line uint32
		if event.Line != nil {
			line = *event.Line
		}
		var modulePath, file string
		if event.ModulePath != nil {
			modulePath = *event.ModulePath
		}
		if event.File != nil {
			file = *event.File
		}
		logger.LogEvent(ctx, extension, string(event.Level), event.Args, modulePath, file, line)
		return
	}

	slog.LogAttrs(ctx, slogLevel(event.Level), event.Args, slog.String("extension", extension))
}

func slogLevel(level wire.Level) slog.Level {
	switch level {
	case wire.LevelError:
		return slog.LevelError
	case wire.LevelWarn:
		return slog.LevelWarn
	case wire.LevelDebug, wire.LevelTrace:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
