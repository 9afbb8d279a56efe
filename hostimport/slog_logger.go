package hostimport

import (
	"context"
	"log/slog"

	"github.com/quellehq/quelle/wire"
)

// SlogLogger is the default Logger, forwarding every guest diagnostic to a
// *slog.Logger tagged with the emitting extension's name.
type SlogLogger struct {
	Log *slog.Logger
}

// NewSlogLogger wraps log, or slog.Default() if log is nil.
func NewSlogLogger(log *slog.Logger) *SlogLogger {
	if log == nil {
		log = slog.Default()
	}
	return &SlogLogger{Log: log}
}

func (s *SlogLogger) LogEvent(ctx context.Context, extension string, level, args, modulePath, file string, line uint32) {
	attrs := []any{"extension", extension}
	if modulePath != "" {
		attrs = append(attrs, "module", modulePath)
	}
	if file != "" {
		attrs = append(attrs, "file", file, "line", line)
	}
	s.Log.Log(ctx, slogLevel(wire.Level(level)), args, attrs...)
}

func (s *SlogLogger) Print(ctx context.Context, extension string, text string) {
	s.Log.InfoContext(ctx, text, "extension", extension, "stream", "stdout")
}

func (s *SlogLogger) Eprint(ctx context.Context, extension string, text string) {
	s.Log.WarnContext(ctx, text, "extension", extension, "stream", "stderr")
}

func (s *SlogLogger) Trace(ctx context.Context, extension string, text string) {
	s.Log.DebugContext(ctx, text, "extension", extension, "stream", "trace")
}
