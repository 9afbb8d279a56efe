package wire

// Level is a guest-reported log severity, matching the levels the Rust
// `log` crate (and Go's slog) expose.
type Level string

const (
	LevelError Level = "error"
	LevelWarn  Level = "warn"
	LevelInfo  Level = "info"
	LevelDebug Level = "debug"
	LevelTrace Level = "trace"
)

// LogEvent is the wire shape a guest writes to the log_event import. The
// host decodes it and re-emits it through its own structured logger,
// attributing it to the extension that produced it.
type LogEvent struct {
	Level      Level   `json:"level"`
	Args       string  `json:"args"`
	ModulePath *string `json:"module_path,omitempty"`
	File       *string `json:"file,omitempty"`
	Line       *uint32 `json:"line,omitempty"`
}
