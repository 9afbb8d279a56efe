package wire

// ExtensionConfig is passed to a guest's setup export, configuring
// extension-side behavior the host doesn't otherwise control — presently
// just the guest's own log verbosity floor.
type ExtensionConfig struct {
	LevelFilter Level `json:"level_filter"`
}

// DefaultExtensionConfig matches the guest SDK's own default: only errors
// are reported unless the host asks for more.
func DefaultExtensionConfig() ExtensionConfig {
	return ExtensionConfig{LevelFilter: LevelError}
}
