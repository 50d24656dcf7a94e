package config

// LoggingConfig mirrors the logging section consumed by internal/logging.
type LoggingConfig struct {
	// DebugMode enables file logging; off means no log files are written.
	DebugMode bool `yaml:"debug_mode"`

	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Categories toggles individual log categories; empty enables all.
	Categories map[string]bool `yaml:"categories"`
}

// DefaultLoggingConfig returns sensible defaults.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		DebugMode: false,
		Level:     "info",
	}
}
