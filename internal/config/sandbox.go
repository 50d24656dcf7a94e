package config

import "time"

// SandboxConfig configures plugin execution.
type SandboxConfig struct {
	// Timeout bounds a single plugin execution. Zero means no limit.
	Timeout time.Duration `yaml:"timeout"`

	// ExtraImports is appended to the built-in stdlib import whitelist.
	ExtraImports []string `yaml:"extra_imports"`

	// GoPath, when set, lets plugins import third-party source packages
	// installed by the dependency manager. Defaults to
	// <config dir>/deps.
	GoPath string `yaml:"gopath"`
}

// DefaultSandboxConfig returns sensible defaults.
func DefaultSandboxConfig() SandboxConfig {
	return SandboxConfig{
		Timeout: 30 * time.Second,
	}
}
