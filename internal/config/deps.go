package config

import "time"

// DepsConfig configures the dependency installer shell-out.
type DepsConfig struct {
	// InstallCommand is the command prefix run to install packages; the
	// package names are appended as arguments.
	InstallCommand []string `yaml:"install_command"`

	// UninstallCommand is the command prefix run to remove a package.
	UninstallCommand []string `yaml:"uninstall_command"`

	// Timeout bounds a single installer invocation.
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultDepsConfig returns sensible defaults. The default installer
// fetches module source into the sandbox GoPath so yaegi can resolve it.
func DefaultDepsConfig() DepsConfig {
	return DepsConfig{
		InstallCommand:   []string{"go", "get"},
		UninstallCommand: []string{"go", "clean", "-i"},
		Timeout:          5 * time.Minute,
	}
}
