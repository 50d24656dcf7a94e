// Package config holds all plugsmith configuration, loaded from
// .plugsmith/config.yaml in the workspace (falling back to
// ~/.plugsmith/config.yaml).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all plugsmith configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Oracle configuration
	Oracle OracleConfig `yaml:"oracle"`

	// Sandbox execution settings
	Sandbox SandboxConfig `yaml:"sandbox"`

	// Dependency installer settings
	Deps DepsConfig `yaml:"deps"`

	// Retry and loop bounds
	Limits LimitsConfig `yaml:"limits"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Name:    "plugsmith",
		Version: "1.0.0",
		Oracle:  DefaultOracleConfig(),
		Sandbox: DefaultSandboxConfig(),
		Deps:    DefaultDepsConfig(),
		Limits:  DefaultLimitsConfig(),
		Logging: DefaultLoggingConfig(),
	}
}

// Dir returns the directory where config and state are stored.
// Prefers a workspace-local .plugsmith directory, falling back to the home
// directory.
func Dir(workspace string) (string, error) {
	if workspace != "" {
		localDir := filepath.Join(workspace, ".plugsmith")
		if stat, err := os.Stat(localDir); (err == nil && stat.IsDir()) || os.IsNotExist(err) {
			return localDir, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".plugsmith"), nil
}

// File returns the full path to the config file.
func File(workspace string) (string, error) {
	dir, err := Dir(workspace)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the configuration from disk. A missing file yields the
// defaults without error; environment overrides are applied either way.
func Load(workspace string) (Config, error) {
	cfg := Default()

	path, err := File(workspace)
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg.applyEnvOverrides()
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to disk.
func Save(workspace string, cfg Config) error {
	dir, err := Dir(workspace)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := File(workspace)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// applyEnvOverrides lets environment variables win over file values for
// secrets that should not live on disk.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("PLUGSMITH_API_KEY"); key != "" {
		c.Oracle.APIKey = key
	}
	if base := os.Getenv("PLUGSMITH_API_BASE"); base != "" {
		c.Oracle.BaseURL = base
	}
}
