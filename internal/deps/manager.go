// Package deps installs and removes the external modules plugins declare.
// Installation is fail-fast: a plugin cannot run with half its
// dependencies present. Removal is best-effort and reference-counted,
// so a module shared by two plugins survives the deletion of one.
package deps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"plugsmith/internal/config"
	"plugsmith/internal/logging"
)

// InstallError reports a failed installer invocation.
type InstallError struct {
	Packages []string
	Output   string
	Err      error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("failed to install dependencies %v: %v", e.Packages, e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }

// RefCounter reports how many stored plugins declare a dependency.
// Satisfied by store.PluginStore.
type RefCounter interface {
	CountPluginsUsingDependency(name string) (int, error)
	DeleteDependencyByName(name string) error
}

// Manager shells out to the configured installer.
type Manager struct {
	cfg    config.DepsConfig
	gopath string
}

// NewManager builds a Manager. gopath, when non-empty, is exported as
// GOPATH to the installer so fetched modules land where the sandbox
// looks for them.
func NewManager(cfg config.DepsConfig, gopath string) *Manager {
	return &Manager{cfg: cfg, gopath: gopath}
}

// ParseList splits a comma-separated dependency declaration into clean
// package names. Empty declarations yield nothing.
func ParseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var names []string
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Install fetches all named packages with a single installer invocation,
// as one atomic step: either the plugin gets its whole dependency set or
// it does not run. A nil or empty list is a no-op.
func (m *Manager) Install(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	logging.Deps("installing dependencies %v", names)
	if out, err := m.run(ctx, m.cfg.InstallCommand, names...); err != nil {
		logging.Deps("install of %v failed: %v", names, err)
		return &InstallError{Packages: names, Output: out, Err: err}
	}
	return nil
}

// Cleanup uninstalls each named package unless a stored plugin still
// declares it. Callers remove the owning plugin's rows first, so a
// nonzero reference count always means some other plugin needs the
// module. Failures are logged and skipped: a stale module on disk is
// harmless, a crashed cleanup is not.
func (m *Manager) Cleanup(ctx context.Context, refs RefCounter, names []string) {
	for _, name := range names {
		count, err := refs.CountPluginsUsingDependency(name)
		if err != nil {
			logging.Deps("cleanup of %s skipped, reference count failed: %v", name, err)
			continue
		}
		if count > 0 {
			logging.Deps("dependency %s kept, used by %d plugins", name, count)
			continue
		}
		if _, err := m.run(ctx, m.cfg.UninstallCommand, name); err != nil {
			logging.Deps("uninstall of %s failed: %v", name, err)
		}
		if err := refs.DeleteDependencyByName(name); err != nil {
			logging.Deps("failed to drop dependency rows for %s: %v", name, err)
		}
	}
}

// run executes one installer command with the names appended.
func (m *Manager) run(ctx context.Context, command []string, names ...string) (string, error) {
	if len(command) == 0 {
		return "", fmt.Errorf("no installer command configured")
	}
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()
	}

	args := append(append([]string(nil), command[1:]...), names...)
	cmd := exec.CommandContext(ctx, command[0], args...)
	cmd.Env = os.Environ()
	if m.gopath != "" {
		cmd.Env = append(cmd.Env, "GOPATH="+m.gopath)
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.String(), err
}
