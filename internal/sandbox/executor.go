// Package sandbox runs plugin code inside an embedded Go interpreter.
// Interpreting the source avoids the failure modes of compiling plugins
// on the fly: no build hangs, no binary version mismatches, and the
// import surface can be restricted before anything runs.
package sandbox

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"plugsmith/internal/config"
	"plugsmith/internal/logging"
)

// entrySymbol is the exported function every plugin must define.
const entrySymbol = "main.Run"

// defaultAllowed is the stdlib surface plugins may import without
// declaring anything. Filesystem, network, exec and unsafe packages are
// deliberately absent.
var defaultAllowed = []string{
	"bytes",
	"encoding/base64",
	"encoding/json",
	"errors",
	"fmt",
	"math",
	"math/rand",
	"path",
	"path/filepath",
	"regexp",
	"sort",
	"strconv",
	"strings",
	"time",
	"unicode",
	"unicode/utf8",
}

// Executor evaluates plugin source and invokes its Run entry point.
type Executor struct {
	allowed map[string]bool
	timeout time.Duration
	gopath  string
}

// NewExecutor builds an Executor from the sandbox configuration. Extra
// imports from the configuration extend the default whitelist.
func NewExecutor(cfg config.SandboxConfig) *Executor {
	allowed := make(map[string]bool, len(defaultAllowed)+len(cfg.ExtraImports))
	for _, pkg := range defaultAllowed {
		allowed[pkg] = true
	}
	for _, pkg := range cfg.ExtraImports {
		allowed[pkg] = true
	}
	return &Executor{
		allowed: allowed,
		timeout: cfg.Timeout,
		gopath:  cfg.GoPath,
	}
}

// Execute evaluates code and calls its Run function with args. The extra
// import paths in dependencies are permitted for this execution only,
// since they were installed for this specific plugin. The returned error
// is always an *ExecutionError on failure.
func (e *Executor) Execute(ctx context.Context, code string, args []string, dependencies []string) (string, error) {
	if err := e.validateImports(code, dependencies); err != nil {
		return "", err
	}

	opts := interp.Options{}
	if e.gopath != "" {
		opts.GoPath = e.gopath
	}
	i := interp.New(opts)
	if err := i.Use(stdlib.Symbols); err != nil {
		return "", &ExecutionError{Kind: EvalFailure, Message: "failed to load standard library symbols", Err: err}
	}

	if _, err := i.Eval(wrapCode(code)); err != nil {
		logging.Sandbox("plugin evaluation failed: %v", err)
		return "", &ExecutionError{Kind: EvalFailure, Message: "plugin code did not evaluate", Err: err}
	}

	entry, err := i.Eval(entrySymbol)
	if err != nil {
		return "", &ExecutionError{Kind: InvalidPluginContract, Message: "plugin does not define func Run", Err: err}
	}
	run, ok := entry.Interface().(func([]string) (string, error))
	if !ok {
		return "", &ExecutionError{
			Kind:    InvalidPluginContract,
			Message: fmt.Sprintf("Run has wrong signature %T, want func(args []string) (string, error)", entry.Interface()),
		}
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	type outcome struct {
		result string
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: &ExecutionError{Kind: RuntimeFault, Message: fmt.Sprintf("plugin panicked: %v", r)}}
			}
		}()
		result, runErr := run(args)
		if runErr != nil {
			done <- outcome{err: &ExecutionError{Kind: RuntimeFault, Message: "plugin returned an error", Err: runErr}}
			return
		}
		done <- outcome{result: result}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			logging.Sandbox("plugin execution failed: %v", out.err)
			return "", out.err
		}
		return out.result, nil
	case <-ctx.Done():
		// The interpreter goroutine is abandoned; yaegi offers no way to
		// preempt running code.
		logging.Sandbox("plugin execution timed out after %s", e.timeout)
		return "", &ExecutionError{Kind: Timeout, Message: "plugin execution timed out", Err: ctx.Err()}
	}
}

// validateImports rejects any import outside the whitelist plus the
// plugin's own declared dependencies. A declared dependency is a module
// path, so its subpackages are importable too.
func (e *Executor) validateImports(code string, dependencies []string) error {
	var forbidden []string
	for _, pkg := range extractImports(code) {
		if !e.allowed[pkg] && !coveredByModule(pkg, dependencies) {
			forbidden = append(forbidden, pkg)
		}
	}
	if len(forbidden) > 0 {
		return &ExecutionError{
			Kind:    ForbiddenImport,
			Message: fmt.Sprintf("imports %v are not permitted; allowed packages: %s", forbidden, strings.Join(e.allowedList(), ", ")),
		}
	}
	return nil
}

// coveredByModule reports whether pkg is one of the declared module paths
// or a subpackage of one.
func coveredByModule(pkg string, modules []string) bool {
	for _, mod := range modules {
		mod = strings.TrimSpace(mod)
		if mod == "" {
			continue
		}
		if pkg == mod || strings.HasPrefix(pkg, mod+"/") {
			return true
		}
	}
	return false
}

// extractImports pulls import paths out of the source by line scanning.
// Aliased imports keep only the quoted path.
func extractImports(code string) []string {
	var imports []string
	inBlock := false
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "import ("):
			inBlock = true
		case inBlock && strings.HasPrefix(trimmed, ")"):
			inBlock = false
		case inBlock:
			if pkg := quotedPath(trimmed); pkg != "" {
				imports = append(imports, pkg)
			}
		case strings.HasPrefix(trimmed, "import "):
			if pkg := quotedPath(strings.TrimPrefix(trimmed, "import ")); pkg != "" {
				imports = append(imports, pkg)
			}
		}
	}
	return imports
}

// quotedPath extracts the content of the first double-quoted string in s.
func quotedPath(s string) string {
	start := strings.IndexByte(s, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(s[start+1:], '"')
	if end < 0 {
		return ""
	}
	return s[start+1 : start+1+end]
}

// wrapCode prepends a package clause when the plugin source omits one.
func wrapCode(code string) string {
	if strings.Contains(code, "package main") {
		return code
	}
	return "package main\n\n" + code
}

func (e *Executor) allowedList() []string {
	pkgs := make([]string, 0, len(e.allowed))
	for pkg := range e.allowed {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)
	return pkgs
}
