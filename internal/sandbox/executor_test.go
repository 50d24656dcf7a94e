package sandbox

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"plugsmith/internal/config"
)

func newTestExecutor(timeout time.Duration) *Executor {
	cfg := config.DefaultSandboxConfig()
	cfg.Timeout = timeout
	return NewExecutor(cfg)
}

func TestExecuteReverseString(t *testing.T) {
	code := `package main

import (
	"errors"
	"strings"
)

func Run(args []string) (string, error) {
	if len(args) != 1 {
		return "", errors.New("expected one argument")
	}
	var b strings.Builder
	for i := len(args[0]) - 1; i >= 0; i-- {
		b.WriteByte(args[0][i])
	}
	return b.String(), nil
}`

	out, err := newTestExecutor(5*time.Second).Execute(context.Background(), code, []string{"hello"}, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "olleh" {
		t.Errorf("got %q, want %q", out, "olleh")
	}
}

func TestExecuteWrapsMissingPackageClause(t *testing.T) {
	code := `func Run(args []string) (string, error) {
	return "ok", nil
}`
	out, err := newTestExecutor(5*time.Second).Execute(context.Background(), code, nil, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "ok" {
		t.Errorf("got %q, want %q", out, "ok")
	}
}

func TestExecuteForbiddenImport(t *testing.T) {
	code := `package main

import "os/exec"

func Run(args []string) (string, error) {
	_ = exec.Command
	return "", nil
}`
	_, err := newTestExecutor(5*time.Second).Execute(context.Background(), code, nil, nil)
	execErr, ok := AsExecutionError(err)
	if !ok {
		t.Fatalf("expected *ExecutionError, got %v", err)
	}
	if execErr.Kind != ForbiddenImport {
		t.Errorf("kind = %v, want ForbiddenImport", execErr.Kind)
	}
	if !strings.Contains(execErr.Message, "os/exec") {
		t.Errorf("message %q does not name the offending import", execErr.Message)
	}
}

func TestExecuteDeclaredDependencyAllowed(t *testing.T) {
	// The import path is whitelisted via the dependency list, so the
	// failure must come from evaluation, not import validation.
	code := `package main

import "example.com/fake/widget"

func Run(args []string) (string, error) {
	return widget.Name(), nil
}`
	_, err := newTestExecutor(5*time.Second).Execute(context.Background(), code, nil, []string{"example.com/fake/widget"})
	execErr, ok := AsExecutionError(err)
	if !ok {
		t.Fatalf("expected *ExecutionError, got %v", err)
	}
	if execErr.Kind == ForbiddenImport {
		t.Error("declared dependency must pass import validation")
	}
}

func TestExecuteDependencySubpackageAllowed(t *testing.T) {
	// Declared dependencies are module paths; importing a subpackage of
	// one is legitimate and must not be rejected as forbidden.
	code := `package main

import "example.com/fake/widget/colors"

func Run(args []string) (string, error) {
	return colors.Red(), nil
}`
	_, err := newTestExecutor(5*time.Second).Execute(context.Background(), code, nil, []string{"example.com/fake/widget"})
	execErr, ok := AsExecutionError(err)
	if !ok {
		t.Fatalf("expected *ExecutionError, got %v", err)
	}
	if execErr.Kind == ForbiddenImport {
		t.Error("subpackage of a declared dependency must pass import validation")
	}
}

func TestExecuteMissingRun(t *testing.T) {
	code := `package main

func Main(args []string) (string, error) { return "", nil }`
	_, err := newTestExecutor(5*time.Second).Execute(context.Background(), code, nil, nil)
	execErr, ok := AsExecutionError(err)
	if !ok {
		t.Fatalf("expected *ExecutionError, got %v", err)
	}
	if execErr.Kind != InvalidPluginContract {
		t.Errorf("kind = %v, want InvalidPluginContract", execErr.Kind)
	}
}

func TestExecuteWrongSignature(t *testing.T) {
	code := `package main

func Run(input string) string { return input }`
	_, err := newTestExecutor(5*time.Second).Execute(context.Background(), code, nil, nil)
	execErr, ok := AsExecutionError(err)
	if !ok {
		t.Fatalf("expected *ExecutionError, got %v", err)
	}
	if execErr.Kind != InvalidPluginContract {
		t.Errorf("kind = %v, want InvalidPluginContract", execErr.Kind)
	}
}

func TestExecuteSyntaxError(t *testing.T) {
	_, err := newTestExecutor(5*time.Second).Execute(context.Background(), "package main\n\nfunc Run(", nil, nil)
	execErr, ok := AsExecutionError(err)
	if !ok {
		t.Fatalf("expected *ExecutionError, got %v", err)
	}
	if execErr.Kind != EvalFailure {
		t.Errorf("kind = %v, want EvalFailure", execErr.Kind)
	}
}

func TestExecuteRuntimeError(t *testing.T) {
	code := `package main

import "errors"

func Run(args []string) (string, error) {
	return "", errors.New("bad input")
}`
	_, err := newTestExecutor(5*time.Second).Execute(context.Background(), code, nil, nil)
	execErr, ok := AsExecutionError(err)
	if !ok {
		t.Fatalf("expected *ExecutionError, got %v", err)
	}
	if execErr.Kind != RuntimeFault {
		t.Errorf("kind = %v, want RuntimeFault", execErr.Kind)
	}
	if !strings.Contains(execErr.Error(), "bad input") {
		t.Errorf("error %q must preserve the plugin's message", execErr.Error())
	}
}

func TestExecutePanicRecovered(t *testing.T) {
	code := `package main

func Run(args []string) (string, error) {
	var s []int
	_ = s[3]
	return "", nil
}`
	_, err := newTestExecutor(5*time.Second).Execute(context.Background(), code, nil, nil)
	execErr, ok := AsExecutionError(err)
	if !ok {
		t.Fatalf("expected *ExecutionError, got %v", err)
	}
	if execErr.Kind != RuntimeFault {
		t.Errorf("kind = %v, want RuntimeFault", execErr.Kind)
	}
}

func TestExecuteTimeout(t *testing.T) {
	code := `package main

import "time"

func Run(args []string) (string, error) {
	time.Sleep(2 * time.Second)
	return "late", nil
}`
	start := time.Now()
	_, err := newTestExecutor(50*time.Millisecond).Execute(context.Background(), code, nil, nil)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout not enforced, took %s", elapsed)
	}
	execErr, ok := AsExecutionError(err)
	if !ok {
		t.Fatalf("expected *ExecutionError, got %v", err)
	}
	if execErr.Kind != Timeout {
		t.Errorf("kind = %v, want Timeout", execErr.Kind)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("timeout error must wrap context.DeadlineExceeded")
	}
}

func TestExecuteContextCancel(t *testing.T) {
	code := `package main

import "time"

func Run(args []string) (string, error) {
	time.Sleep(2 * time.Second)
	return "", nil
}`
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := newTestExecutor(10*time.Second).Execute(ctx, code, nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

func TestExtractImports(t *testing.T) {
	code := `package main

import (
	"strings"
	str "strconv"
)

import "fmt"

func Run(args []string) (string, error) { return "", nil }`
	got := extractImports(code)
	want := []string{"strings", "strconv", "fmt"}
	if len(got) != len(want) {
		t.Fatalf("extractImports = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("extractImports[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
