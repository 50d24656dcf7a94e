package sandbox

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an execution failure. The lifecycle layer uses the
// kind to decide whether a repair prompt can help: contract and import
// violations need new code, a timeout usually does not.
type ErrorKind int

const (
	// InvalidPluginContract means the code evaluated but does not expose
	// the required entry point func Run(args []string) (string, error).
	InvalidPluginContract ErrorKind = iota + 1
	// ForbiddenImport means the code imports a package outside the
	// allowed set.
	ForbiddenImport
	// EvalFailure means the interpreter rejected the source (syntax or
	// type errors).
	EvalFailure
	// RuntimeFault means Run returned an error or panicked.
	RuntimeFault
	// Timeout means the execution deadline expired before Run returned.
	Timeout
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidPluginContract:
		return "invalid plugin contract"
	case ForbiddenImport:
		return "forbidden import"
	case EvalFailure:
		return "evaluation failure"
	case RuntimeFault:
		return "runtime fault"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// ExecutionError reports a failed plugin execution. Message carries the
// text that is fed back into repair prompts, so it must describe the
// failure the way the plugin author would need to hear it.
type ExecutionError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// AsExecutionError extracts an *ExecutionError from err's chain.
func AsExecutionError(err error) (*ExecutionError, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr, true
	}
	return nil, false
}
