package lifecycle

import (
	"strings"

	"github.com/google/uuid"

	"plugsmith/internal/sanitize"
)

// Turn carries the state of one request through selection, execution and
// feedback. All per-request state lives here; nothing is package-level.
type Turn struct {
	// ID tags every log line of the turn.
	ID string

	// Request is the sanitized user request.
	Request string
}

// NewTurn starts a turn for a raw user request.
func NewTurn(raw string) *Turn {
	return &Turn{
		ID:      uuid.NewString(),
		Request: sanitize.Clean(raw),
	}
}

// candidateKind distinguishes the two ways a turn can be satisfied.
type candidateKind int

const (
	// candidateExisting executes a stored plugin.
	candidateExisting candidateKind = iota + 1
	// candidateNew executes freshly authored, not-yet-persisted code.
	candidateNew
)

// candidate is the plugin variant currently under trial for a turn.
// Exactly one kind is active at a time; switching kinds goes through the
// feedback loop.
type candidate struct {
	kind candidateKind

	// pluginID is set for candidateExisting only.
	pluginID int64

	code         string
	dependencies []string
	args         []string
	rawArgs      string
	description  string

	// reply is the raw oracle reply that produced this candidate, quoted
	// back in negative-feedback prompts.
	reply string
}

// Result is the outcome of a completed turn.
type Result struct {
	TurnID string

	// Output is the last plugin output shown to the user. Empty when the
	// turn was abandoned before a successful execution.
	Output string

	// Abandoned is set when the user gave up or the feedback round limit
	// was reached without approval. Nothing was persisted.
	Abandoned bool

	// PluginID identifies the stored plugin that satisfied the request,
	// once the user approved the result.
	PluginID int64
}

// giveUpTokens are the feedback comments that abandon the turn instead of
// requesting another revision.
var giveUpTokens = map[string]bool{
	":giveup": true,
	"giveup":  true,
}

// isGiveUp reports whether a feedback comment abandons the turn.
func isGiveUp(comment string) bool {
	return giveUpTokens[strings.ToLower(strings.TrimSpace(comment))]
}
