package sandbox

import "strings"

// ParseArguments splits a comma-separated argument string into the slice
// handed to a plugin's Run function. Each element is trimmed and has at
// most one layer of surrounding quotes removed, so the oracle may quote
// values containing spaces without the plugin seeing the quote marks. An
// empty or all-whitespace input yields no arguments.
func ParseArguments(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	args := make([]string, 0, len(parts))
	for _, p := range parts {
		args = append(args, unquote(strings.TrimSpace(p)))
	}
	return args
}

// unquote strips one matching pair of single or double quotes. Only one
// layer: a doubly quoted value keeps its inner quotes.
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if first == last && (first == '"' || first == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
