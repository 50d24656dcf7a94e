// Package sanitize normalizes free-text user input before it is embedded
// into oracle prompts or store queries.
package sanitize

import "strings"

// Replacer operates in a single pass, so inserted escape characters are
// never themselves re-escaped.
var escaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`'`, `\'`,
	"`", "\\`",
)

// Clean trims the input and escapes backslashes, double quotes, single
// quotes and backticks.
func Clean(input string) string {
	return escaper.Replace(strings.TrimSpace(input))
}
