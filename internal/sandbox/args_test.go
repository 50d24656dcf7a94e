package sandbox

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseArguments(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty", raw: "", want: nil},
		{name: "whitespace only", raw: "   ", want: nil},
		{name: "single", raw: "hello", want: []string{"hello"}},
		{name: "trims around commas", raw: " a , b ,c", want: []string{"a", "b", "c"}},
		{name: "strips double quotes", raw: `"hello world", 42`, want: []string{"hello world", "42"}},
		{name: "strips single quotes", raw: `'a b', 'c'`, want: []string{"a b", "c"}},
		{name: "one quote layer only", raw: `"'nested'"`, want: []string{"'nested'"}},
		{name: "mismatched quotes kept", raw: `"open`, want: []string{`"open`}},
		{name: "empty element preserved", raw: `a,,b`, want: []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseArguments(tt.raw)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseArguments(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}
