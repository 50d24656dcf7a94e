package prompt

import (
	"strings"
	"testing"
)

func TestInitialSelection(t *testing.T) {
	p := InitialSelection("reverse the string hello", `{"1":{"code":"..."}}`, `[]`)

	for _, want := range []string{
		"reverse the string hello",
		`{"1":{"code":"..."}}`,
		`"response": "yes"/"no"`,
		`"pluginId"`,
		`"newPluginCode"`,
		`"newPluginDependencies"`,
		`"pluginArguments"`,
		`"pluginDescription"`,
		"func Run(args []string) (string, error)",
		"REMEMBER YOU CAN RESPOND ONLY WITH A PURE JSON",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("initial selection prompt missing %q", want)
		}
	}
}

func TestInitialSelectionEmptyFieldRule(t *testing.T) {
	p := InitialSelection("req", "{}", "[]")
	if !strings.Contains(p, `must be "" and not "none"`) {
		t.Error("prompt must spell out the empty-field convention")
	}
}

func TestMalfunctionRepair(t *testing.T) {
	p := MalfunctionRepair("package main", "count words", `runtime error: index out of range`, "a, b", "[]")

	for _, want := range []string{
		"package main",
		"count words",
		"runtime error: index out of range",
		`"a, b"`,
		"only the complete corrected code",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("repair prompt missing %q", want)
		}
	}
	// Repair replies are raw source, never JSON.
	if strings.Contains(p, "PURE JSON") {
		t.Error("repair prompt must not demand a JSON reply")
	}
}

func TestNegativeFeedbackNewPlugin(t *testing.T) {
	p := NegativeFeedbackNewPlugin("req", `{"response":"no"}`, "result was wrong", "boom", "[]")

	for _, want := range []string{
		"req",
		`{"response":"no"}`,
		"result was wrong",
		"boom",
		`"response": "no"`,
		`"pluginId": "null"`,
		"REMEMBER YOU CAN RESPOND ONLY WITH A PURE JSON",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("new-plugin feedback prompt missing %q", want)
		}
	}
}

func TestNegativeFeedbackNewPluginOmitsEmptyError(t *testing.T) {
	p := NegativeFeedbackNewPlugin("req", "reply", "comment", "", "[]")
	if strings.Contains(p, "error previously returned") {
		t.Error("error section must be omitted when there is no plugin error")
	}
}

func TestNegativeFeedbackExistingPlugin(t *testing.T) {
	p := NegativeFeedbackExistingPlugin("req", "reply", "bad output", "", `{"7":{}}`, "[]")

	for _, want := range []string{
		"bad output",
		`{"7":{}}`,
		"reason again over all of them",
		"change the arguments",
		`"response": "no"`,
		"REMEMBER YOU CAN RESPOND ONLY WITH A PURE JSON",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("existing-plugin feedback prompt missing %q", want)
		}
	}
}
