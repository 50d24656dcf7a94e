package oracle

import (
	"testing"
)

func TestParseDecisionValid(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		check func(t *testing.T, d *Decision)
	}{
		{
			name: "existing plugin selected",
			reply: `{"response": "yes", "pluginId": "3", "newPluginCode": "null",
				"newPluginDependencies": "null", "pluginArguments": "'world'",
				"pluginDescription": "null"}`,
			check: func(t *testing.T, d *Decision) {
				id, ok := d.WantsExistingPlugin()
				if !ok || id != 3 {
					t.Errorf("WantsExistingPlugin = (%d, %v), want (3, true)", id, ok)
				}
				if d.WantsNewPlugin() {
					t.Error("WantsNewPlugin = true, want false")
				}
				if d.PluginArguments != "'world'" {
					t.Errorf("PluginArguments = %q", d.PluginArguments)
				}
			},
		},
		{
			name: "new plugin authored",
			reply: `{"response": "no", "pluginId": "null",
				"newPluginCode": "func Run(args []string) (string, error) { return \"\", nil }",
				"newPluginDependencies": "", "pluginArguments": "'hello'",
				"pluginDescription": "string reverser"}`,
			check: func(t *testing.T, d *Decision) {
				if !d.WantsNewPlugin() {
					t.Error("WantsNewPlugin = false, want true")
				}
				if _, ok := d.WantsExistingPlugin(); ok {
					t.Error("WantsExistingPlugin = true, want false")
				}
				if d.PluginID != "" {
					t.Errorf("PluginID = %q, want normalized empty", d.PluginID)
				}
				if d.PluginDescription != "string reverser" {
					t.Errorf("PluginDescription = %q", d.PluginDescription)
				}
			},
		},
		{
			name: "fenced json tolerated",
			reply: "```json\n{\"response\": \"no\", \"pluginId\": \"null\", \"newPluginCode\": \"code\"," +
				"\"newPluginDependencies\": \"null\", \"pluginArguments\": \"\", \"pluginDescription\": \"d\"}\n```",
			check: func(t *testing.T, d *Decision) {
				if !d.WantsNewPlugin() {
					t.Error("WantsNewPlugin = false, want true")
				}
			},
		},
		{
			name: "no with null code is a valid decision but selects nothing",
			reply: `{"response": "no", "pluginId": "null", "newPluginCode": "null",
				"newPluginDependencies": "null", "pluginArguments": "", "pluginDescription": "null"}`,
			check: func(t *testing.T, d *Decision) {
				if d.WantsNewPlugin() {
					t.Error("WantsNewPlugin = true, want false")
				}
				if _, ok := d.WantsExistingPlugin(); ok {
					t.Error("WantsExistingPlugin = true, want false")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDecision(tt.reply)
			if err != nil {
				t.Fatalf("ParseDecision: %v", err)
			}
			tt.check(t, d)
		})
	}
}

func TestParseDecisionMalformed(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"plain prose", "Sure! I can help you reverse a string."},
		{"empty reply", "   "},
		{"unknown field", `{"response": "no", "pluginId": "null", "newPluginCode": "c",
			"newPluginDependencies": "", "pluginArguments": "", "pluginDescription": "d",
			"confidence": 0.9}`},
		{"trailing prose", `{"response": "no", "pluginId": "null", "newPluginCode": "c",
			"newPluginDependencies": "", "pluginArguments": "", "pluginDescription": "d"} hope this helps!`},
		{"bad response value", `{"response": "maybe", "pluginId": "null", "newPluginCode": "c",
			"newPluginDependencies": "", "pluginArguments": "", "pluginDescription": "d"}`},
		{"json array", `[1, 2, 3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDecision(tt.reply)
			if err == nil {
				t.Fatal("ParseDecision succeeded, want MalformedReplyError")
			}
			if !IsMalformedReply(err) {
				t.Errorf("error = %v, want MalformedReplyError", err)
			}
		})
	}
}

func TestWantsExistingPluginRejectsBadIDs(t *testing.T) {
	for _, id := range []string{"", "abc", "-1", "0"} {
		d := &Decision{Response: "yes", PluginID: id}
		if _, ok := d.WantsExistingPlugin(); ok {
			t.Errorf("WantsExistingPlugin accepted id %q", id)
		}
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no fence", "package main", "package main"},
		{"go fence", "```go\npackage main\n```", "package main"},
		{"bare fence", "```\npackage main\n```", "package main"},
		{"fence without newline", "```{\"a\":1}```", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFence(tt.input); got != tt.want {
				t.Errorf("StripCodeFence(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
