package oracle

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Decision is the checked form of the oracle's structured selection reply.
// String fields holding the literal "null" are normalized to empty.
type Decision struct {
	Response              string `json:"response"`
	PluginID              string `json:"pluginId"`
	NewPluginCode         string `json:"newPluginCode"`
	NewPluginDependencies string `json:"newPluginDependencies"`
	PluginArguments       string `json:"pluginArguments"`
	PluginDescription     string `json:"pluginDescription"`
}

// WantsExistingPlugin reports whether the decision selects a stored plugin,
// and which one.
func (d *Decision) WantsExistingPlugin() (int64, bool) {
	if d.Response != "yes" || d.PluginID == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(d.PluginID, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// WantsNewPlugin reports whether the decision carries freshly authored
// plugin code.
func (d *Decision) WantsNewPlugin() bool {
	return d.Response == "no" && d.NewPluginCode != ""
}

// ParseDecision validates a structured oracle reply. The only tolerated
// decoration is a markdown code fence; everything else must be the exact
// JSON object of the contract. Unknown fields, missing response values, or
// trailing text are a MalformedReplyError - no partial parse.
func ParseDecision(reply string) (*Decision, error) {
	cleaned := stripCodeFence(reply)
	if cleaned == "" {
		return nil, &MalformedReplyError{Reason: "empty reply", Reply: reply}
	}

	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.DisallowUnknownFields()

	var d Decision
	if err := dec.Decode(&d); err != nil {
		return nil, &MalformedReplyError{Reason: err.Error(), Reply: reply}
	}
	// Reject trailing content after the JSON object
	if dec.More() {
		return nil, &MalformedReplyError{Reason: "trailing content after JSON object", Reply: reply}
	}

	d.normalize()

	if d.Response != "yes" && d.Response != "no" {
		return nil, &MalformedReplyError{
			Reason: "response field must be \"yes\" or \"no\", got " + strconv.Quote(d.Response),
			Reply:  reply,
		}
	}
	return &d, nil
}

// normalize maps the contract's "null" placeholders to empty strings and
// trims stray whitespace.
func (d *Decision) normalize() {
	norm := func(s string) string {
		s = strings.TrimSpace(s)
		if strings.EqualFold(s, "null") {
			return ""
		}
		return s
	}
	d.Response = strings.ToLower(norm(d.Response))
	d.PluginID = norm(d.PluginID)
	d.NewPluginCode = strings.TrimSpace(d.NewPluginCode)
	if strings.EqualFold(d.NewPluginCode, "null") {
		d.NewPluginCode = ""
	}
	d.NewPluginDependencies = norm(d.NewPluginDependencies)
	d.PluginArguments = strings.TrimSpace(d.PluginArguments)
	d.PluginDescription = norm(d.PluginDescription)
}

// stripCodeFence removes a single surrounding markdown code fence, with or
// without a language tag.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop the language tag line ("json", "go", ...)
		first := strings.TrimSpace(s[:idx])
		if len(first) <= 10 && !strings.ContainsAny(first, "{}") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// StripCodeFence is the exported form used for malfunction-repair replies,
// which are raw source text that some models still wrap in a fence.
func StripCodeFence(s string) string {
	return stripCodeFence(s)
}
