package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestStore(t *testing.T) *PluginStore {
	t.Helper()
	s, err := NewPluginStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to create plugin store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewPluginStore(t *testing.T) {
	s := newTestStore(t)

	if s.db == nil {
		t.Fatal("Database connection is nil")
	}

	// Schema must be queryable from the start
	plugins, err := s.ListAllPlugins()
	if err != nil {
		t.Fatalf("ListAllPlugins on empty store: %v", err)
	}
	if len(plugins) != 0 {
		t.Errorf("expected empty catalog, got %d plugins", len(plugins))
	}
	if got := s.CatalogJSON(); got != "{}" {
		t.Errorf("empty CatalogJSON = %q, want %q", got, "{}")
	}
}

func TestCreateAndGetPluginRoundTrip(t *testing.T) {
	s := newTestStore(t)

	pluginID, err := s.CreatePlugin(NewPlugin{
		Code:         "func Run(args []string) (string, error) { return args[0], nil }",
		Description:  "echoes its first argument",
		Dependencies: []string{"left-pad", "right-pad"},
	}, "echo hello")
	if err != nil {
		t.Fatalf("CreatePlugin: %v", err)
	}
	if pluginID != 1 {
		t.Errorf("CreatePlugin returned plugin id %d, want 1", pluginID)
	}

	detail, err := s.GetPlugin(1)
	if err != nil {
		t.Fatalf("GetPlugin: %v", err)
	}

	want := &PluginDetail{
		ID:           1,
		Code:         "func Run(args []string) (string, error) { return args[0], nil }",
		Dependencies: []string{"left-pad", "right-pad"},
		LastRequest:  "echo hello",
	}
	if diff := cmp.Diff(want, detail); diff != "" {
		t.Errorf("GetPlugin mismatch (-want +got):\n%s", diff)
	}
}

func TestGetPluginNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetPlugin(42); err != ErrNotFound {
		t.Errorf("GetPlugin(42) error = %v, want ErrNotFound", err)
	}
}

func TestAttachRequestIdempotent(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreatePlugin(NewPlugin{Code: "c", Description: "d"}, "first"); err != nil {
		t.Fatalf("CreatePlugin: %v", err)
	}

	for i := 0; i < 2; i++ {
		id, err := s.AttachRequestToPlugin(1, "second request")
		if err != nil {
			t.Fatalf("AttachRequestToPlugin (call %d): %v", i+1, err)
		}
		if id != 1 {
			t.Errorf("AttachRequestToPlugin returned %d, want 1", id)
		}
	}

	plugins, err := s.ListAllPlugins()
	if err != nil {
		t.Fatalf("ListAllPlugins: %v", err)
	}
	if len(plugins) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(plugins))
	}
	// Exactly one row for the duplicated pair, two requests total
	if len(plugins[0].Requests) != 2 {
		t.Errorf("expected 2 request rows, got %d", len(plugins[0].Requests))
	}
}

func TestUpdatePluginCode(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreatePlugin(NewPlugin{Code: "old", Description: "d"}, "req"); err != nil {
		t.Fatalf("CreatePlugin: %v", err)
	}

	if err := s.UpdatePluginCode(1, "new"); err != nil {
		t.Fatalf("UpdatePluginCode: %v", err)
	}

	detail, err := s.GetPlugin(1)
	if err != nil {
		t.Fatalf("GetPlugin: %v", err)
	}
	if detail.Code != "new" {
		t.Errorf("code = %q, want %q", detail.Code, "new")
	}
	if detail.LastRequest != "req" {
		t.Errorf("identity not preserved: last request = %q", detail.LastRequest)
	}

	if err := s.UpdatePluginCode(99, "x"); err != ErrNotFound {
		t.Errorf("UpdatePluginCode(99) error = %v, want ErrNotFound", err)
	}
}

func TestDeletePluginCascades(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreatePlugin(NewPlugin{
		Code:         "c",
		Description:  "d",
		Dependencies: []string{"left-pad"},
	}, "req"); err != nil {
		t.Fatalf("CreatePlugin: %v", err)
	}

	if err := s.DeletePlugin(1); err != nil {
		t.Fatalf("DeletePlugin: %v", err)
	}

	count, err := s.CountPluginsUsingDependency("left-pad")
	if err != nil {
		t.Fatalf("CountPluginsUsingDependency: %v", err)
	}
	if count != 0 {
		t.Errorf("dependency rows survived cascade: count = %d", count)
	}

	plugins, err := s.ListAllPlugins()
	if err != nil {
		t.Fatalf("ListAllPlugins: %v", err)
	}
	if len(plugins) != 0 {
		t.Errorf("expected empty catalog after delete, got %d", len(plugins))
	}

	if err := s.DeletePlugin(1); err != ErrNotFound {
		t.Errorf("second DeletePlugin error = %v, want ErrNotFound", err)
	}
}

func TestCountPluginsUsingDependency(t *testing.T) {
	s := newTestStore(t)

	for i, deps := range [][]string{{"left-pad"}, {"left-pad", "chalk"}} {
		if _, err := s.CreatePlugin(NewPlugin{
			Code:         "c",
			Description:  "d",
			Dependencies: deps,
		}, "req"); err != nil {
			t.Fatalf("CreatePlugin %d: %v", i, err)
		}
	}

	names, err := s.ListAllDependencies()
	if err != nil {
		t.Fatalf("ListAllDependencies: %v", err)
	}
	if diff := cmp.Diff([]string{"chalk", "left-pad"}, names); diff != "" {
		t.Errorf("ListAllDependencies mismatch (-want +got):\n%s", diff)
	}

	count, err := s.CountPluginsUsingDependency("left-pad")
	if err != nil {
		t.Fatalf("CountPluginsUsingDependency: %v", err)
	}
	if count != 2 {
		t.Errorf("left-pad count = %d, want 2", count)
	}

	count, err = s.CountPluginsUsingDependency("chalk")
	if err != nil {
		t.Fatalf("CountPluginsUsingDependency: %v", err)
	}
	if count != 1 {
		t.Errorf("chalk count = %d, want 1", count)
	}

	if err := s.DeleteDependencyByName("left-pad"); err != nil {
		t.Fatalf("DeleteDependencyByName: %v", err)
	}
	count, _ = s.CountPluginsUsingDependency("left-pad")
	if count != 0 {
		t.Errorf("left-pad count after delete = %d, want 0", count)
	}
}

func TestChatHistoryOrdering(t *testing.T) {
	s := newTestStore(t)

	entries := []struct{ role, content string }{
		{RoleApplication, "prompt one"},
		{RoleOracle, "reply one"},
		{RoleApplication, "prompt two"},
		{RoleOracle, "reply two"},
	}
	for _, e := range entries {
		if err := s.AppendChatMessage(e.role, e.content); err != nil {
			t.Fatalf("AppendChatMessage: %v", err)
		}
	}

	msgs, err := s.GetChatHistory()
	if err != nil {
		t.Fatalf("GetChatHistory: %v", err)
	}
	if len(msgs) != len(entries) {
		t.Fatalf("history length = %d, want %d", len(msgs), len(entries))
	}
	for i, e := range entries {
		if msgs[i].Role != e.role || msgs[i].Content != e.content {
			t.Errorf("entry %d = (%s, %q), want (%s, %q)",
				i, msgs[i].Role, msgs[i].Content, e.role, e.content)
		}
	}
}

func TestHistoryJSONEmpty(t *testing.T) {
	s := newTestStore(t)
	if got := s.HistoryJSON(); got != "[]" {
		t.Errorf("empty HistoryJSON = %q, want %q", got, "[]")
	}
}
