package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes one invocation against dataDir and returns its stdout.
func run(t *testing.T, dataDir, stdin string, args ...string) (string, error) {
	t.Helper()
	root, e := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--data-dir", dataDir}, args...))
	err := root.Execute()
	e.close(nil, nil)
	return out.String(), err
}

func mustRun(t *testing.T, dataDir string, args ...string) string {
	t.Helper()
	out, err := run(t, dataDir, "", args...)
	require.NoError(t, err, out)
	return out
}

func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("TRAETODO_API_KEY", "")
	t.Setenv("TRAETODO_ENDPOINT", "")
	return t.TempDir()
}

func chatServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]string{"role": "assistant", "content": reply}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// ============================================================
// Tasks
// ============================================================

func TestListEmpty(t *testing.T) {
	dir := isolate(t)
	assert.Contains(t, mustRun(t, dir, "list"), "No tasks yet.")
}

func TestAddAndList(t *testing.T) {
	dir := isolate(t)

	out := mustRun(t, dir, "add", "Buy", "milk")
	assert.Contains(t, out, "Task added successfully!")
	mustRun(t, dir, "add", "Call mom")

	out = mustRun(t, dir, "list")
	assert.Contains(t, out, "1. [ ] Buy milk")
	assert.Contains(t, out, "2. [ ] Call mom")
	assert.Contains(t, out, "2 open, 0 done")

	assert.FileExists(t, filepath.Join(dir, "tasks.json"))
	assert.FileExists(t, filepath.Join(dir, "traetodo.db"))
}

func TestAddBlankFails(t *testing.T) {
	dir := isolate(t)
	_, err := run(t, dir, "", "add", "   ")
	assert.Error(t, err)
}

func TestToggleAndHideCompleted(t *testing.T) {
	dir := isolate(t)
	mustRun(t, dir, "add", "first")
	mustRun(t, dir, "add", "second")

	assert.Contains(t, mustRun(t, dir, "toggle", "1"), "Task completed!")

	out := mustRun(t, dir, "list")
	assert.Contains(t, out, "1. [x] first")

	mustRun(t, dir, "settings", "set", "hide_completed", "true")
	out = mustRun(t, dir, "list")
	assert.NotContains(t, out, "first")
	assert.Contains(t, out, "2. [ ] second")

	out = mustRun(t, dir, "list", "--all")
	assert.Contains(t, out, "1. [x] first")

	assert.Contains(t, mustRun(t, dir, "toggle", "1"), "Task marked as incomplete")
}

func TestListAllHidden(t *testing.T) {
	dir := isolate(t)
	mustRun(t, dir, "add", "only")
	mustRun(t, dir, "toggle", "1")
	mustRun(t, dir, "settings", "set", "hide_completed", "true")

	assert.Contains(t, mustRun(t, dir, "list"), "All tasks are completed")
}

func TestToggleErrors(t *testing.T) {
	dir := isolate(t)
	mustRun(t, dir, "add", "one")

	for _, ref := range []string{"0", "x", "1.a", "1.0", "5", "1.1"} {
		_, err := run(t, dir, "", "toggle", ref)
		assert.Error(t, err, ref)
	}
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		in      string
		i, j    int
		wantErr bool
	}{
		{"1", 0, -1, false},
		{"3.2", 2, 1, false},
		{" 2 ", 1, -1, false},
		{"0", 0, 0, true},
		{"-1", 0, 0, true},
		{"a", 0, 0, true},
		{"2.", 0, 0, true},
		{"2.0", 0, 0, true},
	}
	for _, tt := range tests {
		i, j, err := parseRef(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.i, i, tt.in)
		assert.Equal(t, tt.j, j, tt.in)
	}
}

func TestClearTasksConfirm(t *testing.T) {
	dir := isolate(t)
	mustRun(t, dir, "add", "keep me")

	out, err := run(t, dir, "n\n", "clear", "tasks")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")
	assert.Contains(t, mustRun(t, dir, "list"), "keep me")

	out, err = run(t, dir, "y\n", "clear", "tasks")
	require.NoError(t, err)
	assert.Contains(t, out, "All tasks deleted.")
	assert.Contains(t, mustRun(t, dir, "list"), "No tasks yet.")
}

func TestClearInvalidTarget(t *testing.T) {
	dir := isolate(t)
	_, err := run(t, dir, "", "clear", "everything", "--force")
	assert.Error(t, err)
}

// ============================================================
// Chat
// ============================================================

func TestAskWithoutKey(t *testing.T) {
	dir := isolate(t)
	out := mustRun(t, dir, "ask", "hello")
	assert.Contains(t, out, "Please set your API key in the settings.")
}

func TestAskAddsChecklistTask(t *testing.T) {
	dir := isolate(t)
	srv := chatServer(t, "Plan:\n- pack bags\n- book hotel")
	t.Setenv("TRAETODO_ENDPOINT", srv.URL)
	t.Setenv("TRAETODO_API_KEY", "sk-test")

	out := mustRun(t, dir, "ask", "--add-task", "plan", "my", "trip")
	assert.Contains(t, out, "book hotel")
	assert.Contains(t, out, "Added task with checklist: 2 items")

	out = mustRun(t, dir, "list")
	assert.Contains(t, out, "1. [ ] Plan: … (0/2)")
	assert.Contains(t, out, "1.1 [ ] pack bags")

	assert.Contains(t, mustRun(t, dir, "toggle", "1.1"), "Subtask completed!")
	assert.Contains(t, mustRun(t, dir, "toggle", "1.2"), "Task completed!")
	assert.Contains(t, mustRun(t, dir, "toggle", "1.2"), "Task marked as incomplete")

	assert.FileExists(t, filepath.Join(dir, "messages.json"))

	out = mustRun(t, dir, "clear", "chat", "--force")
	assert.Contains(t, out, "Chat history cleared.")
}

// ============================================================
// Export
// ============================================================

func TestExportJSON(t *testing.T) {
	dir := isolate(t)
	mustRun(t, dir, "add", "write report")
	path := filepath.Join(dir, "out.json")

	out := mustRun(t, dir, "export", "--format", "json", "--out", path)
	assert.Contains(t, out, "Exported 1 tasks")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.EqualValues(t, 1, doc["count"])
}

func TestExportCSV(t *testing.T) {
	dir := isolate(t)
	mustRun(t, dir, "add", "write report")
	path := filepath.Join(dir, "out.csv")

	mustRun(t, dir, "export", "--out", path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "write report")
}

func TestExportUnknownFormat(t *testing.T) {
	dir := isolate(t)
	_, err := run(t, dir, "", "export", "--format", "xml", "--out", filepath.Join(dir, "x"))
	assert.Error(t, err)
}

// ============================================================
// Settings
// ============================================================

func TestSettingsShowAndSet(t *testing.T) {
	dir := isolate(t)

	out := mustRun(t, dir, "settings")
	assert.Contains(t, out, "api_key")
	assert.Contains(t, out, "(not set)")
	assert.Contains(t, out, "solo_interval")

	mustRun(t, dir, "settings", "set", "api_key", "sk-abcdefgh1234")
	mustRun(t, dir, "settings", "set", "solo_interval", "10")

	out = mustRun(t, dir, "settings")
	assert.Contains(t, out, "********1234")
	assert.NotContains(t, out, "sk-abcdefgh1234")
	assert.Contains(t, out, "10")
}

func TestSettingsSetRejectsBadValues(t *testing.T) {
	dir := isolate(t)
	for _, args := range [][]string{
		{"solo_interval", "0"},
		{"solo_interval", "soon"},
		{"start_page", "Home"},
		{"solo_mode", "maybe"},
		{"theme", "dark"},
	} {
		_, err := run(t, dir, "", append([]string{"settings", "set"}, args...)...)
		assert.Error(t, err, args)
	}
}

func TestMask(t *testing.T) {
	assert.Equal(t, "(not set)", mask(""))
	assert.Equal(t, "***", mask("abc"))
	assert.Equal(t, "********5678", mask("sk-12345678"))
}

func TestBadConfigFile(t *testing.T) {
	dir := isolate(t)
	_, err := run(t, dir, "", "--config", filepath.Join(dir, "missing.yaml"), "list")
	assert.Error(t, err)
}
