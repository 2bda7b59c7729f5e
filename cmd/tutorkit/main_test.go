package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/tutorkit"
	"github.com/skosovsky/tutorkit/action"
	"github.com/skosovsky/tutorkit/internal/config"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func toolCall(name, args string) tutorkit.ToolCall {
	return tutorkit.ToolCall{ID: "call_1", ToolName: name, Args: json.RawMessage(args)}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lesson.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLessonValidate(t *testing.T) {
	path := writeFile(t, "title: Loops\nversion: 1\nblocks:\n  - type: text\n    md: Hello\n")
	out, _, err := run(t, "lesson", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ok (1 blocks)")

	bad := writeFile(t, "title: ''\nversion: 0\nblocks: []\n")
	_, stderr, err := run(t, "lesson", "validate", bad)
	require.ErrorIs(t, err, errInvalidLesson)
	assert.Contains(t, stderr, "version: must be an integer >= 1, got 0")
}

func TestLessonFmt(t *testing.T) {
	path := writeFile(t, "blocks: []\nversion: 1\ntitle: Notes\n")
	out, _, err := run(t, "lesson", "fmt", path)
	require.NoError(t, err)
	assert.Equal(t, "title: Notes\nversion: 1\nblocks: []\n", out)
}

func TestToolsCommand(t *testing.T) {
	out, _, err := run(t, "tools")
	require.NoError(t, err)
	assert.Contains(t, out, "create_shape")
	assert.Contains(t, out, "run_active")
	assert.Contains(t, out, "append_document_block")

	out, _, err = run(t, "tools", "--json")
	require.NoError(t, err)
	var defs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &defs))
	assert.NotEmpty(t, defs)
	assert.Equal(t, "function", defs[0]["type"])
	toolsJSON = false
}

func TestNewWorkbench_UnknownApprovalKind(t *testing.T) {
	cfg := config.Defaults()
	cfg.Tools.Approval = []string{"clear", "explode"}
	_, err := newWorkbench(cfg, slog.New(slog.DiscardHandler), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "explode")
}

func TestNewWorkbench_OrderedQueue(t *testing.T) {
	cfg := config.Defaults()
	cfg.Tools.Ordered = true
	wb, err := newWorkbench(cfg, slog.New(slog.DiscardHandler), nil)
	require.NoError(t, err)
	require.NotNil(t, wb.queue)

	res := wb.registry.Execute(context.Background(), toolCall("create_shape", `{"x":1,"y":2}`))
	require.NoError(t, res.Error)
	assert.Len(t, wb.board.Shapes(), 1)
	require.NoError(t, wb.Close(context.Background()))
}

func TestApprovalConsole(t *testing.T) {
	gate := action.NewGate([]action.Kind{action.KindClear})
	err := gate.Check(action.Clear{})
	var ae *action.ApprovalError
	require.ErrorAs(t, err, &ae)

	in := strings.NewReader("pending\n\napprove " + ae.ID + "\nreject nope\nfly away\n")
	var out bytes.Buffer
	approvalConsole(context.Background(), in, &out, gate)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], ae.ID)
	assert.Equal(t, "approve "+ae.ID, lines[1])
	assert.Contains(t, lines[2], "unknown approval request")
	assert.Contains(t, lines[3], "unknown command")
	assert.NoError(t, gate.Check(action.Clear{}))
}

func TestSessionToken(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.DiscardHandler)

	_, err := sessionToken(ctx, config.RealtimeConfig{}, log)
	require.Error(t, err)

	token, err := sessionToken(ctx, config.RealtimeConfig{APIKey: "sk-test"}, log)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", token)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"value":"ek_123"}`))
	}))
	defer srv.Close()
	token, err = sessionToken(ctx, config.RealtimeConfig{APIKey: "sk-test", TokenURL: srv.URL, Model: "m", Voice: "v"}, log)
	require.NoError(t, err)
	assert.Equal(t, "ek_123", token)
}
