package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faizmokh/worklog/internal/backup"
	"github.com/faizmokh/worklog/internal/files"
	"github.com/faizmokh/worklog/internal/llm"
	"github.com/faizmokh/worklog/internal/logbook"
	"github.com/faizmokh/worklog/internal/merge"
)

type fakeRewriter struct {
	output   string
	readyErr error
	systems  []string
}

func (f *fakeRewriter) Rewrite(_ context.Context, system, _ string) (string, error) {
	f.systems = append(f.systems, system)
	return f.output, nil
}

func (f *fakeRewriter) Ready() error { return f.readyErr }

func testSetup(t *testing.T, rw merge.Rewriter) (*Handlers, *logbook.Store) {
	t.Helper()
	manager, err := files.NewManager(t.TempDir())
	require.NoError(t, err)
	store := logbook.NewStore(manager, backup.NewLedger(manager.BackupDir()))
	orchestrator := merge.New(store, rw, merge.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return NewHandlers(store, orchestrator), store
}

func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", result.Content[0])
	return text.Text
}

func errorCodeOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.True(t, result.IsError, "expected an error result, got %s", resultText(t, result))
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &payload))
	return payload.Error.Code
}

func TestToolRegistryNames(t *testing.T) {
	names := ToolNames()
	sort.Strings(names)
	assert.Equal(t, []string{
		"worklog_add", "worklog_backups", "worklog_filter",
		"worklog_read", "worklog_report", "worklog_undo",
	}, names)

	for name, entry := range toolRegistry {
		assert.Equal(t, name, entry.def.Name)
	}
	assert.NotNil(t, NewServer(nil, nil, "test"))
}

func TestHandleReadCreatesDefault(t *testing.T) {
	h, _ := testSetup(t, &fakeRewriter{})

	result, err := h.HandleRead(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, logbook.DefaultContent, resultText(t, result))
}

func TestHandleAddUndoAndBackups(t *testing.T) {
	rw := &fakeRewriter{output: "# Products\n- Shipped search (Jul 4, 2025)\n"}
	h, store := testSetup(t, rw)
	ctx := context.Background()

	result, err := h.HandleAdd(ctx, makeRequest(map[string]any{
		"entries": []any{"Shipped search"},
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var added AddResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &added))
	assert.Equal(t, 1, added.Entries)
	assert.NotEmpty(t, added.RequestID)
	assert.NotEmpty(t, added.Backup)

	doc, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, rw.output, doc)

	result, err = h.HandleBackups(ctx, makeRequest(nil))
	require.NoError(t, err)
	var listed struct {
		Backups []BackupInfo `json:"backups"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &listed))
	require.Len(t, listed.Backups, 1)
	assert.Equal(t, added.Backup, listed.Backups[0].Name)

	result, err = h.HandleUndo(ctx, makeRequest(nil))
	require.NoError(t, err)
	var undone UndoResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &undone))
	assert.Equal(t, added.Backup, undone.Restored)

	doc, err = store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, logbook.DefaultContent, doc)

	result, err = h.HandleUndo(ctx, makeRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, "NO_BACKUPS", errorCodeOf(t, result))
}

func TestHandleAddErrors(t *testing.T) {
	h, _ := testSetup(t, &fakeRewriter{})
	result, err := h.HandleAdd(context.Background(), makeRequest(map[string]any{"entries": []any{" "}}))
	require.NoError(t, err)
	assert.Equal(t, "INVALID_REQUEST", errorCodeOf(t, result))

	h, _ = testSetup(t, &fakeRewriter{readyErr: llm.ErrMissingAPIKey})
	result, err = h.HandleAdd(context.Background(), makeRequest(map[string]any{"entries": []any{"x"}}))
	require.NoError(t, err)
	assert.Equal(t, "MISSING_API_KEY", errorCodeOf(t, result))

	result, err = h.HandleAdd(context.Background(), makeRequest(map[string]any{"entries": "not a list"}))
	require.NoError(t, err)
	assert.Equal(t, "INTERNAL", errorCodeOf(t, result))
}

func TestHandleFilterAndReport(t *testing.T) {
	rw := &fakeRewriter{output: "## Executive summary\n"}
	h, store := testSetup(t, rw)
	ctx := context.Background()
	_, err := store.Replace(ctx, "# Proj A\n- did X (Jan 1, 2024)\n# Proj B\n- did Y (Jun 1, 2024)\n")
	require.NoError(t, err)

	result, err := h.HandleFilter(ctx, makeRequest(map[string]any{"from": "2024-01-01", "to": "2024-01-31"}))
	require.NoError(t, err)
	assert.Equal(t, "# Proj A\n- did X (Jan 1, 2024)\n", resultText(t, result))

	result, err = h.HandleFilter(ctx, makeRequest(map[string]any{"from": "2023-01-01", "to": "2023-01-31"}))
	require.NoError(t, err)
	assert.Equal(t, "NO_ENTRIES_IN_RANGE", errorCodeOf(t, result))

	result, err = h.HandleFilter(ctx, makeRequest(map[string]any{"from": "2024-02-01", "to": "2024-01-01"}))
	require.NoError(t, err)
	assert.Equal(t, "INVALID_REQUEST", errorCodeOf(t, result))

	result, err = h.HandleFilter(ctx, makeRequest(map[string]any{"from": "Jan 1", "to": "2024-01-01"}))
	require.NoError(t, err)
	assert.Equal(t, "INVALID_REQUEST", errorCodeOf(t, result))

	result, err = h.HandleReport(ctx, makeRequest(map[string]any{"from": "2024-01-01", "to": "2024-12-31", "style": "executive"}))
	require.NoError(t, err)
	assert.Equal(t, "## Executive summary\n", resultText(t, result))
	require.Len(t, rw.systems, 1)
	assert.Contains(t, rw.systems[0], "executive summary report")
}
