package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/faizmokh/worklog/internal/backup"
	"github.com/faizmokh/worklog/internal/llm"
	"github.com/faizmokh/worklog/internal/logbook"
	"github.com/faizmokh/worklog/internal/merge"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store        *logbook.Store
	orchestrator *merge.Orchestrator
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store *logbook.Store, orchestrator *merge.Orchestrator) *Handlers {
	return &Handlers{store: store, orchestrator: orchestrator}
}

// AddRequest is the worklog_add payload.
type AddRequest struct {
	Entries []string `json:"entries"`
}

// RangeRequest is shared by worklog_filter and worklog_report.
type RangeRequest struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Style string `json:"style,omitempty"`
}

// AddResult reports a completed merge.
type AddResult struct {
	RequestID string `json:"request_id"`
	Backup    string `json:"backup"`
	Entries   int    `json:"entries"`
}

// UndoResult names the backup that was restored.
type UndoResult struct {
	Restored string `json:"restored"`
}

// BackupInfo describes one stored snapshot.
type BackupInfo struct {
	Name     string    `json:"name"`
	Modified time.Time `json:"modified"`
	Size     int64     `json:"size"`
}

// HandleRead returns the worklog document.
func (h *Handlers) HandleRead(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := h.store.Read(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(doc), nil
}

// HandleAdd merges the requested entries.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.orchestrator.Merge(ctx, input.Entries)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(AddResult{
		RequestID: result.RequestID,
		Backup:    result.Snapshot.Name,
		Entries:   len(result.Entries),
	})
}

// HandleUndo restores the newest backup.
func (h *Handlers) HandleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := h.store.Undo(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(UndoResult{Restored: snap.Name})
}

// HandleFilter returns the sections dated inside the requested range.
func (h *Handlers) HandleFilter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, r, err := decodeRange(req)
	if err != nil {
		return errorResult(err), nil
	}

	doc, err := h.store.Read(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	filtered, err := logbook.Extract(doc, r)
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(filtered), nil
}

// HandleReport generates a report without touching the worklog.
func (h *Handlers) HandleReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, r, err := decodeRange(req)
	if err != nil {
		return errorResult(err), nil
	}

	report, err := h.orchestrator.Report(ctx, r, input.Style)
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(report), nil
}

// HandleBackups lists stored snapshots.
func (h *Handlers) HandleBackups(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snapshots, err := h.store.Ledger().List(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	infos := make([]BackupInfo, 0, len(snapshots))
	for _, snap := range snapshots {
		infos = append(infos, BackupInfo{Name: snap.Name, Modified: snap.ModTime, Size: snap.Size})
	}
	return successResult(map[string]any{"backups": infos})
}

func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return result, fmt.Errorf("marshal args: %w", err)
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, fmt.Errorf("unmarshal args: %w", err)
	}
	return result, nil
}

func decodeRange(req mcp.CallToolRequest) (RangeRequest, logbook.DateRange, error) {
	input, err := decode[RangeRequest](req)
	if err != nil {
		return input, logbook.DateRange{}, err
	}
	r, err := logbook.ParseDateRange(input.From, input.To)
	if err != nil {
		return input, logbook.DateRange{}, err
	}
	if err := r.Validate(); err != nil {
		return input, logbook.DateRange{}, err
	}
	return input, r, nil
}

// errorCode maps known failures onto stable codes clients can branch on.
func errorCode(err error) string {
	var apiErr *llm.APIError
	switch {
	case errors.Is(err, backup.ErrNoBackups):
		return "NO_BACKUPS"
	case errors.Is(err, logbook.ErrNoEntriesInRange):
		return "NO_ENTRIES_IN_RANGE"
	case errors.Is(err, logbook.ErrInvalidDate), errors.Is(err, logbook.ErrInvertedRange), errors.Is(err, merge.ErrNoEntries):
		return "INVALID_REQUEST"
	case errors.Is(err, llm.ErrMissingAPIKey):
		return "MISSING_API_KEY"
	case errors.As(err, &apiErr), errors.Is(err, llm.ErrInvalidResponse), errors.Is(err, context.DeadlineExceeded):
		return "REMOTE_ERROR"
	default:
		return "INTERNAL"
	}
}

func errorResult(err error) *mcp.CallToolResult {
	payload := map[string]any{
		"error": map[string]any{
			"code":    errorCode(err),
			"message": err.Error(),
		},
	}
	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
