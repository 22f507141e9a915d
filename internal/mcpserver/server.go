// Package mcpserver exposes the worklog to MCP clients over stdio.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/faizmokh/worklog/internal/logbook"
	"github.com/faizmokh/worklog/internal/merge"
)

const serverName = "worklog"

type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

var toolRegistry = map[string]toolEntry{
	"worklog_read": {
		def: mcp.NewTool("worklog_read",
			mcp.WithDescription("Return the full Markdown worklog."),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRead },
	},
	"worklog_add": {
		def: mcp.NewTool("worklog_add",
			mcp.WithDescription("Merge new work entries into the worklog. The current version is backed up first."),
			mcp.WithArray("entries",
				mcp.Required(),
				mcp.Description("Entries to add, one accomplishment each, phrased as they should appear."),
				mcp.WithStringItems(),
			),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAdd },
	},
	"worklog_undo": {
		def: mcp.NewTool("worklog_undo",
			mcp.WithDescription("Restore the worklog from the most recent backup and discard that backup."),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUndo },
	},
	"worklog_filter": {
		def: mcp.NewTool("worklog_filter",
			mcp.WithDescription("Return the worklog sections with entries dated inside a range."),
			mcp.WithString("from", mcp.Required(), mcp.Description("First day, YYYY-MM-DD.")),
			mcp.WithString("to", mcp.Required(), mcp.Description("Last day, YYYY-MM-DD.")),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFilter },
	},
	"worklog_report": {
		def: mcp.NewTool("worklog_report",
			mcp.WithDescription("Generate a Markdown report for a date range. Nothing is written."),
			mcp.WithString("from", mcp.Required(), mcp.Description("First day, YYYY-MM-DD.")),
			mcp.WithString("to", mcp.Required(), mcp.Description("Last day, YYYY-MM-DD.")),
			mcp.WithString("style",
				mcp.Description("Report style."),
				mcp.Enum(merge.Styles()...),
			),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReport },
	},
	"worklog_backups": {
		def: mcp.NewTool("worklog_backups",
			mcp.WithDescription("List stored backups, newest first."),
		),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleBackups },
	},
}

// ToolNames lists every registered tool.
func ToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// NewServer creates an MCP server with the worklog tools registered.
func NewServer(store *logbook.Store, orchestrator *merge.Orchestrator, version string) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(store, orchestrator)
	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// Run serves the worklog tools on stdin/stdout until the client disconnects.
func Run(store *logbook.Store, orchestrator *merge.Orchestrator, version string) error {
	return server.ServeStdio(NewServer(store, orchestrator, version))
}
