package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/chorus/internal/manifest"
	"github.com/joescharf/chorus/internal/store"
)

// Server wraps the run ledger and exposes it as MCP tools.
type Server struct {
	store      store.Store
	registered func(string) bool
}

// NewServer creates the MCP server wrapper. registered reports whether a
// reviewer id has a configured adapter; it backs manifest validation.
func NewServer(s store.Store, registered func(string) bool) *Server {
	return &Server{store: s, registered: registered}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("chorus", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.listRunsTool())
	srv.AddTool(s.getRunTool())
	srv.AddTool(s.validateManifestTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// chorus_list_runs
func (s *Server) listRunsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("chorus_list_runs",
		mcp.WithDescription("List recent review runs, newest first. Returns a JSON array with run id, manifest path, recommendation, comment counts, and degraded chapters."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs to return (default 20)")),
	)
	return tool, s.handleListRuns
}

func (s *Server) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 20)
	runs, err := s.store.ListRuns(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list runs: %v", err)), nil
	}

	type runOut struct {
		ID             string   `json:"id"`
		ManifestPath   string   `json:"manifest_path"`
		FileCount      int      `json:"file_count"`
		Recommendation string   `json:"recommendation"`
		TotalComments  int      `json:"total_comments"`
		CriticalCount  int      `json:"critical_count"`
		Degraded       []string `json:"degraded"`
		CreatedAt      string   `json:"created_at"`
	}

	out := make([]runOut, len(runs))
	for i, r := range runs {
		out[i] = runOut{
			ID:             r.ID,
			ManifestPath:   r.ManifestPath,
			FileCount:      r.FileCount,
			Recommendation: string(r.Recommendation),
			TotalComments:  r.TotalComments,
			CriticalCount:  r.CriticalCount,
			Degraded:       r.Degraded,
			CreatedAt:      r.CreatedAt.Format(time.RFC3339),
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal runs: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// chorus_get_run
func (s *Server) getRunTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("chorus_get_run",
		mcp.WithDescription("Get one review run by id, including its full report artifact and per-chapter reviews."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run id (ULID)")),
	)
	return tool, s.handleGetRun
}

func (s *Server) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID, err := request.RequireString("run_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: run_id"), nil
	}

	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("run not found: %s", runID)), nil
	}

	reviews, err := s.store.ListChapterReviews(ctx, runID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load reviews: %v", err)), nil
	}

	result := map[string]any{
		"id":             run.ID,
		"manifest_path":  run.ManifestPath,
		"file_count":     run.FileCount,
		"recommendation": string(run.Recommendation),
		"total_comments": run.TotalComments,
		"critical_count": run.CriticalCount,
		"degraded":       run.Degraded,
		"created_at":     run.CreatedAt.Format(time.RFC3339),
		"reviews":        reviews,
	}
	if run.ReportJSON != "" {
		var report any
		if err := json.Unmarshal([]byte(run.ReportJSON), &report); err == nil {
			result["report"] = report
		}
	}

	data, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal run: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// chorus_validate_manifest
func (s *Server) validateManifestTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("chorus_validate_manifest",
		mcp.WithDescription("Validate a review manifest file against the configured reviewers. Returns {valid: true} or {valid: false, error: ...}."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the manifest YAML file")),
	)
	return tool, s.handleValidateManifest
}

func (s *Server) handleValidateManifest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: path"), nil
	}

	result := map[string]any{"valid": true}
	defs, err := manifest.Load(path, s.registered)
	if err != nil {
		result["valid"] = false
		result["error"] = err.Error()
	} else {
		domains := make([]string, len(defs))
		for i, def := range defs {
			domains[i] = def.Domain
		}
		result["domains"] = domains
	}

	data, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
