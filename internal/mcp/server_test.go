package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/chorus/internal/models"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

// mockStore implements store.Store for testing.
type mockStore struct {
	runs    []*models.Run
	reviews map[string][]*models.ChapterReview

	// Optional error injection.
	listRunsErr error
}

func (m *mockStore) CreateRun(_ context.Context, run *models.Run) error {
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockStore) GetRun(_ context.Context, id string) (*models.Run, error) {
	for _, r := range m.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("run not found: %s", id)
}

func (m *mockStore) ListRuns(_ context.Context, limit int) ([]*models.Run, error) {
	if m.listRunsErr != nil {
		return nil, m.listRunsErr
	}
	if limit > 0 && limit < len(m.runs) {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

func (m *mockStore) CreateChapterReview(_ context.Context, runID string, r *models.ChapterReview) error {
	if m.reviews == nil {
		m.reviews = make(map[string][]*models.ChapterReview)
	}
	m.reviews[runID] = append(m.reviews[runID], r)
	return nil
}

func (m *mockStore) ListChapterReviews(_ context.Context, runID string) ([]*models.ChapterReview, error) {
	return m.reviews[runID], nil
}

func (m *mockStore) Migrate(_ context.Context) error { return nil }
func (m *mockStore) Close() error                    { return nil }

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestServer(t *testing.T) (*Server, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	known := func(id string) bool { return id == "sec" || id == "doc" }
	return NewServer(ms, known), ms
}

// callToolReq builds a mcpgo.CallToolRequest with the given name and arguments.
func callToolReq(name string, args map[string]any) mcpgo.CallToolRequest {
	return mcpgo.CallToolRequest{
		Params: mcpgo.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultText extracts the concatenated text from a CallToolResult.
func resultText(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	var b strings.Builder
	for _, c := range result.Content {
		tc, ok := c.(mcpgo.TextContent)
		if ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// resultJSON parses the text result as JSON into the provided target.
func resultJSON(t *testing.T, result *mcpgo.CallToolResult, target any) {
	t.Helper()
	text := resultText(t, result)
	err := json.Unmarshal([]byte(text), target)
	require.NoError(t, err, "failed to parse result JSON: %s", text)
}

// seedRun adds a run to the mock store and returns it.
func seedRun(t *testing.T, ms *mockStore, id string, rec models.Recommendation) *models.Run {
	t.Helper()
	r := &models.Run{
		ID:             id,
		ManifestPath:   "review.yaml",
		FileCount:      4,
		Recommendation: rec,
		TotalComments:  2,
		CriticalCount:  1,
		Degraded:       []string{},
		CreatedAt:      time.Now().UTC(),
	}
	ms.runs = append(ms.runs, r)
	return r
}

// ---------------------------------------------------------------------------
// Tests: MCPServer registration
// ---------------------------------------------------------------------------

func TestNewServer(t *testing.T) {
	srv, _ := newTestServer(t)
	mcpSrv := srv.MCPServer()
	require.NotNil(t, mcpSrv, "MCPServer() should return non-nil")
}

// ---------------------------------------------------------------------------
// Tests: chorus_list_runs
// ---------------------------------------------------------------------------

func TestHandleListRuns_Empty(t *testing.T) {
	srv, _ := newTestServer(t)
	req := callToolReq("chorus_list_runs", nil)

	result, err := srv.handleListRuns(context.Background(), req)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var runs []map[string]any
	resultJSON(t, result, &runs)
	assert.Empty(t, runs)
}

func TestHandleListRuns_ReturnsRuns(t *testing.T) {
	srv, ms := newTestServer(t)
	seedRun(t, ms, "run1", models.RecommendationRequestChanges)
	seedRun(t, ms, "run2", models.RecommendationApprove)

	req := callToolReq("chorus_list_runs", nil)
	result, err := srv.handleListRuns(context.Background(), req)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var runs []map[string]any
	resultJSON(t, result, &runs)
	require.Len(t, runs, 2)
	assert.Equal(t, "run1", runs[0]["id"])
	assert.Equal(t, "request_changes", runs[0]["recommendation"])
	assert.Equal(t, float64(1), runs[0]["critical_count"])
}

func TestHandleListRuns_Limit(t *testing.T) {
	srv, ms := newTestServer(t)
	seedRun(t, ms, "run1", models.RecommendationApprove)
	seedRun(t, ms, "run2", models.RecommendationApprove)
	seedRun(t, ms, "run3", models.RecommendationApprove)

	req := callToolReq("chorus_list_runs", map[string]any{"limit": 2})
	result, err := srv.handleListRuns(context.Background(), req)
	require.NoError(t, err)

	var runs []map[string]any
	resultJSON(t, result, &runs)
	assert.Len(t, runs, 2)
}

func TestHandleListRuns_StoreError(t *testing.T) {
	srv, ms := newTestServer(t)
	ms.listRunsErr = fmt.Errorf("disk on fire")

	req := callToolReq("chorus_list_runs", nil)
	result, err := srv.handleListRuns(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

// ---------------------------------------------------------------------------
// Tests: chorus_get_run
// ---------------------------------------------------------------------------

func TestHandleGetRun(t *testing.T) {
	srv, ms := newTestServer(t)
	run := seedRun(t, ms, "run1", models.RecommendationComment)
	run.ReportJSON = `{"run_id":"run1"}`
	require.NoError(t, ms.CreateChapterReview(context.Background(), "run1", &models.ChapterReview{
		ChapterID: "security",
		Domain:    "security",
		Reviewer:  "sec",
		Comments:  []models.ReviewComment{},
		Status:    models.ReviewSuccess,
	}))

	req := callToolReq("chorus_get_run", map[string]any{"run_id": "run1"})
	result, err := srv.handleGetRun(context.Background(), req)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out map[string]any
	resultJSON(t, result, &out)
	assert.Equal(t, "run1", out["id"])
	assert.Equal(t, "comment", out["recommendation"])
	assert.NotNil(t, out["report"])
	reviews, ok := out["reviews"].([]any)
	require.True(t, ok)
	assert.Len(t, reviews, 1)
}

func TestHandleGetRun_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	req := callToolReq("chorus_get_run", map[string]any{"run_id": "missing"})

	result, err := srv.handleGetRun(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleGetRun_MissingParam(t *testing.T) {
	srv, _ := newTestServer(t)
	req := callToolReq("chorus_get_run", nil)

	result, err := srv.handleGetRun(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

// ---------------------------------------------------------------------------
// Tests: chorus_validate_manifest
// ---------------------------------------------------------------------------

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "review.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestHandleValidateManifest_Valid(t *testing.T) {
	srv, _ := newTestServer(t)
	path := writeManifest(t, `
chapters:
  - domain: security
    path_patterns: ["auth/**"]
    reviewers: [sec]
  - domain: docs
    path_patterns: ["**/*.md"]
    reviewers: [doc]
`)

	req := callToolReq("chorus_validate_manifest", map[string]any{"path": path})
	result, err := srv.handleValidateManifest(context.Background(), req)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out map[string]any
	resultJSON(t, result, &out)
	assert.Equal(t, true, out["valid"])
	assert.Equal(t, []any{"security", "docs"}, out["domains"])
}

func TestHandleValidateManifest_UnknownReviewer(t *testing.T) {
	srv, _ := newTestServer(t)
	path := writeManifest(t, `
chapters:
  - domain: security
    path_patterns: ["auth/**"]
    reviewers: [ghost]
`)

	req := callToolReq("chorus_validate_manifest", map[string]any{"path": path})
	result, err := srv.handleValidateManifest(context.Background(), req)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out map[string]any
	resultJSON(t, result, &out)
	assert.Equal(t, false, out["valid"])
	assert.Contains(t, out["error"], "ghost")
}

func TestHandleValidateManifest_MissingFile(t *testing.T) {
	srv, _ := newTestServer(t)
	req := callToolReq("chorus_validate_manifest", map[string]any{
		"path": filepath.Join(t.TempDir(), "nope.yaml"),
	})

	result, err := srv.handleValidateManifest(context.Background(), req)
	require.NoError(t, err)

	var out map[string]any
	resultJSON(t, result, &out)
	assert.Equal(t, false, out["valid"])
}
