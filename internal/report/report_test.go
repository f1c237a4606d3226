package report

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/chorus/internal/models"
	"github.com/joescharf/chorus/internal/output"
)

func sampleSummary() *models.GovernanceSummary {
	return &models.GovernanceSummary{
		TotalComments: 2,
		CriticalCount: 1,
		PerDomain: map[string]models.DomainStats{
			"security": {Comments: 2, Critical: 1, Warnings: 1},
		},
		Recommendation:   models.RecommendationRequestChanges,
		Narrative:        "critical findings block approval",
		DegradedChapters: []string{},
	}
}

func sampleReviews() []models.ChapterReview {
	return []models.ChapterReview{
		{
			ChapterID: "security",
			Domain:    "security",
			Reviewer:  "sec",
			Comments: []models.ReviewComment{
				{FilePath: "auth/token.go", Line: 9, Category: models.CategorySecurity, Severity: models.SeverityWarning, Message: "short ttl", Reviewer: "sec"},
				{FilePath: "auth/login.go", Line: 3, Category: models.CategorySecurity, Severity: models.SeverityCritical, Message: "hardcoded key", Reviewer: "sec"},
			},
			Summary: "two findings",
			Status:  models.ReviewSuccess,
		},
	}
}

func sampleJobs() []models.ReviewJob {
	return []models.ReviewJob{
		{ID: "security/sec", ChapterID: "security", Reviewer: "sec", Status: models.JobCompleted},
	}
}

func TestBuildSortsCommentsByFileAndLine(t *testing.T) {
	r := Build("run1", sampleSummary(), sampleReviews(), sampleJobs())

	require.Len(t, r.Comments, 2)
	assert.Equal(t, "auth/login.go", r.Comments[0].FilePath)
	assert.Equal(t, "auth/token.go", r.Comments[1].FilePath)
}

func TestBuildPerReviewerWorstStatus(t *testing.T) {
	jobs := []models.ReviewJob{
		{ID: "a/sec", Reviewer: "sec", Status: models.JobCompleted},
		{ID: "b/sec", Reviewer: "sec", Status: models.JobTimedOut},
		{ID: "c/sec", Reviewer: "sec", Status: models.JobCompleted},
		{ID: "a/doc", Reviewer: "doc", Status: models.JobCompleted},
		{ID: "b/qa", Reviewer: "qa", Status: models.JobFailed},
		{ID: "c/qa", Reviewer: "qa", Status: models.JobTimedOut},
	}

	r := Build("run1", sampleSummary(), nil, jobs)
	assert.Equal(t, models.JobTimedOut, r.PerReviewerStatus["sec"])
	assert.Equal(t, models.JobCompleted, r.PerReviewerStatus["doc"])
	assert.Equal(t, models.JobFailed, r.PerReviewerStatus["qa"])
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	r := Build("run-roundtrip", sampleSummary(), sampleReviews(), sampleJobs())

	require.NoError(t, r.WriteJSON(path))
	got, err := ReadJSON(path)
	require.NoError(t, err)

	assert.Equal(t, r.RunID, got.RunID)
	assert.Equal(t, r.Summary, got.Summary)
	assert.Equal(t, r.Comments, got.Comments)
	assert.Equal(t, r.Reviews, got.Reviews)
	assert.Equal(t, r.PerReviewerStatus, got.PerReviewerStatus)
	assert.True(t, r.GeneratedAt.Equal(got.GeneratedAt))
}

func TestReadJSONMissingFile(t *testing.T) {
	_, err := ReadJSON(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	_, err := Unmarshal([]byte("{not json"))
	require.Error(t, err)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(models.RecommendationApprove))
	assert.Equal(t, 0, ExitCode(models.RecommendationComment))
	assert.Equal(t, 1, ExitCode(models.RecommendationRequestChanges))
}

func TestRenderIncludesKeyFields(t *testing.T) {
	out := &bytes.Buffer{}
	ui := &output.UI{Out: out, ErrOut: &bytes.Buffer{}}
	r := Build("run-render", sampleSummary(), sampleReviews(), sampleJobs())

	require.NoError(t, Render(ui, r))
	s := out.String()
	assert.Contains(t, s, "run-render")
	assert.Contains(t, s, "request_changes")
	assert.Contains(t, s, "auth/login.go")
	assert.Contains(t, s, "critical findings block approval")
}
