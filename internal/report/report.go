// Package report builds, persists, and renders the final run artifact.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/joescharf/chorus/internal/models"
	"github.com/joescharf/chorus/internal/output"
)

// Report is the complete artifact of one run. Marshalling it to JSON and
// back is lossless.
type Report struct {
	RunID             string                      `json:"run_id"`
	GeneratedAt       time.Time                   `json:"generated_at"`
	Summary           models.GovernanceSummary    `json:"summary"`
	Comments          []models.ReviewComment      `json:"comments"`
	Reviews           []models.ChapterReview      `json:"reviews"`
	PerReviewerStatus map[string]models.JobStatus `json:"per_reviewer_status"`
}

// statusWeight orders terminal job statuses from best to worst.
var statusWeight = map[models.JobStatus]int{
	models.JobCompleted: 0,
	models.JobTimedOut:  1,
	models.JobFailed:    2,
}

// Build assembles the report from the run's synthesis output and terminal
// jobs. A reviewer's status is the worst outcome across all of its jobs.
func Build(runID string, summary *models.GovernanceSummary, reviews []models.ChapterReview, jobs []models.ReviewJob) *Report {
	perReviewer := make(map[string]models.JobStatus)
	for _, job := range jobs {
		cur, ok := perReviewer[job.Reviewer]
		if !ok || statusWeight[job.Status] > statusWeight[cur] {
			perReviewer[job.Reviewer] = job.Status
		}
	}

	comments := make([]models.ReviewComment, 0)
	for _, r := range reviews {
		comments = append(comments, r.Comments...)
	}
	sort.SliceStable(comments, func(i, j int) bool {
		if comments[i].FilePath != comments[j].FilePath {
			return comments[i].FilePath < comments[j].FilePath
		}
		return comments[i].Line < comments[j].Line
	})

	return &Report{
		RunID:             runID,
		GeneratedAt:       time.Now().UTC(),
		Summary:           *summary,
		Comments:          comments,
		Reviews:           reviews,
		PerReviewerStatus: perReviewer,
	}
}

// Marshal renders the report as indented JSON.
func (r *Report) Marshal() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// WriteJSON writes the report artifact to path.
func (r *Report) WriteJSON(path string) error {
	data, err := r.Marshal()
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// ReadJSON loads a previously written report artifact.
func ReadJSON(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	return Unmarshal(data)
}

// Unmarshal parses a report artifact.
func Unmarshal(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}
	return &r, nil
}

// ExitCode maps the consensus recommendation to the process exit code:
// approve and comment exit 0, request_changes exits 1. Operational failures
// exit 2 and never arrive here.
func ExitCode(rec models.Recommendation) int {
	if rec == models.RecommendationRequestChanges {
		return 1
	}
	return 0
}

// Render prints the human-readable report.
func Render(ui *output.UI, r *Report) error {
	ui.Info("run %s", r.RunID)
	ui.Info("recommendation: %s", output.RecommendationColor(r.Summary.Recommendation))
	ui.Info("%d comment(s), %d critical", r.Summary.TotalComments, r.Summary.CriticalCount)

	domains := make([]string, 0, len(r.Summary.PerDomain))
	for d := range r.Summary.PerDomain {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	table := ui.Table([]string{"Domain", "Comments", "Critical", "Warnings", "Suggestions", "Degraded"})
	for _, d := range domains {
		st := r.Summary.PerDomain[d]
		table.Append([]string{
			d,
			strconv.Itoa(st.Comments),
			strconv.Itoa(st.Critical),
			strconv.Itoa(st.Warnings),
			strconv.Itoa(st.Suggestions),
			strconv.FormatBool(st.Degraded),
		})
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering domain table: %w", err)
	}

	if len(r.Comments) > 0 {
		ct := ui.Table([]string{"File", "Line", "Severity", "Category", "Reviewer", "Message"})
		for _, c := range r.Comments {
			line := ""
			if c.Line > 0 {
				line = strconv.Itoa(c.Line)
			}
			ct.Append([]string{
				c.FilePath,
				line,
				output.SeverityColor(c.Severity),
				string(c.Category),
				c.Reviewer,
				c.Message,
			})
		}
		if err := ct.Render(); err != nil {
			return fmt.Errorf("rendering comment table: %w", err)
		}
	}

	reviewers := make([]string, 0, len(r.PerReviewerStatus))
	for id := range r.PerReviewerStatus {
		reviewers = append(reviewers, id)
	}
	sort.Strings(reviewers)
	rt := ui.Table([]string{"Reviewer", "Status"})
	for _, id := range reviewers {
		rt.Append([]string{id, output.JobStatusColor(r.PerReviewerStatus[id])})
	}
	if err := rt.Render(); err != nil {
		return fmt.Errorf("rendering reviewer table: %w", err)
	}

	if len(r.Summary.DegradedChapters) > 0 {
		ui.Warning("degraded chapters: %v", r.Summary.DegradedChapters)
	}
	if len(r.Summary.UnclassifiedFiles) > 0 {
		ui.Warning("%d file(s) matched no chapter", len(r.Summary.UnclassifiedFiles))
	}
	ui.Info("%s", r.Summary.Narrative)
	return nil
}
