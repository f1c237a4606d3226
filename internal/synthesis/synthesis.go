// Package synthesis deterministically aggregates all terminal chapter
// reviews into a single consensus recommendation.
package synthesis

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/joescharf/chorus/internal/models"
)

// ErrInvariant indicates the orchestrator handed synthesis an incomplete or
// inconsistent result set. This cannot happen under a correct orchestrator;
// callers must treat it as a bug and abort.
var ErrInvariant = errors.New("synthesis invariant violation")

// Synthesize computes the governance summary for a run. It runs once, after
// the completion barrier, and is independent of reviewer or chapter order:
// no reviewer has veto power except through comment severity.
func Synthesize(chapters []models.Chapter, reviews []models.ChapterReview, jobs []models.ReviewJob) (*models.GovernanceSummary, error) {
	if err := checkInvariants(chapters, reviews, jobs); err != nil {
		return nil, err
	}

	summary := &models.GovernanceSummary{
		PerDomain:        make(map[string]models.DomainStats),
		DegradedChapters: []string{},
	}

	degraded := make(map[string]bool)
	for _, r := range reviews {
		stats := summary.PerDomain[r.Domain]
		if r.Status == models.ReviewFallback {
			degraded[r.ChapterID] = true
			stats.Degraded = true
		}
		for _, c := range r.Comments {
			summary.TotalComments++
			stats.Comments++
			switch c.Severity {
			case models.SeverityCritical:
				summary.CriticalCount++
				stats.Critical++
			case models.SeverityWarning:
				stats.Warnings++
			case models.SeveritySuggestion:
				stats.Suggestions++
			}
		}
		summary.PerDomain[r.Domain] = stats
	}

	for id := range degraded {
		summary.DegradedChapters = append(summary.DegradedChapters, id)
	}
	sort.Strings(summary.DegradedChapters)

	for _, ch := range chapters {
		if ch.Domain == models.UnclassifiedDomain {
			summary.UnclassifiedFiles = append(summary.UnclassifiedFiles, ch.Files...)
		}
	}

	// A single critical finding, from any reviewer in any chapter, vetoes
	// approval.
	switch {
	case summary.CriticalCount > 0:
		summary.Recommendation = models.RecommendationRequestChanges
	case summary.TotalComments == 0:
		summary.Recommendation = models.RecommendationApprove
	default:
		summary.Recommendation = models.RecommendationComment
	}

	summary.Narrative = buildNarrative(chapters, reviews, summary)
	return summary, nil
}

// checkInvariants verifies that every job is terminal and that exactly one
// review exists per (chapter, reviewer) pair.
func checkInvariants(chapters []models.Chapter, reviews []models.ChapterReview, jobs []models.ReviewJob) error {
	for _, job := range jobs {
		if !job.Status.Terminal() {
			return fmt.Errorf("%w: job %s is non-terminal (%s)", ErrInvariant, job.ID, job.Status)
		}
	}

	got := make(map[string]int, len(reviews))
	for _, r := range reviews {
		got[models.JobID(r.ChapterID, r.Reviewer)]++
	}
	for _, ch := range chapters {
		for _, reviewer := range ch.Reviewers {
			id := models.JobID(ch.ID, reviewer)
			switch got[id] {
			case 1:
			case 0:
				return fmt.Errorf("%w: missing review for %s", ErrInvariant, id)
			default:
				return fmt.Errorf("%w: %d reviews for %s", ErrInvariant, got[id], id)
			}
		}
	}
	return nil
}

// buildNarrative renders a short human-readable synthesis of the run.
func buildNarrative(chapters []models.Chapter, reviews []models.ChapterReview, s *models.GovernanceSummary) string {
	reviewers := make(map[string]bool)
	reviewed := 0
	for _, ch := range chapters {
		if len(ch.Reviewers) > 0 {
			reviewed++
		}
		for _, r := range ch.Reviewers {
			reviewers[r] = true
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Reviewed %d chapter(s) with %d reviewer(s): %d comment(s), %d critical.",
		reviewed, len(reviewers), s.TotalComments, s.CriticalCount)

	if len(s.DegradedChapters) > 0 {
		fmt.Fprintf(&b, " Degraded chapters (fallback applied): %s.",
			strings.Join(s.DegradedChapters, ", "))
	}
	if len(s.UnclassifiedFiles) > 0 {
		fmt.Fprintf(&b, " Warning: %d file(s) matched no chapter: %s.",
			len(s.UnclassifiedFiles), strings.Join(s.UnclassifiedFiles, ", "))
	}

	switch s.Recommendation {
	case models.RecommendationRequestChanges:
		b.WriteString(" Critical findings block approval; changes requested.")
	case models.RecommendationApprove:
		b.WriteString(" No findings; approved.")
	default:
		b.WriteString(" Non-blocking findings; left as comments.")
	}
	return b.String()
}
