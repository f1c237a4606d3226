package models

// ReviewStatus distinguishes a real review from a degraded fallback result.
// Fallbacks are never silently interchangeable with successes: consumers must
// inspect this field.
type ReviewStatus string

const (
	ReviewSuccess  ReviewStatus = "success"
	ReviewFallback ReviewStatus = "fallback_applied"
)

// ChapterReview is the terminal result of one review job. Exactly one is
// produced per (chapter, reviewer) pair and it is immutable once created. A
// fallback review always carries zero comments.
type ChapterReview struct {
	ChapterID string          `json:"chapter_id"`
	Domain    string          `json:"domain"`
	Reviewer  string          `json:"reviewer_id"`
	Comments  []ReviewComment `json:"comments"`
	Summary   string          `json:"summary"`
	ElapsedMS int64           `json:"elapsed_ms"`
	Status    ReviewStatus    `json:"status"`
}
