package models

// Recommendation is the consensus outcome of a run.
type Recommendation string

const (
	RecommendationApprove        Recommendation = "approve"
	RecommendationComment        Recommendation = "comment"
	RecommendationRequestChanges Recommendation = "request_changes"
)

// DomainStats is the per-domain slice of the summary breakdown.
type DomainStats struct {
	Comments    int  `json:"comments"`
	Critical    int  `json:"critical"`
	Warnings    int  `json:"warnings"`
	Suggestions int  `json:"suggestions"`
	Degraded    bool `json:"degraded"`
}

// GovernanceSummary is the single long-lived output of a run, created once
// after every job has reached a terminal state.
type GovernanceSummary struct {
	TotalComments     int                    `json:"total_comments"`
	CriticalCount     int                    `json:"critical_count"`
	PerDomain         map[string]DomainStats `json:"per_domain_breakdown"`
	Recommendation    Recommendation         `json:"consensus_recommendation"`
	Narrative         string                 `json:"narrative_synthesis"`
	DegradedChapters  []string               `json:"degraded_chapters"`
	UnclassifiedFiles []string               `json:"unclassified_files,omitempty"`
}
