package models

import "time"

// Run is the persisted ledger record of a completed review run.
type Run struct {
	ID             string
	ManifestPath   string
	FileCount      int
	Recommendation Recommendation
	TotalComments  int
	CriticalCount  int
	Degraded       []string
	ReportJSON     string // full report artifact for replay
	CreatedAt      time.Time
}
