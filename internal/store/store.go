package store

import (
	"context"

	"github.com/joescharf/chorus/internal/models"
)

// Store defines the persistence interface for the run ledger.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*models.Run, error)

	// Chapter reviews
	CreateChapterReview(ctx context.Context, runID string, review *models.ChapterReview) error
	ListChapterReviews(ctx context.Context, runID string) ([]*models.ChapterReview, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
