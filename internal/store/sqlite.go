package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joescharf/chorus/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func nowUTC() time.Time {
	return time.Now().UTC()
}

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single
	// connection serializes all DB access through Go's connection pool,
	// preventing "database is locked" errors from concurrent workers.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Set busy timeout so concurrent writes wait instead of failing immediately
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Runs ---

func (s *SQLiteStore) CreateRun(ctx context.Context, run *models.Run) error {
	if run.ID == "" {
		run.ID = models.NewRunID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = nowUTC()
	}

	degradedJSON, err := json.Marshal(run.Degraded)
	if err != nil {
		degradedJSON = []byte("[]")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, manifest_path, file_count, recommendation, total_comments, critical_count, degraded, report_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.ManifestPath, run.FileCount, string(run.Recommendation),
		run.TotalComments, run.CriticalCount, string(degradedJSON), run.ReportJSON, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*models.Run, error) {
	run := &models.Run{}
	var recommendation, degradedJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, manifest_path, file_count, recommendation, total_comments, critical_count, degraded, report_json, created_at
		FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.ManifestPath, &run.FileCount, &recommendation,
		&run.TotalComments, &run.CriticalCount, &degradedJSON, &run.ReportJSON, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	run.Recommendation = models.Recommendation(recommendation)
	_ = json.Unmarshal([]byte(degradedJSON), &run.Degraded)
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	query := `SELECT id, manifest_path, file_count, recommendation, total_comments, critical_count, degraded, report_json, created_at
		FROM runs ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*models.Run
	for rows.Next() {
		run := &models.Run{}
		var recommendation, degradedJSON string
		if err := rows.Scan(&run.ID, &run.ManifestPath, &run.FileCount, &recommendation,
			&run.TotalComments, &run.CriticalCount, &degradedJSON, &run.ReportJSON, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Recommendation = models.Recommendation(recommendation)
		_ = json.Unmarshal([]byte(degradedJSON), &run.Degraded)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// --- Chapter reviews ---

func (s *SQLiteStore) CreateChapterReview(ctx context.Context, runID string, review *models.ChapterReview) error {
	commentsJSON, err := json.Marshal(review.Comments)
	if err != nil {
		commentsJSON = []byte("[]")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chapter_reviews (run_id, chapter_id, domain, reviewer_id, comments, summary, elapsed_ms, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, review.ChapterID, review.Domain, review.Reviewer,
		string(commentsJSON), review.Summary, review.ElapsedMS, string(review.Status),
	)
	if err != nil {
		return fmt.Errorf("create chapter review: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListChapterReviews(ctx context.Context, runID string) ([]*models.ChapterReview, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chapter_id, domain, reviewer_id, comments, summary, elapsed_ms, status
		FROM chapter_reviews WHERE run_id = ? ORDER BY chapter_id, reviewer_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list chapter reviews: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reviews []*models.ChapterReview
	for rows.Next() {
		r := &models.ChapterReview{}
		var commentsJSON, status string
		if err := rows.Scan(&r.ChapterID, &r.Domain, &r.Reviewer,
			&commentsJSON, &r.Summary, &r.ElapsedMS, &status); err != nil {
			return nil, fmt.Errorf("scan chapter review: %w", err)
		}
		r.Status = models.ReviewStatus(status)
		r.Comments = []models.ReviewComment{}
		_ = json.Unmarshal([]byte(commentsJSON), &r.Comments)
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}
