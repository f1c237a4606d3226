// Package orchestrator fans review jobs out to per-reviewer workers and
// waits for every job to reach a terminal state before handing the results
// to synthesis.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/joescharf/chorus/internal/adapter"
	"github.com/joescharf/chorus/internal/models"
	"github.com/joescharf/chorus/internal/output"
	"github.com/joescharf/chorus/internal/parser"
)

// Config bounds a single review run.
type Config struct {
	// JobTimeout caps one adapter invocation.
	JobTimeout time.Duration
	// RunTimeout caps total wall-clock time for the whole run. When it
	// expires, outstanding jobs are marked timed out and the run proceeds
	// to synthesis with the partial result set.
	RunTimeout time.Duration
}

// DefaultConfig returns the standard run bounds.
func DefaultConfig() Config {
	return Config{
		JobTimeout: 120 * time.Second,
		RunTimeout: 10 * time.Minute,
	}
}

// Result holds everything a run produced. It is only handed out after the
// completion barrier, so readers never race with workers.
type Result struct {
	Reviews []models.ChapterReview
	Jobs    []models.ReviewJob
}

// Orchestrator coordinates one run over a chapter set.
type Orchestrator struct {
	registry *adapter.Registry
	cfg      Config
	ui       *output.UI
}

// New creates an orchestrator backed by the given adapter registry.
func New(registry *adapter.Registry, cfg Config, ui *output.UI) *Orchestrator {
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = DefaultConfig().JobTimeout
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = DefaultConfig().RunTimeout
	}
	if ui == nil {
		ui = output.New()
	}
	return &Orchestrator{registry: registry, cfg: cfg, ui: ui}
}

// workItem pairs a job with its chapter so the worker can build the adapter
// request and filter comments against the matched file set.
type workItem struct {
	job     models.ReviewJob
	chapter models.Chapter
}

// jobResult is one terminal (job, review) pair produced by a worker.
type jobResult struct {
	job    models.ReviewJob
	review models.ChapterReview
}

// Run executes every (chapter, reviewer) job and blocks until all of them
// are terminal. One queue and one worker exist per distinct reviewer id, so
// no worker ever inspects or discards another reviewer's work.
func (o *Orchestrator) Run(ctx context.Context, chapters []models.Chapter) (*Result, error) {
	items := buildWork(chapters)
	if len(items) == 0 {
		return &Result{}, nil
	}

	for _, it := range items {
		if !o.registry.Known(it.job.Reviewer) {
			return nil, fmt.Errorf("no adapter registered for reviewer %s", it.job.Reviewer)
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, o.cfg.RunTimeout)
	defer cancel()

	// Per-reviewer queues, buffered to hold that reviewer's whole backlog
	// and closed after enqueueing: the queue never grows mid-run.
	byReviewer := make(map[string][]workItem)
	var reviewers []string
	for _, it := range items {
		if _, ok := byReviewer[it.job.Reviewer]; !ok {
			reviewers = append(reviewers, it.job.Reviewer)
		}
		byReviewer[it.job.Reviewer] = append(byReviewer[it.job.Reviewer], it)
	}

	// Each worker owns one slot; slots are read only after the barrier.
	results := make([][]jobResult, len(reviewers))
	var wg sync.WaitGroup
	for i, id := range reviewers {
		queue := make(chan workItem, len(byReviewer[id]))
		for _, it := range byReviewer[id] {
			queue <- it
		}
		close(queue)

		wg.Add(1)
		go func(slot int, reviewerID string, queue <-chan workItem) {
			defer wg.Done()
			results[slot] = o.runWorker(runCtx, reviewerID, queue)
		}(i, id, queue)
	}

	// Completion barrier: every queue drained, every in-flight invocation
	// resolved, all cancellations acknowledged.
	wg.Wait()

	out := &Result{
		Reviews: make([]models.ChapterReview, 0, len(items)),
		Jobs:    make([]models.ReviewJob, 0, len(items)),
	}
	for _, slot := range results {
		for _, jr := range slot {
			out.Jobs = append(out.Jobs, jr.job)
			out.Reviews = append(out.Reviews, jr.review)
		}
	}
	return out, nil
}

// buildWork creates exactly one job per (chapter, reviewer) pair, in chapter
// order. Chapters with no reviewers (the unclassified chapter) produce none.
func buildWork(chapters []models.Chapter) []workItem {
	var items []workItem
	for _, ch := range chapters {
		for _, reviewer := range ch.Reviewers {
			items = append(items, workItem{
				job: models.ReviewJob{
					ID:        models.JobID(ch.ID, reviewer),
					ChapterID: ch.ID,
					Reviewer:  reviewer,
					Status:    models.JobQueued,
				},
				chapter: ch,
			})
		}
	}
	return items
}

// runWorker is the loop for one reviewer identity. Every dequeued job leaves
// with a terminal status and exactly one chapter review; once the run
// context is done, the remaining backlog is drained as timed out.
func (o *Orchestrator) runWorker(ctx context.Context, reviewerID string, queue <-chan workItem) []jobResult {
	rv, _ := o.registry.Lookup(reviewerID)

	var out []jobResult
	for it := range queue {
		select {
		case <-ctx.Done():
			out = append(out, o.expire(it))
		default:
			out = append(out, o.process(ctx, rv, it))
		}
	}
	return out
}

// expire marks a still-queued job as timed out after run-level cancellation.
func (o *Orchestrator) expire(it workItem) jobResult {
	o.mark(&it.job, models.JobTimedOut)
	o.ui.Warning("job %s cancelled by run deadline", it.job.ID)
	return jobResult{job: it.job, review: o.fallback(it, 0)}
}

// process runs one adapter invocation under the job deadline and converts
// the outcome into a terminal job plus its chapter review.
func (o *Orchestrator) process(ctx context.Context, rv adapter.Reviewer, it workItem) jobResult {
	o.mark(&it.job, models.JobInProgress)
	o.ui.VerboseLog("reviewer %s reviewing chapter %s", it.job.Reviewer, it.chapter.ID)

	jobCtx, cancel := context.WithTimeout(ctx, o.cfg.JobTimeout)
	start := time.Now()
	resp, err := o.invokeBounded(jobCtx, rv, adapter.Request{
		ChapterID: it.chapter.ID,
		Domain:    it.chapter.Domain,
		Excerpt:   it.chapter.Excerpt,
	})
	cancel()
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		status := models.JobFailed
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			status = models.JobTimedOut
		}
		o.mark(&it.job, status)
		o.ui.Warning("reviewer %s on chapter %s: %v (fallback applied)", it.job.Reviewer, it.chapter.ID, err)
		return jobResult{job: it.job, review: o.fallback(it, elapsed)}
	}

	res := parser.Parse(resp, it.job.Reviewer)
	for _, perr := range res.Errors {
		o.ui.Warning("reviewer %s on chapter %s: %v (block dropped)", it.job.Reviewer, it.chapter.ID, perr)
	}

	comments := make([]models.ReviewComment, 0, len(res.Comments))
	for _, c := range res.Comments {
		if !it.chapter.HasFile(c.FilePath) {
			o.ui.Warning("reviewer %s on chapter %s: comment references %s outside the chapter (dropped)",
				it.job.Reviewer, it.chapter.ID, c.FilePath)
			continue
		}
		comments = append(comments, c)
	}

	o.mark(&it.job, models.JobCompleted)
	return jobResult{
		job: it.job,
		review: models.ChapterReview{
			ChapterID: it.chapter.ID,
			Domain:    it.chapter.Domain,
			Reviewer:  it.job.Reviewer,
			Comments:  comments,
			Summary:   res.Summary,
			ElapsedMS: elapsed,
			Status:    models.ReviewSuccess,
		},
	}
}

// invocation is the outcome of one adapter call.
type invocation struct {
	resp adapter.Response
	err  error
}

// invokeBounded calls the adapter in a sub-goroutine and enforces the job
// deadline from the outside. Backends are black boxes: one that ignores its
// context must still be forced into a timed-out outcome so the worker loop
// and the completion barrier stay bounded. A late result from an abandoned
// call lands in the buffered channel and is discarded; the orphaned
// goroutine never touches shared state.
func (o *Orchestrator) invokeBounded(ctx context.Context, rv adapter.Reviewer, req adapter.Request) (adapter.Response, error) {
	done := make(chan invocation, 1)
	go func() {
		resp, err := invoke(ctx, rv, req)
		done <- invocation{resp: resp, err: err}
	}()

	select {
	case out := <-done:
		return out.resp, out.err
	case <-ctx.Done():
		return adapter.Response{}, ctx.Err()
	}
}

// invoke calls the adapter with panic containment: a panicking backend
// produces a failed job, never a crashed run.
func invoke(ctx context.Context, rv adapter.Reviewer, req adapter.Request) (resp adapter.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reviewer panic: %v", r)
		}
	}()
	return rv.Review(ctx, req)
}

// fallback produces the degraded terminal review for a job that could not
// complete. It always carries zero comments.
func (o *Orchestrator) fallback(it workItem, elapsed int64) models.ChapterReview {
	return models.ChapterReview{
		ChapterID: it.chapter.ID,
		Domain:    it.chapter.Domain,
		Reviewer:  it.job.Reviewer,
		Comments:  []models.ReviewComment{},
		Summary:   "review unavailable; fallback applied",
		ElapsedMS: elapsed,
		Status:    models.ReviewFallback,
	}
}

// mark advances a job's state machine, surfacing any illegal edge as a loud
// error; illegal edges indicate an orchestrator bug, not a reviewer problem.
func (o *Orchestrator) mark(job *models.ReviewJob, to models.JobStatus) {
	if err := models.ValidateJobTransition(job.Status, to); err != nil {
		o.ui.Error("job %s: %v", job.ID, err)
	}
	job.Status = to
}
