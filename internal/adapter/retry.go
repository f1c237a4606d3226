package adapter

import (
	"context"
	"time"
)

// retryReviewer decorates a backend with bounded retry. Retries are an
// explicit wrapper around the adapter call; the job queue itself never
// re-queues work.
type retryReviewer struct {
	inner    Reviewer
	attempts int
	backoff  time.Duration
}

// WithRetry wraps a reviewer so each invocation is attempted up to attempts
// times with a fixed backoff between tries. Context cancellation stops the
// loop immediately.
func WithRetry(rv Reviewer, attempts int, backoff time.Duration) Reviewer {
	if attempts < 1 {
		attempts = 1
	}
	return &retryReviewer{inner: rv, attempts: attempts, backoff: backoff}
}

func (r *retryReviewer) Name() string { return r.inner.Name() }

func (r *retryReviewer) Review(ctx context.Context, req Request) (Response, error) {
	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(r.backoff):
			}
		}
		resp, err := r.inner.Review(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return Response{}, lastErr
		}
	}
	return Response{}, lastErr
}
