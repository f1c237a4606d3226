package adapter

import (
	"context"
	"time"
)

// timeoutReviewer decorates a backend with a per-invocation deadline from the
// reviewer's own config, independent of the orchestrator's job timeout.
type timeoutReviewer struct {
	inner Reviewer
	d     time.Duration
}

// WithTimeout wraps a reviewer so every invocation runs under its own
// deadline. Wrapped inside WithRetry, each retry attempt gets a fresh one.
func WithTimeout(rv Reviewer, d time.Duration) Reviewer {
	return &timeoutReviewer{inner: rv, d: d}
}

func (t *timeoutReviewer) Name() string { return t.inner.Name() }

func (t *timeoutReviewer) Review(ctx context.Context, req Request) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.inner.Review(ctx, req)
}
