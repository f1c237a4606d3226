package adapter

import (
	"context"
	"time"
)

// Static is a deterministic backend that returns a canned response. It backs
// tests and dry runs; Delay and Err simulate slow and failing reviewers.
type Static struct {
	Reviewer string
	Resp     Response
	Err      error
	Delay    time.Duration
}

// Name returns the reviewer identity this backend serves.
func (s *Static) Name() string { return s.Reviewer }

// Review returns the canned response after an optional delay, honoring
// context cancellation while waiting.
func (s *Static) Review(ctx context.Context, req Request) (Response, error) {
	if s.Delay > 0 {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case <-time.After(s.Delay):
		}
	}
	if s.Err != nil {
		return Response{}, s.Err
	}
	return s.Resp, nil
}
