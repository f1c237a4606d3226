package models

import "fmt"

// JobStatus is the state of a review job. A job moves through its state
// machine exactly once and is never re-queued after being dequeued.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobInProgress JobStatus = "in_progress"
	JobCompleted  JobStatus = "completed"
	JobTimedOut   JobStatus = "timed_out"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether the status is a terminal state.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobCompleted, JobTimedOut, JobFailed:
		return true
	default:
		return false
	}
}

// A queued job may be timed out directly when the run deadline cancels the
// queue before a worker ever picks it up.
var jobTransitions = map[JobStatus]map[JobStatus]struct{}{
	JobQueued: {
		JobInProgress: {},
		JobTimedOut:   {},
	},
	JobInProgress: {
		JobCompleted: {},
		JobTimedOut:  {},
		JobFailed:    {},
	},
	JobCompleted: {},
	JobTimedOut:  {},
	JobFailed:    {},
}

// ValidateJobTransition checks a state machine edge.
func ValidateJobTransition(from, to JobStatus) error {
	allowed, ok := jobTransitions[from]
	if !ok {
		return fmt.Errorf("invalid job status: %q", from)
	}
	if _, ok := jobTransitions[to]; !ok {
		return fmt.Errorf("invalid job status: %q", to)
	}
	if _, ok := allowed[to]; !ok {
		return fmt.Errorf("invalid job transition: %s -> %s", from, to)
	}
	return nil
}

// ReviewJob is one (chapter, reviewer) unit of work. Once dequeued it is
// owned exclusively by its assigned worker.
type ReviewJob struct {
	ID        string    `json:"job_id"`
	ChapterID string    `json:"chapter_id"`
	Reviewer  string    `json:"reviewer_id"`
	Status    JobStatus `json:"status"`
}

// JobID builds the deterministic id for a (chapter, reviewer) pair.
func JobID(chapterID, reviewer string) string {
	return chapterID + "/" + reviewer
}
