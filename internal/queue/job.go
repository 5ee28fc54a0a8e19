// Package queue implements the persistent job queue at the heart of the
// archiver: the job data model, the atomic claim protocol, the retry and
// dead-job policy, and the crash-recovery sweep for abandoned jobs. All
// queue state lives in the database; workers hold only transient references
// to the job they are processing.
package queue

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle state of a job
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Result statuses recorded in job_results
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// DefaultMaxAttempts is the retry ceiling applied when none is configured
const DefaultMaxAttempts = 3

// Job is one persisted unit of work. Rows are never deleted; together with
// job_results they form the audit trail of the whole discovery tree.
type Job struct {
	ID          int64           `db:"id" json:"id"`
	JobType     string          `db:"job_type" json:"job_type"`
	URL         string          `db:"url" json:"url"`
	Params      json.RawMessage `db:"params" json:"params,omitempty"`
	Priority    int             `db:"priority" json:"priority"`
	Status      Status          `db:"status" json:"status"`
	Attempts    int             `db:"attempts" json:"attempts"`
	MaxAttempts int             `db:"max_attempts" json:"max_attempts"`
	ClaimedBy   *string         `db:"claimed_by" json:"claimed_by,omitempty"`
	LastError   *string         `db:"last_error" json:"last_error,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	ClaimedAt   *time.Time      `db:"claimed_at" json:"claimed_at,omitempty"`
	CompletedAt *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}

// JobRequest describes a job to enqueue. URL is the identity component of
// the dedupe key (job_type, url); Params carries everything else the handler
// needs and stays opaque to the queue.
type JobRequest struct {
	JobType  string
	URL      string
	Params   any
	Priority int
}

// JobResult is the append-only record written on each terminal transition
type JobResult struct {
	ID          int64           `db:"id" json:"id"`
	JobID       int64           `db:"job_id" json:"job_id"`
	Status      string          `db:"status" json:"status"`
	Result      json.RawMessage `db:"result" json:"result,omitempty"`
	Error       *string         `db:"error" json:"error,omitempty"`
	CompletedAt time.Time       `db:"completed_at" json:"completed_at"`
}

// Stats is an aggregate snapshot of the queue, grouped by status and by
// job type. Observational only; nothing schedules off it.
type Stats struct {
	ByStatus map[Status]int `json:"by_status"`
	ByType   map[string]int `json:"by_type"`
}

// Idle reports whether no work remains claimable or in flight
func (s *Stats) Idle() bool {
	return s.ByStatus[StatusPending] == 0 && s.ByStatus[StatusProcessing] == 0
}
