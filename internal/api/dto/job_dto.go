// Package dto defines the request and response shapes of the HTTP API.
package dto

import (
	"encoding/json"

	"github.com/lawvault/lawvault/internal/archive"
	"github.com/lawvault/lawvault/internal/queue"
)

// EnqueueJobRequest is the body of POST /api/v1/jobs
type EnqueueJobRequest struct {
	JobType  string         `json:"job_type" binding:"required"`
	URL      string         `json:"url" binding:"required"`
	Params   map[string]any `json:"params"`
	Priority int            `json:"priority"`
}

// EnqueueJobResponse reports the outcome of an enqueue. Created is false
// when the same (job_type, url) was already queued.
type EnqueueJobResponse struct {
	JobID   int64 `json:"job_id"`
	Created bool  `json:"created"`
}

// ListJobsRequest holds the query parameters of GET /api/v1/jobs
type ListJobsRequest struct {
	Status   string `form:"status"`
	JobType  string `form:"job_type"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

// ListJobsResponse is a page of jobs plus the cursor for the next page
type ListJobsResponse struct {
	Jobs       []JobDTO `json:"jobs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

// JobDTO is the wire representation of one queued job
type JobDTO struct {
	ID          int64           `json:"id"`
	JobType     string          `json:"job_type"`
	URL         string          `json:"url"`
	Params      json.RawMessage `json:"params,omitempty"`
	Priority    int             `json:"priority"`
	Status      string          `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	ClaimedBy   *string         `json:"claimed_by,omitempty"`
	LastError   *string         `json:"last_error,omitempty"`
	CreatedAt   string          `json:"created_at"`
	ClaimedAt   string          `json:"claimed_at,omitempty"`
	CompletedAt string          `json:"completed_at,omitempty"`
}

// JobResultDTO is one entry of a job's result history
type JobResultDTO struct {
	Status      string          `json:"status"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       *string         `json:"error,omitempty"`
	CompletedAt string          `json:"completed_at"`
}

// GetJobResponse is one job with its full result history
type GetJobResponse struct {
	Job     JobDTO         `json:"job"`
	Results []JobResultDTO `json:"results"`
}

// StatsResponse combines queue depth with archived document counts
type StatsResponse struct {
	Queue   *queue.Stats    `json:"queue"`
	Archive *archive.Counts `json:"archive"`
}
