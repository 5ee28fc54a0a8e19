// Package handler implements the HTTP handlers of the read API. The API is
// observational plus manual enqueue: all scheduling decisions stay in the
// worker pool.
package handler

import (
	"context"
	"log/slog"

	"github.com/lawvault/lawvault/internal/archive"
	"github.com/lawvault/lawvault/internal/queue"
)

// Queue is the slice of the job store the API exposes
type Queue interface {
	Enqueue(ctx context.Context, req queue.JobRequest) (int64, bool, error)
	GetJob(ctx context.Context, id int64) (*queue.Job, error)
	GetResults(ctx context.Context, jobID int64) ([]queue.JobResult, error)
	ListJobs(ctx context.Context, filter queue.ListFilter) ([]queue.Job, error)
	Stats(ctx context.Context) (*queue.Stats, error)
}

// Archive provides document counts for the stats endpoint
type Archive interface {
	Counts(ctx context.Context) (*archive.Counts, error)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger  *slog.Logger
	Queue   Queue
	Archive Archive
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger *slog.Logger
	queue  Queue
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger: deps.Logger,
		queue:  deps.Queue,
	}
}

// StatsHandler handles the aggregate stats endpoint
type StatsHandler struct {
	logger  *slog.Logger
	queue   Queue
	archive Archive
}

// NewStatsHandler creates a new StatsHandler instance
func NewStatsHandler(deps *Dependencies) *StatsHandler {
	return &StatsHandler{
		logger:  deps.Logger,
		queue:   deps.Queue,
		archive: deps.Archive,
	}
}
