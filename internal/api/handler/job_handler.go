package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lawvault/lawvault/internal/api/dto"
	"github.com/lawvault/lawvault/internal/queue"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// EnqueueJob handles POST /api/v1/jobs. Enqueueing is idempotent on
// (job_type, url); a duplicate returns the existing job with created=false.
func (h *JobHandler) EnqueueJob(c *gin.Context) {
	var req dto.EnqueueJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// A nil map must reach the store as an untyped nil so it falls back
	// to the empty params object.
	var params any
	if len(req.Params) > 0 {
		params = req.Params
	}

	jobID, created, err := h.queue.Enqueue(c.Request.Context(), queue.JobRequest{
		JobType:  req.JobType,
		URL:      req.URL,
		Params:   params,
		Priority: req.Priority,
	})
	if err != nil {
		h.logger.Error("Failed to enqueue job",
			slog.String("job_type", req.JobType),
			slog.String("url", req.URL),
			slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue job"})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.EnqueueJobResponse{
		JobID:   jobID,
		Created: created,
	})
}

// GetJob handles GET /api/v1/jobs/:id and returns the job together with its
// result history.
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job id"})
		return
	}

	job, err := h.queue.GetJob(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, queue.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		h.logger.Error("Failed to get job",
			slog.Int64("job_id", jobID),
			slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get job"})
		return
	}

	results, err := h.queue.GetResults(c.Request.Context(), jobID)
	if err != nil {
		h.logger.Error("Failed to get job results",
			slog.Int64("job_id", jobID),
			slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get job results"})
		return
	}

	resp := dto.GetJobResponse{
		Job:     toJobDTO(job),
		Results: make([]dto.JobResultDTO, 0, len(results)),
	}
	for i := range results {
		resp.Results = append(resp.Results, toJobResultDTO(&results[i]))
	}

	c.JSON(http.StatusOK, resp)
}

// ListJobs handles GET /api/v1/jobs with optional status and job_type filters
// and cursor-based pagination, newest first.
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	status := queue.Status(req.Status)
	switch status {
	case "", queue.StatusPending, queue.StatusProcessing, queue.StatusCompleted, queue.StatusFailed:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cursor"})
		return
	}

	filter := queue.ListFilter{
		Status:  status,
		JobType: req.JobType,
		Limit:   req.PageSize + 1,
	}
	if cursor != nil {
		filter.BeforeCreatedAt = &cursor.CreatedAt
		filter.BeforeID = cursor.ID
	}

	jobs, err := h.queue.ListJobs(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list jobs"})
		return
	}

	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	resp := dto.ListJobsResponse{
		Jobs: make([]dto.JobDTO, 0, len(jobs)),
	}
	for i := range jobs {
		resp.Jobs = append(resp.Jobs, toJobDTO(&jobs[i]))
	}
	if hasMore {
		last := jobs[len(jobs)-1]
		resp.NextCursor = EncodeJobCursor(&JobCursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	c.JSON(http.StatusOK, resp)
}

func toJobDTO(job *queue.Job) dto.JobDTO {
	d := dto.JobDTO{
		ID:          job.ID,
		JobType:     job.JobType,
		URL:         job.URL,
		Params:      job.Params,
		Priority:    job.Priority,
		Status:      string(job.Status),
		Attempts:    job.Attempts,
		MaxAttempts: job.MaxAttempts,
		ClaimedBy:   job.ClaimedBy,
		LastError:   job.LastError,
		CreatedAt:   job.CreatedAt.Format(time.RFC3339),
	}
	if job.ClaimedAt != nil {
		d.ClaimedAt = job.ClaimedAt.Format(time.RFC3339)
	}
	if job.CompletedAt != nil {
		d.CompletedAt = job.CompletedAt.Format(time.RFC3339)
	}
	return d
}

func toJobResultDTO(res *queue.JobResult) dto.JobResultDTO {
	return dto.JobResultDTO{
		Status:      res.Status,
		Result:      res.Result,
		Error:       res.Error,
		CompletedAt: res.CompletedAt.Format(time.RFC3339),
	}
}
