// Package worker runs the claim-and-process loops that drain the job
// queue. Each worker claims one job at a time, paces itself against the
// shared rate limiter, dispatches to the registered handler and records
// the outcome. A Pool supervises the workers plus the periodic stats and
// stuck-job sweeps.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lawvault/lawvault/internal/events"
	"github.com/lawvault/lawvault/internal/handlers"
	"github.com/lawvault/lawvault/internal/metrics"
	"github.com/lawvault/lawvault/internal/queue"
	"github.com/lawvault/lawvault/internal/ratelimit"
)

// Queue is the slice of the job store that workers drive
type Queue interface {
	Enqueue(ctx context.Context, req queue.JobRequest) (int64, bool, error)
	ClaimNext(ctx context.Context, workerID string) (*queue.Job, error)
	Complete(ctx context.Context, jobID int64, result map[string]any) error
	Fail(ctx context.Context, jobID int64, cause error) error
}

// Registry resolves the handler for a claimed job
type Registry interface {
	Get(jobType string) (handlers.Handler, bool)
}

// Worker claims and processes jobs until stopped
type Worker struct {
	id           string
	store        Queue
	registry     Registry
	limiter      *ratelimit.Limiter
	publisher    events.Publisher
	logger       *slog.Logger
	pollInterval time.Duration
	stopChan     <-chan struct{}
	processed    atomic.Int64
}

func newWorker(
	id string,
	store Queue,
	registry Registry,
	limiter *ratelimit.Limiter,
	publisher events.Publisher,
	pollInterval time.Duration,
	stopChan <-chan struct{},
	logger *slog.Logger,
) *Worker {
	return &Worker{
		id:           id,
		store:        store,
		registry:     registry,
		limiter:      limiter,
		publisher:    publisher,
		logger:       logger,
		pollInterval: pollInterval,
		stopChan:     stopChan,
	}
}

// JobsProcessed returns how many jobs this worker has completed
func (w *Worker) JobsProcessed() int64 {
	return w.processed.Load()
}

// run is the claim loop. The stop channel is consulted only between jobs,
// so an in-flight job always finishes before the worker exits.
func (w *Worker) run(ctx context.Context) {
	w.logger.Info("Worker started", slog.String("worker_id", w.id))

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("Worker stopping",
				slog.String("worker_id", w.id),
				slog.Int64("jobs_processed", w.processed.Load()),
			)
			return
		case <-ctx.Done():
			w.logger.Info("Worker stopping - context canceled",
				slog.String("worker_id", w.id),
			)
			return
		default:
		}

		job, err := w.store.ClaimNext(ctx, w.id)
		if err != nil {
			if !errors.Is(err, queue.ErrNoPendingJobs) && ctx.Err() == nil {
				w.logger.Error("Failed to claim job",
					slog.String("worker_id", w.id),
					slog.String("error", err.Error()),
				)
			}
			w.idle(ctx)
			continue
		}

		w.process(ctx, job)
	}
}

// idle sleeps out the empty-queue backoff, waking early on stop
func (w *Worker) idle(ctx context.Context) {
	timer := time.NewTimer(w.pollInterval)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-w.stopChan:
	case <-ctx.Done():
	}
}

func (w *Worker) process(ctx context.Context, job *queue.Job) {
	logger := w.logger.With(
		slog.Int64("job_id", job.ID),
		slog.String("job_type", job.JobType),
		slog.String("worker_id", w.id),
	)
	logger.Info("Processing job",
		slog.String("url", job.URL),
		slog.Int("attempt", job.Attempts),
	)

	handler, ok := w.registry.Get(job.JobType)
	if !ok {
		w.fail(ctx, logger, job, fmt.Errorf("no handler registered for job type %q", job.JobType))
		return
	}

	// Every job takes one token, so discovery and scraping alike respect
	// the source's pacing.
	waitStart := time.Now()
	if err := w.limiter.Wait(ctx); err != nil {
		w.fail(ctx, logger, job, fmt.Errorf("rate limit wait interrupted: %w", err))
		return
	}
	metrics.ObserveRateLimitWait(time.Since(waitStart))

	metrics.IncActiveWorkers()
	started := time.Now()
	result, err := w.dispatch(ctx, handler, job)
	duration := time.Since(started)
	metrics.DecActiveWorkers()

	if err == nil {
		err = w.finish(ctx, logger, job, result)
	}
	if err != nil {
		metrics.ObserveJob(job.JobType, "failed", duration)
		w.fail(ctx, logger, job, err)
		return
	}

	metrics.ObserveJob(job.JobType, "completed", duration)
	logger.Info("Job completed", slog.Duration("duration", duration))
}

// dispatch invokes the handler, converting a panic into an error so one
// bad page cannot take down the worker.
func (w *Worker) dispatch(ctx context.Context, handler handlers.Handler, job *queue.Job) (result *handlers.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()

	return handler.Handle(ctx, job)
}

// finish enqueues any child jobs and marks the parent completed, in that
// order. A crash in between re-runs the parent, and the idempotent enqueue
// absorbs the duplicate children.
func (w *Worker) finish(ctx context.Context, logger *slog.Logger, job *queue.Job, result *handlers.Result) error {
	summary := map[string]any{}
	var children []queue.JobRequest
	if result != nil {
		for key, value := range result.Summary {
			summary[key] = value
		}
		children = result.Children
	}

	if len(children) > 0 {
		created := 0
		for _, child := range children {
			_, isNew, err := w.store.Enqueue(ctx, child)
			if err != nil {
				return fmt.Errorf("failed to enqueue child job: %w", err)
			}
			if isNew {
				created++
			}
		}
		summary["jobs_created"] = created

		logger.Info("Enqueued child jobs",
			slog.Int("children", len(children)),
			slog.Int("created", created),
		)
	}

	if err := w.store.Complete(ctx, job.ID, summary); err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}

	w.processed.Add(1)
	w.publisher.JobCompleted(ctx, events.Event{
		JobID:    job.ID,
		JobType:  job.JobType,
		URL:      job.URL,
		WorkerID: w.id,
		Attempts: job.Attempts,
	})

	return nil
}

func (w *Worker) fail(ctx context.Context, logger *slog.Logger, job *queue.Job, cause error) {
	logger.Warn("Job failed",
		slog.Int("attempt", job.Attempts),
		slog.Int("max_attempts", job.MaxAttempts),
		slog.String("error", cause.Error()),
	)

	if err := w.store.Fail(ctx, job.ID, cause); err != nil {
		logger.Error("Failed to record job failure",
			slog.String("error", err.Error()),
		)
		return
	}

	// ClaimNext already counted this attempt, so the job is terminal when
	// the attempt that just failed was the last one.
	if job.Attempts >= job.MaxAttempts {
		w.publisher.JobFailed(ctx, events.Event{
			JobID:    job.ID,
			JobType:  job.JobType,
			URL:      job.URL,
			WorkerID: w.id,
			Attempts: job.Attempts,
			Error:    cause.Error(),
		})
	}
}
