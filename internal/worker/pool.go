package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lawvault/lawvault/internal/events"
	"github.com/lawvault/lawvault/internal/metrics"
	"github.com/lawvault/lawvault/internal/queue"
	"github.com/lawvault/lawvault/internal/ratelimit"
)

// Store is everything the pool needs from the job queue
type Store interface {
	Queue
	Stats(ctx context.Context) (*queue.Stats, error)
	ResetStuck(ctx context.Context, olderThan time.Time) (int64, int64, error)
}

// Config holds worker pool configuration
type Config struct {
	// Workers is the number of concurrent claim loops.
	Workers int
	// EmptyPollInterval is how long a worker sleeps after finding the
	// queue empty.
	EmptyPollInterval time.Duration
	// StatsInterval is how often queue stats are logged and exported.
	StatsInterval time.Duration
	// StuckAfter is the claim age beyond which a processing job is
	// considered abandoned and reset.
	StuckAfter time.Duration
	// ReapInterval is how often the stuck-job sweep runs.
	ReapInterval time.Duration
	// ShutdownTimeout bounds how long Stop waits for in-flight jobs.
	ShutdownTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.EmptyPollInterval <= 0 {
		c.EmptyPollInterval = 5 * time.Second
	}
	if c.StatsInterval <= 0 {
		c.StatsInterval = 60 * time.Second
	}
	if c.StuckAfter <= 0 {
		c.StuckAfter = 30 * time.Minute
	}
	if c.ReapInterval <= 0 {
		c.ReapInterval = 5 * time.Minute
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
	return c
}

// Pool supervises a fixed set of workers plus the stats reporter and the
// stuck-job reaper.
type Pool struct {
	cfg       Config
	store     Store
	registry  Registry
	limiter   *ratelimit.Limiter
	publisher events.Publisher
	logger    *slog.Logger

	// instanceID namespaces worker ids so claims from concurrent pool
	// processes stay distinguishable.
	instanceID string
	workers    []*Worker
	stopChan   chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

// NewPool creates a pool; Start spawns the goroutines
func NewPool(
	cfg Config,
	store Store,
	registry Registry,
	limiter *ratelimit.Limiter,
	publisher events.Publisher,
	logger *slog.Logger,
) *Pool {
	return &Pool{
		cfg:        cfg.withDefaults(),
		store:      store,
		registry:   registry,
		limiter:    limiter,
		publisher:  publisher,
		logger:     logger,
		instanceID: uuid.NewString()[:8],
		stopChan:   make(chan struct{}),
	}
}

// Start sweeps claims abandoned by a previous run, then spawns the worker
// goroutines and the maintenance loops.
func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("Starting worker pool",
		slog.Int("workers", p.cfg.Workers),
		slog.String("instance_id", p.instanceID),
		slog.Duration("rate_limit_interval", p.limiter.Interval()),
	)

	if _, _, err := p.store.ResetStuck(ctx, time.Now().UTC().Add(-p.cfg.StuckAfter)); err != nil {
		p.logger.Warn("Startup stuck-job sweep failed",
			slog.String("error", err.Error()),
		)
	}

	p.workers = make([]*Worker, 0, p.cfg.Workers)
	for i := 0; i < p.cfg.Workers; i++ {
		workerID := fmt.Sprintf("worker-%s-%d", p.instanceID, i)
		worker := newWorker(
			workerID,
			p.store,
			p.registry,
			p.limiter,
			p.publisher,
			p.cfg.EmptyPollInterval,
			p.stopChan,
			p.logger,
		)
		p.workers = append(p.workers, worker)

		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			worker.run(ctx)
		}()
	}

	p.wg.Add(1)
	go p.statsLoop(ctx)

	p.wg.Add(1)
	go p.reapLoop(ctx)
}

// Stop signals every worker and waits up to ShutdownTimeout for in-flight
// jobs to finish. Jobs still running after the timeout keep their claims
// and are recovered by the stuck-job sweep of a later run.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopChan)
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("Worker pool stopped",
			slog.Int64("jobs_processed", p.JobsProcessed()),
		)
	case <-time.After(p.cfg.ShutdownTimeout):
		p.logger.Warn("Worker pool stop timed out with jobs in flight",
			slog.Duration("timeout", p.cfg.ShutdownTimeout),
		)
	}
}

// JobsProcessed returns the total completed jobs across all workers
func (p *Pool) JobsProcessed() int64 {
	var total int64
	for _, worker := range p.workers {
		total += worker.JobsProcessed()
	}
	return total
}

// WaitForIdle blocks until the queue holds no pending or processing jobs,
// polling at the given interval. One-shot crawls use it to exit once the
// discovery tree is fully drained.
func (p *Pool) WaitForIdle(ctx context.Context, pollInterval time.Duration) error {
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		stats, err := p.store.Stats(ctx)
		if err != nil {
			p.logger.Warn("Failed to read queue stats",
				slog.String("error", err.Error()),
			)
		} else if stats.Idle() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopChan:
			return errors.New("pool stopped before queue drained")
		case <-ticker.C:
		}
	}
}

func (p *Pool) statsLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.reportStats(ctx)
		}
	}
}

func (p *Pool) reportStats(ctx context.Context) {
	stats, err := p.store.Stats(ctx)
	if err != nil {
		p.logger.Warn("Failed to read queue stats",
			slog.String("error", err.Error()),
		)
		return
	}

	for status, count := range stats.ByStatus {
		metrics.SetQueueDepth(string(status), count)
	}

	p.logger.Info("Queue stats",
		slog.Int("pending", stats.ByStatus[queue.StatusPending]),
		slog.Int("processing", stats.ByStatus[queue.StatusProcessing]),
		slog.Int("completed", stats.ByStatus[queue.StatusCompleted]),
		slog.Int("failed", stats.ByStatus[queue.StatusFailed]),
		slog.Int64("jobs_processed", p.JobsProcessed()),
	)
}

func (p *Pool) reapLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-p.cfg.StuckAfter)
			if _, _, err := p.store.ResetStuck(ctx, cutoff); err != nil {
				p.logger.Warn("Stuck-job sweep failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
