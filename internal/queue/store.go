package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// DefaultPriority is used when a JobRequest leaves Priority at zero
const DefaultPriority = 5

// Two id column flavors; everything else is shared between drivers.
const schemaTemplate = `
CREATE TABLE IF NOT EXISTS jobs (
	id %s,
	job_type TEXT NOT NULL,
	url TEXT NOT NULL,
	params TEXT NOT NULL DEFAULT '{}',
	priority INTEGER NOT NULL DEFAULT 5,
	status TEXT NOT NULL DEFAULT 'pending',
	attempts INTEGER NOT NULL DEFAULT 0,
	max_attempts INTEGER NOT NULL DEFAULT 3,
	claimed_by TEXT,
	last_error TEXT,
	created_at TIMESTAMP NOT NULL,
	claimed_at TIMESTAMP,
	completed_at TIMESTAMP,
	UNIQUE (job_type, url)
);

CREATE TABLE IF NOT EXISTS job_results (
	id %s,
	job_id BIGINT NOT NULL REFERENCES jobs(id),
	status TEXT NOT NULL,
	result TEXT,
	error TEXT,
	completed_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_claim ON jobs (status, priority, created_at);
CREATE INDEX IF NOT EXISTS idx_jobs_type ON jobs (job_type);
CREATE INDEX IF NOT EXISTS idx_job_results_job ON job_results (job_id);
`

// Store owns JobRecord/JobResult persistence. It is the single writer of job
// status; workers and the API only go through its methods.
type Store struct {
	db          *sqlx.DB
	logger      *slog.Logger
	maxAttempts int
}

// NewStore creates a Store. maxAttempts is the retry ceiling stamped onto
// newly enqueued jobs; zero means DefaultMaxAttempts.
func NewStore(db *sqlx.DB, maxAttempts int, logger *slog.Logger) *Store {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Store{
		db:          db,
		logger:      logger,
		maxAttempts: maxAttempts,
	}
}

// Init creates the queue tables and indexes if they do not exist
func (s *Store) Init(ctx context.Context) error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.db.DriverName() == "postgres" {
		idColumn = "BIGSERIAL PRIMARY KEY"
	}

	schema := fmt.Sprintf(schemaTemplate, idColumn, idColumn)
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize queue schema: %w", err)
	}

	return nil
}

// Enqueue inserts a new pending job unless one with the same (job_type, url)
// already exists, in which case it reports the existing id and created=false.
// Re-enqueueing is how discovery fan-out stays idempotent across restarts.
func (s *Store) Enqueue(ctx context.Context, req JobRequest) (int64, bool, error) {
	if req.JobType == "" {
		return 0, false, fmt.Errorf("job type is required")
	}
	if req.URL == "" {
		return 0, false, fmt.Errorf("job url is required")
	}

	params := []byte("{}")
	if req.Params != nil {
		var err error
		params, err = json.Marshal(req.Params)
		if err != nil {
			return 0, false, fmt.Errorf("failed to marshal job params: %w", err)
		}
	}

	priority := req.Priority
	if priority == 0 {
		priority = DefaultPriority
	}

	insert := s.db.Rebind(`
		INSERT INTO jobs (job_type, url, params, priority, status, attempts, max_attempts, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT (job_type, url) DO NOTHING
	`)

	res, err := s.db.ExecContext(ctx, insert,
		req.JobType, req.URL, string(params), priority, StatusPending, s.maxAttempts, time.Now().UTC())
	if err != nil {
		return 0, false, fmt.Errorf("failed to enqueue job: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("failed to read enqueue result: %w", err)
	}

	var id int64
	sel := s.db.Rebind(`SELECT id FROM jobs WHERE job_type = ? AND url = ?`)
	if err := s.db.GetContext(ctx, &id, sel, req.JobType, req.URL); err != nil {
		return 0, false, fmt.Errorf("failed to resolve enqueued job id: %w", err)
	}

	created := affected == 1
	if created {
		s.logger.Debug("Job enqueued",
			slog.Int64("job_id", id),
			slog.String("job_type", req.JobType),
			slog.String("url", req.URL),
			slog.Int("priority", priority),
		)
	}

	return id, created, nil
}

// ClaimNext atomically claims the next pending job for workerID: lowest
// priority first, oldest first within a priority, id as the final tie-break.
// The transition to processing is a conditional update that only succeeds if
// the row is still pending; a worker that loses the race simply re-selects.
// Returns ErrNoPendingJobs when the queue has nothing claimable.
func (s *Store) ClaimNext(ctx context.Context, workerID string) (*Job, error) {
	selectNext := s.db.Rebind(`
		SELECT id FROM jobs
		WHERE status = ?
		ORDER BY priority ASC, created_at ASC, id ASC
		LIMIT 1
	`)
	claim := s.db.Rebind(`
		UPDATE jobs
		SET status = ?, claimed_by = ?, claimed_at = ?, attempts = attempts + 1
		WHERE id = ? AND status = ?
	`)

	for {
		var id int64
		err := s.db.GetContext(ctx, &id, selectNext, StatusPending)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoPendingJobs
		}
		if err != nil {
			return nil, fmt.Errorf("failed to select next job: %w", err)
		}

		res, err := s.db.ExecContext(ctx, claim,
			StatusProcessing, workerID, time.Now().UTC(), id, StatusPending)
		if err != nil {
			return nil, fmt.Errorf("failed to claim job %d: %w", id, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to read claim result: %w", err)
		}
		if affected == 0 {
			// Another worker won the row between select and update.
			continue
		}

		job, err := s.GetJob(ctx, id)
		if err != nil {
			return nil, err
		}

		s.logger.Debug("Job claimed",
			slog.Int64("job_id", job.ID),
			slog.String("job_type", job.JobType),
			slog.String("worker_id", workerID),
			slog.Int("attempt", job.Attempts),
		)

		return job, nil
	}
}

// Complete transitions a processing job to completed and writes its success
// JobResult in the same transaction. claimed_by is kept for the audit trail.
func (s *Store) Complete(ctx context.Context, id int64, result map[string]any) error {
	var resultJSON []byte
	if result != nil {
		var err error
		resultJSON, err = json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal job result: %w", err)
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE jobs
		SET status = ?, completed_at = ?, last_error = NULL
		WHERE id = ? AND status = ?
	`), StatusCompleted, now, id, StatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to complete job %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read complete result: %w", err)
	}
	if affected == 0 {
		return s.transitionError(ctx, tx, id, StatusCompleted)
	}

	if err := s.insertResult(ctx, tx, id, ResultSuccess, resultJSON, nil, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit completion of job %d: %w", id, err)
	}

	s.logger.Debug("Job completed", slog.Int64("job_id", id))
	return nil
}

// Fail records a failed attempt on a processing job. Below the attempts
// ceiling the job returns to pending (same priority, error kept on the row
// for diagnostics); at the ceiling it becomes terminally failed and its
// error JobResult is written. This method is the entire retry policy: no
// backoff beyond the rate limiter's natural pacing.
func (s *Store) Fail(ctx context.Context, id int64, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var row struct {
		Status      Status `db:"status"`
		Attempts    int    `db:"attempts"`
		MaxAttempts int    `db:"max_attempts"`
	}
	err = tx.GetContext(ctx, &row, tx.Rebind(`
		SELECT status, attempts, max_attempts FROM jobs WHERE id = ?
	`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("job %d: %w", id, ErrJobNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load job %d: %w", id, err)
	}
	if row.Status != StatusProcessing {
		return fmt.Errorf("job %d is %s, cannot fail: %w", id, row.Status, ErrInvalidTransition)
	}

	now := time.Now().UTC()

	if row.Attempts < row.MaxAttempts {
		res, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE jobs
			SET status = ?, claimed_by = NULL, claimed_at = NULL, last_error = ?
			WHERE id = ? AND status = ?
		`), StatusPending, msg, id, StatusProcessing)
		if err != nil {
			return fmt.Errorf("failed to requeue job %d: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("job %d changed status mid-fail: %w", id, ErrInvalidTransition)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit requeue of job %d: %w", id, err)
		}

		s.logger.Debug("Job requeued after failed attempt",
			slog.Int64("job_id", id),
			slog.Int("attempts", row.Attempts),
			slog.Int("max_attempts", row.MaxAttempts),
			slog.String("error", msg),
		)
		return nil
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE jobs
		SET status = ?, completed_at = ?, last_error = ?
		WHERE id = ? AND status = ?
	`), StatusFailed, now, msg, id, StatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to mark job %d failed: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("job %d changed status mid-fail: %w", id, ErrInvalidTransition)
	}

	if err := s.insertResult(ctx, tx, id, ResultError, nil, &msg, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit failure of job %d: %w", id, err)
	}

	s.logger.Warn("Job failed permanently",
		slog.Int64("job_id", id),
		slog.Int("attempts", row.Attempts),
		slog.String("error", msg),
	)
	return nil
}

// ResetStuck reclaims processing jobs abandoned by crashed workers: every
// processing job claimed before olderThan returns to pending with attempts
// untouched, except jobs already at their attempts ceiling, which become
// terminally failed so that a crash-looping job still converges instead of
// cycling forever. Returns (requeued, failed) counts.
func (s *Store) ResetStuck(ctx context.Context, olderThan time.Time) (int64, int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	var exhausted []struct {
		ID       int64 `db:"id"`
		Attempts int   `db:"attempts"`
	}
	err = tx.SelectContext(ctx, &exhausted, tx.Rebind(`
		SELECT id, attempts FROM jobs
		WHERE status = ? AND claimed_at < ? AND attempts >= max_attempts
	`), StatusProcessing, olderThan.UTC())
	if err != nil {
		return 0, 0, fmt.Errorf("failed to select exhausted stuck jobs: %w", err)
	}

	for _, job := range exhausted {
		msg := fmt.Sprintf("abandoned while processing after %d attempts", job.Attempts)

		_, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE jobs
			SET status = ?, completed_at = ?, last_error = ?
			WHERE id = ? AND status = ?
		`), StatusFailed, now, msg, job.ID, StatusProcessing)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to fail stuck job %d: %w", job.ID, err)
		}

		if err := s.insertResult(ctx, tx, job.ID, ResultError, nil, &msg, now); err != nil {
			return 0, 0, err
		}
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE jobs
		SET status = ?, claimed_by = NULL, claimed_at = NULL
		WHERE status = ? AND claimed_at < ?
	`), StatusPending, StatusProcessing, olderThan.UTC())
	if err != nil {
		return 0, 0, fmt.Errorf("failed to reset stuck jobs: %w", err)
	}

	requeued, err := res.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read reset result: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit stuck-job reset: %w", err)
	}

	if requeued > 0 || len(exhausted) > 0 {
		s.logger.Info("Reset stuck jobs",
			slog.Int64("requeued", requeued),
			slog.Int("failed", len(exhausted)),
			slog.Time("older_than", olderThan),
		)
	}

	return requeued, int64(len(exhausted)), nil
}

// Stats returns job counts grouped by status and by job type
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByStatus: map[Status]int{
			StatusPending:    0,
			StatusProcessing: 0,
			StatusCompleted:  0,
			StatusFailed:     0,
		},
		ByType: map[string]int{},
	}

	var byStatus []struct {
		Status Status `db:"status"`
		Count  int    `db:"count"`
	}
	err := s.db.SelectContext(ctx, &byStatus,
		`SELECT status, COUNT(*) AS count FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate jobs by status: %w", err)
	}
	for _, row := range byStatus {
		stats.ByStatus[row.Status] = row.Count
	}

	var byType []struct {
		JobType string `db:"job_type"`
		Count   int    `db:"count"`
	}
	err = s.db.SelectContext(ctx, &byType,
		`SELECT job_type, COUNT(*) AS count FROM jobs GROUP BY job_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate jobs by type: %w", err)
	}
	for _, row := range byType {
		stats.ByType[row.JobType] = row.Count
	}

	return stats, nil
}

// GetJob retrieves a single job by id
func (s *Store) GetJob(ctx context.Context, id int64) (*Job, error) {
	var job Job
	err := s.db.GetContext(ctx, &job, s.db.Rebind(`
		SELECT id, job_type, url, params, priority, status, attempts, max_attempts,
		       claimed_by, last_error, created_at, claimed_at, completed_at
		FROM jobs WHERE id = ?
	`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %d: %w", id, ErrJobNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job %d: %w", id, err)
	}

	return &job, nil
}

// GetResults returns the append-only result history for a job, oldest first
func (s *Store) GetResults(ctx context.Context, jobID int64) ([]JobResult, error) {
	var results []JobResult
	err := s.db.SelectContext(ctx, &results, s.db.Rebind(`
		SELECT id, job_id, status, COALESCE(result, '') AS result, error, completed_at
		FROM job_results
		WHERE job_id = ?
		ORDER BY id ASC
	`), jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get results for job %d: %w", jobID, err)
	}

	return results, nil
}

// ListFilter narrows and paginates ListJobs. BeforeCreatedAt/BeforeID carry
// the keyset cursor: only rows strictly older than that position are
// returned, newest first.
type ListFilter struct {
	Status          Status
	JobType         string
	BeforeCreatedAt *time.Time
	BeforeID        int64
	Limit           int
}

// ListJobs returns jobs matching the filter, newest first
func (s *Store) ListJobs(ctx context.Context, filter ListFilter) ([]Job, error) {
	query := `
		SELECT id, job_type, url, params, priority, status, attempts, max_attempts,
		       claimed_by, last_error, created_at, claimed_at, completed_at
		FROM jobs
		WHERE 1=1
	`
	args := []any{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.JobType != "" {
		query += " AND job_type = ?"
		args = append(args, filter.JobType)
	}
	if filter.BeforeCreatedAt != nil {
		query += " AND (created_at < ? OR (created_at = ? AND id < ?))"
		ts := filter.BeforeCreatedAt.UTC()
		args = append(args, ts, ts, filter.BeforeID)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	var jobs []Job
	if err := s.db.SelectContext(ctx, &jobs, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}

// transitionError builds the error for a conditional update that matched no
// row: distinguishes a missing job from one in the wrong status.
func (s *Store) transitionError(ctx context.Context, tx *sqlx.Tx, id int64, target Status) error {
	var current Status
	err := tx.GetContext(ctx, &current, tx.Rebind(`SELECT status FROM jobs WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("job %d: %w", id, ErrJobNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load job %d status: %w", id, err)
	}

	return fmt.Errorf("job %d is %s, cannot transition to %s: %w", id, current, target, ErrInvalidTransition)
}

func (s *Store) insertResult(ctx context.Context, tx *sqlx.Tx, jobID int64, status string, result []byte, errMsg *string, completedAt time.Time) error {
	var resultValue any
	if result != nil {
		resultValue = string(result)
	}

	_, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO job_results (job_id, status, result, error, completed_at)
		VALUES (?, ?, ?, ?, ?)
	`), jobID, status, resultValue, errMsg, completedAt)
	if err != nil {
		return fmt.Errorf("failed to record result for job %d: %w", jobID, err)
	}

	return nil
}
