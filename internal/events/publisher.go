// Package events publishes job lifecycle notifications for downstream
// consumers such as search indexers. Publishing is best effort: a failed
// publish is logged and never changes the outcome of the job itself.
package events

import (
	"context"
	"time"
)

// Event types double as routing keys on the event exchange.
const (
	TypeJobCompleted = "job.completed"
	TypeJobFailed    = "job.failed"
)

// Event describes one terminal job outcome
type Event struct {
	Type       string    `json:"type"`
	JobID      int64     `json:"job_id"`
	JobType    string    `json:"job_type"`
	URL        string    `json:"url"`
	WorkerID   string    `json:"worker_id"`
	Attempts   int       `json:"attempts"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher emits job lifecycle events
type Publisher interface {
	JobCompleted(ctx context.Context, event Event)
	JobFailed(ctx context.Context, event Event)
	Close() error
}

// NopPublisher discards all events. Used when the event feed is disabled.
type NopPublisher struct{}

func (NopPublisher) JobCompleted(context.Context, Event) {}
func (NopPublisher) JobFailed(context.Context, Event)    {}
func (NopPublisher) Close() error                        { return nil }
