package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/lawvault/lawvault/shared/rabbitmq"
)

// wire is the slice of the RabbitMQ client the publisher needs
type wire interface {
	PublishWithRetry(ctx context.Context, routingKey string, body []byte, contentType string) error
	Close() error
}

// RabbitPublisher emits events to the archive exchange, routed by event type
type RabbitPublisher struct {
	wire   wire
	logger *slog.Logger
}

// NewRabbitPublisher wraps a connected RabbitMQ client
func NewRabbitPublisher(client *rabbitmq.Client, logger *slog.Logger) *RabbitPublisher {
	return &RabbitPublisher{
		wire:   client,
		logger: logger,
	}
}

// JobCompleted publishes a job.completed event
func (p *RabbitPublisher) JobCompleted(ctx context.Context, event Event) {
	p.publish(ctx, TypeJobCompleted, event)
}

// JobFailed publishes a job.failed event
func (p *RabbitPublisher) JobFailed(ctx context.Context, event Event) {
	p.publish(ctx, TypeJobFailed, event)
}

// Close closes the underlying connection
func (p *RabbitPublisher) Close() error {
	return p.wire.Close()
}

func (p *RabbitPublisher) publish(ctx context.Context, eventType string, event Event) {
	event.Type = eventType
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal job event",
			slog.String("type", eventType),
			slog.Int64("job_id", event.JobID),
			slog.Any("error", err),
		)
		return
	}

	if err := p.wire.PublishWithRetry(ctx, eventType, body, "application/json"); err != nil {
		p.logger.Warn("Failed to publish job event",
			slog.String("type", eventType),
			slog.Int64("job_id", event.JobID),
			slog.Any("error", err),
		)
	}
}
