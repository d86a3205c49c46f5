package outbox

import (
	"context"
	"fmt"
	"time"

	"ecommerce/pkg/logger"

	"go.uber.org/zap"
)

// LoggingPublisher only logs records; used when no broker is configured.
type LoggingPublisher struct{}

func (p *LoggingPublisher) Publish(ctx context.Context, record Record) error {
	logger.Info("Outbox event published",
		zap.String("event_id", record.ID),
		zap.String("event_type", record.EventType),
		zap.String("aggregate_id", record.AggregateID),
		zap.String("payload", record.Payload),
	)
	return nil
}

// Metrics is the optional hook the worker reports to.
type Metrics interface {
	OutboxPublished(eventType string)
	OutboxFailed(eventType string)
}

type Worker struct {
	store        Store
	publisher    Publisher
	metrics      Metrics
	pollInterval time.Duration
	batchSize    int
	maxRetries   int
}

func NewWorker(
	store Store,
	publisher Publisher,
	pollInterval time.Duration,
	batchSize int,
	maxRetries int,
) (*Worker, error) {
	if store == nil {
		return nil, fmt.Errorf("outbox store is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher is required")
	}
	if pollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive")
	}
	if maxRetries <= 0 {
		return nil, fmt.Errorf("max retries must be positive")
	}

	return &Worker{
		store:        store,
		publisher:    publisher,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		maxRetries:   maxRetries,
	}, nil
}

// WithMetrics attaches a metrics sink.
func (w *Worker) WithMetrics(m Metrics) *Worker {
	w.metrics = m
	return w
}

func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ProcessBatch(ctx); err != nil {
				logger.Error("Outbox batch processing failed", zap.Error(err))
			}
		}
	}
}

// ProcessBatch publishes one batch and returns how many records were published.
func (w *Worker) ProcessBatch(ctx context.Context) (int, error) {
	records, err := w.store.GetPendingEvents(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, record := range records {
		if err := w.store.MarkEventProcessing(ctx, record.ID); err != nil {
			logger.Warn("Skip outbox event due to lock contention",
				zap.String("event_id", record.ID),
				zap.Error(err),
			)
			continue
		}

		if err := w.publisher.Publish(ctx, record); err != nil {
			logger.Warn("Outbox publish failed",
				zap.String("event_id", record.ID),
				zap.String("event_type", record.EventType),
				zap.Error(err),
			)
			if w.metrics != nil {
				w.metrics.OutboxFailed(record.EventType)
			}
			if failErr := w.store.MarkEventFailed(ctx, record.ID, w.maxRetries); failErr != nil {
				logger.Error("Failed to mark outbox event as failed",
					zap.String("event_id", record.ID),
					zap.Error(failErr),
				)
			}
			continue
		}

		if err := w.store.MarkEventPublished(ctx, record.ID); err != nil {
			logger.Error("Failed to mark outbox event as published",
				zap.String("event_id", record.ID),
				zap.Error(err),
			)
			continue
		}
		if w.metrics != nil {
			w.metrics.OutboxPublished(record.EventType)
		}
		published++
	}

	return published, nil
}
