package worker

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"dating-api/internal/domain/entity"
	"dating-api/internal/domain/event"
	"dating-api/internal/infrastructure/telemetry"
)

// Invalidator drops cached like edges
type Invalidator interface {
	Invalidate(ctx context.Context, ids ...entity.UserID) error
}

// EventSource delivers events to a handler until ctx is done
type EventSource interface {
	ConsumeEvents(ctx context.Context, handler event.Handler) error
}

// CacheInvalidator drops the cached edges of every subject of an event that
// changes relationships
type CacheInvalidator struct {
	cache Invalidator
}

var _ event.Handler = (*CacheInvalidator)(nil)

func NewCacheInvalidator(cache Invalidator) *CacheInvalidator {
	return &CacheInvalidator{cache: cache}
}

// Handle implements event.Handler
func (h *CacheInvalidator) Handle(ctx context.Context, e event.Event) error {
	if !e.TouchesRelationships() {
		return nil
	}
	if err := h.cache.Invalidate(ctx, e.Subjects...); err != nil {
		return err
	}

	ids := make([]int64, 0, len(e.Subjects))
	for _, id := range e.Subjects {
		ids = append(ids, int64(id))
	}
	telemetry.Log(ctx, telemetry.LevelInfo, "Invalidated cached likes", nil,
		attribute.String("event.type", string(e.Type)),
		attribute.Int64Slice("user.ids", ids),
	)
	return nil
}

// KafkaWorker feeds consumed events to a handler
type KafkaWorker struct {
	source  EventSource
	handler event.Handler
}

// NewKafkaWorker creates a new Kafka worker instance
func NewKafkaWorker(source EventSource, handler event.Handler) *KafkaWorker {
	return &KafkaWorker{
		source:  source,
		handler: handler,
	}
}

// Run consumes until ctx is cancelled
func (w *KafkaWorker) Run(ctx context.Context) error {
	telemetry.Log(ctx, telemetry.LevelInfo, "Starting event worker", nil)
	if err := w.source.ConsumeEvents(ctx, w.handler); err != nil {
		telemetry.Log(ctx, telemetry.LevelError, "Kafka consumer error", err)
		return err
	}
	return nil
}
