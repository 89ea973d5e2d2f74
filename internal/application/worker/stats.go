package worker

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"dating-api/internal/infrastructure/telemetry"
)

// DefaultStatsInterval is used when no positive interval is configured
const DefaultStatsInterval = 15 * time.Second

// StatsFunc reports connection pool figures by stat name
type StatsFunc func() map[string]int64

// StatsReporter periodically samples the connection pools of the backing
// clients and records them as a gauge
type StatsReporter struct {
	tracer   trace.Tracer
	gauge    metric.Int64Gauge
	interval time.Duration

	mu      sync.Mutex
	sources map[string]StatsFunc
}

// NewStatsReporter creates a reporter sampling every interval
func NewStatsReporter(tel *telemetry.Telemetry, interval time.Duration) (*StatsReporter, error) {
	gauge, err := tel.Meter.Int64Gauge("dating_pool_connections",
		metric.WithDescription("Connection pool figures of the store and cache clients"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create pool gauge: %w", err)
	}
	if interval <= 0 {
		interval = DefaultStatsInterval
	}
	return &StatsReporter{
		tracer:   tel.Tracer,
		gauge:    gauge,
		interval: interval,
		sources:  make(map[string]StatsFunc),
	}, nil
}

// Register adds a pool to sample under name
func (r *StatsReporter) Register(name string, fn StatsFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[name] = fn
}

// Run samples on every tick until ctx is cancelled
func (r *StatsReporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.report(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

func (r *StatsReporter) report(ctx context.Context) {
	ctx, span := r.tracer.Start(ctx, "StatsReporter.report")
	defer span.End()

	r.mu.Lock()
	sources := maps.Clone(r.sources)
	r.mu.Unlock()

	for _, pool := range slices.Sorted(maps.Keys(sources)) {
		stats := sources[pool]()
		for stat, value := range stats {
			r.gauge.Record(ctx, value, metric.WithAttributes(
				attribute.String("pool", pool),
				attribute.String("stat", stat),
			))
		}
		if telemetry.GetLogVerbosity() >= 2 {
			attrs := []attribute.KeyValue{attribute.String("pool", pool)}
			for _, stat := range slices.Sorted(maps.Keys(stats)) {
				attrs = append(attrs, attribute.Int64("pool."+stat, stats[stat]))
			}
			telemetry.Log(ctx, telemetry.LevelInfo, "Connection pool stats", nil, attrs...)
		}
	}
	span.SetAttributes(attribute.Int("pools", len(sources)))
}
