package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"dating-api/internal/domain/event"
	"dating-api/internal/infrastructure/config"
	"dating-api/internal/infrastructure/telemetry"
)

// Producer publishes domain events to the configured topic
type Producer struct {
	*kgo.Client
	topic  string
	tracer trace.Tracer
}

var _ event.Publisher = (*Producer)(nil)

// Consumer reads domain events as part of a consumer group
type Consumer struct {
	*kgo.Client
	tracer trace.Tracer
}

func hooks() []kgo.Hook {
	k := kotel.NewKotel(
		kotel.WithTracer(kotel.NewTracer(kotel.TracerProvider(otel.GetTracerProvider()))),
		kotel.WithMeter(kotel.NewMeter(kotel.MeterProvider(otel.GetMeterProvider()))),
	)
	return k.Hooks()
}

// NewProducer creates a Kafka producer
func NewProducer(cfg config.KafkaConfig, tel *telemetry.Telemetry) (*Producer, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.WithHooks(hooks()...),
		kgo.ProducerBatchMaxBytes(1048576), // 1MB
		kgo.ProducerBatchCompression(kgo.GzipCompression()),
		kgo.ProducerLinger(5 * time.Millisecond),
		kgo.RequestTimeoutOverhead(10 * time.Second),
		kgo.ConnIdleTimeout(time.Duration(cfg.ConnIdleTime) * time.Second),
		kgo.DialTimeout(time.Duration(cfg.DialTimeout) * time.Second),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	telemetry.Log(context.Background(), telemetry.LevelInfo, "Successfully created Kafka producer", nil,
		attribute.StringSlice("kafka.brokers", cfg.Brokers),
		attribute.String("kafka.topic", cfg.Topic),
	)

	return &Producer{
		Client: client,
		topic:  cfg.Topic,
		tracer: tel.Tracer,
	}, nil
}

// NewConsumer creates a Kafka consumer for the event topic
func NewConsumer(cfg config.KafkaConfig, tel *telemetry.Telemetry) (*Consumer, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.ConsumerGroup),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.WithHooks(hooks()...),
		kgo.FetchMaxBytes(52428800), // 50MB
		kgo.FetchMinBytes(1),
		kgo.FetchMaxWait(500 * time.Millisecond),
		kgo.SessionTimeout(30 * time.Second),
		kgo.HeartbeatInterval(3 * time.Second),
		kgo.RebalanceTimeout(30 * time.Second),
		kgo.ConnIdleTimeout(time.Duration(cfg.ConnIdleTime) * time.Second),
		kgo.DialTimeout(time.Duration(cfg.DialTimeout) * time.Second),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	telemetry.Log(context.Background(), telemetry.LevelInfo, "Successfully created Kafka consumer", nil,
		attribute.StringSlice("kafka.brokers", cfg.Brokers),
		attribute.String("kafka.topic", cfg.Topic),
		attribute.String("kafka.consumer_group", cfg.ConsumerGroup),
	)

	return &Consumer{
		Client: client,
		tracer: tel.Tracer,
	}, nil
}

// Records encodes events into records keyed by their first subject
func Records(topic string, events ...event.Event) ([]*kgo.Record, error) {
	records := make([]*kgo.Record, 0, len(events))
	for _, e := range events {
		value, err := e.Encode()
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s event: %w", e.Type, err)
		}
		records = append(records, &kgo.Record{
			Topic: topic,
			Key:   e.Key(),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: "event-type", Value: []byte(e.Type)},
				{Key: "event-id", Value: []byte(e.ID.String())},
			},
		})
	}
	return records, nil
}

// Publish produces events synchronously
func (p *Producer) Publish(ctx context.Context, events ...event.Event) error {
	if len(events) == 0 {
		return nil
	}

	ctx, span := p.tracer.Start(ctx, "kafka.produce")
	defer span.End()

	span.SetAttributes(
		attribute.String("kafka.topic", p.topic),
		attribute.String("kafka.operation", "produce"),
		attribute.Int("kafka.record_count", len(events)),
	)

	records, err := Records(p.topic, events...)
	if err != nil {
		span.SetAttributes(attribute.Bool("kafka.error", true))
		return err
	}

	if err := p.ProduceSync(ctx, records...).FirstErr(); err != nil {
		span.SetAttributes(attribute.Bool("kafka.error", true))
		return fmt.Errorf("failed to produce events: %w", err)
	}

	span.SetAttributes(attribute.Bool("kafka.success", true))
	telemetry.Log(ctx, telemetry.LevelInfo, "Events produced", nil,
		attribute.String("kafka.topic", p.topic),
		attribute.Int("kafka.record_count", len(records)),
	)
	return nil
}

// HealthCheck pings the brokers
func (p *Producer) HealthCheck(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "kafka.health_check")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		span.SetAttributes(attribute.Bool("kafka.healthy", false))
		return fmt.Errorf("kafka health check failed: %w", err)
	}

	span.SetAttributes(attribute.Bool("kafka.healthy", true))
	return nil
}

// ConsumeEvents polls until ctx is done or the client is closed, decoding
// each record and passing it to handler. Undecodable records are logged and
// skipped so one bad payload cannot stall the partition.
func (c *Consumer) ConsumeEvents(ctx context.Context, handler event.Handler) error {
	for {
		select {
		case <-ctx.Done():
			telemetry.Log(ctx, telemetry.LevelInfo, "Kafka consumer shutting down", nil)
			return nil
		default:
		}

		fetches := c.PollFetches(ctx)
		if fetches.IsClientClosed() {
			telemetry.Log(ctx, telemetry.LevelInfo, "Kafka client closed, consumer stopping", nil)
			return nil
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			if ctx.Err() == nil {
				telemetry.Log(ctx, telemetry.LevelWarn, "Kafka fetch error", err,
					attribute.String("kafka.topic", topic),
					attribute.Int("kafka.partition", int(partition)),
				)
			}
		})

		var processed int
		fetches.EachRecord(func(record *kgo.Record) {
			if c.process(ctx, record, handler) {
				processed++
			}
		})

		if processed > 0 {
			telemetry.Log(ctx, telemetry.LevelInfo, "Processed Kafka events", nil,
				attribute.Int("kafka.processed_count", processed),
			)
		}
	}
}

func (c *Consumer) process(ctx context.Context, record *kgo.Record, handler event.Handler) bool {
	ctx, span := c.tracer.Start(ctx, "kafka.process_record")
	defer span.End()

	span.SetAttributes(
		attribute.String("kafka.topic", record.Topic),
		attribute.Int64("kafka.offset", record.Offset),
		attribute.Int("kafka.partition", int(record.Partition)),
	)

	e, err := event.Decode(record.Value)
	if err != nil {
		telemetry.Log(ctx, telemetry.LevelWarn, "Skipping undecodable event", err,
			attribute.Int64("kafka.offset", record.Offset),
		)
		return false
	}

	span.SetAttributes(attribute.String("event.type", string(e.Type)))
	if err := handler.Handle(ctx, e); err != nil {
		span.SetAttributes(attribute.Bool("kafka.processing_error", true))
		telemetry.Log(ctx, telemetry.LevelError, "Event handler failed", err,
			attribute.String("event.type", string(e.Type)),
			attribute.String("event.id", e.ID.String()),
		)
		return false
	}
	return true
}

// Close closes the Kafka client
func (p *Producer) Close() {
	p.Client.Close()
}

// Close closes the Kafka client
func (c *Consumer) Close() {
	c.Client.Close()
}
