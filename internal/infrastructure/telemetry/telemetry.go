package telemetry

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"dating-api/internal/infrastructure/config"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Telemetry bundles the tracer and the application instruments
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	LoggerProvider *sdklog.LoggerProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	// OperationCounter counts application operations by operation and status
	OperationCounter metric.Int64Counter
	// DiscoveryCounter counts discovery queries by status
	DiscoveryCounter metric.Int64Counter
	// CandidateHistogram records the number of candidates matched per discovery query
	CandidateHistogram metric.Int64Histogram
	LogVerbosity       int
}

// Setup wires the OTel SDK according to cfg. The returned shutdown flushes and
// stops every provider in reverse creation order.
func Setup(ctx context.Context, cfg config.Config) (*Telemetry, func(context.Context) error, error) {
	var shutdowns []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var err error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			err = errors.Join(err, shutdowns[i](ctx))
		}
		return err
	}
	handleErr := func(e error) (*Telemetry, func(context.Context) error, error) {
		return nil, shutdown, e
	}

	SetLogVerbosity(cfg.Otel.LogVerbosity)

	if !cfg.Otel.Enabled {
		setupSlog(cfg.Otel, nil)
		tel, err := NewNoop()
		if err != nil {
			return handleErr(err)
		}
		tel.LogVerbosity = cfg.Otel.LogVerbosity
		return tel, shutdown, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.Otel.ServiceName),
			semconv.ServiceVersionKey.String(cfg.Otel.ServiceVersion),
			semconv.ServiceNamespaceKey.String(cfg.Otel.ServiceNamespace),
		),
		resource.WithSchemaURL(semconv.SchemaURL),
	)
	if err != nil {
		return handleErr(fmt.Errorf("failed to create resource: %w", err))
	}

	protocol := cfg.Otel.Protocol
	if protocol == "" {
		protocol = "http"
	}
	slog.Info("Using OTLP protocol", "protocol", protocol, "endpoint", cfg.Otel.Endpoint)

	var (
		spanExporter sdktrace.SpanExporter
		metricReader sdkmetric.Reader
		logProcessor sdklog.Processor
	)

	switch protocol {
	case "grpc":
		conn, err := grpc.NewClient(cfg.Otel.Endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			slog.Error("Failed to connect to OTLP gRPC", "endpoint", cfg.Otel.Endpoint, "err", err)
			return handleErr(err)
		}
		shutdowns = append(shutdowns, func(context.Context) error { return conn.Close() })

		spanExporter, err = otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			return handleErr(fmt.Errorf("trace exporter gRPC: %w", err))
		}
		metricExp, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
		if err != nil {
			return handleErr(fmt.Errorf("metric exporter gRPC: %w", err))
		}
		metricReader = newPeriodicReader(metricExp, cfg.Otel)

		logExp, err := otlploggrpc.New(ctx, otlploggrpc.WithGRPCConn(conn))
		if err != nil {
			return handleErr(fmt.Errorf("log exporter gRPC: %w", err))
		}
		logProcessor = newBatchProcessor(logExp, cfg.Otel)

	default: // HTTP
		traceOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Otel.Endpoint)}
		metricOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Otel.Endpoint)}
		logOpts := []otlploghttp.Option{otlploghttp.WithEndpoint(cfg.Otel.Endpoint)}

		if cfg.Otel.Username != "" && cfg.Otel.Password != "" {
			auth := cfg.Otel.Username + ":" + cfg.Otel.Password
			headers := map[string]string{
				"Authorization": "Basic " + base64.StdEncoding.EncodeToString([]byte(auth)),
			}
			traceOpts = append(traceOpts, otlptracehttp.WithHeaders(headers))
			metricOpts = append(metricOpts, otlpmetrichttp.WithHeaders(headers))
			logOpts = append(logOpts, otlploghttp.WithHeaders(headers))
		}

		if cfg.Otel.Insecure {
			traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
			metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
			logOpts = append(logOpts, otlploghttp.WithInsecure())
			slog.Warn("Using insecure HTTP connection", "endpoint", cfg.Otel.Endpoint)
		}

		spanExporter, err = otlptracehttp.New(ctx, traceOpts...)
		if err != nil {
			slog.Warn("OTLP trace exporter unreachable", "endpoint", cfg.Otel.Endpoint, "err", err)
			return handleErr(err)
		}

		metricExp, err := otlpmetrichttp.New(ctx, metricOpts...)
		if err != nil {
			slog.Warn("OTLP metric exporter unreachable", "endpoint", cfg.Otel.Endpoint, "err", err)
			return handleErr(err)
		}
		metricReader = newPeriodicReader(metricExp, cfg.Otel)

		logExp, err := otlploghttp.New(ctx, logOpts...)
		if err != nil {
			slog.Warn("OTLP log exporter unreachable", "endpoint", cfg.Otel.Endpoint, "err", err)
			return handleErr(err)
		}
		logProcessor = newBatchProcessor(logExp, cfg.Otel)
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter,
			sdktrace.WithMaxQueueSize(cfg.Otel.MaxQueueSize),
			sdktrace.WithBatchTimeout(time.Duration(cfg.Otel.BatchTimeoutSecs)*time.Second),
			sdktrace.WithExportTimeout(time.Duration(cfg.Otel.ExportTimeoutSecs)*time.Second)),
		sdktrace.WithResource(res),
	)
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(metricReader),
		sdkmetric.WithResource(res),
	)
	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(logProcessor),
		sdklog.WithResource(res),
	)
	shutdowns = append(shutdowns, tracerProvider.Shutdown, meterProvider.Shutdown, loggerProvider.Shutdown)

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	global.SetLoggerProvider(loggerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	setupSlog(cfg.Otel, loggerProvider)

	// Instruments must exist before runtime metrics start collecting
	tel, err := newTelemetry(tracerProvider.Tracer(cfg.Otel.TracerName), meterProvider.Meter(cfg.Otel.MeterName))
	if err != nil {
		return handleErr(err)
	}
	tel.TracerProvider = tracerProvider
	tel.MeterProvider = meterProvider
	tel.LoggerProvider = loggerProvider
	tel.LogVerbosity = cfg.Otel.LogVerbosity

	if err := runtime.Start(runtime.WithMeterProvider(meterProvider)); err != nil {
		slog.Error("Failed to start runtime metrics", "err", err)
		return handleErr(err)
	}

	return tel, shutdown, nil
}

// NewNoop returns telemetry that records nothing. Used when export is
// disabled and in tests.
func NewNoop() (*Telemetry, error) {
	return newTelemetry(tracenoop.NewTracerProvider().Tracer("noop"), metricnoop.NewMeterProvider().Meter("noop"))
}

func newTelemetry(tracer trace.Tracer, meter metric.Meter) (*Telemetry, error) {
	operations, err := meter.Int64Counter("dating_operations_total",
		metric.WithDescription("Counts dating application operations"),
		metric.WithUnit("{operation}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}
	queries, err := meter.Int64Counter("discovery_queries_total",
		metric.WithDescription("Counts user discovery queries"),
		metric.WithUnit("{query}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery counter: %w", err)
	}
	candidates, err := meter.Int64Histogram("discovery_candidates",
		metric.WithDescription("Number of candidates matched by a discovery query before paging"),
		metric.WithUnit("{user}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create candidate histogram: %w", err)
	}

	return &Telemetry{
		Tracer:             tracer,
		Meter:              meter,
		OperationCounter:   operations,
		DiscoveryCounter:   queries,
		CandidateHistogram: candidates,
	}, nil
}

// RecordOperation counts one application operation with its outcome
func (t *Telemetry) RecordOperation(ctx context.Context, operation, status string) {
	if t == nil || t.OperationCounter == nil {
		return
	}
	t.OperationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}

func newPeriodicReader(exp sdkmetric.Exporter, cfg config.OtelConfig) sdkmetric.Reader {
	var opts []sdkmetric.PeriodicReaderOption
	if cfg.ExportIntervalSecs > 0 {
		opts = append(opts, sdkmetric.WithInterval(time.Duration(cfg.ExportIntervalSecs)*time.Second))
	}
	return sdkmetric.NewPeriodicReader(exp, opts...)
}

func newBatchProcessor(exp sdklog.Exporter, cfg config.OtelConfig) sdklog.Processor {
	return sdklog.NewBatchProcessor(exp,
		sdklog.WithMaxQueueSize(cfg.MaxQueueSize),
		sdklog.WithExportInterval(time.Duration(cfg.ExportIntervalSecs)*time.Second),
		sdklog.WithExportTimeout(time.Duration(cfg.ExportTimeoutSecs)*time.Second),
	)
}

// setupSlog configures slog with stdout/stderr and, when a provider is given, OTel output
func setupSlog(cfg config.OtelConfig, loggerProvider *sdklog.LoggerProvider) {
	var handlers []slog.Handler

	if cfg.LogOutput != "otel" || loggerProvider == nil {
		output := os.Stdout
		if strings.ToLower(cfg.LogOutput) == "stderr" {
			output = os.Stderr
		}
		opts := &slog.HandlerOptions{Level: slog.LevelInfo}
		if strings.ToLower(cfg.LogFormat) == "json" {
			handlers = append(handlers, slog.NewJSONHandler(output, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(output, opts))
		}
	}

	if loggerProvider != nil {
		handlers = append(handlers, otelslog.NewHandler(cfg.ServiceName, otelslog.WithLoggerProvider(loggerProvider)))
	}

	if len(handlers) == 1 {
		slog.SetDefault(slog.New(handlers[0]))
		return
	}
	slog.SetDefault(slog.New(&multiHandler{handlers: handlers}))
}

// multiHandler fans records out to several handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	var err error
	for _, h := range m.handlers {
		if h.Enabled(ctx, record.Level) {
			err = errors.Join(err, h.Handle(ctx, record.Clone()))
		}
	}
	return err
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}
