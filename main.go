package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"dating-api/internal/application/service"
	"dating-api/internal/application/worker"
	"dating-api/internal/domain/event"
	"dating-api/internal/domain/repository"
	"dating-api/internal/infrastructure/config"
	"dating-api/internal/infrastructure/kafka"
	"dating-api/internal/infrastructure/postgres"
	"dating-api/internal/infrastructure/redis"
	"dating-api/internal/infrastructure/repository/memory"
	sqlrepo "dating-api/internal/infrastructure/repository/postgres"
	"dating-api/internal/infrastructure/security"
	"dating-api/internal/infrastructure/telemetry"
	h "dating-api/internal/interface/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// run loads configuration and telemetry, then serves until interrupted
func run() error {
	// Main context with interrupt signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()

	tel, shutdown, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Printf("Failed to initialize telemetry: %v", err)
		return err
	}
	defer func() {
		// Create a separate context for shutdown with a timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := shutdown(shutdownCtx); err != nil {
			telemetry.Log(context.Background(), telemetry.LevelError, "Error during telemetry shutdown", err)
		}
	}()

	if err := serve(ctx, cfg, tel); err != nil {
		telemetry.Log(context.Background(), telemetry.LevelError, "Application stopped with error", err)
		return err
	}
	return nil
}

// serve wires the application and blocks until ctx is cancelled or a
// component fails
func serve(ctx context.Context, cfg config.Config, tel *telemetry.Telemetry) error {
	app := service.NewAppService(tel, cfg.Otel.ServiceName, cfg.Otel.ServiceVersion)
	stats, err := worker.NewStatsReporter(tel, time.Duration(cfg.App.StatsIntervalSecs)*time.Second)
	if err != nil {
		return err
	}

	repo, closeStore, err := openStore(ctx, cfg, tel, app, stats)
	if err != nil {
		return err
	}
	defer closeStore()

	// Like edges are cached only when Redis is enabled; writes then publish
	// events that drop the affected entries.
	var (
		cache    *redis.CachedRepository
		handlers []event.Handler
	)
	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(ctx, cfg.Redis, tel)
		if err != nil {
			return err
		}
		defer rdb.Close()
		app.Register("redis", rdb)
		stats.Register("redis", rdb.PoolMetrics)

		cache = redis.NewCachedRepository(repo, rdb, time.Duration(cfg.Redis.LikesTTL)*time.Second, tel.Tracer)
		repo = cache
		handlers = append(handlers, worker.NewCacheInvalidator(cache))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return stats.Run(gctx) })

	var publisher event.Publisher = event.NewLocalPublisher(handlers...)
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka, tel)
		if err != nil {
			return err
		}
		defer producer.Close()
		app.Register("kafka", producer)
		publisher = producer

		if cache != nil {
			consumer, err := kafka.NewConsumer(cfg.Kafka, tel)
			if err != nil {
				return err
			}
			defer consumer.Close()

			w := worker.NewKafkaWorker(consumer, worker.NewCacheInvalidator(cache))
			g.Go(func() error { return w.Run(gctx) })
		}
	}

	users := service.NewUserService(repo, security.NewHasher(cfg.App.BcryptCost), publisher, tel,
		service.WithPageSizes(cfg.Discovery.DefaultPageSize, cfg.Discovery.MaxPageSize),
	)

	handler := h.NewHandler(users, app, tel, cfg.App)

	g.Go(func() error {
		fmt.Printf("Server starting on %s\n", cfg.App.Port)
		telemetry.Log(gctx, telemetry.LevelInfo, "Starting server", nil,
			attribute.String("port", cfg.App.Port),
			attribute.String("store", cfg.App.StoreDriver),
		)
		err := handler.StartWithAddr(gctx, cfg.App.Port)
		switch {
		case errors.Is(err, http.ErrServerClosed):
			return nil
		case errors.Is(err, syscall.EADDRINUSE):
			return fmt.Errorf("port %s is already in use: %w", cfg.App.Port, err)
		default:
			return err
		}
	})

	g.Go(func() error {
		<-gctx.Done()

		fmt.Println("\nShutting down application gracefully...")
		telemetry.Log(context.Background(), telemetry.LevelInfo, "Shutting down application gracefully", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := handler.Stop(shutdownCtx); err != nil {
			telemetry.Log(shutdownCtx, telemetry.LevelError, "Error during server shutdown", err)
			return err
		}
		return nil
	})

	fmt.Println("Server started... Press Ctrl+C to exit.")
	return g.Wait()
}

// openStore builds the repository named by STORE_DRIVER and registers its
// health check and pool stats. The returned func releases the connection.
func openStore(ctx context.Context, cfg config.Config, tel *telemetry.Telemetry, app *service.AppService, stats *worker.StatsReporter) (repository.DatingRepository, func(), error) {
	if cfg.App.StoreDriver == "memory" {
		telemetry.Log(ctx, telemetry.LevelWarn, "Using in-memory store, data is lost on restart", nil)
		return memory.NewUserRepository(), func() {}, nil
	}

	client, err := postgres.NewClient(ctx, cfg, tel)
	if err != nil {
		return nil, nil, err
	}
	closeClient := func() {
		if err := client.Close(); err != nil {
			telemetry.Log(context.Background(), telemetry.LevelWarn, "Failed to close database", err)
		}
	}

	repo := sqlrepo.NewUserRepository(client)
	if cfg.App.AutoMigrate {
		if err := repo.Migrate(ctx); err != nil {
			closeClient()
			return nil, nil, err
		}
	}
	app.Register(client.System(), client)
	stats.Register(client.System(), func() map[string]int64 {
		s := client.GetStats()
		return map[string]int64{
			"open":       int64(s.OpenConnections),
			"in_use":     int64(s.InUse),
			"idle":       int64(s.Idle),
			"wait_count": s.WaitCount,
		}
	})

	return repo, closeClient, nil
}
