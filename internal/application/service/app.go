package service

import (
	"context"
	"maps"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	domainService "dating-api/internal/domain/service"
	"dating-api/internal/infrastructure/telemetry"
)

// HealthChecker is implemented by every backing client
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// AppService handles application-level operations
type AppService struct {
	telemetry *telemetry.Telemetry
	tracer    trace.Tracer
	name      string
	version   string
	checks    map[string]HealthChecker
}

var _ domainService.AppService = (*AppService)(nil)

// NewAppService creates a new AppService
func NewAppService(tel *telemetry.Telemetry, name, version string) *AppService {
	return &AppService{
		telemetry: tel,
		tracer:    tel.Tracer,
		name:      name,
		version:   version,
		checks:    make(map[string]HealthChecker),
	}
}

// Register adds a dependency to the health report
func (s *AppService) Register(name string, check HealthChecker) {
	s.checks[name] = check
}

// HealthCheck reports the state of every registered dependency. The service
// is healthy only when all of them are.
func (s *AppService) HealthCheck(ctx context.Context) (map[string]interface{}, bool) {
	ctx, span := s.tracer.Start(ctx, "AppService.HealthCheck")
	defer span.End()

	span.SetAttributes(attribute.String("operation", "health_check"))

	healthy := true
	checks := make(map[string]interface{}, len(s.checks))
	for _, name := range slices.Sorted(maps.Keys(s.checks)) {
		if err := s.checks[name].HealthCheck(ctx); err != nil {
			healthy = false
			checks[name] = err.Error()
			telemetry.Log(ctx, telemetry.LevelWarn, "Dependency unhealthy", err,
				attribute.String("dependency", name))
			continue
		}
		checks[name] = "ok"
	}

	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	span.SetAttributes(attribute.String("status", status))

	return map[string]interface{}{
		"status":  status,
		"service": s.name,
		"version": s.version,
		"checks":  checks,
	}, healthy
}

// GetWelcomeMessage returns a welcome message
func (s *AppService) GetWelcomeMessage(ctx context.Context) (map[string]interface{}, error) {
	_, span := s.tracer.Start(ctx, "AppService.GetWelcomeMessage")
	defer span.End()

	span.SetAttributes(attribute.String("operation", "get_welcome_message"))

	return map[string]interface{}{
		"message":     "Welcome to " + s.name + "!",
		"application": s.name,
		"version":     s.version,
		"status":      "running",
	}, nil
}
