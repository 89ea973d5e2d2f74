package handler

import (
	"net/http"
	"runtime"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"dating-api/internal/domain/service"
	"dating-api/internal/infrastructure/telemetry"
)

// HealthHandler handles requests to the health endpoint
type HealthHandler struct {
	appService service.AppService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(appService service.AppService) *HealthHandler {
	return &HealthHandler{
		appService: appService,
	}
}

// Handle reports dependency health. Any unhealthy dependency turns the
// response into a 503.
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("http.route", "/health"),
		attribute.String("handler", "health"),
	)
	span.AddEvent("Processing health check")

	telemetry.Log(ctx, telemetry.LevelInfo, "Processing health check", nil)

	response, healthy := h.appService.HealthCheck(ctx)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	response["memory"] = map[string]interface{}{
		"alloc":      m.Alloc,
		"totalAlloc": m.TotalAlloc,
		"sys":        m.Sys,
		"numGC":      m.NumGC,
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
		span.AddEvent("Health check failed")
	} else {
		span.AddEvent("Health check completed successfully")
	}

	writeJSONResponse(ctx, w, response, status)
}
