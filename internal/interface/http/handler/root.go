package handler

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"dating-api/internal/domain/service"
	"dating-api/internal/infrastructure/telemetry"
)

// RootHandler handles requests to the root endpoint
type RootHandler struct {
	appService service.AppService
}

// NewRootHandler creates a new root handler
func NewRootHandler(appService service.AppService) *RootHandler {
	return &RootHandler{
		appService: appService,
	}
}

// Handle handles requests to the root endpoint
func (h *RootHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("http.route", "/"),
		attribute.String("handler", "root"),
	)

	response, err := h.appService.GetWelcomeMessage(ctx)
	if err != nil {
		telemetry.Log(ctx, telemetry.LevelError, "Failed to get welcome message", err,
			attribute.String("handler", "root"),
			attribute.String("path", "/"),
		)
		writeErrorResponse(ctx, w, err.Error(), http.StatusInternalServerError, "INTERNAL_ERROR")
		return
	}

	response["method"] = r.Method

	writeJSONResponse(ctx, w, response, http.StatusOK)
}
