package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"dating-api/internal/domain/service"
	"dating-api/internal/infrastructure/config"
	"dating-api/internal/infrastructure/telemetry"
	"dating-api/internal/interface/http/middleware"
	"dating-api/internal/interface/http/routes"
)

// Handler holds the HTTP handler dependencies
type Handler struct {
	userService service.UserService
	appService  service.AppService
	mu          sync.Mutex
	server      *http.Server
	telemetry   *telemetry.Telemetry
	config      config.AppConfig
}

// NewHandler creates a new HTTP handler
func NewHandler(userService service.UserService, appService service.AppService, tel *telemetry.Telemetry, cfg config.AppConfig) *Handler {
	return &Handler{
		userService: userService,
		appService:  appService,
		telemetry:   tel,
		config:      cfg,
	}
}

// SetupRoutes sets up the HTTP routes with middleware
func (h *Handler) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	router := routes.NewRouter(h.userService, h.appService)
	router.RegisterRoutes(mux)

	middlewareChain := middleware.ChainMiddleware(
		middleware.LoggingMiddlewareWithConfig(h.config.LogBodies),
		middleware.OtelHttpMiddleware("http.server"),
		middleware.RecoveryMiddleware,
		middleware.CORSMiddleware,
		middleware.LastActiveMiddleware(h.userService),
	)

	return middlewareChain(mux)
}

// StartWithAddr starts the HTTP server on the given port. It blocks until
// the server stops.
func (h *Handler) StartWithAddr(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", addr),
		Handler:           h.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		// In-flight requests finish during Shutdown even after ctx is cancelled.
		BaseContext: func(_ net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	h.mu.Lock()
	h.server = server
	h.mu.Unlock()

	return server.ListenAndServe()
}

// Stop stops the HTTP server
func (h *Handler) Stop(ctx context.Context) error {
	h.mu.Lock()
	server := h.server
	h.mu.Unlock()

	if server != nil {
		return server.Shutdown(ctx)
	}
	return nil
}
