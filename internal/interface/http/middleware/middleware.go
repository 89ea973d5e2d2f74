package middleware

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domainErrors "dating-api/internal/domain/errors"
	"dating-api/internal/infrastructure/telemetry"
)

// UserIDHeader carries the id of the user making the request
const UserIDHeader = "X-User-ID"

// Middleware represents a middleware function
type Middleware func(http.Handler) http.Handler

// responseRecorder captures response status and, optionally, the body
type responseRecorder struct {
	http.ResponseWriter
	status  int
	capture bool
	body    bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.capture {
		r.body.Write(b)
	}
	return r.ResponseWriter.Write(b)
}

// LoggingMiddleware logs incoming requests and responses including bodies
func LoggingMiddleware(next http.Handler) http.Handler {
	return LoggingMiddlewareWithConfig(true)(next)
}

// LoggingMiddlewareWithConfig logs incoming requests and responses. Bodies are
// only read and logged when logBodies is set.
func LoggingMiddlewareWithConfig(logBodies bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			}
			if logBodies && r.Body != nil {
				reqBody, _ := io.ReadAll(r.Body)
				r.Body = io.NopCloser(bytes.NewBuffer(reqBody))
				attrs = append(attrs, "body", string(reqBody))
			}

			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK, capture: logBodies}

			slog.InfoContext(ctx, "Incoming request", attrs...)

			next.ServeHTTP(rec, r)

			done := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"duration", time.Since(start),
				"status", rec.status,
			}
			if logBodies {
				done = append(done, "response_body", rec.body.String())
			}
			slog.InfoContext(ctx, "Request completed", done...)
		})
	}
}

// OtelHttpMiddleware adds OpenTelemetry tracing and metrics to requests.
// Handlers name the matched route on the span themselves.
func OtelHttpMiddleware(operation string) Middleware {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(
			next,
			operation,
			otelhttp.WithMessageEvents(otelhttp.ReadEvents, otelhttp.WriteEvents),
		)
	}
}

// RecoveryMiddleware recovers from panics and logs them
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				ctx := r.Context()

				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}

				slog.ErrorContext(ctx, "Panic recovered",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path,
				)

				span := trace.SpanFromContext(ctx)
				if span.IsRecording() {
					span.SetStatus(codes.Error, "Internal Server Error")
					span.RecordError(err, trace.WithAttributes(
						attribute.String("panic", "recovered"),
					))
				}

				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// CORSMiddleware adds CORS headers
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+UserIDHeader)
		w.Header().Set("Access-Control-Expose-Headers", "Pagination")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ActivityTracker records that a user was seen
type ActivityTracker interface {
	UpdateLastActive(ctx context.Context, id string) error
}

// LastActiveMiddleware stamps the requesting user's last activity once the
// request has succeeded. Requests without a user id header are ignored.
func LastActiveMiddleware(tracker ActivityTracker) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			id := r.Header.Get(UserIDHeader)
			if id == "" || rec.status >= http.StatusBadRequest {
				return
			}
			// The user may have just deleted themselves.
			if err := tracker.UpdateLastActive(r.Context(), id); err != nil && !domainErrors.IsUserNotFound(err) {
				telemetry.Log(r.Context(), telemetry.LevelWarn, "Failed to update last active", err,
					attribute.String("user.id", id))
			}
		})
	}
}

// ChainMiddleware chains multiple middleware functions
func ChainMiddleware(mw ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		if len(mw) == 0 {
			return final
		}

		// Apply middleware in reverse order
		for i := len(mw) - 1; i >= 0; i-- {
			final = mw[i](final)
		}

		return final
	}
}
