package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	domainErrors "dating-api/internal/domain/errors"
)

type trackerFunc func(ctx context.Context, id string) error

func (f trackerFunc) UpdateLastActive(ctx context.Context, id string) error { return f(ctx, id) }

func statusHandler(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	})
}

func TestLastActiveMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		status int
		want   []string
	}{
		{"success with header", "7", http.StatusOK, []string{"7"}},
		{"no header", "", http.StatusOK, nil},
		{"failed request", "7", http.StatusNotFound, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen []string
			mw := LastActiveMiddleware(trackerFunc(func(_ context.Context, id string) error {
				seen = append(seen, id)
				return nil
			}))

			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			if tt.userID != "" {
				req.Header.Set(UserIDHeader, tt.userID)
			}
			rec := httptest.NewRecorder()
			mw(statusHandler(tt.status)).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.want, seen)
		})
	}
}

func TestLastActiveMiddleware_IgnoresTrackerErrors(t *testing.T) {
	mw := LastActiveMiddleware(trackerFunc(func(context.Context, string) error {
		return domainErrors.ErrUserNotFound
	}))

	req := httptest.NewRequest(http.MethodDelete, "/users/7", nil)
	req.Header.Set(UserIDHeader, "7")
	rec := httptest.NewRecorder()
	mw(statusHandler(http.StatusOK)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	for _, value := range []interface{}{"boom", assert.AnError} {
		h := RecoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic(value)
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	}
}

func TestLoggingMiddlewareKeepsBody(t *testing.T) {
	var got string
	h := LoggingMiddlewareWithConfig(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = string(body)
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"a":1}`)))

	assert.Equal(t, `{"a":1}`, got)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestChainMiddlewareOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := ChainMiddleware(mark("a"), mark("b"))(statusHandler(http.StatusOK))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b"}, order)
}
