package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"dating-api/internal/application/dto"
	"dating-api/internal/domain/service"
	"dating-api/internal/infrastructure/telemetry"
	"dating-api/internal/interface/http/middleware"
)

// PaginationHeader is the response header carrying discovery paging metadata
const PaginationHeader = "Pagination"

// UsersHandler handles requests to the users endpoints
type UsersHandler struct {
	userService service.UserService
}

// NewUsersHandler creates a new users handler
func NewUsersHandler(userService service.UserService) *UsersHandler {
	return &UsersHandler{
		userService: userService,
	}
}

func annotate(r *http.Request, route, operation string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("http.route", route),
		attribute.String("handler", "users"),
		attribute.String("operation", operation),
	)
	span.SetAttributes(attrs...)
}

// Register handles POST /users
func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dto.RegisterUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	annotate(r, "/users", "register", attribute.String("user.name", req.Username))

	user, err := h.userService.RegisterUser(ctx, req)
	if err != nil {
		telemetry.Log(ctx, telemetry.LevelError, "Failed to register user", err,
			attribute.String("handler", "users"),
			attribute.String("user.name", req.Username),
		)
		writeErrorResponseFromDomainError(ctx, w, err)
		return
	}

	writeJSONResponse(ctx, w, dto.SuccessResponse{
		Message: "User registered successfully",
		Data:    user,
	}, http.StatusCreated)
}

// Discover handles GET /users, returning one page of candidates for the
// user named in the X-User-ID header
func (h *UsersHandler) Discover(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requesterID := r.Header.Get(middleware.UserIDHeader)

	annotate(r, "/users", "discover", attribute.String("user.id", requesterID))

	req, err := parseDiscoverQuery(r)
	if err != nil {
		writeErrorResponse(ctx, w, err.Error(), http.StatusBadRequest, "INVALID_QUERY")
		return
	}

	page, err := h.userService.DiscoverUsers(ctx, requesterID, req)
	if err != nil {
		telemetry.Log(ctx, telemetry.LevelError, "Failed to discover users", err,
			attribute.String("handler", "users"),
			attribute.String("user.id", requesterID),
		)
		writeErrorResponseFromDomainError(ctx, w, err)
		return
	}

	if header, err := json.Marshal(page.Pagination); err == nil {
		w.Header().Set(PaginationHeader, string(header))
	}
	writeJSONResponse(ctx, w, page, http.StatusOK)
}

// queryError reports a malformed query parameter
type queryError struct{ name string }

func (e queryError) Error() string { return "query parameter " + e.name + " is malformed" }

func parseDiscoverQuery(r *http.Request) (dto.DiscoverUsersRequest, error) {
	q := r.URL.Query()
	req := dto.DiscoverUsersRequest{Gender: q.Get("gender")}

	// Only supplied parameters are set so an explicit 0 reaches validation.
	ints := []struct {
		name string
		dst  **int
	}{
		{"pageNumber", &req.PageNumber},
		{"pageSize", &req.PageSize},
		{"minAge", &req.MinAge},
		{"maxAge", &req.MaxAge},
	}
	for _, p := range ints {
		if v := q.Get(p.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return req, queryError{p.name}
			}
			*p.dst = &n
		}
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"likers", &req.Likers},
		{"likees", &req.Likees},
	}
	for _, p := range bools {
		if v := q.Get(p.name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return req, queryError{p.name}
			}
			*p.dst = b
		}
	}
	return req, nil
}

// Get handles GET /users/{id}
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	annotate(r, "/users/{id}", "get", attribute.String("user.id", id))

	user, err := h.userService.GetUser(ctx, id)
	if err != nil {
		telemetry.Log(ctx, telemetry.LevelError, "Failed to get user", err,
			attribute.String("handler", "users"),
			attribute.String("user.id", id),
		)
		writeErrorResponseFromDomainError(ctx, w, err)
		return
	}

	writeJSONResponse(ctx, w, user, http.StatusOK)
}

// Delete handles DELETE /users/{id}
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	annotate(r, "/users/{id}", "delete", attribute.String("user.id", id))

	if err := h.userService.DeleteUser(ctx, id); err != nil {
		telemetry.Log(ctx, telemetry.LevelError, "Failed to delete user", err,
			attribute.String("handler", "users"),
			attribute.String("user.id", id),
		)
		writeErrorResponseFromDomainError(ctx, w, err)
		return
	}

	writeJSONResponse(ctx, w, dto.SuccessResponse{Message: "User deleted successfully"}, http.StatusOK)
}

// AddPhoto handles POST /users/{id}/photos
func (h *UsersHandler) AddPhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var req dto.AddPhotoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	annotate(r, "/users/{id}/photos", "add_photo", attribute.String("user.id", id))

	photo, err := h.userService.AddPhoto(ctx, id, req)
	if err != nil {
		telemetry.Log(ctx, telemetry.LevelError, "Failed to add photo", err,
			attribute.String("handler", "users"),
			attribute.String("user.id", id),
		)
		writeErrorResponseFromDomainError(ctx, w, err)
		return
	}

	writeJSONResponse(ctx, w, photo, http.StatusCreated)
}

// SetMainPhoto handles POST /users/{id}/photos/{photoId}/main
func (h *UsersHandler) SetMainPhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, photoID := r.PathValue("id"), r.PathValue("photoId")

	annotate(r, "/users/{id}/photos/{photoId}/main", "set_main_photo",
		attribute.String("user.id", id),
		attribute.String("photo.id", photoID),
	)

	if err := h.userService.SetMainPhoto(ctx, id, photoID); err != nil {
		telemetry.Log(ctx, telemetry.LevelError, "Failed to set main photo", err,
			attribute.String("handler", "users"),
			attribute.String("user.id", id),
			attribute.String("photo.id", photoID),
		)
		writeErrorResponseFromDomainError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeletePhoto handles DELETE /users/{id}/photos/{photoId}
func (h *UsersHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, photoID := r.PathValue("id"), r.PathValue("photoId")

	annotate(r, "/users/{id}/photos/{photoId}", "delete_photo",
		attribute.String("user.id", id),
		attribute.String("photo.id", photoID),
	)

	if err := h.userService.DeletePhoto(ctx, id, photoID); err != nil {
		telemetry.Log(ctx, telemetry.LevelError, "Failed to delete photo", err,
			attribute.String("handler", "users"),
			attribute.String("user.id", id),
			attribute.String("photo.id", photoID),
		)
		writeErrorResponseFromDomainError(ctx, w, err)
		return
	}

	writeJSONResponse(ctx, w, dto.SuccessResponse{Message: "Photo deleted successfully"}, http.StatusOK)
}

// Like handles POST /users/{id}/like/{recipientId}
func (h *UsersHandler) Like(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, recipientID := r.PathValue("id"), r.PathValue("recipientId")

	annotate(r, "/users/{id}/like/{recipientId}", "like",
		attribute.String("user.id", id),
		attribute.String("recipient.id", recipientID),
	)

	like, err := h.userService.LikeUser(ctx, id, recipientID)
	if err != nil {
		telemetry.Log(ctx, telemetry.LevelError, "Failed to like user", err,
			attribute.String("handler", "users"),
			attribute.String("user.id", id),
			attribute.String("recipient.id", recipientID),
		)
		writeErrorResponseFromDomainError(ctx, w, err)
		return
	}

	writeJSONResponse(ctx, w, like, http.StatusOK)
}

// Unlike handles DELETE /users/{id}/like/{recipientId}
func (h *UsersHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, recipientID := r.PathValue("id"), r.PathValue("recipientId")

	annotate(r, "/users/{id}/like/{recipientId}", "unlike",
		attribute.String("user.id", id),
		attribute.String("recipient.id", recipientID),
	)

	if err := h.userService.UnlikeUser(ctx, id, recipientID); err != nil {
		telemetry.Log(ctx, telemetry.LevelError, "Failed to unlike user", err,
			attribute.String("handler", "users"),
			attribute.String("user.id", id),
			attribute.String("recipient.id", recipientID),
		)
		writeErrorResponseFromDomainError(ctx, w, err)
		return
	}

	writeJSONResponse(ctx, w, dto.SuccessResponse{Message: "Like removed successfully"}, http.StatusOK)
}

// SendMessage handles POST /users/{id}/messages
func (h *UsersHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var req dto.SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	recipientID := strconv.Itoa(req.RecipientID)

	annotate(r, "/users/{id}/messages", "send_message",
		attribute.String("user.id", id),
		attribute.String("recipient.id", recipientID),
	)

	msg, err := h.userService.SendMessage(ctx, id, recipientID, req)
	if err != nil {
		telemetry.Log(ctx, telemetry.LevelError, "Failed to send message", err,
			attribute.String("handler", "users"),
			attribute.String("user.id", id),
			attribute.String("recipient.id", recipientID),
		)
		writeErrorResponseFromDomainError(ctx, w, err)
		return
	}

	writeJSONResponse(ctx, w, msg, http.StatusCreated)
}
