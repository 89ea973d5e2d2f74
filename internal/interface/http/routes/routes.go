package routes

import (
	"net/http"

	"dating-api/internal/domain/service"
	"dating-api/internal/interface/http/handler"
)

// Router holds the router dependencies
type Router struct {
	userService service.UserService
	appService  service.AppService
}

// NewRouter creates a new router
func NewRouter(userService service.UserService, appService service.AppService) *Router {
	return &Router{
		userService: userService,
		appService:  appService,
	}
}

// RegisterRoutes registers all routes
func (r *Router) RegisterRoutes(mux *http.ServeMux) {
	rootHandler := handler.NewRootHandler(r.appService)
	healthHandler := handler.NewHealthHandler(r.appService)
	users := handler.NewUsersHandler(r.userService)

	mux.HandleFunc("GET /{$}", rootHandler.Handle)
	mux.HandleFunc("GET /health", healthHandler.Handle)

	mux.HandleFunc("POST /users", users.Register)
	mux.HandleFunc("GET /users", users.Discover)
	mux.HandleFunc("GET /users/{id}", users.Get)
	mux.HandleFunc("DELETE /users/{id}", users.Delete)

	mux.HandleFunc("POST /users/{id}/photos", users.AddPhoto)
	mux.HandleFunc("POST /users/{id}/photos/{photoId}/main", users.SetMainPhoto)
	mux.HandleFunc("DELETE /users/{id}/photos/{photoId}", users.DeletePhoto)

	mux.HandleFunc("POST /users/{id}/like/{recipientId}", users.Like)
	mux.HandleFunc("DELETE /users/{id}/like/{recipientId}", users.Unlike)

	mux.HandleFunc("POST /users/{id}/messages", users.SendMessage)
}
