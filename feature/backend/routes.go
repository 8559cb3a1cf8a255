package backend

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter mounts the players backend routes.
func NewRouter(store *Store, hub *Hub, logger *zap.Logger) http.Handler {
	h := NewHandlers(store, hub, logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz)
	r.Get("/players", h.ListPlayers)
	r.Post("/players", h.CreatePlayer)
	r.Put("/players/{id}", h.UpdatePlayer)
	r.Delete("/players/{id}", h.DeletePlayer)
	r.Post("/register_fcm_token", h.RegisterToken)
	r.Get("/ws/players", EventsHandler(hub, logger))
	return r
}
