package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Router builds the chi router with all routes and middleware.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(CORS(h.cfg.Server.AllowedOrigins))

	r.Get("/check-generation-key", h.CheckGenerationKey)

	r.Route("/api/integrations", func(r chi.Router) {
		r.Get("/", h.ListIntegrations)
		r.Post("/{name}", h.ConnectIntegration)
		r.Delete("/{name}", h.DisconnectIntegration)
	})

	r.Get("/agents/{role}/chat", h.Chat)

	return r
}
