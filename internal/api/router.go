// Package api assembles the HTTP router for the agent gateway.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/linkforge/linkforge/agent-gateway/internal/api/handlers"
	"github.com/linkforge/linkforge/agent-gateway/internal/api/middleware"
)

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(h *handlers.Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.Logger)
	r.Use(middleware.Telemetry)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	r.Get("/version", h.VersionInfo)

	// The protocol endpoint: one JSON-RPC 2.0 request per POST, scoped
	// to the profile named in the route.
	r.Post("/mcp/{username}", h.RPC)

	return r
}
