package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/FACorreiaa/go-devfolio-api/internal/api/auth"
)

// Config contains dependencies needed for the router setup.
type Config struct {
	AuthHandler            *auth.HandlerImpl
	AuthenticateMiddleware func(http.Handler) http.Handler
}

// SetupRouter wires the route table. Server-wide middleware (logger,
// requestID, recoverer) are applied before mounting this router in main.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	// The SPA is an external collaborator on a different origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes.
		r.Group(func(r chi.Router) {
			r.Post("/login", cfg.AuthHandler.Login)
			r.Post("/signup", cfg.AuthHandler.Signup)
		})

		// Token-protected routes.
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)
			r.Get("/me", cfg.AuthHandler.Me)
		})
	})

	return r
}
