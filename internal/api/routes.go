package api

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/emailpro/internal/auth"
)

// SetupRoutes configures all API routes. authManager may be nil, in which
// case the X-Owner-ID header (or dev mode) identifies the owner.
func SetupRoutes(h *Handlers, authManager *auth.Manager) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// CORS - allow credentials for auth cookies
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Owner-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (no auth required)
	r.Get("/health", h.HealthCheck)

	// Auth routes (no auth required)
	if authManager != nil {
		r.Get("/auth/login", authManager.HandleLogin)
		r.Get("/auth/callback", authManager.HandleCallback)
		r.Get("/auth/logout", authManager.HandleLogout)
		r.Get("/auth/user", authManager.HandleUserInfo)
	}

	// API routes (owner-scoped)
	devMode := os.Getenv("DEV_MODE") == "true" || os.Getenv("ENVIRONMENT") == "development"

	r.Route("/api", func(r chi.Router) {
		if authManager != nil && !devMode {
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					if !authManager.IsAuthenticated(req) {
						w.Header().Set("Content-Type", "application/json")
						w.WriteHeader(http.StatusUnauthorized)
						w.Write([]byte(`{"error":"unauthorized"}`))
						return
					}
					next.ServeHTTP(w, req)
				})
			})
		}
		r.Use(OwnerContext(authManager))

		// Dashboard - all headline numbers in one call
		r.Get("/dashboard", h.GetDashboard)

		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", h.ListContacts)
			r.Post("/", h.CreateContact)
			r.Get("/{id}", h.GetContact)
			r.Put("/{id}", h.UpdateContact)
			r.Delete("/{id}", h.DeleteContact)
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", h.ListTemplates)
			r.Post("/", h.SaveTemplate)
			r.Delete("/{id}", h.DeleteTemplate)
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", h.ListCampaigns)
			r.Post("/", h.SubmitCampaign)
			r.Get("/{id}", h.GetCampaign)
			r.Get("/{id}/status", h.GetCampaignStatus)
			r.Get("/{id}/deliveries", h.ListCampaignDeliveries)
			r.Post("/{id}/cancel", h.CancelCampaign)
			r.Post("/{id}/retry", h.RetryCampaign)
		})
	})

	return r
}
