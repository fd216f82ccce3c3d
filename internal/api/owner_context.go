package api

import (
	"context"
	"net/http"
	"os"

	"github.com/ignite/emailpro/internal/auth"
)

// ownerContextKey is the context key for the authenticated owner id.
type ownerContextKey struct{}

// OwnerFromContext retrieves the owner id injected by the middleware.
func OwnerFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ownerContextKey{}).(string); ok {
		return id
	}
	return ""
}

// OwnerContext resolves the owner id for every API request and injects it
// into the request context.
// Priority: 1. authenticated session, 2. X-Owner-ID header, 3. dev mode
// default. Requests with no resolvable owner get 401.
func OwnerContext(authManager *auth.Manager) func(http.Handler) http.Handler {
	devMode := os.Getenv("DEV_MODE") == "true" || os.Getenv("ENVIRONMENT") == "development"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ownerID := ""

			if authManager != nil {
				if session := authManager.GetSession(r); session != nil {
					ownerID = session.UserID
				}
			}
			if ownerID == "" {
				ownerID = r.Header.Get("X-Owner-ID")
			}
			if ownerID == "" && devMode {
				ownerID = "dev-owner"
			}

			if ownerID == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}

			ctx := context.WithValue(r.Context(), ownerContextKey{}, ownerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
