package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// Middleware returns an HTTP middleware that authenticates the caller and
// stores the resulting Identity in the request context.
//
// Authentication precedence:
//  1. Authorization: Bearer <jwt>  →  OIDC validation
//  2. X-Account-ID: <id>           →  Development-only fallback (no real auth)
//
// Requests with neither pass through unauthenticated; RequireAuth rejects
// them at the route group boundary.
func Middleware(oidcAuth *OIDCAuthenticator, devMode bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var identity *Identity

			if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") || strings.HasPrefix(authHeader, "bearer ") {
				if oidcAuth == nil {
					logger.Warn("JWT presented but OIDC is not configured")
					respondErr(w, http.StatusUnauthorized, "unauthorized", "OIDC authentication not configured")
					return
				}

				claims, err := oidcAuth.Authenticate(r.Context(), authHeader)
				if err != nil {
					logger.Warn("OIDC authentication failed", "error", err)
					respondErr(w, http.StatusUnauthorized, "unauthorized", "invalid token")
					return
				}

				identity = &Identity{
					AccountID: claims.Subject,
					Email:     claims.Email,
					Method:    MethodOIDC,
				}

				logger.Debug("authenticated via OIDC",
					"sub", claims.Subject,
					"email", claims.Email,
				)
			}

			// Dev-mode fallback: X-Account-ID header (no real authentication).
			if identity == nil && devMode {
				if accountID := r.Header.Get("X-Account-ID"); accountID != "" {
					identity = &Identity{
						AccountID: accountID,
						Email:     "dev@localhost",
						Method:    MethodDev,
					}

					logger.Debug("dev-mode authentication", "account_id", accountID)
				}
			}

			if identity != nil {
				r = r.WithContext(NewContext(r.Context(), identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects requests that did not authenticate.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) == nil {
			respondErr(w, http.StatusUnauthorized, "unauthorized", "no valid authentication provided")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func respondErr(w http.ResponseWriter, status int, errStr, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   errStr,
		"message": message,
	})
}
