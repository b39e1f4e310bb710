package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"life-story-backend/internal/services"
)

type contextKey string

const authenticatedKey contextKey = "authenticated"

// RequireAuth creates a middleware that rejects requests without a
// valid bearer token.
func RequireAuth(tokens *services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, errMsg := bearerToken(r)
			if errMsg != "" {
				respondError(w, errMsg, http.StatusUnauthorized)
				return
			}

			valid, err := tokens.Validate(token)
			if err != nil {
				if errors.Is(err, services.ErrInvalidToken) {
					respondError(w, "Invalid token format", http.StatusUnauthorized)
					return
				}
				respondError(w, "Authentication error", http.StatusInternalServerError)
				return
			}
			if !valid {
				respondError(w, "Invalid authentication token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), authenticatedKey, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth creates a middleware that never rejects but records
// whether a valid token was presented. Handlers read the flag via
// IsAuthenticated to vary their output.
func OptionalAuth(tokens *services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authenticated := false
			if token, errMsg := bearerToken(r); errMsg == "" {
				if valid, err := tokens.Validate(token); err == nil && valid {
					authenticated = true
				}
			}

			ctx := context.WithValue(r.Context(), authenticatedKey, authenticated)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsAuthenticated reports whether the request carried a valid token.
func IsAuthenticated(ctx context.Context) bool {
	authenticated, ok := ctx.Value(authenticatedKey).(bool)
	return ok && authenticated
}

// bearerToken extracts the token from the Authorization header. The
// second return value is a client-facing error message, empty on
// success.
func bearerToken(r *http.Request) (string, string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", "Authorization header required"
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "Invalid authorization format"
	}
	return parts[1], ""
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
