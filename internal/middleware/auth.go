package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vssamaj/server/internal/auth"
	"github.com/vssamaj/server/internal/model"
)

type contextKey string

const userKey contextKey = "user"

// Authenticator resolves a session token to a live identity
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Identity, error)
}

// Authenticate validates the bearer token through the gate and attaches the
// reloaded identity to the request context
func Authenticate(gate Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := gate.Authenticate(r.Context(), BearerToken(r))
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrMissingToken):
					respondWithError(w, http.StatusUnauthorized, "Access token required")
				case errors.Is(err, auth.ErrInvalidToken):
					respondWithError(w, http.StatusUnauthorized, "Invalid token")
				case errors.Is(err, auth.ErrAccountBlocked):
					respondWithError(w, http.StatusForbidden, "Account is blocked")
				default:
					slog.ErrorContext(r.Context(), "authenticate request", "error", err)
					respondWithError(w, http.StatusInternalServerError, "Internal server error")
				}
				return
			}

			ctx := context.WithValue(r.Context(), userKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose identity does not hold role. Must run after Authenticate.
func RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, _ := GetUser(r.Context())
			if err := auth.RequireRole(identity, role); err != nil {
				respondWithError(w, http.StatusForbidden, "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUser returns the identity attached to the request context (set by Authenticate)
func GetUser(ctx context.Context) (*model.Identity, bool) {
	u, ok := ctx.Value(userKey).(*model.Identity)
	return u, ok && u != nil
}

// WithUser attaches identity to ctx the way Authenticate does
func WithUser(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, userKey, identity)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
// The scheme is matched case-insensitively.
func BearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{Success: false, Message: message})
}
