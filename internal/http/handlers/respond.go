package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vssamaj/server/internal/auth"
)

const msgDuplicate = "User with this email, phone, username, or membership number already exists"

type errorResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  []auth.FieldError `json:"errors,omitempty"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, errorResponse{Success: false, Message: message})
}

// respondServiceError maps a service error onto a status code and message.
// Unexpected errors are logged and never leak to the client.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *auth.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusBadRequest, errorResponse{Message: "Validation errors", Errors: verr.Fields})
		return
	}

	switch {
	case errors.Is(err, auth.ErrDuplicateIdentity):
		respondWithError(w, http.StatusBadRequest, msgDuplicate)
	case errors.Is(err, auth.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, auth.ErrAlreadyVerified):
		respondWithError(w, http.StatusBadRequest, "User is already verified")
	case errors.Is(err, auth.ErrInvalidOrExpiredOTP):
		respondWithError(w, http.StatusBadRequest, "Invalid or expired OTP")
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, auth.ErrNotVerified):
		respondWithError(w, http.StatusUnauthorized, "Account not activated. Please verify your email.")
	case errors.Is(err, auth.ErrAccountBlocked):
		respondWithError(w, http.StatusUnauthorized, "Account is blocked. Please contact administrator.")
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		respondWithError(w, http.StatusUnauthorized, "Invalid token")
	case errors.Is(err, auth.ErrForbidden):
		respondWithError(w, http.StatusForbidden, "Admin access required")
	case errors.Is(err, auth.ErrProtectedRole):
		respondWithError(w, http.StatusBadRequest, "Admin users cannot be modified")
	case errors.Is(err, auth.ErrStorageDisabled):
		respondWithError(w, http.StatusServiceUnavailable, "Profile photo uploads are not configured")
	case errors.Is(err, auth.ErrUpstream):
		logRequestError(r, "upstream failure", err)
		respondWithError(w, http.StatusBadGateway, "Service temporarily unavailable")
	default:
		logRequestError(r, "request failed", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func logRequestError(r *http.Request, msg string, err error) {
	slog.ErrorContext(r.Context(), msg,
		"request_id", chimw.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
}

// optional treats an absent or empty JSON string as "not provided"
func optional(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
