package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/vssamaj/server/internal/auth"
	"github.com/vssamaj/server/internal/logging"
	"github.com/vssamaj/server/internal/middleware"
	"github.com/vssamaj/server/internal/model"
)

// AuthService is the identity lifecycle used by AuthHandler
type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (model.Identity, error)
	ResendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (auth.Session, error)
	Login(ctx context.Context, identifier, password string) (auth.Session, error)
	Profile(ctx context.Context, id uuid.UUID) (model.Identity, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService AuthService
	devMode     bool
}

// NewAuthHandler creates a new auth handler. In dev mode the fixed OTP is echoed
// in register and resend responses.
func NewAuthHandler(authService AuthService, devMode bool) *AuthHandler {
	return &AuthHandler{authService: authService, devMode: devMode}
}

// registerRequest is the request body for POST /api/auth/register
type registerRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Password     string `json:"password"`
	MembershipNo string `json:"membership_no"`
}

// otpSentResponse is the JSON response for register and resend-otp
type otpSentResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	DevOTP  string `json:"dev_otp,omitempty"`
}

// emailRequest is the request body for POST /api/auth/resend-otp
type emailRequest struct {
	Email string `json:"email"`
}

// verifyOTPRequest is the request body for POST /api/auth/verify-otp
type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// loginRequest is the request body for POST /api/auth/login
type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// sessionResponse is the JSON response for verify-otp and login
type sessionResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Token   string               `json:"token"`
	User    model.PublicIdentity `json:"user"`
}

type userResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message,omitempty"`
	User    model.PublicIdentity `json:"user"`
}

func (h *AuthHandler) otpSent(message string) otpSentResponse {
	resp := otpSentResponse{Success: true, Message: message}
	if h.devMode {
		resp.DevOTP = auth.DevOTP
	}
	return resp
}

// HandleRegister handles POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	identity, err := h.authService.Register(r.Context(), auth.RegisterInput{
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		Password:     req.Password,
		MembershipNo: req.MembershipNo,
	})
	if err != nil {
		// the identity exists; only delivery failed
		if identity.ID != uuid.Nil && errors.Is(err, auth.ErrUpstream) {
			logRequestError(r, "otp email delivery failed", err)
			respondWithError(w, http.StatusBadGateway, "Registration saved but the OTP email could not be sent. Please request a new OTP.")
			return
		}
		respondServiceError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "identity registered", "identity_id", identity.ID, "email", logging.MaskEmail(identity.Email))
	respondJSON(w, http.StatusCreated, h.otpSent("Registration successful. Please check your email for OTP verification."))
}

// HandleResendOTP handles POST /api/auth/resend-otp
func (h *AuthHandler) HandleResendOTP(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.authService.ResendOTP(r.Context(), req.Email); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.otpSent("New OTP sent successfully"))
}

// HandleVerifyOTP handles POST /api/auth/verify-otp
func (h *AuthHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.authService.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		slog.InfoContext(r.Context(), "otp verification failed", "email", logging.MaskEmail(req.Email), "error", err)
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{
		Success: true,
		Message: "OTP verified successfully",
		Token:   session.Token,
		User:    session.Identity.Public(),
	})
}

// HandleLogin handles POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.authService.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		slog.InfoContext(r.Context(), "login failed", "identifier", logging.MaskIdentifier(req.Identifier), "error", err)
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{
		Success: true,
		Message: "Login successful",
		Token:   session.Token,
		User:    session.Identity.Public(),
	})
}

// HandleProfile handles GET /api/auth/profile (protected). Returns the authenticated identity.
func (h *AuthHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	identity, err := h.authService.Profile(r.Context(), user.ID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, userResponse{Success: true, User: identity.Public()})
}
