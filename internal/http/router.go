package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vssamaj/server/internal/http/handlers"
	"github.com/vssamaj/server/internal/middleware"
	"github.com/vssamaj/server/internal/model"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Health        http.Handler
	Auth          *handlers.AuthHandler
	Users         *handlers.UserHandler
	Notifications *handlers.NotificationHandler
	Realtime      http.Handler
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(h Handlers, gate middleware.Authenticator, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)

	r.Method(http.MethodGet, "/health", h.Health)
	r.Method(http.MethodGet, "/ws", h.Realtime)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.HandleRegister)
			r.Post("/resend-otp", h.Auth.HandleResendOTP)
			r.Post("/verify-otp", h.Auth.HandleVerifyOTP)
			r.Post("/login", h.Auth.HandleLogin)

			r.With(middleware.Authenticate(gate)).Get("/profile", h.Auth.HandleProfile)
		})

		// Protected routes (require valid JWT)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(gate))

			r.Put("/users/profile", h.Users.HandleUpdateProfile)
			r.Post("/users/profile/photo", h.Users.HandleUploadPhoto)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleAdmin))

				r.Get("/users", h.Users.HandleListUsers)
				r.Patch("/users/{id}/block", h.Users.HandleToggleBlock)
				r.Put("/users/{id}", h.Users.HandleEditUser)
				r.Delete("/users/{id}", h.Users.HandleDeleteUser)
				r.Post("/notifications", h.Notifications.HandleSend)
			})
		})
	})

	return r
}
