package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vssamaj/server/internal/auth"
	"github.com/vssamaj/server/internal/config"
	"github.com/vssamaj/server/internal/db"
	httphandler "github.com/vssamaj/server/internal/http"
	"github.com/vssamaj/server/internal/http/handlers"
	"github.com/vssamaj/server/internal/logging"
	"github.com/vssamaj/server/internal/mail"
	"github.com/vssamaj/server/internal/realtime"
	"github.com/vssamaj/server/internal/repo"
	"github.com/vssamaj/server/internal/storage"
)

func main() {
	// .env is optional; real env vars win
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(os.Stdout, logging.ParseLevel(cfg.LogLevel))

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return err
	}

	userRepo := repo.NewUserRepo(database)

	jwtService, err := auth.NewJWTService(cfg.JWTSecret)
	if err != nil {
		return err
	}
	otpEngine := auth.NewOTPEngine(userRepo, cfg.OTPSalt, cfg.OTPDevMode)
	passwords := auth.NewPasswordHasher(cfg.BcryptCost)

	var mailer auth.Mailer
	if cfg.Mail.ResendAPIKey != "" {
		if mailer, err = mail.NewResendMailer(cfg.Mail.ResendAPIKey, cfg.Mail.From); err != nil {
			return err
		}
	} else {
		logger.Warn("RESEND_API_KEY not set, OTP emails are only logged")
		mailer = mail.NewLogMailer(logger, cfg.OTPDevMode)
	}

	var images auth.ImageStore
	if cfg.Storage.Bucket != "" {
		store, err := storage.NewS3ImageStore(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		images = store
	} else {
		logger.Warn("S3_BUCKET not set, profile photo uploads are disabled")
	}

	authService := auth.NewAuthService(userRepo, otpEngine, jwtService, passwords, mailer)
	gate := auth.NewGate(jwtService, userRepo)
	hub := realtime.NewHub()

	router := httphandler.NewRouter(httphandler.Handlers{
		Health:        handlers.NewHealthHandler(database),
		Auth:          handlers.NewAuthHandler(authService, cfg.OTPDevMode),
		Users:         handlers.NewUserHandler(auth.NewProfileService(userRepo, images), auth.NewAdminService(userRepo)),
		Notifications: handlers.NewNotificationHandler(hub),
		Realtime:      realtime.NewServer(gate, hub),
	}, gate, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "otp_dev_mode", cfg.OTPDevMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}
