package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/vssamaj/server/internal/auth"
	"github.com/vssamaj/server/internal/config"
	"github.com/vssamaj/server/internal/db"
	"github.com/vssamaj/server/internal/logging"
	"github.com/vssamaj/server/internal/repo"
)

func main() {
	_ = godotenv.Load(".env")
	logger := logging.Setup(os.Stdout, slog.LevelInfo)

	cfg, err := config.LoadAdminSeed()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("create admin failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.AdminSeedConfig, logger *slog.Logger) error {
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return err
	}

	admin, err := auth.SeedAdmin(ctx, repo.NewUserRepo(database), auth.NewPasswordHasher(cfg.BcryptCost), auth.RegisterInput{
		Username:     cfg.Username,
		Email:        cfg.Email,
		Phone:        cfg.Phone,
		Password:     cfg.Password,
		MembershipNo: cfg.MembershipNo,
	})
	if errors.Is(err, auth.ErrDuplicateIdentity) {
		logger.Info("admin user already exists", "email", logging.MaskEmail(cfg.Email))
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("admin user created", "id", admin.ID, "username", admin.Username, "email", logging.MaskEmail(admin.Email))
	return nil
}
