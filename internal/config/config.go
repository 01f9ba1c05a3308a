package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// MinJWTSecretLength is the shortest signing secret the server accepts
const MinJWTSecretLength = 32

// ErrWeakJWTSecret is returned when JWT_SECRET is shorter than MinJWTSecretLength
var ErrWeakJWTSecret = errors.New("JWT_SECRET must be at least 32 bytes")

// Config holds the application configuration
type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	Port        string `env:"PORT" envDefault:"8080"`
	JWTSecret   string `env:"JWT_SECRET,required,notEmpty"`
	OTPSalt     string `env:"OTP_SALT,required,notEmpty"`
	OTPDevMode  bool   `env:"OTP_DEV_MODE"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	BcryptCost  int    `env:"BCRYPT_COST" envDefault:"10"`

	Mail    MailConfig
	Storage StorageConfig
}

// MailConfig configures outbound email. Without an API key OTP emails are only logged.
type MailConfig struct {
	ResendAPIKey string `env:"RESEND_API_KEY"`
	From         string `env:"MAIL_FROM" envDefault:"VS Samaj App <no-reply@vssamaj.app>"`
}

// StorageConfig configures the profile image bucket. Uploads are disabled without a bucket.
type StorageConfig struct {
	Bucket        string `env:"S3_BUCKET"`
	Region        string `env:"S3_REGION" envDefault:"us-east-1"`
	Endpoint      string `env:"S3_ENDPOINT"`
	AccessKey     string `env:"S3_ACCESS_KEY"`
	SecretKey     string `env:"S3_SECRET_KEY"`
	PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`
}

// Load reads configuration from environment variables. Missing secrets fail the load;
// there is no fallback signing secret.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if len(cfg.JWTSecret) < MinJWTSecretLength {
		return nil, ErrWeakJWTSecret
	}
	return &cfg, nil
}

// AdminSeedConfig configures the create-admin command
type AdminSeedConfig struct {
	DatabaseURL  string `env:"DATABASE_URL,required,notEmpty"`
	BcryptCost   int    `env:"BCRYPT_COST" envDefault:"10"`
	Username     string `env:"ADMIN_USERNAME" envDefault:"admin"`
	Email        string `env:"ADMIN_EMAIL" envDefault:"admin@samaj.com"`
	Phone        string `env:"ADMIN_PHONE" envDefault:"+1234567890"`
	Password     string `env:"ADMIN_PASSWORD" envDefault:"admin123"`
	MembershipNo string `env:"ADMIN_MEMBERSHIP_NO" envDefault:"ADMIN001"`
}

// LoadAdminSeed reads the create-admin settings from environment variables
func LoadAdminSeed() (*AdminSeedConfig, error) {
	var cfg AdminSeedConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
