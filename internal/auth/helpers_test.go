package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vssamaj/server/internal/model"
)

const testSecret = "test-jwt-secret-at-least-32-characters-long"

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type testEnv struct {
	repo      *memRepo
	mailer    *captureMailer
	images    *memImages
	clock     *fakeClock
	otp       *OTPEngine
	tokens    *JWTService
	passwords *PasswordHasher
	auth      *AuthService
	gate      *Gate
	admin     *AdminService
	profile   *ProfileService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	users := newMemRepo()
	users.now = clock.Now
	mailer := newCaptureMailer()
	images := newMemImages()

	otp := NewOTPEngine(users, "test-salt", false)
	otp.now = clock.Now

	tokens, err := NewJWTService(testSecret)
	require.NoError(t, err)
	tokens.now = clock.Now

	passwords := NewPasswordHasher(bcrypt.MinCost)

	return &testEnv{
		repo:      users,
		mailer:    mailer,
		images:    images,
		clock:     clock,
		otp:       otp,
		tokens:    tokens,
		passwords: passwords,
		auth:      NewAuthService(users, otp, tokens, passwords, mailer),
		gate:      NewGate(tokens, users),
		admin:     NewAdminService(users),
		profile:   NewProfileService(users, images),
	}
}

func aliceInput() RegisterInput {
	return RegisterInput{
		Username:     "alice",
		Email:        "a@x.com",
		Phone:        "+15551234567",
		Password:     "pw123456",
		MembershipNo: "M001",
	}
}

// registerActive registers and verifies an identity, returning its session
func (e *testEnv) registerActive(t *testing.T, in RegisterInput) Session {
	t.Helper()
	ctx := context.Background()
	_, err := e.auth.Register(ctx, in)
	require.NoError(t, err)
	session, err := e.auth.VerifyOTP(ctx, in.Email, e.mailer.last(NormalizeEmail(in.Email)))
	require.NoError(t, err)
	return session
}

// seedAdmin stores a verified admin directly
func (e *testEnv) seedAdmin(t *testing.T, username, phone string) model.Identity {
	t.Helper()
	hash, err := e.passwords.Hash("admin123")
	require.NoError(t, err)
	admin, err := e.repo.Create(context.Background(), &model.Identity{
		Username:     username,
		Email:        username + "@samaj.com",
		Phone:        phone,
		MembershipNo: "ADMIN-" + username,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Verified:     true,
	})
	require.NoError(t, err)
	return admin
}
