package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/vssamaj/server/internal/model"
	"github.com/vssamaj/server/internal/repo"
)

const (
	otpLength = 6
	otpExpiry = 2 * time.Minute
)

// DevOTP is the code issued for every identity when dev mode is on
const DevOTP = "123456"

var otpSpace = big.NewInt(1_000_000)

// OTPEngine issues and checks one-time codes stored on the identity record.
// Only a salted hash of the code is persisted.
type OTPEngine struct {
	users   repo.UserRepo
	salt    string
	devMode bool
	now     func() time.Time
	random  io.Reader
}

// NewOTPEngine creates a new OTP engine. In dev mode every issued code is 123456.
func NewOTPEngine(users repo.UserRepo, salt string, devMode bool) *OTPEngine {
	return &OTPEngine{
		users:   users,
		salt:    salt,
		devMode: devMode,
		now:     time.Now,
		random:  rand.Reader,
	}
}

// Prepare generates a code and sets the pending OTP fields on identity without persisting them.
// identity.ID must already be assigned.
func (e *OTPEngine) Prepare(identity *model.Identity) (string, error) {
	code := DevOTP
	if !e.devMode {
		var err error
		code, err = e.generateCode()
		if err != nil {
			return "", fmt.Errorf("generate otp: %w", err)
		}
	}

	hash := hashOTPHex(identity.ID.String(), code, e.salt)
	expiresAt := e.now().Add(otpExpiry)
	identity.PendingCode = &hash
	identity.PendingCodeExpiry = &expiresAt
	return code, nil
}

// Issue generates a code, overwrites any pending one and returns the plaintext for delivery.
func (e *OTPEngine) Issue(ctx context.Context, identity *model.Identity) (string, error) {
	prepared := *identity
	code, err := e.Prepare(&prepared)
	if err != nil {
		return "", err
	}
	if err := e.users.SetPendingCode(ctx, identity.ID, *prepared.PendingCode, *prepared.PendingCodeExpiry); err != nil {
		return "", upstream("store otp", err)
	}
	identity.PendingCode = prepared.PendingCode
	identity.PendingCodeExpiry = prepared.PendingCodeExpiry
	return code, nil
}

// Verify checks code against the pending OTP. On success the identity is activated and the
// code cleared in a single write. A failed check leaves the pending code untouched.
func (e *OTPEngine) Verify(ctx context.Context, identity *model.Identity, code string) error {
	if !identity.HasPendingCode() {
		return ErrInvalidOrExpiredOTP
	}
	if !e.now().Before(*identity.PendingCodeExpiry) {
		return ErrInvalidOrExpiredOTP
	}

	stored, err := hex.DecodeString(*identity.PendingCode)
	if err != nil {
		return ErrInvalidOrExpiredOTP
	}
	if subtle.ConstantTimeCompare(hashOTPBytes(identity.ID.String(), code, e.salt), stored) != 1 {
		return ErrInvalidOrExpiredOTP
	}

	if err := e.users.Activate(ctx, identity.ID); err != nil {
		return upstream("activate identity", err)
	}
	identity.Verified = true
	identity.PendingCode = nil
	identity.PendingCodeExpiry = nil
	return nil
}

func (e *OTPEngine) generateCode() (string, error) {
	n, err := rand.Int(e.random, otpSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpLength, n.Int64()), nil
}

// hashOTPHex returns SHA-256(identity:code:salt) as hex for DB storage
func hashOTPHex(identityID, code, salt string) string {
	return hex.EncodeToString(hashOTPBytes(identityID, code, salt))
}

func hashOTPBytes(identityID, code, salt string) []byte {
	data := fmt.Sprintf("%s:%s:%s", identityID, code, salt)
	hash := sha256.Sum256([]byte(data))
	return hash[:]
}
