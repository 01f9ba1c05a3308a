package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vssamaj/server/internal/model"
	"github.com/vssamaj/server/internal/repo"
)

// Mailer delivers OTP codes to an email address
type Mailer interface {
	SendOTP(ctx context.Context, to, code string) error
}

// Session is the result of a successful verification or login
type Session struct {
	Token    string
	Identity model.Identity
}

// AuthService drives the identity lifecycle: registration, OTP verification, login
type AuthService struct {
	users     repo.UserRepo
	otp       *OTPEngine
	tokens    *JWTService
	passwords *PasswordHasher
	mailer    Mailer
}

// NewAuthService creates a new auth service
func NewAuthService(
	users repo.UserRepo,
	otp *OTPEngine,
	tokens *JWTService,
	passwords *PasswordHasher,
	mailer Mailer,
) *AuthService {
	return &AuthService{
		users:     users,
		otp:       otp,
		tokens:    tokens,
		passwords: passwords,
		mailer:    mailer,
	}
}

// Register creates an unverified identity carrying a fresh OTP and emails the code.
// If delivery fails the identity and its pending code remain; ResendOTP recovers.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.Identity, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return model.Identity{}, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return model.Identity{}, err
	}

	identity := model.Identity{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        in.Email,
		Phone:        in.Phone,
		MembershipNo: in.MembershipNo,
		PasswordHash: hash,
		Role:         model.RoleMember,
	}
	code, err := s.otp.Prepare(&identity)
	if err != nil {
		return model.Identity{}, err
	}

	created, err := s.users.Create(ctx, &identity)
	if err != nil {
		return model.Identity{}, storeErr("create identity", err)
	}

	if err := s.mailer.SendOTP(ctx, created.Email, code); err != nil {
		return created, upstream("send otp email", err)
	}
	return created, nil
}

// ResendOTP replaces the pending code of an unverified identity and emails it
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if err := validateEmailOnly(email); err != nil {
		return err
	}

	identity, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return storeErr("load identity", err)
	}
	if identity.Verified {
		return ErrAlreadyVerified
	}

	code, err := s.otp.Issue(ctx, &identity)
	if err != nil {
		return err
	}
	if err := s.mailer.SendOTP(ctx, identity.Email, code); err != nil {
		return upstream("send otp email", err)
	}
	return nil
}

// VerifyOTP activates the identity and issues a session token
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (Session, error) {
	email = NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if err := validateVerify(email, code); err != nil {
		return Session{}, err
	}

	identity, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return Session{}, storeErr("load identity", err)
	}
	if err := s.otp.Verify(ctx, &identity, code); err != nil {
		return Session{}, err
	}
	return s.issue(identity)
}

// Login checks credentials and issues a session token. Unknown identifiers and wrong
// passwords both yield ErrInvalidCredentials; verification and block status are only
// reported once the password matched.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (Session, error) {
	identifier = strings.TrimSpace(identifier)
	if err := validateLogin(identifier, password); err != nil {
		return Session{}, err
	}
	if strings.Contains(identifier, "@") {
		identifier = NormalizeEmail(identifier)
	} else {
		identifier = NormalizePhone(identifier)
	}

	identity, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.passwords.CompareDummy(password)
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, upstream("load identity", err)
	}

	ok, err := s.passwords.Compare(identity.PasswordHash, password)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrInvalidCredentials
	}
	if !identity.Verified {
		return Session{}, ErrNotVerified
	}
	if identity.Blocked {
		return Session{}, ErrAccountBlocked
	}
	return s.issue(identity)
}

// Profile returns the current identity record
func (s *AuthService) Profile(ctx context.Context, id uuid.UUID) (model.Identity, error) {
	identity, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.Identity{}, storeErr("load identity", err)
	}
	return identity, nil
}

func (s *AuthService) issue(identity model.Identity) (Session, error) {
	if !identity.Verified {
		return Session{}, ErrNotVerified
	}
	token, err := s.tokens.SignToken(identity.ID)
	if err != nil {
		return Session{}, fmt.Errorf("issue session: %w", err)
	}
	return Session{Token: token, Identity: identity}, nil
}
