package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTTL is the validity window of a session token
const TokenTTL = 7 * 24 * time.Hour

// JWTService issues and verifies stateless session tokens
type JWTService struct {
	secret []byte
	now    func() time.Time
}

// NewJWTService creates a new JWT service. An empty secret is refused.
func NewJWTService(secret string) (*JWTService, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &JWTService{
		secret: []byte(secret),
		now:    time.Now,
	}, nil
}

// SignToken creates a session token for the identity (7-day expiry)
func (s *JWTService) SignToken(identityID uuid.UUID) (string, error) {
	now := s.now()
	claims := &jwt.RegisteredClaims{
		Subject:   identityID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// VerifyToken verifies a session token and returns the identity it was issued for.
// Every failure is reported as ErrInvalidToken.
func (s *JWTService) VerifyToken(tokenString string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}
