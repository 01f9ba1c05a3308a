package auth

import (
	"context"
	"errors"

	"github.com/vssamaj/server/internal/model"
	"github.com/vssamaj/server/internal/repo"
)

// Gate authenticates session tokens against the current identity state.
// It never mutates anything.
type Gate struct {
	tokens *JWTService
	users  repo.UserRepo
}

// NewGate creates a new authorization gate
func NewGate(tokens *JWTService, users repo.UserRepo) *Gate {
	return &Gate{tokens: tokens, users: users}
}

// Authenticate verifies the token and reloads its subject. The identity must still exist,
// be verified and not be blocked; a valid signature alone is not enough.
func (g *Gate) Authenticate(ctx context.Context, token string) (*model.Identity, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	id, err := g.tokens.VerifyToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	identity, err := g.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, upstream("load identity", err)
	}
	if !identity.Verified {
		return nil, ErrInvalidToken
	}
	if identity.Blocked {
		return nil, ErrAccountBlocked
	}
	return &identity, nil
}

// RequireRole fails with ErrForbidden unless identity currently holds role
func RequireRole(identity *model.Identity, role model.Role) error {
	if identity == nil || identity.Role != role {
		return ErrForbidden
	}
	return nil
}
