package auth

import (
	"context"

	"github.com/vssamaj/server/internal/model"
	"github.com/vssamaj/server/internal/repo"
)

// SeedAdmin stores a verified admin identity. The input is normalized and validated
// like a registration. A collision on any unique field yields ErrDuplicateIdentity.
func SeedAdmin(ctx context.Context, users repo.UserRepo, passwords *PasswordHasher, in RegisterInput) (model.Identity, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return model.Identity{}, err
	}

	hash, err := passwords.Hash(in.Password)
	if err != nil {
		return model.Identity{}, err
	}

	created, err := users.Create(ctx, &model.Identity{
		Username:     in.Username,
		Email:        in.Email,
		Phone:        in.Phone,
		MembershipNo: in.MembershipNo,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Verified:     true,
	})
	if err != nil {
		return model.Identity{}, storeErr("create admin", err)
	}
	return created, nil
}
