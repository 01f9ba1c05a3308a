package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vssamaj/server/internal/model"
	"github.com/vssamaj/server/internal/repo"
)

// AdminService performs admin-only transitions on other identities.
// Identities holding the admin role can never be blocked, edited or deleted.
type AdminService struct {
	users repo.UserRepo
}

// NewAdminService creates a new admin service
func NewAdminService(users repo.UserRepo) *AdminService {
	return &AdminService{users: users}
}

// ListUsers returns every identity
func (s *AdminService) ListUsers(ctx context.Context, actor *model.Identity) ([]model.Identity, error) {
	if err := RequireRole(actor, model.RoleAdmin); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, upstream("list identities", err)
	}
	return users, nil
}

// ToggleBlock flips the blocked flag of target and returns the updated identity
func (s *AdminService) ToggleBlock(ctx context.Context, actor *model.Identity, target uuid.UUID) (model.Identity, error) {
	identity, err := s.mutableTarget(ctx, actor, target)
	if err != nil {
		return model.Identity{}, err
	}
	return s.setBlocked(ctx, identity, !identity.Blocked)
}

// SetBlocked sets the blocked flag of target
func (s *AdminService) SetBlocked(ctx context.Context, actor *model.Identity, target uuid.UUID, blocked bool) (model.Identity, error) {
	identity, err := s.mutableTarget(ctx, actor, target)
	if err != nil {
		return model.Identity{}, err
	}
	return s.setBlocked(ctx, identity, blocked)
}

func (s *AdminService) setBlocked(ctx context.Context, identity model.Identity, blocked bool) (model.Identity, error) {
	if err := s.users.SetBlocked(ctx, identity.ID, blocked); err != nil {
		return model.Identity{}, s.guardedErr(ctx, identity.ID, "set blocked", err)
	}
	identity.Blocked = blocked
	return identity, nil
}

// EditUser updates fields and role of target
func (s *AdminService) EditUser(ctx context.Context, actor *model.Identity, target uuid.UUID, upd model.IdentityUpdate) (model.Identity, error) {
	identity, err := s.mutableTarget(ctx, actor, target)
	if err != nil {
		return model.Identity{}, err
	}
	if err := validateUpdate(upd.Username, upd.Email, upd.Phone, upd.MembershipNo); err != nil {
		return model.Identity{}, err
	}
	if upd.Empty() {
		return identity, nil
	}
	updated, err := s.users.UpdateMember(ctx, target, upd)
	if err != nil {
		return model.Identity{}, s.guardedErr(ctx, target, "update identity", err)
	}
	return updated, nil
}

// DeleteUser removes target
func (s *AdminService) DeleteUser(ctx context.Context, actor *model.Identity, target uuid.UUID) error {
	if _, err := s.mutableTarget(ctx, actor, target); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, target); err != nil {
		return s.guardedErr(ctx, target, "delete identity", err)
	}
	return nil
}

func (s *AdminService) mutableTarget(ctx context.Context, actor *model.Identity, target uuid.UUID) (model.Identity, error) {
	if err := RequireRole(actor, model.RoleAdmin); err != nil {
		return model.Identity{}, err
	}
	identity, err := s.users.GetByID(ctx, target)
	if err != nil {
		return model.Identity{}, storeErr("load identity", err)
	}
	if identity.Role == model.RoleAdmin {
		return model.Identity{}, ErrProtectedRole
	}
	return identity, nil
}

// guardedErr resolves a failed admin-side write. The store refuses admin rows by
// reporting them missing, so a miss is re-read to tell a promotion that landed
// after mutableTarget apart from a row that is really gone.
func (s *AdminService) guardedErr(ctx context.Context, target uuid.UUID, op string, err error) error {
	if !errors.Is(err, repo.ErrNotFound) {
		return storeErr(op, err)
	}
	current, gerr := s.users.GetByID(ctx, target)
	switch {
	case gerr == nil && current.Role == model.RoleAdmin:
		return ErrProtectedRole
	case gerr != nil && !errors.Is(gerr, repo.ErrNotFound):
		return upstream(op, gerr)
	}
	return ErrNotFound
}
