package auth

import (
	"context"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/vssamaj/server/internal/model"
	"github.com/vssamaj/server/internal/repo"
)

// MaxProfileImageSize bounds profile image uploads
const MaxProfileImageSize = 5 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// ImageStore is the object storage that owns profile images
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, ref string) error
}

// ProfileService handles self-service edits of the caller's own identity
type ProfileService struct {
	users  repo.UserRepo
	images ImageStore
}

// NewProfileService creates a new profile service. images may be nil when uploads are disabled.
func NewProfileService(users repo.UserRepo, images ImageStore) *ProfileService {
	return &ProfileService{users: users, images: images}
}

// ProfileUpdate carries the self-editable fields. Role is not self-editable.
type ProfileUpdate struct {
	Username     *string
	Email        *string
	Phone        *string
	MembershipNo *string
}

// UpdateProfile applies the non-nil fields to the caller's identity
func (s *ProfileService) UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileUpdate) (model.Identity, error) {
	if err := validateUpdate(in.Username, in.Email, in.Phone, in.MembershipNo); err != nil {
		return model.Identity{}, err
	}
	upd := model.IdentityUpdate{
		Username:     in.Username,
		Email:        in.Email,
		Phone:        in.Phone,
		MembershipNo: in.MembershipNo,
	}
	if upd.Empty() {
		identity, err := s.users.GetByID(ctx, id)
		if err != nil {
			return model.Identity{}, storeErr("load identity", err)
		}
		return identity, nil
	}
	identity, err := s.users.Update(ctx, id, upd)
	if err != nil {
		return model.Identity{}, storeErr("update identity", err)
	}
	return identity, nil
}

// SetProfileImage uploads a new profile image and replaces the stored reference.
// The previous object is removed best-effort.
func (s *ProfileService) SetProfileImage(ctx context.Context, id uuid.UUID, filename, contentType string, body io.Reader, size int64) (string, error) {
	if s.images == nil {
		return "", ErrStorageDisabled
	}

	verr := &ValidationError{}
	ext, ok := imageExtensions[strings.ToLower(contentType)]
	if !ok || !allowedImageName(filename) {
		verr.add("profilePhoto", "Only jpeg, png or gif images are allowed")
	}
	if size <= 0 || size > MaxProfileImageSize {
		verr.add("profilePhoto", "Image must be at most 5MB")
	}
	if err := verr.errOrNil(); err != nil {
		return "", err
	}

	identity, err := s.users.GetByID(ctx, id)
	if err != nil {
		return "", storeErr("load identity", err)
	}

	key := "profiles/" + id.String() + "/" + uuid.NewString() + ext
	ref, err := s.images.Put(ctx, key, contentType, body, size)
	if err != nil {
		return "", upstream("store profile image", err)
	}
	if err := s.users.SetProfileImage(ctx, id, ref); err != nil {
		return "", storeErr("set profile image", err)
	}

	if identity.ProfileImage != nil && *identity.ProfileImage != "" {
		if err := s.images.Delete(ctx, *identity.ProfileImage); err != nil {
			slog.WarnContext(ctx, "failed to delete old profile image", "identity_id", id, "error", err)
		}
	}
	return ref, nil
}

func allowedImageName(filename string) bool {
	switch strings.ToLower(path.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".gif":
		return true
	}
	return false
}
