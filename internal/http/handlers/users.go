package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vssamaj/server/internal/auth"
	"github.com/vssamaj/server/internal/middleware"
	"github.com/vssamaj/server/internal/model"
)

const multipartOverhead = 1 << 20

// ProfileService is the self-service profile editing used by UserHandler
type ProfileService interface {
	UpdateProfile(ctx context.Context, id uuid.UUID, in auth.ProfileUpdate) (model.Identity, error)
	SetProfileImage(ctx context.Context, id uuid.UUID, filename, contentType string, body io.Reader, size int64) (string, error)
}

// AdminService is the admin-only user management used by UserHandler
type AdminService interface {
	ListUsers(ctx context.Context, actor *model.Identity) ([]model.Identity, error)
	ToggleBlock(ctx context.Context, actor *model.Identity, target uuid.UUID) (model.Identity, error)
	SetBlocked(ctx context.Context, actor *model.Identity, target uuid.UUID, blocked bool) (model.Identity, error)
	EditUser(ctx context.Context, actor *model.Identity, target uuid.UUID, upd model.IdentityUpdate) (model.Identity, error)
	DeleteUser(ctx context.Context, actor *model.Identity, target uuid.UUID) error
}

// UserHandler handles /api/users endpoints
type UserHandler struct {
	profile ProfileService
	admin   AdminService
}

// NewUserHandler creates a new user handler
func NewUserHandler(profile ProfileService, admin AdminService) *UserHandler {
	return &UserHandler{profile: profile, admin: admin}
}

type updateProfileRequest struct {
	Username     *string `json:"username"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	MembershipNo *string `json:"membership_no"`
}

type updateUserRequest struct {
	updateProfileRequest
	Role *string `json:"role"`
}

type blockRequest struct {
	Blocked *bool `json:"blocked"`
}

type usersResponse struct {
	Success bool                   `json:"success"`
	Users   []model.PublicIdentity `json:"users"`
}

type photoResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	ProfilePhoto string `json:"profilePhoto"`
}

// HandleUpdateProfile handles PUT /api/users/profile
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	identity, err := h.profile.UpdateProfile(r.Context(), user.ID, auth.ProfileUpdate{
		Username:     optional(req.Username),
		Email:        optional(req.Email),
		Phone:        optional(req.Phone),
		MembershipNo: optional(req.MembershipNo),
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, userResponse{Success: true, Message: "Profile updated successfully", User: identity.Public()})
}

// HandleUploadPhoto handles POST /api/users/profile/photo (multipart field profilePhoto)
func (h *UserHandler) HandleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, auth.MaxProfileImageSize+multipartOverhead)
	if err := r.ParseMultipartForm(auth.MaxProfileImageSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusBadRequest, "Image must be at most 5MB")
			return
		}
		respondWithError(w, http.StatusBadRequest, "No image file provided")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("profilePhoto")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "No image file provided")
		return
	}
	defer file.Close()

	ref, err := h.profile.SetProfileImage(r.Context(), user.ID, header.Filename, header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, photoResponse{Success: true, Message: "Profile photo updated successfully", ProfilePhoto: ref})
}

// HandleListUsers handles GET /api/users (admin)
func (h *UserHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.GetUser(r.Context())
	users, err := h.admin.ListUsers(r.Context(), actor)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	out := make([]model.PublicIdentity, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	respondJSON(w, http.StatusOK, usersResponse{Success: true, Users: out})
}

// HandleToggleBlock handles PATCH /api/users/{id}/block (admin).
// A body of {"blocked": bool} sets the flag; without it the flag is toggled.
func (h *UserHandler) HandleToggleBlock(w http.ResponseWriter, r *http.Request) {
	target, ok := targetID(w, r)
	if !ok {
		return
	}
	actor, _ := middleware.GetUser(r.Context())

	var req blockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var (
		identity model.Identity
		err      error
	)
	if req.Blocked != nil {
		identity, err = h.admin.SetBlocked(r.Context(), actor, target, *req.Blocked)
	} else {
		identity, err = h.admin.ToggleBlock(r.Context(), actor, target)
	}
	if err != nil {
		if errors.Is(err, auth.ErrProtectedRole) {
			respondWithError(w, http.StatusBadRequest, "Cannot block admin users")
			return
		}
		respondServiceError(w, r, err)
		return
	}

	msg := "User unblocked successfully"
	if identity.Blocked {
		msg = "User blocked successfully"
	}
	respondJSON(w, http.StatusOK, userResponse{Success: true, Message: msg, User: identity.Public()})
}

// HandleEditUser handles PUT /api/users/{id} (admin)
func (h *UserHandler) HandleEditUser(w http.ResponseWriter, r *http.Request) {
	target, ok := targetID(w, r)
	if !ok {
		return
	}
	actor, _ := middleware.GetUser(r.Context())

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	upd := model.IdentityUpdate{
		Username:     optional(req.Username),
		Email:        optional(req.Email),
		Phone:        optional(req.Phone),
		MembershipNo: optional(req.MembershipNo),
	}
	if role := optional(req.Role); role != nil {
		parsed, ok := model.ParseRole(*role)
		if !ok {
			respondJSON(w, http.StatusBadRequest, errorResponse{
				Message: "Validation errors",
				Errors:  []auth.FieldError{{Field: "role", Message: "Role must be member or admin"}},
			})
			return
		}
		upd.Role = &parsed
	}

	identity, err := h.admin.EditUser(r.Context(), actor, target, upd)
	if err != nil {
		if errors.Is(err, auth.ErrProtectedRole) {
			respondWithError(w, http.StatusBadRequest, "Cannot edit admin users")
			return
		}
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, userResponse{Success: true, Message: "User updated successfully", User: identity.Public()})
}

// HandleDeleteUser handles DELETE /api/users/{id} (admin)
func (h *UserHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	target, ok := targetID(w, r)
	if !ok {
		return
	}
	actor, _ := middleware.GetUser(r.Context())

	if err := h.admin.DeleteUser(r.Context(), actor, target); err != nil {
		if errors.Is(err, auth.ErrProtectedRole) {
			respondWithError(w, http.StatusBadRequest, "Cannot delete admin users")
			return
		}
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Success: true, Message: "User deleted successfully"})
}

// targetID parses the {id} path parameter; a malformed ID cannot name any user
func targetID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, "User not found")
		return uuid.Nil, false
	}
	return id, true
}
