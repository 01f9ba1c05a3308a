package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the authorization role carried by an identity
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// ParseRole maps an API role name to a Role. "user" is accepted as an alias for member.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "member", "user":
		return RoleMember, true
	case "admin":
		return RoleAdmin, true
	}
	return "", false
}

// Identity represents a registered account
type Identity struct {
	ID           uuid.UUID
	Username     string
	Email        string
	Phone        string
	MembershipNo string
	PasswordHash string
	Role         Role
	Verified     bool
	Blocked      bool
	// PendingCode holds the hash of the live OTP; set together with PendingCodeExpiry.
	PendingCode       *string
	PendingCodeExpiry *time.Time
	ProfileImage      *string
	CreatedAt         time.Time
}

// HasPendingCode reports whether an OTP is awaiting verification
func (i *Identity) HasPendingCode() bool {
	return i.PendingCode != nil && i.PendingCodeExpiry != nil
}

// PublicIdentity is the projection of an Identity that may leave the server
type PublicIdentity struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	MembershipNo string    `json:"membership_no"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	IsBlocked    bool      `json:"is_blocked"`
	CreatedAt    time.Time `json:"created_at"`
	ProfilePhoto *string   `json:"profile_photo"`
}

// Public returns the public projection. Password hash and OTP fields are never included.
func (i *Identity) Public() PublicIdentity {
	return PublicIdentity{
		ID:           i.ID.String(),
		Username:     i.Username,
		Email:        i.Email,
		Phone:        i.Phone,
		MembershipNo: i.MembershipNo,
		Role:         i.Role,
		IsActive:     i.Verified,
		IsBlocked:    i.Blocked,
		CreatedAt:    i.CreatedAt,
		ProfilePhoto: i.ProfileImage,
	}
}

// IdentityUpdate carries optional field edits. Nil fields are left unchanged.
type IdentityUpdate struct {
	Username     *string
	Email        *string
	Phone        *string
	MembershipNo *string
	Role         *Role
}

// Empty reports whether the update changes nothing
func (u IdentityUpdate) Empty() bool {
	return u.Username == nil && u.Email == nil && u.Phone == nil && u.MembershipNo == nil && u.Role == nil
}
