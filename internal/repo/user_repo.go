package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/vssamaj/server/internal/model"
)

var (
	// ErrNotFound is returned when no identity matches the lookup
	ErrNotFound = errors.New("identity not found")
	// ErrDuplicate is returned when a unique field (username, email, phone, membership no.) collides
	ErrDuplicate = errors.New("identity already exists")
)

const uniqueViolation = "23505"

// notAdmin restricts admin-side writes to non-admin rows in the same statement
// that performs them. An admin row therefore reads as ErrNotFound.
const notAdmin = ` AND role <> 'admin'`

const identityColumns = `id, username, email, phone, membership_no, password_hash, role,
	verified, blocked, otp_hash, otp_expires_at, profile_image, created_at`

// UserRepo defines the interface for identity repository operations
type UserRepo interface {
	Create(ctx context.Context, identity *model.Identity) (model.Identity, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.Identity, error)
	GetByEmail(ctx context.Context, email string) (model.Identity, error)
	GetByIdentifier(ctx context.Context, identifier string) (model.Identity, error)
	List(ctx context.Context) ([]model.Identity, error)
	SetPendingCode(ctx context.Context, id uuid.UUID, codeHash string, expiresAt time.Time) error
	Activate(ctx context.Context, id uuid.UUID) error
	SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error
	Update(ctx context.Context, id uuid.UUID, upd model.IdentityUpdate) (model.Identity, error)
	UpdateMember(ctx context.Context, id uuid.UUID, upd model.IdentityUpdate) (model.Identity, error)
	SetProfileImage(ctx context.Context, id uuid.UUID, ref string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type userRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new UserRepo instance
func NewUserRepo(db *sql.DB) UserRepo {
	return &userRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (model.Identity, error) {
	var (
		identity model.Identity
		idStr    string
		role     string
	)
	err := row.Scan(
		&idStr,
		&identity.Username,
		&identity.Email,
		&identity.Phone,
		&identity.MembershipNo,
		&identity.PasswordHash,
		&role,
		&identity.Verified,
		&identity.Blocked,
		&identity.PendingCode,
		&identity.PendingCodeExpiry,
		&identity.ProfileImage,
		&identity.CreatedAt,
	)
	if err != nil {
		return model.Identity{}, err
	}
	identity.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to parse identity ID: %w", err)
	}
	identity.Role = model.Role(role)
	return identity, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Create inserts a new identity. A nil ID is generated here. A collision on any unique
// field yields ErrDuplicate and no row.
func (r *userRepo) Create(ctx context.Context, identity *model.Identity) (model.Identity, error) {
	if identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}
	query := `
		INSERT INTO identities (id, username, email, phone, membership_no, password_hash, role, verified, otp_hash, otp_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + identityColumns

	row := r.db.QueryRowContext(ctx, query,
		identity.ID,
		identity.Username,
		identity.Email,
		identity.Phone,
		identity.MembershipNo,
		identity.PasswordHash,
		string(identity.Role),
		identity.Verified,
		identity.PendingCode,
		identity.PendingCodeExpiry,
	)
	created, err := scanIdentity(row)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Identity{}, ErrDuplicate
		}
		return model.Identity{}, fmt.Errorf("failed to insert identity: %w", err)
	}
	return created, nil
}

func (r *userRepo) getOne(ctx context.Context, where string, arg any) (model.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE ` + where
	identity, err := scanIdentity(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Identity{}, ErrNotFound
		}
		return model.Identity{}, fmt.Errorf("failed to query identity: %w", err)
	}
	return identity, nil
}

// GetByID retrieves an identity by ID
func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Identity, error) {
	return r.getOne(ctx, `id = $1`, id)
}

// GetByEmail retrieves an identity by email
func (r *userRepo) GetByEmail(ctx context.Context, email string) (model.Identity, error) {
	return r.getOne(ctx, `email = $1`, email)
}

// GetByIdentifier retrieves an identity whose email or phone equals identifier
func (r *userRepo) GetByIdentifier(ctx context.Context, identifier string) (model.Identity, error) {
	return r.getOne(ctx, `email = $1 OR phone = $1 LIMIT 1`, identifier)
}

// List returns all identities, oldest first
func (r *userRepo) List(ctx context.Context) ([]model.Identity, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+identityColumns+` FROM identities ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	defer rows.Close()

	var out []model.Identity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan identity: %w", err)
		}
		out = append(out, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate identities: %w", err)
	}
	return out, nil
}

func (r *userRepo) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPendingCode overwrites the pending OTP hash and its expiry
func (r *userRepo) SetPendingCode(ctx context.Context, id uuid.UUID, codeHash string, expiresAt time.Time) error {
	return r.execOne(ctx, "set pending code", `
		UPDATE identities SET otp_hash = $2, otp_expires_at = $3 WHERE id = $1
	`, id, codeHash, expiresAt)
}

// Activate marks the identity verified and clears the OTP fields in one statement
func (r *userRepo) Activate(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, "activate", `
		UPDATE identities SET verified = TRUE, otp_hash = NULL, otp_expires_at = NULL WHERE id = $1
	`, id)
}

// SetBlocked sets the blocked flag of a non-admin identity. Admin rows never
// match and yield ErrNotFound.
func (r *userRepo) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error {
	return r.execOne(ctx, "set blocked", `
		UPDATE identities SET blocked = $2 WHERE id = $1`+notAdmin, id, blocked)
}

// Update applies the non-nil fields of upd and returns the updated identity
func (r *userRepo) Update(ctx context.Context, id uuid.UUID, upd model.IdentityUpdate) (model.Identity, error) {
	return r.update(ctx, id, upd, "")
}

// UpdateMember is Update restricted to identities that are not admins at the
// time of the write. Admin rows yield ErrNotFound.
func (r *userRepo) UpdateMember(ctx context.Context, id uuid.UUID, upd model.IdentityUpdate) (model.Identity, error) {
	return r.update(ctx, id, upd, notAdmin)
}

func (r *userRepo) update(ctx context.Context, id uuid.UUID, upd model.IdentityUpdate, guard string) (model.Identity, error) {
	var role *string
	if upd.Role != nil {
		s := string(*upd.Role)
		role = &s
	}
	query := `
		UPDATE identities SET
			username = COALESCE($2, username),
			email = COALESCE($3, email),
			phone = COALESCE($4, phone),
			membership_no = COALESCE($5, membership_no),
			role = COALESCE($6, role)
		WHERE id = $1` + guard + `
		RETURNING ` + identityColumns

	identity, err := scanIdentity(r.db.QueryRowContext(ctx, query,
		id, upd.Username, upd.Email, upd.Phone, upd.MembershipNo, role))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Identity{}, ErrNotFound
		}
		if isUniqueViolation(err) {
			return model.Identity{}, ErrDuplicate
		}
		return model.Identity{}, fmt.Errorf("failed to update identity: %w", err)
	}
	return identity, nil
}

// SetProfileImage stores the object-storage reference of the profile image
func (r *userRepo) SetProfileImage(ctx context.Context, id uuid.UUID, ref string) error {
	return r.execOne(ctx, "set profile image", `
		UPDATE identities SET profile_image = $2 WHERE id = $1
	`, id, ref)
}

// Delete removes a non-admin identity record. Admin rows never match and yield
// ErrNotFound.
func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, "delete identity", `DELETE FROM identities WHERE id = $1`+notAdmin, id)
}
