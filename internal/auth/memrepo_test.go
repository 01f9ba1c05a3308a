package auth

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vssamaj/server/internal/model"
	"github.com/vssamaj/server/internal/repo"
)

// memRepo is an in-memory repo.UserRepo for service tests
type memRepo struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]model.Identity
	writes int
	now    func() time.Time
	// beforeGuardedWrite runs ahead of admin-side writes, outside the lock
	beforeGuardedWrite func()
}

func newMemRepo() *memRepo {
	return &memRepo{byID: make(map[uuid.UUID]model.Identity), now: time.Now}
}

func (r *memRepo) conflicts(id uuid.UUID, candidate model.Identity) bool {
	for otherID, other := range r.byID {
		if otherID == id {
			continue
		}
		if other.Username == candidate.Username || other.Email == candidate.Email ||
			other.Phone == candidate.Phone || other.MembershipNo == candidate.MembershipNo {
			return true
		}
	}
	return false
}

func (r *memRepo) Create(_ context.Context, identity *model.Identity) (model.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}
	if r.conflicts(identity.ID, *identity) {
		return model.Identity{}, repo.ErrDuplicate
	}
	created := *identity
	created.CreatedAt = r.now()
	r.byID[created.ID] = created
	r.writes++
	return created, nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (model.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	identity, ok := r.byID[id]
	if !ok {
		return model.Identity{}, repo.ErrNotFound
	}
	return identity, nil
}

func (r *memRepo) find(match func(model.Identity) bool) (model.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, identity := range r.byID {
		if match(identity) {
			return identity, nil
		}
	}
	return model.Identity{}, repo.ErrNotFound
}

func (r *memRepo) GetByEmail(_ context.Context, email string) (model.Identity, error) {
	return r.find(func(i model.Identity) bool { return i.Email == email })
}

func (r *memRepo) GetByIdentifier(_ context.Context, identifier string) (model.Identity, error) {
	return r.find(func(i model.Identity) bool { return i.Email == identifier || i.Phone == identifier })
}

func (r *memRepo) List(_ context.Context) ([]model.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Identity, 0, len(r.byID))
	for _, identity := range r.byID {
		out = append(out, identity)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *memRepo) mutate(id uuid.UUID, fn func(*model.Identity) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	identity, ok := r.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	if err := fn(&identity); err != nil {
		return err
	}
	r.byID[id] = identity
	r.writes++
	return nil
}

func (r *memRepo) SetPendingCode(_ context.Context, id uuid.UUID, codeHash string, expiresAt time.Time) error {
	return r.mutate(id, func(i *model.Identity) error {
		i.PendingCode = &codeHash
		i.PendingCodeExpiry = &expiresAt
		return nil
	})
}

func (r *memRepo) Activate(_ context.Context, id uuid.UUID) error {
	return r.mutate(id, func(i *model.Identity) error {
		i.Verified = true
		i.PendingCode = nil
		i.PendingCodeExpiry = nil
		return nil
	})
}

func (r *memRepo) guarded() {
	if r.beforeGuardedWrite != nil {
		r.beforeGuardedWrite()
	}
}

func (r *memRepo) SetBlocked(_ context.Context, id uuid.UUID, blocked bool) error {
	r.guarded()
	return r.mutate(id, func(i *model.Identity) error {
		if i.Role == model.RoleAdmin {
			return repo.ErrNotFound
		}
		i.Blocked = blocked
		return nil
	})
}

func (r *memRepo) Update(_ context.Context, id uuid.UUID, upd model.IdentityUpdate) (model.Identity, error) {
	return r.update(id, upd, false)
}

func (r *memRepo) UpdateMember(_ context.Context, id uuid.UUID, upd model.IdentityUpdate) (model.Identity, error) {
	r.guarded()
	return r.update(id, upd, true)
}

func (r *memRepo) update(id uuid.UUID, upd model.IdentityUpdate, membersOnly bool) (model.Identity, error) {
	var updated model.Identity
	err := r.mutate(id, func(i *model.Identity) error {
		if membersOnly && i.Role == model.RoleAdmin {
			return repo.ErrNotFound
		}
		next := *i
		if upd.Username != nil {
			next.Username = *upd.Username
		}
		if upd.Email != nil {
			next.Email = *upd.Email
		}
		if upd.Phone != nil {
			next.Phone = *upd.Phone
		}
		if upd.MembershipNo != nil {
			next.MembershipNo = *upd.MembershipNo
		}
		if upd.Role != nil {
			next.Role = *upd.Role
		}
		if r.conflicts(id, next) {
			return repo.ErrDuplicate
		}
		*i = next
		updated = next
		return nil
	})
	return updated, err
}

func (r *memRepo) SetProfileImage(_ context.Context, id uuid.UUID, ref string) error {
	return r.mutate(id, func(i *model.Identity) error {
		i.ProfileImage = &ref
		return nil
	})
}

func (r *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.guarded()
	r.mu.Lock()
	defer r.mu.Unlock()
	if identity, ok := r.byID[id]; !ok || identity.Role == model.RoleAdmin {
		return repo.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// captureMailer records the last code sent to each address
type captureMailer struct {
	mu    sync.Mutex
	codes map[string]string
	fail  error
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{codes: make(map[string]string)}
}

func (m *captureMailer) SendOTP(_ context.Context, to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.codes[to] = code
	return nil
}

func (m *captureMailer) last(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[to]
}

// memImages is an in-memory ImageStore
type memImages struct {
	objects map[string][]byte
	deleted []string
	putErr  error
}

func newMemImages() *memImages {
	return &memImages{objects: make(map[string][]byte)}
}

func (s *memImages) Put(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if s.putErr != nil {
		return "", s.putErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	ref := "https://cdn.test/" + key
	s.objects[ref] = b
	return ref, nil
}

func (s *memImages) Delete(_ context.Context, ref string) error {
	if _, ok := s.objects[ref]; !ok {
		return errors.New("no such object")
	}
	delete(s.objects, ref)
	s.deleted = append(s.deleted, ref)
	return nil
}
