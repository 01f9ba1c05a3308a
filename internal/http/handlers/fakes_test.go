package handlers

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/vssamaj/server/internal/auth"
	"github.com/vssamaj/server/internal/model"
)

type fakeAuth struct {
	registerIn  auth.RegisterInput
	registered  model.Identity
	registerErr error
	resendErr   error
	session     auth.Session
	sessionErr  error
	profile     model.Identity
	profileErr  error
}

func (f *fakeAuth) Register(_ context.Context, in auth.RegisterInput) (model.Identity, error) {
	f.registerIn = in
	return f.registered, f.registerErr
}

func (f *fakeAuth) ResendOTP(context.Context, string) error { return f.resendErr }

func (f *fakeAuth) VerifyOTP(context.Context, string, string) (auth.Session, error) {
	return f.session, f.sessionErr
}

func (f *fakeAuth) Login(context.Context, string, string) (auth.Session, error) {
	return f.session, f.sessionErr
}

func (f *fakeAuth) Profile(context.Context, uuid.UUID) (model.Identity, error) {
	return f.profile, f.profileErr
}

type fakeProfile struct {
	update      auth.ProfileUpdate
	updated     model.Identity
	err         error
	upload      []byte
	contentType string
	filename    string
	ref         string
}

func (f *fakeProfile) UpdateProfile(_ context.Context, _ uuid.UUID, in auth.ProfileUpdate) (model.Identity, error) {
	f.update = in
	return f.updated, f.err
}

func (f *fakeProfile) SetProfileImage(_ context.Context, _ uuid.UUID, filename, contentType string, body io.Reader, _ int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.filename, f.contentType = filename, contentType
	f.upload, _ = io.ReadAll(body)
	return f.ref, nil
}

type fakeAdmin struct {
	users   []model.Identity
	target  model.Identity
	upd     model.IdentityUpdate
	toggled bool
	set     *bool
	err     error
}

func (f *fakeAdmin) ListUsers(context.Context, *model.Identity) ([]model.Identity, error) {
	return f.users, f.err
}

func (f *fakeAdmin) ToggleBlock(context.Context, *model.Identity, uuid.UUID) (model.Identity, error) {
	f.toggled = true
	return f.target, f.err
}

func (f *fakeAdmin) SetBlocked(_ context.Context, _ *model.Identity, _ uuid.UUID, blocked bool) (model.Identity, error) {
	f.set = &blocked
	target := f.target
	target.Blocked = blocked
	return target, f.err
}

func (f *fakeAdmin) EditUser(_ context.Context, _ *model.Identity, _ uuid.UUID, upd model.IdentityUpdate) (model.Identity, error) {
	f.upd = upd
	return f.target, f.err
}

func (f *fakeAdmin) DeleteUser(context.Context, *model.Identity, uuid.UUID) error { return f.err }

type published struct {
	topic   string
	payload any
}

type fakePublisher struct {
	events []published
	err    error
}

func (f *fakePublisher) Publish(topic string, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, published{topic, payload})
	return nil
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }
