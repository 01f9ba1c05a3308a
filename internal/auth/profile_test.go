package auth

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.registerActive(t, aliceInput())

	updated, err := env.profile.UpdateProfile(ctx, session.Identity.ID, ProfileUpdate{
		Username: strPtr("  alicia "),
		Phone:    strPtr("+1 (555) 765-4321"),
	})
	require.NoError(t, err)
	assert.Equal(t, "alicia", updated.Username)
	assert.Equal(t, "+15557654321", updated.Phone)
	assert.Equal(t, "a@x.com", updated.Email)

	same, err := env.profile.UpdateProfile(ctx, session.Identity.ID, ProfileUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "alicia", same.Username)
}

func TestUpdateProfile_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.registerActive(t, aliceInput())
	env.registerActive(t, RegisterInput{Username: "bob", Email: "b@x.com", Phone: "+15550000002", Password: "pw123456", MembershipNo: "M002"})

	var verr *ValidationError
	_, err := env.profile.UpdateProfile(ctx, alice.Identity.ID, ProfileUpdate{Email: strPtr("nope"), MembershipNo: strPtr(" ")})
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)

	_, err = env.profile.UpdateProfile(ctx, alice.Identity.ID, ProfileUpdate{Username: strPtr("bob")})
	require.ErrorIs(t, err, ErrDuplicateIdentity)
}

func TestSetProfileImage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.registerActive(t, aliceInput())
	id := session.Identity.ID

	body := []byte("fake-png")
	first, err := env.profile.SetProfileImage(ctx, id, "me.png", "image/png", bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first, "https://cdn.test/profiles/"+id.String()+"/"))
	assert.True(t, strings.HasSuffix(first, ".png"))
	assert.Equal(t, body, env.images.objects[first])

	second, err := env.profile.SetProfileImage(ctx, id, "me.JPG", "image/jpeg", bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, []string{first}, env.images.deleted)

	stored, err := env.repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, stored.ProfileImage)
	assert.Equal(t, second, *stored.ProfileImage)
}

func TestSetProfileImage_Rejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.registerActive(t, aliceInput())
	id := session.Identity.ID

	cases := map[string]struct {
		filename, contentType string
		size                  int64
	}{
		"wrong type":      {"doc.pdf", "application/pdf", 10},
		"wrong extension": {"me.exe", "image/png", 10},
		"too large":       {"me.png", "image/png", MaxProfileImageSize + 1},
		"empty":           {"me.png", "image/png", 0},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var verr *ValidationError
			_, err := env.profile.SetProfileImage(ctx, id, tc.filename, tc.contentType, strings.NewReader("x"), tc.size)
			require.ErrorAs(t, err, &verr)
		})
	}
	assert.Empty(t, env.images.objects)
}

func TestSetProfileImage_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.registerActive(t, aliceInput())
	env.images.putErr = errors.New("bucket unavailable")

	_, err := env.profile.SetProfileImage(ctx, session.Identity.ID, "me.png", "image/png", strings.NewReader("x"), 1)
	require.ErrorIs(t, err, ErrUpstream)

	stored, err := env.repo.GetByID(ctx, session.Identity.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ProfileImage)
}

func TestSetProfileImage_StorageDisabled(t *testing.T) {
	env := newTestEnv(t)
	svc := NewProfileService(env.repo, nil)
	_, err := svc.SetProfileImage(context.Background(), [16]byte{}, "me.png", "image/png", strings.NewReader("x"), 1)
	require.ErrorIs(t, err, ErrStorageDisabled)
}
