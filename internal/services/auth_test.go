package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/bloomdesk/internal/session"
	"github.com/example/bloomdesk/internal/store"
)

func newTestAuth(t *testing.T) *AuthService {
	t.Helper()
	auth := NewAuthService(store.NewMemoryStore(), session.NewMemoryStore(), "test-secret", time.Hour)
	require.NoError(t, auth.EnsureAdmin(context.Background(), "admin", "s3cret"))
	return auth
}

func TestAuthService_LoginAuthenticateLogout(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuth(t)

	token, sess, err := auth.Login(ctx, "admin", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "admin", sess.Username)

	got, err := auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)

	require.NoError(t, auth.Logout(ctx, sess.ID))
	_, err = auth.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_RejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuth(t)

	_, _, err := auth.Login(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = auth.Login(ctx, "nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_EnsureAdminIsIdempotent(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuth(t)

	// The existing password is kept.
	require.NoError(t, auth.EnsureAdmin(ctx, "admin", "changed"))
	_, _, err := auth.Login(ctx, "admin", "s3cret")
	assert.NoError(t, err)
}

func TestAuthService_TokenFromOtherSecretIsRejected(t *testing.T) {
	ctx := context.Background()
	sessions := session.NewMemoryStore()
	s := store.NewMemoryStore()

	issuer := NewAuthService(s, sessions, "one", time.Hour)
	require.NoError(t, issuer.EnsureAdmin(ctx, "admin", "pw"))
	token, _, err := issuer.Login(ctx, "admin", "pw")
	require.NoError(t, err)

	other := NewAuthService(s, sessions, "two", time.Hour)
	_, err = other.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
