package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/bloomdesk/internal/models"
	"github.com/example/bloomdesk/internal/session"
	"github.com/example/bloomdesk/internal/store"
	"github.com/example/bloomdesk/internal/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
)

// AuthService signs operators in and out.
type AuthService struct {
	store    store.Store
	sessions session.Store
	secret   string
	ttl      time.Duration
	now      func() time.Time
}

// NewAuthService constructs an AuthService issuing tokens valid for ttl.
func NewAuthService(s store.Store, sessions session.Store, secret string, ttl time.Duration) *AuthService {
	return &AuthService{store: s, sessions: sessions, secret: secret, ttl: ttl, now: time.Now}
}

// EnsureAdmin creates the operator account when it does not exist yet.
func (a *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return invalid("admin username and password are required")
	}

	if _, err := a.store.FindAdminByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return wrapStore(err, "admin")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.AdminUser{Username: username, PasswordHash: string(hash)}
	if err := a.store.CreateAdmin(ctx, &admin); err != nil && !errors.Is(err, store.ErrDuplicate) {
		return wrapStore(err, "admin")
	}

	log.Info().Str("username", username).Msg("admin account seeded")
	return nil
}

// Login checks the credentials and opens a session. It returns the signed
// token and the session it refers to.
func (a *AuthService) Login(ctx context.Context, username, password string) (string, *session.Session, error) {
	admin, err := a.store.FindAdminByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, wrapStore(err, "admin")
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := a.now()
	sess := session.Session{
		ID:        uuid.NewString(),
		AdminID:   admin.ID,
		Username:  admin.Username,
		IssuedAt:  now,
		ExpiresAt: now.Add(a.ttl),
	}
	token, err := utils.GenerateToken(a.secret, admin.ID, admin.Username, sess.ID, now, a.ttl)
	if err != nil {
		return "", nil, err
	}
	if err := a.sessions.Save(ctx, sess); err != nil {
		return "", nil, &StoreError{Err: err}
	}

	log.Info().Str("username", admin.Username).Str("session_id", sess.ID).Msg("admin signed in")
	return token, &sess, nil
}

// Authenticate returns the live session behind a token.
func (a *AuthService) Authenticate(ctx context.Context, token string) (*session.Session, error) {
	claims, err := utils.ParseToken(a.secret, token)
	if err != nil {
		return nil, ErrUnauthorized
	}

	sess, err := a.sessions.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, &StoreError{Err: err}
	}
	return sess, nil
}

// Logout ends the session so its token stops working.
func (a *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := a.sessions.Delete(ctx, sessionID); err != nil {
		return &StoreError{Err: err}
	}
	log.Info().Str("session_id", sessionID).Msg("admin signed out")
	return nil
}
