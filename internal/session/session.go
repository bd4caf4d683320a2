// Package session keeps track of signed-in operator sessions. A session is
// created at login and removed at logout or when it expires; a token whose
// session is gone is no longer accepted.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

// Session is one signed-in operator.
type Session struct {
	ID        string    `json:"id"`
	AdminID   uuid.UUID `json:"admin_id"`
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Store interface {
	Save(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}
