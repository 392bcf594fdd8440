package repository

import (
	"context"
	"errors"

	"authgate/api/internal/models"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrEmailTaken      = errors.New("email already registered")
)

// UserStore reads and writes accounts. Emails passed in must already be
// normalized to lowercase. Only FindCredentialsByEmail returns PasswordHash.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindCredentialsByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	Create(ctx context.Context, user models.User) error
	UpdateByEmail(ctx context.Context, email string, update models.UserUpdate) error
	UpdateByID(ctx context.Context, id string, update models.UserUpdate) error
}

// SessionStore keeps at most one session per user; UpsertForUser replaces
// whatever session the user held before.
type SessionStore interface {
	FindByToken(ctx context.Context, token string) (models.Session, error)
	UpsertForUser(ctx context.Context, session models.Session) error
	DeleteByToken(ctx context.Context, token string) error
}

// Store bundles both halves of a credential backend.
type Store struct {
	Users    UserStore
	Sessions SessionStore
	Ping     func(ctx context.Context) error
	Close    func(ctx context.Context) error
}
