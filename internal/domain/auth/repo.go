package auth

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository is the persistence contract for user accounts.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	// GetByEmail returns nil, nil when no account carries the address. The
	// lookup is global: email is unique across companies.
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}

// TokenRepository is the persistence contract for refresh tokens. A user
// holds at most one token; Replace enforces the rotation.
type TokenRepository interface {
	// Replace deletes the user's existing tokens and stores the new one.
	Replace(ctx context.Context, t *RefreshToken) error
	// FindValid returns nil, nil when no unexpired token matches the hash.
	FindValid(ctx context.Context, tokenHash string) (*RefreshToken, error)
	DeleteForUser(ctx context.Context, userID uuid.UUID) error
}
