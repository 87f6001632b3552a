package repository

import (
	"context"

	"evconnect/internal/auth/domain/model"
)

// UserRepository is the credential store.
type UserRepository interface {
	// CreateUser inserts the user and fills in its ID. A duplicate email yields model.ErrEmailTaken.
	CreateUser(ctx context.Context, user *model.User) error
	// GetUserByEmail returns model.ErrUserNotFound when no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// GetUserByID returns model.ErrUserNotFound for unknown or malformed IDs.
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// RevocationList records logged-out tokens until their retention window ends.
type RevocationList interface {
	// Revoke adds the token. Revoking a token twice yields model.ErrTokenAlreadyRevoked.
	Revoke(ctx context.Context, token string) (*model.RevokedToken, error)
	IsRevoked(ctx context.Context, token string) (bool, error)
	// Lookup returns model.ErrTokenNotRevoked when the token has no live entry.
	Lookup(ctx context.Context, token string) (*model.RevokedToken, error)
}
