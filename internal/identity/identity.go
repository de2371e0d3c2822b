// Package identity wraps the external identity provider. Membership sets
// store the provider's stable user ids; this package is the only place that
// talks to the provider directly.
package identity

import (
	"context"
)

// User is the provider's representation of a caller
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Provider defines the identity operations the services consume.
// GetUserByEmail returns (nil, nil) when no user matches.
type Provider interface {
	// GetUserByEmail looks up an existing user by email address
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// CreateUser provisions a new user with an initial password
	CreateUser(ctx context.Context, email, initialPassword string) (*User, error)
	// GetPrimaryEmail resolves a user id to its primary email address
	GetPrimaryEmail(ctx context.Context, userID string) (string, error)
}
