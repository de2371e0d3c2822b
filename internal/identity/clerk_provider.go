package identity

import (
	"context"
	"fmt"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkuser "github.com/clerk/clerk-sdk-go/v2/user"
)

// ClerkProvider implements Provider against the Clerk API
type ClerkProvider struct{}

// NewClerkProvider configures the Clerk SDK with the given secret key
func NewClerkProvider(secretKey string) (*ClerkProvider, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("missing clerk secret key")
	}
	clerk.SetKey(secretKey)
	return &ClerkProvider{}, nil
}

// GetUserByEmail looks up an existing user by email address
func (p *ClerkProvider) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	list, err := clerkuser.List(ctx, &clerkuser.ListParams{
		EmailAddresses: []string{email},
	})
	if err != nil {
		return nil, err
	}
	if len(list.Users) == 0 {
		return nil, nil
	}
	return toUser(list.Users[0]), nil
}

// CreateUser provisions a new user with an initial password
func (p *ClerkProvider) CreateUser(ctx context.Context, email, initialPassword string) (*User, error) {
	u, err := clerkuser.Create(ctx, &clerkuser.CreateParams{
		EmailAddresses: &[]string{email},
		Password:       clerk.String(initialPassword),
	})
	if err != nil {
		return nil, err
	}
	return toUser(u), nil
}

// GetPrimaryEmail resolves a user id to its primary email address
func (p *ClerkProvider) GetPrimaryEmail(ctx context.Context, userID string) (string, error) {
	u, err := clerkuser.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if u.PrimaryEmailAddressID != nil {
		for _, addr := range u.EmailAddresses {
			if addr.ID == *u.PrimaryEmailAddressID {
				return addr.EmailAddress, nil
			}
		}
	}
	return "", fmt.Errorf("user %s has no primary email address", userID)
}

func toUser(u *clerk.User) *User {
	out := &User{ID: u.ID}
	if u.PrimaryEmailAddressID != nil {
		for _, addr := range u.EmailAddresses {
			if addr.ID == *u.PrimaryEmailAddressID {
				out.Email = addr.EmailAddress
			}
		}
	}
	return out
}
