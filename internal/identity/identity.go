// Package identity defines the contract between the session controller and
// the hosted identity provider.
package identity

import (
	"context"
	"fmt"
	"time"
)

// User is the identity record owned by the provider.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is a live authenticated context issued by the provider.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *User     `json:"user"`
}

// Profile holds the profile fields submitted on registration.
type Profile struct {
	FullName  string
	AvatarURL *string
}

// Provider is the hosted auth service.
type Provider interface {
	// LookupSession returns the stored live session, or nil if there is none.
	LookupSession(ctx context.Context) (*Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, *User, error)
	// RegisterAccount may return a user with a nil session when the provider
	// withholds one (e.g. pending email confirmation).
	RegisterAccount(ctx context.Context, email, password string, profile Profile) (*Session, *User, error)
	SignOut(ctx context.Context) error
}

// ProviderError is the provider-agnostic failure shape. Status is the HTTP
// status returned by the provider, or 0 for transport failures.
type ProviderError struct {
	Status  int
	Message string
	Cause   error
}

func (e *ProviderError) Error() string {
	if e.Status == 0 {
		if e.Cause != nil {
			return fmt.Sprintf("provider unreachable: %v", e.Cause)
		}
		return "provider unreachable: " + e.Message
	}
	return fmt.Sprintf("provider status %d: %s", e.Status, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}
