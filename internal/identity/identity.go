// Package identity abstracts the identity provider that owns user
// credentials. The provider is the id authority: the subject it returns on
// user creation becomes the user's id in every service.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidCredentials is returned when a login is rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRefreshToken is returned when a refresh token is rejected.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrUserExists is returned when the provider already knows the user.
	ErrUserExists = errors.New("user already exists")
	// ErrAccountLocked is returned after too many failed logins.
	ErrAccountLocked = errors.New("account temporarily locked")
)

// NewUser is the data needed to create an identity.
type NewUser struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
}

// TokenSet is the result of a successful login or refresh.
type TokenSet struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Provider creates, authenticates and deletes identities.
type Provider interface {
	// CreateUser creates the identity and returns its subject identifier.
	CreateUser(ctx context.Context, user NewUser) (string, error)
	// Authenticate checks credentials and issues tokens. login may be an
	// email or a username.
	Authenticate(ctx context.Context, login, password string) (*TokenSet, error)
	// Refresh exchanges a refresh token for a new token set.
	Refresh(ctx context.Context, refreshToken string) (*TokenSet, error)
	// DeleteUser removes the identity.
	DeleteUser(ctx context.Context, subject string) error
}
