// Package session mints and verifies browser session tokens. Tokens are
// signed JWTs carried in an HTTP-only cookie rather than an Authorization
// header, so the helpers here cover both the token and the cookie side.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidSigningMethod is returned when the token signing method is not supported.
	ErrInvalidSigningMethod = errors.New("invalid session token signing method")

	// ErrSigningKeyTooShort is returned when the HS512 signing key is less than 64 bytes.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")

	// ErrTokenExpired is returned when the session token has expired.
	ErrTokenExpired = errors.New("session token has expired")

	// ErrInvalidToken is returned when the token is malformed or fails validation.
	ErrInvalidToken = errors.New("invalid session token")
)

// Session defines the minimal operations the app needs: mint a token for an
// identity and verify a presented token.
type Session interface {
	// Generate creates a signed session token carrying the identity.
	Generate(id Identity) (string, error)
	// Verify parses and validates the token and returns its claims.
	Verify(tokenStr string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type sessionContextKey struct{}

// Config defines the inputs for building a Session implementation.
type Config struct {
	// Secret is the HMAC signing key.
	Secret []byte
	// Issuer is the token issuer value.
	Issuer string
	// Audiences are the accepted token audiences.
	Audiences []string
	// TTL is the session lifetime.
	TTL time.Duration
	// Clock provides the current time source.
	Clock clocker
	// UUID generates token IDs.
	UUID generator
}

// Identity is the user snapshot embedded in a session at mint time.
type Identity struct {
	UserID                string
	Email                 string
	Name                  string
	Role                  string
	Department            string
	HasSelectedDataSource bool
}

// Claims wraps the registered claims with the session identity payload.
type Claims struct {
	jwt.RegisteredClaims
	// UserID is the authenticated user identifier.
	UserID string `json:"user_id"`
	// Email is the authenticated user email.
	Email string `json:"email"`
	// Name is the user display name.
	Name string `json:"name"`
	// Role is the user role used for authorization decisions.
	Role string `json:"role"`
	// Department is the user's declared department.
	Department string `json:"department"`
	// HasSelectedDataSource records whether onboarding data-source selection is done.
	HasSelectedDataSource bool `json:"has_selected_data_source"`
}

// GetAuth returns the session claims stored in the context, if any.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(sessionContextKey{}).(Claims)
	if !ok {
		return nil
	}

	return &clm
}

// SetAuth stores session claims in the context.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, clm)
}
