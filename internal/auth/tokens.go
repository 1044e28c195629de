package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mrlokans/authgate/internal/entities"
)

// DefaultTokenExpiry is the lifetime of an issued bearer token.
const DefaultTokenExpiry = 900 * time.Second

// TokenClaims is the signed claim set of a bearer token.
type TokenClaims struct {
	Role entities.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// TokenAuthenticator issues and verifies HMAC-signed bearer tokens.
// Tokens are never persisted; expiry is the only invalidation path.
type TokenAuthenticator struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenAuthenticator creates a token authenticator.
func NewTokenAuthenticator(secret []byte, expiry time.Duration) *TokenAuthenticator {
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return &TokenAuthenticator{
		secret: secret,
		expiry: expiry,
		now:    time.Now,
	}
}

// SetClock replaces the time source used for issuing and verifying.
func (t *TokenAuthenticator) SetClock(now func() time.Time) {
	t.now = now
}

// Expiry returns the configured token lifetime.
func (t *TokenAuthenticator) Expiry() time.Duration {
	return t.expiry
}

// Issue signs a token for the user.
func (t *TokenAuthenticator) Issue(user *entities.User) (string, error) {
	now := t.now()
	claims := TokenClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the token's principal.
// Every failure is reported as ErrInvalidToken.
func (t *TokenAuthenticator) Verify(token string) (*Principal, error) {
	var claims TokenClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	switch claims.Role {
	case entities.UserRoleUser, entities.UserRoleAdmin:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return &Principal{ID: claims.Subject, Role: claims.Role}, nil
}
