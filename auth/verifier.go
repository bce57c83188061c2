// Package auth resolves bearer credentials to the identity provider's
// stable subject id. The provider itself is external; this package only
// verifies what it issued.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingCredential is returned for an absent or malformed
	// Authorization header, before any verifier call.
	ErrMissingCredential = errors.New("missing credential")

	// ErrExpiredCredential means the token was genuine but is stale;
	// the caller should obtain a fresh one.
	ErrExpiredCredential = errors.New("credential expired")

	// ErrInvalidCredential means the token is malformed or forged.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrProviderUnavailable means verification could not be attempted
	// at all (misconfiguration, connectivity). Distinct from a rejected
	// credential: the caller should retry, not re-authenticate.
	ErrProviderUnavailable = errors.New("identity provider unavailable")

	// ErrUnknownUser means the credential is valid but no local user
	// completed registration for its subject.
	ErrUnknownUser = errors.New("unknown user")
)

// Identity is what a verified credential resolves to.
type Identity struct {
	SubjectID string
}

// TokenVerifier validates a raw bearer token and yields the subject id.
// Expiry and signature checks are the verifier's responsibility.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// BearerToken extracts the token from an Authorization header value.
// Anything other than exactly "Bearer <token>" is a missing credential.
func BearerToken(header string) (string, error) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrMissingCredential
	}
	return parts[1], nil
}

// JWTVerifier verifies HS256 tokens signed with a shared secret. It stands
// in for a remote identity provider, which is why Verify takes a context
// it does not currently use.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (Identity, error) {
	if len(v.secret) == 0 {
		return Identity{}, ErrProviderUnavailable
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpiredCredential
		}
		return Identity{}, ErrInvalidCredential
	}

	if claims.Subject == "" {
		return Identity{}, ErrInvalidCredential
	}

	return Identity{SubjectID: claims.Subject}, nil
}
