package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func signToken(t *testing.T, secret, subject string, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{name: "valid", header: "Bearer abc123", want: "abc123", ok: true},
		{name: "empty header", header: "", ok: false},
		{name: "wrong scheme", header: "Token abc", ok: false},
		{name: "no token", header: "Bearer ", ok: false},
		{name: "extra parts", header: "Bearer a b", ok: false},
		{name: "bare token", header: "abc123", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BearerToken(tt.header)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrMissingCredential)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJWTVerifier(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		ident, err := v.Verify(ctx, signToken(t, testSecret, "subject-1", time.Hour))
		require.NoError(t, err)
		assert.Equal(t, "subject-1", ident.SubjectID)
	})

	t.Run("expired token", func(t *testing.T) {
		_, err := v.Verify(ctx, signToken(t, testSecret, "subject-1", -time.Hour))
		assert.ErrorIs(t, err, ErrExpiredCredential)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := v.Verify(ctx, signToken(t, "other-secret", "subject-1", time.Hour))
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := v.Verify(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("missing subject", func(t *testing.T) {
		_, err := v.Verify(ctx, signToken(t, testSecret, "", time.Hour))
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("unconfigured verifier", func(t *testing.T) {
		_, err := NewJWTVerifier("").Verify(ctx, signToken(t, testSecret, "subject-1", time.Hour))
		assert.ErrorIs(t, err, ErrProviderUnavailable)
	})
}
