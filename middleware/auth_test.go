package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anonyme/auth"
	"anonyme/models"
	"anonyme/repository/memory"
)

// recordingVerifier counts Verify calls so tests can assert that malformed
// headers never reach the provider.
type recordingVerifier struct {
	calls   int
	subject string
	err     error
}

func (v *recordingVerifier) Verify(ctx context.Context, token string) (auth.Identity, error) {
	v.calls++
	if v.err != nil {
		return auth.Identity{}, v.err
	}
	return auth.Identity{SubjectID: v.subject}, nil
}

func identityRouter(v auth.TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", Identity(v), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"subject": c.GetString(SubjectKey)})
	})
	return r
}

func TestIdentityRejectsMalformedHeaderBeforeVerifier(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "wrong scheme", header: "Token abc"},
		{name: "bare token", header: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := &recordingVerifier{subject: "s1"}
			r := identityRouter(verifier)

			req := httptest.NewRequest("GET", "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "missing credential")
			assert.Zero(t, verifier.calls, "verifier must not be called for malformed headers")
		})
	}
}

func TestIdentityErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "expired", err: auth.ErrExpiredCredential, wantStatus: http.StatusUnauthorized},
		{name: "invalid", err: auth.ErrInvalidCredential, wantStatus: http.StatusUnauthorized},
		{name: "provider down", err: auth.ErrProviderUnavailable, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := identityRouter(&recordingVerifier{err: tt.err})

			req := httptest.NewRequest("GET", "/protected", nil)
			req.Header.Set("Authorization", "Bearer sometoken")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestIdentityPassesSubjectThrough(t *testing.T) {
	r := identityRouter(&recordingVerifier{subject: "subject-42"})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "subject-42")
}

func TestRequireUser(t *testing.T) {
	store := memory.NewStore()
	users := store.Users()

	registered := &models.User{SubjectID: "known", Username: "alice", Email: "alice@x.com", DisplayName: "alice"}
	require.NoError(t, users.Create(context.Background(), registered))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", Identity(&recordingVerifier{subject: "known"}), RequireUser(users), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": CurrentUser(c).Username})
	})
	r.GET("/stranger", Identity(&recordingVerifier{subject: "never-registered"}), RequireUser(users), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})

	t.Run("registered subject resolves", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set("Authorization", "Bearer tok")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "alice")
	})

	t.Run("unknown subject must register", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/stranger", nil)
		req.Header.Set("Authorization", "Bearer tok")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "registration required")
	})
}
