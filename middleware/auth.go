package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"anonyme/auth"
	"anonyme/models"
	"anonyme/repository"
)

// Context keys set by the identity middlewares.
const (
	SubjectKey = "subjectId"
	UserKey    = "userDoc"
)

// Identity verifies the bearer credential and stores the provider subject
// id in the gin context. A missing or malformed header is rejected before
// the verifier — and therefore before any store — is touched.
func Identity(verifier auth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "missing credential",
				"message": "Provide an Authorization: Bearer <token> header",
			})
			c.Abort()
			return
		}

		ident, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			status, body := authFailure(err)
			c.JSON(status, body)
			c.Abort()
			return
		}

		c.Set(SubjectKey, ident.SubjectID)
		c.Next()
	}
}

// RequireUser resolves the local user for the subject set by Identity.
// A valid credential whose subject never registered locally is a distinct
// failure: the caller must register, not re-authenticate.
func RequireUser(users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := c.GetString(SubjectKey)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		user, err := users.FindBySubject(ctx, subject)
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "registration required",
				"message": "No local account for this identity; call /api/auth/register first",
			})
			c.Abort()
			return
		}
		if errors.Is(err, repository.ErrUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
			c.Abort()
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			c.Abort()
			return
		}

		c.Set(UserKey, user)
		c.Next()
	}
}

// CurrentUser returns the resolved user set by RequireUser.
func CurrentUser(c *gin.Context) *models.User {
	u, _ := c.MustGet(UserKey).(*models.User)
	return u
}

func authFailure(err error) (int, gin.H) {
	switch {
	case errors.Is(err, auth.ErrExpiredCredential):
		return http.StatusUnauthorized, gin.H{
			"error":   "token expired",
			"message": "Obtain a fresh credential and retry",
		}
	case errors.Is(err, auth.ErrProviderUnavailable):
		return http.StatusServiceUnavailable, gin.H{
			"error":   "identity provider unavailable",
			"message": "Verification could not be attempted; retry later",
		}
	default:
		return http.StatusUnauthorized, gin.H{
			"error":   "invalid token",
			"message": "Token validation failed",
		}
	}
}
