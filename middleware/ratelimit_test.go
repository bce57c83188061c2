package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestIPRateLimiterBlocksOverLimit(t *testing.T) {
	rl := NewIPRateLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow(ctx, "1.2.3.4"), "request %d should pass", i+1)
	}
	assert.False(t, rl.Allow(ctx, "1.2.3.4"), "fourth request should be blocked")

	// Another client is unaffected.
	assert.True(t, rl.Allow(ctx, "5.6.7.8"))
}

func TestIPRateLimiterWindowExpiry(t *testing.T) {
	rl := NewIPRateLimiter(1, 20*time.Millisecond)
	ctx := context.Background()

	assert.True(t, rl.Allow(ctx, "1.2.3.4"))
	assert.False(t, rl.Allow(ctx, "1.2.3.4"))

	time.Sleep(30 * time.Millisecond)
	assert.True(t, rl.Allow(ctx, "1.2.3.4"))
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping", RateLimit(NewIPRateLimiter(2, time.Minute)), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
