package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Limiter decides whether one more request from key is allowed inside the
// current window.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// IPRateLimiter is the in-process sliding-window limiter, suitable for a
// single instance.
type IPRateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
}

func NewIPRateLimiter(limit int, window time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

func (rl *IPRateLimiter) Allow(ctx context.Context, key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	requests := rl.requests[key]
	i := 0
	for ; i < len(requests); i++ {
		if requests[i].After(cutoff) {
			break
		}
	}
	requests = requests[i:]

	if len(requests) >= rl.limit {
		rl.requests[key] = requests
		return false
	}

	rl.requests[key] = append(requests, now)
	return true
}

// RedisRateLimiter counts requests per fixed window in Redis so the limit
// holds across instances. Fails open when Redis is unreachable; throttling
// is protection, not correctness.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, limit: limit, window: window}
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) bool {
	bucket := time.Now().Unix() / int64(rl.window.Seconds())
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, bucket)

	count, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		log.Printf("rate limiter redis error: %v", err)
		return true
	}
	if count == 1 {
		rl.client.Expire(ctx, redisKey, rl.window)
	}
	return count <= int64(rl.limit)
}

func RateLimit(l Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.Request.Context(), c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}
