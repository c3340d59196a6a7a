package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyedLimiter hands out one token bucket per key.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewKeyedLimiter allows requests per window for each key, with bursts up to
// the same count.
func NewKeyedLimiter(requests int, window time.Duration) *KeyedLimiter {
	if requests <= 0 || window <= 0 {
		return &KeyedLimiter{limiters: map[string]*rate.Limiter{}, limit: rate.Inf}
	}
	return &KeyedLimiter{
		limiters: map[string]*rate.Limiter{},
		limit:    rate.Limit(float64(requests) / window.Seconds()),
		burst:    requests,
	}
}

func (k *KeyedLimiter) Allow(key string) bool {
	k.mu.Lock()
	l, ok := k.limiters[key]
	if !ok {
		l = rate.NewLimiter(k.limit, k.burst)
		k.limiters[key] = l
	}
	k.mu.Unlock()
	return l.Allow()
}

// RateLimit rejects requests with 429 once the caller's bucket is empty.
// Authenticated callers are keyed by user, others by client IP.
func RateLimit(k *KeyedLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := UserID(c)
		if key == "" {
			key = c.ClientIP()
		}
		if !k.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
