package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"golang.org/x/time/rate"
)

// RateLimiter limits request rates per client. With a Redis client the
// counters are shared across process instances (INCR + TTL windows);
// without one it degrades to per-process token buckets.
type RateLimiter struct {
	redis       *redis.Client
	window      time.Duration
	maxRequests int

	limiters      map[string]*rate.Limiter
	mutex         sync.RWMutex
	limiterRate   rate.Limit
	burst         int
	cleanupTicker *time.Ticker
}

// NewRateLimiter creates a rate limiter allowing maxRequests per window
// per client key. redisClient may be nil.
func NewRateLimiter(redisClient *redis.Client, maxRequests int, window time.Duration) *RateLimiter {
	limiter := &RateLimiter{
		redis:         redisClient,
		window:        window,
		maxRequests:   maxRequests,
		limiters:      make(map[string]*rate.Limiter),
		limiterRate:   rate.Limit(float64(maxRequests) / window.Seconds()),
		burst:         maxRequests,
		cleanupTicker: time.NewTicker(5 * time.Minute),
	}

	go limiter.cleanup()

	return limiter
}

// cleanup periodically resets the local limiter map to prevent unbounded growth
func (rl *RateLimiter) cleanup() {
	for range rl.cleanupTicker.C {
		rl.mutex.Lock()
		rl.limiters = make(map[string]*rate.Limiter)
		rl.mutex.Unlock()
	}
}

// Stop stops the rate limiter cleanup
func (rl *RateLimiter) Stop() {
	rl.cleanupTicker.Stop()
}

// Middleware limits by wallet when a session is present, else by IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if wallet := c.GetString("wallet_address"); wallet != "" {
			key = wallet
		}

		allowed, err := rl.allow(c.Request.Context(), key)
		if err != nil {
			// Redis being down must not take the API with it.
			log.Printf("Rate limiter error for %s: %v", key, err)
			allowed = rl.allowLocal(key)
		}

		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, please try again later"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) allow(ctx context.Context, key string) (bool, error) {
	if rl.redis == nil {
		return rl.allowLocal(key), nil
	}

	redisKey := fmt.Sprintf("ratelimit:%s", key)
	count, err := rl.redis.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := rl.redis.Expire(ctx, redisKey, rl.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(rl.maxRequests), nil
}

func (rl *RateLimiter) allowLocal(key string) bool {
	rl.mutex.RLock()
	limiter, exists := rl.limiters[key]
	rl.mutex.RUnlock()

	if !exists {
		rl.mutex.Lock()
		limiter = rate.NewLimiter(rl.limiterRate, rl.burst)
		rl.limiters[key] = limiter
		rl.mutex.Unlock()
	}

	return limiter.Allow()
}
