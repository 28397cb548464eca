// Package middleware provides HTTP middleware for the impact service.
package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// maxBuckets caps the number of tracked client IPs.
const maxBuckets = 100_000

// bucketIdleTTL is how long an untouched bucket survives the janitor.
const bucketIdleTTL = 10 * time.Minute

// RateLimiter is a per-IP token bucket. Routes can be weighted so that
// expensive operations such as a full snapshot sync drain more tokens than
// a single analysis.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64
	burst   float64
	costs   map[string]float64
	now     func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

// RateLimitOption configures a RateLimiter.
type RateLimitOption func(*RateLimiter)

// WithRouteCost charges cost tokens for requests matching method and the
// gin route pattern (e.g. "POST", "/api/v1/sync"). Cost is clamped to the
// burst size so a weighted route is never unreachable.
func WithRouteCost(method, route string, cost int) RateLimitOption {
	return func(rl *RateLimiter) {
		if cost > 0 {
			rl.costs[method+" "+route] = float64(cost)
		}
	}
}

// NewRateLimiter creates a RateLimiter refilling ratePerSec tokens per second
// up to burst. A janitor goroutine evicts idle buckets until ctx is cancelled.
func NewRateLimiter(ctx context.Context, ratePerSec, burst int, opts ...RateLimitOption) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    float64(max(ratePerSec, 1)),
		burst:   float64(max(burst, 1)),
		costs:   make(map[string]float64),
		now:     time.Now,
	}
	for _, o := range opts {
		o(rl)
	}
	for k, c := range rl.costs {
		rl.costs[k] = math.Min(c, rl.burst)
	}

	go rl.janitor(ctx)

	return rl
}

func (rl *RateLimiter) janitor(ctx context.Context) {
	ticker := time.NewTicker(bucketIdleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evictIdle()
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, b := range rl.buckets {
		if now.Sub(b.last) > bucketIdleTTL {
			delete(rl.buckets, ip)
		}
	}
}

// take charges cost tokens to ip. When the bucket is short it returns the
// wait until enough tokens have accrued.
func (rl *RateLimiter) take(ip string, cost float64) (ok bool, full bool, wait time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[ip]
	if !exists {
		if len(rl.buckets) >= maxBuckets {
			return false, true, 0
		}
		b = &bucket{tokens: rl.burst, last: now}
		rl.buckets[ip] = b
	}

	b.tokens = math.Min(rl.burst, b.tokens+now.Sub(b.last).Seconds()*rl.rate)
	b.last = now

	if b.tokens >= cost {
		b.tokens -= cost
		return true, false, 0
	}

	deficit := cost - b.tokens
	return false, false, time.Duration(deficit / rl.rate * float64(time.Second))
}

// Handler returns Gin middleware that applies rate limiting per client IP.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// ClientIP ignores X-Forwarded-For because the router trusts no proxies.
		cost, weighted := rl.costs[c.Request.Method+" "+c.FullPath()]
		if !weighted {
			cost = 1
		}

		ok, full, wait := rl.take(c.ClientIP(), cost)
		switch {
		case full:
			respondError(c, http.StatusTooManyRequests, "rate_limited", "too many clients")
			return
		case !ok:
			c.Header("Retry-After", strconv.Itoa(max(1, int(math.Ceil(wait.Seconds())))))
			respondError(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
			return
		}

		c.Next()
	}
}
