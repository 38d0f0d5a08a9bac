package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RateLimiter is a token bucket keyed by an arbitrary request attribute,
// used to throttle sends per account.
type RateLimiter struct {
	buckets map[string]*bucket
	mu      sync.Mutex
	rate    int
	window  time.Duration
	key     func(c *fiber.Ctx) string
	now     func() time.Time
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// NewRateLimiter allows rate requests per window for each key. Requests with an
// empty key are not limited. Call Cleanup periodically to drop idle buckets.
func NewRateLimiter(rate int, window time.Duration, key func(c *fiber.Ctx) string) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		window:  window,
		key:     key,
		now:     time.Now,
	}
}

func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		k := rl.key(c)
		if k == "" {
			return c.Next()
		}

		remaining, ok := rl.allow(k)
		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.rate))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !ok {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(rl.window.Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":  "rate_limited",
				"detail": "send quota exceeded, try again later",
			})
		}
		return c.Next()
	}
}

func (rl *RateLimiter) allow(key string) (int, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.rate, lastRefill: now}
		rl.buckets[key] = b
	}

	elapsed := now.Sub(b.lastRefill)
	if elapsed >= rl.window {
		b.tokens = rl.rate
		b.lastRefill = now
	} else if refill := int(float64(rl.rate) * (elapsed.Seconds() / rl.window.Seconds())); refill > 0 {
		b.tokens = min(rl.rate, b.tokens+refill)
		b.lastRefill = now
	}

	if b.tokens == 0 {
		return 0, false
	}
	b.tokens--
	return b.tokens, true
}

// Cleanup removes buckets idle for more than two windows.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for k, b := range rl.buckets {
		if now.Sub(b.lastRefill) > rl.window*2 {
			delete(rl.buckets, k)
		}
	}
}
