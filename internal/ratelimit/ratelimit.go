// Package ratelimit throttles requests per client IP with token buckets.
package ratelimit

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

type Config struct {
	Rate      rate.Limit
	Burst     int
	ExpiresIn time.Duration
	// Identifier picks the bucket of a request. Defaults to the client IP.
	Identifier func(c *fiber.Ctx) string
	Now        func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type store struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rate      rate.Limit
	burst     int
	expiresIn time.Duration
	lastSweep time.Time
}

func (s *store) allow(id string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) > s.expiresIn {
		for k, v := range s.visitors {
			if now.Sub(v.lastSeen) > s.expiresIn {
				delete(s.visitors, k)
			}
		}
		s.lastSweep = now
	}

	v, ok := s.visitors[id]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.rate, s.burst)}
		s.visitors[id] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// New returns a middleware answering 429 once a client exhausts its bucket.
func New(cfg Config) fiber.Handler {
	if cfg.ExpiresIn <= 0 {
		cfg.ExpiresIn = 3 * time.Minute
	}
	if cfg.Identifier == nil {
		cfg.Identifier = func(c *fiber.Ctx) string { return c.IP() }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &store{
		visitors:  make(map[string]*visitor),
		rate:      cfg.Rate,
		burst:     cfg.Burst,
		expiresIn: cfg.ExpiresIn,
	}

	return func(c *fiber.Ctx) error {
		if !s.allow(cfg.Identifier(c), cfg.Now()) {
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		return c.Next()
	}
}
