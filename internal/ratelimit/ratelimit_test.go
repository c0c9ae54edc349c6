package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestLimiterPerClient(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	app := fiber.New()
	app.Use(New(Config{
		Rate:       rate.Limit(1),
		Burst:      2,
		Identifier: func(c *fiber.Ctx) string { return c.Get("X-Client") },
		Now:        func() time.Time { return now },
	}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	hit := func(client string) int {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Client", client)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusNoContent, hit("a"))
	assert.Equal(t, fiber.StatusNoContent, hit("a"))
	assert.Equal(t, fiber.StatusTooManyRequests, hit("a"))
	assert.Equal(t, fiber.StatusNoContent, hit("b"))

	now = now.Add(time.Second)
	assert.Equal(t, fiber.StatusNoContent, hit("a"))
}

func TestStoreExpiresIdleVisitors(t *testing.T) {
	s := &store{visitors: map[string]*visitor{}, rate: 1, burst: 1, expiresIn: time.Minute}
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.lastSweep = start

	assert.True(t, s.allow("a", start))
	assert.True(t, s.allow("b", start.Add(30*time.Second)))
	assert.True(t, s.allow("c", start.Add(2*time.Minute)))

	_, hasA := s.visitors["a"]
	_, hasB := s.visitors["b"]
	assert.False(t, hasA)
	assert.False(t, hasB)
	assert.Len(t, s.visitors, 1)
}
