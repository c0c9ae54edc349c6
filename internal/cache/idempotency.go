package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const idempotencyTTL = 24 * time.Hour

type IdempotencyGuard struct {
	rdb *redis.Client
}

func NewIdempotencyGuard(rdb *redis.Client) *IdempotencyGuard {
	return &IdempotencyGuard{rdb: rdb}
}

func idempotencyKey(key string) string {
	return "idempotent-key:" + key
}

// Claim reserves key for 24 hours. It reports false when the key was already
// claimed.
func (g *IdempotencyGuard) Claim(ctx context.Context, key string) (bool, error) {
	return g.rdb.SetNX(ctx, idempotencyKey(key), "exists", idempotencyTTL).Result()
}

// Release frees a claimed key so the request can be retried.
func (g *IdempotencyGuard) Release(ctx context.Context, key string) error {
	return g.rdb.Del(ctx, idempotencyKey(key)).Err()
}
