// Package cache keeps hot read paths and idempotency keys in redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"restoran-pos/internal/models"
	"restoran-pos/internal/storage"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const menuKeyPrefix = "menu:list:"

// MenuStore serves menu listings from redis and drops them whenever the
// menu changes. Redis failures fall through to the wrapped store.
type MenuStore struct {
	storage.MenuStore
	rdb *redis.Client
	ttl time.Duration
}

func NewMenuStore(next storage.MenuStore, rdb *redis.Client, ttl time.Duration) *MenuStore {
	return &MenuStore{MenuStore: next, rdb: rdb, ttl: ttl}
}

func menuKey(f storage.MenuFilter) string {
	avail := "all"
	if f.Available != nil {
		avail = fmt.Sprint(*f.Available)
	}
	return fmt.Sprintf("%s%s:%s", menuKeyPrefix, avail, f.Category)
}

func (m *MenuStore) ListMenuItems(ctx context.Context, f storage.MenuFilter) ([]models.MenuItem, error) {
	key := menuKey(f)
	cached, err := m.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var items []models.MenuItem
		if err := json.Unmarshal(cached, &items); err == nil {
			return items, nil
		}
		log.Warn().Str("key", key).Msg("discarding unreadable menu cache entry")
	case !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Str("key", key).Msg("menu cache read failed")
	}

	items, err := m.MenuStore.ListMenuItems(ctx, f)
	if err != nil {
		return nil, err
	}
	if body, err := json.Marshal(items); err == nil {
		if err := m.rdb.Set(ctx, key, body, m.ttl).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("menu cache write failed")
		}
	}
	return items, nil
}

func (m *MenuStore) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	if err := m.MenuStore.CreateMenuItem(ctx, item); err != nil {
		return err
	}
	m.Invalidate(ctx)
	return nil
}

func (m *MenuStore) UpdateMenuItem(ctx context.Context, id uint, apply func(*models.MenuItem) error) (*models.MenuItem, error) {
	item, err := m.MenuStore.UpdateMenuItem(ctx, id, apply)
	if err != nil {
		return nil, err
	}
	m.Invalidate(ctx)
	return item, nil
}

func (m *MenuStore) DeleteMenuItem(ctx context.Context, id uint) (*models.MenuItem, error) {
	item, err := m.MenuStore.DeleteMenuItem(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Invalidate(ctx)
	return item, nil
}

// Invalidate drops every cached menu listing.
func (m *MenuStore) Invalidate(ctx context.Context) {
	iter := m.rdb.Scan(ctx, 0, menuKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Warn().Err(err).Msg("menu cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := m.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Msg("menu cache invalidation failed")
	}
}
