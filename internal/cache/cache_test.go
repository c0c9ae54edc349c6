package cache

import (
	"context"
	"testing"
	"time"

	"restoran-pos/internal/models"
	"restoran-pos/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	storage.MenuStore
	items []models.MenuItem
	lists int
}

func (s *countingStore) ListMenuItems(context.Context, storage.MenuFilter) ([]models.MenuItem, error) {
	s.lists++
	return append([]models.MenuItem(nil), s.items...), nil
}

func (s *countingStore) CreateMenuItem(_ context.Context, item *models.MenuItem) error {
	item.ID = uint(len(s.items) + 1)
	s.items = append(s.items, *item)
	return nil
}

func (s *countingStore) DeleteMenuItem(_ context.Context, id uint) (*models.MenuItem, error) {
	for i, it := range s.items {
		if it.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return &it, nil
		}
	}
	return nil, storage.ErrNotFound
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestMenuStoreCachesListings(t *testing.T) {
	_, rdb := newRedis(t)
	inner := &countingStore{items: []models.MenuItem{{ID: 1, Name: "Ayran", Price: 1.5, Available: true}}}
	m := NewMenuStore(inner, rdb, time.Minute)
	ctx := context.Background()

	first, err := m.ListMenuItems(ctx, storage.MenuFilter{})
	require.NoError(t, err)
	second, err := m.ListMenuItems(ctx, storage.MenuFilter{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.lists)

	avail := true
	_, err = m.ListMenuItems(ctx, storage.MenuFilter{Available: &avail})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.lists)
}

func TestMenuStoreInvalidatesOnMutation(t *testing.T) {
	mr, rdb := newRedis(t)
	inner := &countingStore{}
	m := NewMenuStore(inner, rdb, time.Minute)
	ctx := context.Background()

	_, err := m.ListMenuItems(ctx, storage.MenuFilter{Category: "drinks"})
	require.NoError(t, err)
	assert.Len(t, mr.Keys(), 1)

	require.NoError(t, m.CreateMenuItem(ctx, &models.MenuItem{Name: "Tea", Category: "drinks"}))
	assert.Empty(t, mr.Keys())

	items, err := m.ListMenuItems(ctx, storage.MenuFilter{Category: "drinks"})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 2, inner.lists)

	_, err = m.DeleteMenuItem(ctx, 42)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Len(t, mr.Keys(), 1, "failed mutation keeps the cache")
}

func TestMenuStoreSurvivesRedisOutage(t *testing.T) {
	mr, rdb := newRedis(t)
	inner := &countingStore{items: []models.MenuItem{{ID: 1, Name: "Su"}}}
	m := NewMenuStore(inner, rdb, time.Minute)
	mr.Close()

	items, err := m.ListMenuItems(context.Background(), storage.MenuFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestIdempotencyGuard(t *testing.T) {
	mr, rdb := newRedis(t)
	g := NewIdempotencyGuard(rdb)
	ctx := context.Background()

	ok, err := g.Claim(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.Claim(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 24*time.Hour, mr.TTL("idempotent-key:abc"))

	require.NoError(t, g.Release(ctx, "abc"))
	ok, err = g.Claim(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)
}
