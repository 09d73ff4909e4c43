package cache

import (
	"context"
	"testing"
	"time"

	"github.com/KotFed0t/librefolio/config"
	"github.com/KotFed0t/librefolio/internal/model"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T, expiration time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{Cache: config.Cache{SyncStatusExpiration: expiration}}
	return NewRedisCache(rdb, cfg), mr
}

func TestGetSyncStatus_NotFound(t *testing.T) {
	c, _ := setupTestCache(t, 0)

	_, err := c.GetSyncStatus(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSyncStatus_RoundTrip(t *testing.T) {
	c, mr := setupTestCache(t, 0)
	ctx := context.Background()

	attempt := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	status := model.SyncStatus{
		LastAttemptAt: attempt,
		LastSuccessAt: attempt.Add(-time.Hour),
		HoldingsCount: 4,
		LastError:     "get stocks: unsuccessful response: status 500",
	}

	require.NoError(t, c.SetSyncStatus(ctx, status))

	got, err := c.GetSyncStatus(ctx)
	require.NoError(t, err)
	assert.True(t, got.LastAttemptAt.Equal(status.LastAttemptAt))
	assert.True(t, got.LastSuccessAt.Equal(status.LastSuccessAt))
	assert.Equal(t, status.HoldingsCount, got.HoldingsCount)
	assert.Equal(t, status.LastError, got.LastError)

	// no expiration configured
	assert.Zero(t, mr.TTL(syncStatusKey))
}

func TestSetSyncStatus_Expiration(t *testing.T) {
	c, mr := setupTestCache(t, time.Minute)

	require.NoError(t, c.SetSyncStatus(context.Background(), model.SyncStatus{LastAttemptAt: time.Now()}))
	assert.Equal(t, time.Minute, mr.TTL(syncStatusKey))
}

func TestGetSyncStatus_RedisDown(t *testing.T) {
	c, mr := setupTestCache(t, 0)
	mr.Close()

	_, err := c.GetSyncStatus(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
