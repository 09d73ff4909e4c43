package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/librefolio/config"
	"github.com/KotFed0t/librefolio/internal/model"
	"github.com/KotFed0t/librefolio/utils"
	"github.com/redis/go-redis/v9"
)

const syncStatusKey = "sync_status"

var ErrNotFound = errors.New("error not found")

type RedisCache struct {
	redis *redis.Client
	cfg   *config.Config
}

func NewRedisCache(redisClient *redis.Client, cfg *config.Config) *RedisCache {
	return &RedisCache{redis: redisClient, cfg: cfg}
}

func (r *RedisCache) SetSyncStatus(ctx context.Context, status model.SyncStatus) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "RedisCache.SetSyncStatus"
	slog.Debug("SetSyncStatus start", slog.String("rqID", rqID), slog.String("op", op))

	statusJson, err := json.Marshal(status)
	if err != nil {
		slog.Error("can't marshall sync status", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return fmt.Errorf("marshall sync status: %w", err)
	}

	err = r.redis.Set(ctx, syncStatusKey, statusJson, r.cfg.Cache.SyncStatusExpiration).Err()
	if err != nil {
		slog.Error("failed on redis.Set", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("SetSyncStatus completed", slog.String("rqID", rqID), slog.String("op", op))

	return nil
}

func (r *RedisCache) GetSyncStatus(ctx context.Context) (model.SyncStatus, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "RedisCache.GetSyncStatus"
	slog.Debug("GetSyncStatus start", slog.String("rqID", rqID), slog.String("op", op))

	res, err := r.redis.Get(ctx, syncStatusKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.SyncStatus{}, ErrNotFound
		}
		slog.Error("failed on redis.Get", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.SyncStatus{}, err
	}

	status := model.SyncStatus{}
	err = json.Unmarshal([]byte(res), &status)
	if err != nil {
		slog.Error(
			"can't unmarshall sync status",
			slog.String("rqID", rqID),
			slog.String("op", op),
			slog.String("err", err.Error()),
			slog.String("resultFromRedis", res),
		)
		return model.SyncStatus{}, errors.New("can't unmarshall sync status")
	}

	slog.Debug("GetSyncStatus completed", slog.String("rqID", rqID), slog.String("op", op))

	return status, nil
}
