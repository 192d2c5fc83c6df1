package utils

import (
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	app_error "github.com/xenn00/social-chat/internal/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// GetCacheData returns nil, nil on a miss.
func GetCacheData[T any](ctx context.Context, rdb *redis.Client, cacheKey string) (*T, *app_error.AppError) {
	raw, err := rdb.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, app_error.Internal("failed to read cache entry", "redis")
	}

	var data T
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, app_error.Internal("cached value is not valid json", "json")
	}
	return &data, nil
}

func SetCacheData[T any](ctx context.Context, rdb *redis.Client, cacheKey string, data *T, expire time.Duration) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return app_error.Internal("failed to encode cache entry", "json")
	}
	return rdb.Set(ctx, cacheKey, encoded, expire).Err()
}

func DeleteCacheData(ctx context.Context, rdb *redis.Client, cacheKey string) error {
	return rdb.Del(ctx, cacheKey).Err()
}

// Remember reads cacheKey through load. A nil client or a broken cache
// degrades to calling load directly; load errors are never cached.
func Remember[T any](ctx context.Context, rdb *redis.Client, cacheKey string, ttl time.Duration, load func(context.Context) (*T, *app_error.AppError)) (*T, *app_error.AppError) {
	if rdb != nil {
		cached, appErr := GetCacheData[T](ctx, rdb, cacheKey)
		if appErr != nil {
			log.Warn().Str("key", cacheKey).Str("error", appErr.Message).Msg("cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	data, appErr := load(ctx)
	if appErr != nil {
		return nil, appErr
	}

	if rdb != nil {
		if err := SetCacheData(ctx, rdb, cacheKey, data, ttl); err != nil {
			log.Warn().Err(err).Str("key", cacheKey).Msg("cache write failed")
		}
	}
	return data, nil
}
