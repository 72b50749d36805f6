package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/guttosm/mtmengine/config"
	"github.com/guttosm/mtmengine/internal/logger"
)

// InitRedis connects the price cache. An empty REDIS_URL returns a nil
// client and no error: the service then reads prices from Postgres only.
// An unreachable server is logged and kept, since the cache falls back to
// Postgres on every Redis error.
func InitRedis(cfg config.Config) (*redis.Client, error) {
	if cfg.Redis.URL == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.L().Warn().Err(err).Str("addr", opt.Addr).Msg("redis unreachable, price cache degraded")
	}
	return rdb, nil
}

// redisOpener is an indirection used by InitializeApp; overridden in tests.
var redisOpener = InitRedis
