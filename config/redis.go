package config

import (
	"context"
	"fmt"
	"time"

	"attendance/services/logger"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns nil without error when REDIS_ADDR is empty.
func ConnectRedis(ctx context.Context, cfg *AppConfig, log logger.Logger) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		log.Warn("⚠️ REDIS_ADDR not set, attendance cache disabled")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUser,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := rdb.Ping(pingCtx).Result()
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	log.Info("✅ Connected to Redis: %s", res)
	return rdb, nil
}
