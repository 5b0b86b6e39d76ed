package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sanjana123-dot/hometownhub/config"
)

var redisClient *redis.Client

// InitRedis connects to Redis when an address is configured. The application
// degrades gracefully without it: caching is skipped and the token blacklist
// falls back to memory.
func InitRedis(cfg config.AppConfig) {
	if cfg.RedisHost == "" {
		Logger.Info("redis not configured, running without cache")
		return
	}
	addr := fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		Logger.Warn("redis unreachable, running without cache", zap.Error(err))
		_ = client.Close()
		return
	}

	redisClient = client
	Logger.Info("redis connected", zap.String("addr", addr))
}

// Redis returns the shared client, or nil when Redis is unavailable.
func Redis() *redis.Client {
	return redisClient
}

// SetRedisForTesting swaps the client in tests.
func SetRedisForTesting(c *redis.Client) {
	redisClient = c
}
