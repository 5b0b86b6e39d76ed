package utils

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache key prefixes. Writes that change the underlying rows invalidate by prefix.
const (
	CacheKeyCommunityList = "hth:communities:"
	CacheKeyFeed          = "hth:feed:"
	CacheKeyAdminStats    = "hth:admin:stats"
)

// CacheGetBytes fetches a cached value. Returns ok=false on miss or when Redis is down.
func CacheGetBytes(ctx context.Context, key string) ([]byte, bool) {
	client := Redis()
	if client == nil {
		return nil, false
	}
	val, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			Logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return val, true
}

// CacheSetBytes stores a value with TTL. Failures are logged, never surfaced.
func CacheSetBytes(ctx context.Context, key string, val []byte, ttl time.Duration) {
	client := Redis()
	if client == nil {
		return
	}
	if err := client.Set(ctx, key, val, ttl).Err(); err != nil {
		Logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// CacheSetJSON marshals v and stores it with TTL.
func CacheSetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		Logger.Warn("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	CacheSetBytes(ctx, key, raw, ttl)
}

// InvalidateByPrefix deletes all keys sharing a prefix using SCAN so production
// Redis is never blocked by KEYS.
func InvalidateByPrefix(ctx context.Context, prefix string) {
	client := Redis()
	if client == nil {
		return
	}

	var cursor uint64
	for {
		keys, next, err := client.Scan(ctx, cursor, prefix+"*", 200).Result()
		if err != nil {
			Logger.Warn("cache scan failed", zap.String("prefix", prefix), zap.Error(err))
			return
		}
		if len(keys) > 0 {
			pipe := client.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				Logger.Warn("cache invalidate failed", zap.String("prefix", prefix), zap.Error(err))
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}
