package utils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Logged-out tokens are blacklisted until their natural expiry. Redis is the
// primary store so revocation survives restarts and spans instances; an
// in-memory map covers deployments without Redis.
const blacklistPrefix = "hth:jwt:blacklist:"

var (
	memBlacklist   = make(map[string]time.Time)
	memBlacklistMu sync.RWMutex
)

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// BlacklistToken revokes a token until exp.
func BlacklistToken(ctx context.Context, token string, exp time.Time) {
	ttl := time.Until(exp)
	if ttl <= 0 {
		return
	}
	key := tokenKey(token)

	if client := Redis(); client != nil {
		err := client.Set(ctx, blacklistPrefix+key, "1", ttl).Err()
		if err == nil {
			return
		}
		Logger.Warn("redis blacklist write failed, using memory", zap.Error(err))
	}

	memBlacklistMu.Lock()
	memBlacklist[key] = exp
	memBlacklistMu.Unlock()
}

// IsTokenBlacklisted reports whether a token has been revoked.
func IsTokenBlacklisted(ctx context.Context, token string) bool {
	key := tokenKey(token)

	if client := Redis(); client != nil {
		n, err := client.Exists(ctx, blacklistPrefix+key).Result()
		if err == nil {
			return n > 0
		}
		Logger.Warn("redis blacklist read failed, using memory", zap.Error(err))
	}

	memBlacklistMu.RLock()
	exp, ok := memBlacklist[key]
	memBlacklistMu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		memBlacklistMu.Lock()
		delete(memBlacklist, key)
		memBlacklistMu.Unlock()
		return false
	}
	return true
}

// ResetBlacklistForTesting clears the in-memory store; test helper only.
func ResetBlacklistForTesting() {
	memBlacklistMu.Lock()
	memBlacklist = make(map[string]time.Time)
	memBlacklistMu.Unlock()
}

// StartBlacklistJanitor prunes expired in-memory entries periodically.
func StartBlacklistJanitor(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			now := time.Now()
			memBlacklistMu.Lock()
			for k, exp := range memBlacklist {
				if now.After(exp) {
					delete(memBlacklist, k)
				}
			}
			memBlacklistMu.Unlock()
		}
	}()
}
