package utils

import (
	"context"
	"testing"
	"time"

	"github.com/sanjana123-dot/hometownhub/config"
)

func setTestConfig(t *testing.T) {
	t.Helper()
	config.SetForTesting(config.AppConfig{JWTSecret: "test-secret", LogLevel: "error"})
	if err := InitLogger(config.Get()); err != nil {
		t.Fatalf("init logger: %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	setTestConfig(t)

	token, err := GenerateToken(42, "jamied")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "jamied" {
		t.Fatalf("claims = %+v", claims)
	}
	if claims.ExpiresAt == nil {
		t.Fatal("expiry missing")
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 29*24*time.Hour || ttl > 31*24*time.Hour {
		t.Fatalf("ttl = %v, want about 30 days", ttl)
	}
}

func TestParseRejectsTampering(t *testing.T) {
	setTestConfig(t)

	token, err := GenerateToken(42, "jamied")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := ParseToken(token + "x"); err == nil {
		t.Fatal("tampered token accepted")
	}
	if _, err := ParseToken("not-a-token"); err == nil {
		t.Fatal("garbage accepted")
	}
}

func TestBlacklistMemoryFallback(t *testing.T) {
	setTestConfig(t)
	SetRedisForTesting(nil)

	token, err := GenerateToken(7, "blk")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	ctx := context.Background()
	if IsTokenBlacklisted(ctx, token) {
		t.Fatal("fresh token already blacklisted")
	}
	BlacklistToken(ctx, token, time.Now().Add(time.Minute))
	if !IsTokenBlacklisted(ctx, token) {
		t.Fatal("token not blacklisted")
	}

	// An already expired entry is not blacklisted.
	other, _ := GenerateToken(8, "blk2")
	BlacklistToken(ctx, other, time.Now().Add(-time.Minute))
	if IsTokenBlacklisted(ctx, other) {
		t.Fatal("expired entry must not blacklist")
	}
}
