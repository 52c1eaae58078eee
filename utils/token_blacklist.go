package utils

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const blacklistPrefix = "jwt:blacklist:"

var (
	// token id -> expiry, used when Redis is disabled
	blacklist   = map[string]time.Time{}
	blacklistMu sync.Mutex
)

// BlacklistToken revokes a token id until its natural expiry.
func BlacklistToken(tokenID string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if tokenID == "" || ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := rc.Set(ctx, blacklistPrefix+tokenID, "1", ttl).Err()
		if err == nil {
			return
		}
		Logger.Warn("redis blacklist failed, keeping token in memory", zap.Error(err))
	}
	blacklistMu.Lock()
	defer blacklistMu.Unlock()
	now := time.Now()
	for id, exp := range blacklist {
		if now.After(exp) {
			delete(blacklist, id)
		}
	}
	blacklist[tokenID] = expiresAt
}

// IsTokenBlacklisted reports whether a token id was revoked before expiry.
func IsTokenBlacklisted(tokenID string) bool {
	if tokenID == "" {
		return false
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := rc.Exists(ctx, blacklistPrefix+tokenID).Result()
		if err == nil && n > 0 {
			return true
		}
	}
	blacklistMu.Lock()
	defer blacklistMu.Unlock()
	exp, ok := blacklist[tokenID]
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		delete(blacklist, tokenID)
		return false
	}
	return true
}
