package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "blacklist:access:"

var (
	blacklistMu     sync.RWMutex
	blacklistClient *redis.Client
)

// SetBlacklistClient configures the Redis client used for access-token
// revocation. nil disables the blacklist.
func SetBlacklistClient(c *redis.Client) {
	blacklistMu.Lock()
	defer blacklistMu.Unlock()
	blacklistClient = c
}

func client() *redis.Client {
	blacklistMu.RLock()
	defer blacklistMu.RUnlock()
	return blacklistClient
}

// BlacklistAccessToken revokes token for ttl. No-op without a client.
func BlacklistAccessToken(ctx context.Context, token string, ttl time.Duration) error {
	c := client()
	if c == nil || ttl <= 0 {
		return nil
	}
	return c.Set(ctx, blacklistPrefix+token, "1", ttl).Err()
}

// RevokeUntil blacklists token until its expiry.
func RevokeUntil(ctx context.Context, token string, exp time.Time) error {
	return BlacklistAccessToken(ctx, token, time.Until(exp))
}

// IsAccessTokenBlacklisted reports whether token was revoked; false, nil
// without a client.
func IsAccessTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	c := client()
	if c == nil {
		return false, nil
	}
	exists, err := c.Exists(ctx, blacklistPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
