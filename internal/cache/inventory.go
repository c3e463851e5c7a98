package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix      = "user:%d"
	BlacklistKeyPrefix = "blacklist:%s"
)

const (
	UserTTL = 5 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistKeyPrefix, jti)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// RevokeToken blacklists a session token id until ttl elapses.
// Without Redis revocation is skipped and false is returned.
func RevokeToken(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if client == nil || jti == "" {
		return false, nil
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := client.Set(ctx, BlacklistKey(jti), "1", ttl).Err(); err != nil {
		return false, err
	}
	return true, nil
}

// IsRevoked reports whether jti has been blacklisted.
// Redis errors are returned so the caller can decide how strict to be.
func IsRevoked(ctx context.Context, jti string) (bool, error) {
	if client == nil || jti == "" {
		return false, nil
	}
	n, err := client.Exists(ctx, BlacklistKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
