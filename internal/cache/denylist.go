package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "denylist:"

// Denylist remembers revoked access tokens by jti until they would have expired anyway.
// A nil client makes every operation a no-op.
type Denylist struct {
	rdb *redis.Client
}

func NewDenylist(rdb *redis.Client) *Denylist {
	return &Denylist{rdb: rdb}
}

func denylistKey(jti string) string {
	return denylistPrefix + jti
}

// Revoke marks jti as revoked until expiresAt.
func (d *Denylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if d == nil || d.rdb == nil || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return d.rdb.Set(ctx, denylistKey(jti), 1, ttl).Err()
}

// IsRevoked reports whether jti was revoked. Redis errors are returned so the
// caller can decide whether to fail open.
func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if d == nil || d.rdb == nil || jti == "" {
		return false, nil
	}
	n, err := d.rdb.Exists(ctx, denylistKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Ping reports Redis health. A disabled denylist is healthy.
func (d *Denylist) Ping(ctx context.Context) error {
	if d == nil || d.rdb == nil {
		return nil
	}
	return d.rdb.Ping(ctx).Err()
}

// Enabled reports whether a Redis client backs the denylist.
func (d *Denylist) Enabled() bool {
	return d != nil && d.rdb != nil
}
