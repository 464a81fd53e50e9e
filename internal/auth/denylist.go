package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const denyPrefix = "auth:denied:"

// Denylist records revoked token ids in Redis. Entries expire with the
// token they block, so the set never grows past the live token horizon.
type Denylist struct {
	client redis.UniversalClient
}

// NewDenylist constructs a deny-list over a Redis client.
func NewDenylist(client redis.UniversalClient) *Denylist {
	return &Denylist{client: client}
}

// Revoke blocks a token id until its expiry.
func (d *Denylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, denyPrefix+jti, "1", ttl).Err()
}

// IsRevoked reports whether the token id has been blocked.
func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := d.client.Exists(ctx, denyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
