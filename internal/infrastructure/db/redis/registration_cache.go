package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const registrationTTL = 24 * time.Hour

// RegistrationCache remembers uids that already have a user record so that
// repeated session starts skip the database.
// Key format: user:registered:<uid>
type RegistrationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRegistrationCache creates a RegistrationCache wrapping the given Redis client.
func NewRegistrationCache(client *redis.Client) *RegistrationCache {
	return &RegistrationCache{client: client, ttl: registrationTTL}
}

// IsRegistered reports whether uid was recently seen as registered.
func (c *RegistrationCache) IsRegistered(ctx context.Context, uid string) (bool, error) {
	n, err := c.client.Exists(ctx, registrationKey(uid)).Result()
	if err != nil {
		return false, fmt.Errorf("registration cache check: %w", err)
	}
	return n > 0, nil
}

// MarkRegistered records uid as registered (expires after registrationTTL).
func (c *RegistrationCache) MarkRegistered(ctx context.Context, uid string) error {
	if err := c.client.Set(ctx, registrationKey(uid), "1", c.ttl).Err(); err != nil {
		return fmt.Errorf("registration cache mark: %w", err)
	}
	return nil
}

func registrationKey(uid string) string {
	return "user:registered:" + uid
}
