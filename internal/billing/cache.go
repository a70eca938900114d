package billing

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const checkKeyPrefix = "billing:subcheck:"

// CheckCache keeps recent subscription verdicts in Redis so the gate does not
// hit PostgreSQL on every request.
type CheckCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCheckCache instantiates the cache helper.
func NewCheckCache(client *redis.Client, ttl time.Duration) *CheckCache {
	return &CheckCache{client: client, ttl: ttl}
}

// Get returns the cached verdict for a user, or found=false on a miss.
func (c *CheckCache) Get(ctx context.Context, userID string) (checked, found bool, err error) {
	if c == nil || c.client == nil {
		return false, false, nil
	}
	value, err := c.client.Get(ctx, checkKeyPrefix+userID).Result()
	if err == redis.Nil {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return value == "1", true, nil
}

// Set stores a verdict for a user.
func (c *CheckCache) Set(ctx context.Context, userID string, checked bool) error {
	if c == nil || c.client == nil {
		return nil
	}
	value := "0"
	if checked {
		value = "1"
	}
	return c.client.Set(ctx, checkKeyPrefix+userID, value, c.ttl).Err()
}

// Invalidate drops the cached verdicts for the given users, typically after a
// subscription sync changed the mirror.
func (c *CheckCache) Invalidate(ctx context.Context, userIDs ...string) error {
	if c == nil || c.client == nil || len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = checkKeyPrefix + id
	}
	return c.client.Del(ctx, keys...).Err()
}
