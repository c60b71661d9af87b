package unique

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisChecker keeps one Redis set per scope; a value is taken when it is a
// member of the set at prefix+scope.
type RedisChecker struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisChecker uses "unique:" as key prefix when prefix is empty.
func NewRedisChecker(client redis.UniversalClient, prefix string) *RedisChecker {
	if prefix == "" {
		prefix = "unique:"
	}
	return &RedisChecker{client: client, prefix: prefix}
}

func (c *RedisChecker) key(scope string) string {
	return c.prefix + scope
}

func (c *RedisChecker) Exists(ctx context.Context, scope, value string) (bool, error) {
	return c.client.SIsMember(ctx, c.key(scope), value).Result()
}

// Add marks values as taken in scope.
func (c *RedisChecker) Add(ctx context.Context, scope string, values ...string) error {
	if len(values) == 0 {
		return nil
	}
	members := make([]any, len(values))
	for i, v := range values {
		members[i] = v
	}
	return c.client.SAdd(ctx, c.key(scope), members...).Err()
}

// Remove releases values in scope.
func (c *RedisChecker) Remove(ctx context.Context, scope string, values ...string) error {
	if len(values) == 0 {
		return nil
	}
	members := make([]any, len(values))
	for i, v := range values {
		members[i] = v
	}
	return c.client.SRem(ctx, c.key(scope), members...).Err()
}
