package unique

import (
	"context"
	"time"

	"github.com/dmitrymomot/validkit/internal/lru"
)

// CachedChecker memoizes lookups of another Checker for ttl. Only answers are
// cached; errors always go back to the wrapped checker next time.
type CachedChecker struct {
	next  Checker
	cache *lru.Cache[string, bool]
}

// NewCachedChecker keeps up to size answers. A zero ttl caches until evicted.
func NewCachedChecker(next Checker, size int, ttl time.Duration) *CachedChecker {
	return &CachedChecker{next: next, cache: lru.New[string, bool](size, ttl)}
}

func cacheKey(scope, value string) string {
	return scope + "\x00" + value
}

func (c *CachedChecker) Exists(ctx context.Context, scope, value string) (bool, error) {
	key := cacheKey(scope, value)
	if taken, ok := c.cache.Get(key); ok {
		return taken, nil
	}
	taken, err := c.next.Exists(ctx, scope, value)
	if err != nil {
		return false, err
	}
	c.cache.Put(key, taken)
	return taken, nil
}

// Invalidate drops a cached answer, e.g. after the value was claimed.
func (c *CachedChecker) Invalidate(scope, value string) {
	c.cache.Remove(cacheKey(scope, value))
}
