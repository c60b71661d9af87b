package unique_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/validkit/pkg/asyncvalidate"
	"github.com/dmitrymomot/validkit/pkg/unique"
)

func TestRedisChecker(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	checker := unique.NewRedisChecker(client, "")

	require.NoError(t, checker.Add(ctx, "users.email", "alice@example.com", "bob@example.com"))
	assert.True(t, mr.Exists("unique:users.email"))

	taken, err := checker.Exists(ctx, "users.email", "alice@example.com")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = checker.Exists(ctx, "users.username", "alice@example.com")
	require.NoError(t, err)
	assert.False(t, taken, "scopes are separate sets")

	require.NoError(t, checker.Remove(ctx, "users.email", "alice@example.com"))
	taken, err = checker.Exists(ctx, "users.email", "alice@example.com")
	require.NoError(t, err)
	assert.False(t, taken)

	require.NoError(t, checker.Add(ctx, "users.email"))
}

func TestRedisChecker_CustomPrefix(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	_, err := mr.SAdd("app:taken:slugs", "hello-world")
	require.NoError(t, err)

	taken, err := unique.NewRedisChecker(client, "app:taken:").Exists(context.Background(), "slugs", "hello-world")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestRedisChecker_ServerDown(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, err = unique.NewRedisChecker(client, "").Exists(context.Background(), "s", "v")
	require.Error(t, err)
	kind, _ := asyncvalidate.Classify(err)
	assert.Equal(t, asyncvalidate.KindConnection, kind)
}
