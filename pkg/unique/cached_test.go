package unique_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/validkit/pkg/unique"
)

func TestCachedChecker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	fail := atomic.Bool{}
	next := unique.CheckerFunc(func(_ context.Context, scope, value string) (bool, error) {
		calls.Add(1)
		if fail.Load() {
			return false, errors.New("down")
		}
		return value == "taken", nil
	})
	c := unique.NewCachedChecker(next, 10, time.Minute)
	ctx := context.Background()

	for range 3 {
		taken, err := c.Exists(ctx, "s", "taken")
		require.NoError(t, err)
		assert.True(t, taken)
	}
	assert.Equal(t, int32(1), calls.Load())

	taken, err := c.Exists(ctx, "other", "taken")
	require.NoError(t, err)
	assert.True(t, taken)
	assert.Equal(t, int32(2), calls.Load(), "scope is part of the key")

	c.Invalidate("s", "taken")
	fail.Store(true)
	_, err = c.Exists(ctx, "s", "taken")
	require.Error(t, err)
	_, err = c.Exists(ctx, "s", "taken")
	require.Error(t, err)
	assert.Equal(t, int32(4), calls.Load(), "errors are not cached")
}
