package unique_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/validkit/pkg/asyncvalidate"
	"github.com/dmitrymomot/validkit/pkg/schema"
	"github.com/dmitrymomot/validkit/pkg/unique"
	"github.com/dmitrymomot/validkit/pkg/validation"
)

func takenSet(values ...string) unique.CheckerFunc {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return func(_ context.Context, _ string, value string) (bool, error) {
		return set[value], nil
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()

	reg := validation.NewRegistry()
	require.NoError(t, unique.Register(reg, takenSet("alice")))
	assert.True(t, reg.IsAsync(unique.Type))

	entry, ok := reg.Entry(unique.Type)
	require.True(t, ok)
	assert.True(t, entry.IsFactory)

	_, err := entry.Bind(nil)
	assert.ErrorIs(t, err, validation.ErrInvalidParams)
	assert.ErrorIs(t, err, unique.ErrInvalidScope)

	assert.ErrorIs(t, unique.Register(reg, nil), unique.ErrNilChecker)
}

func TestFactory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	vctx := validation.Context{FieldPath: "username"}

	v, err := unique.Factory(takenSet("alice"))(map[string]any{"scope": "users.username", "caseInsensitive": true})
	require.NoError(t, err)

	res, err := v(ctx, " Alice ", vctx)
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, unique.Type, res.Errors[0].Code)
	assert.Equal(t, "users.username", res.Errors[0].Params["scope"])

	res, err = v(ctx, "bob", vctx)
	require.NoError(t, err)
	assert.True(t, res.Success)

	res, err = v(ctx, "", vctx)
	require.NoError(t, err)
	assert.True(t, res.Success)

	failing := unique.CheckerFunc(func(context.Context, string, string) (bool, error) {
		return false, errors.New("store down")
	})
	v, err = unique.Factory(failing)(map[string]any{"scope": "s"})
	require.NoError(t, err)
	_, err = v(ctx, "x", vctx)
	assert.EqualError(t, err, "store down")
}

func TestUnique_ThroughControllerAndEngine(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	checker := unique.CheckerFunc(func(_ context.Context, _ string, value string) (bool, error) {
		if calls.Add(1) == 1 {
			return false, asyncvalidate.NewStatusError(503)
		}
		return value == "taken@example.com", nil
	})

	reg := validation.NewRegistry()
	require.NoError(t, unique.Register(reg, checker))
	ctrl := asyncvalidate.New()
	engine := validation.NewEngine(reg, validation.WithAsyncExecutor(ctrl.Executor(
		asyncvalidate.WithRetryDelay(time.Millisecond),
		asyncvalidate.WithMaxRetryDelay(5*time.Millisecond),
	)))

	form := schema.NewBuilder().
		Field("email").Required().Validate(unique.Type, schema.Params{"scope": "users.email"}).
		Done().MustBuild()

	res := engine.ValidateForm(context.Background(), map[string]any{"email": "taken@example.com"}, form)
	require.False(t, res.Success)
	assert.Equal(t, []string{unique.Type}, res.Errors.Codes("email"))
	assert.Equal(t, int32(2), calls.Load(), "503 is retried once")
}
