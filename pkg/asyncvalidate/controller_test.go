package asyncvalidate_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/validkit/pkg/asyncvalidate"
	"github.com/dmitrymomot/validkit/pkg/validation"
)

func fieldCtx(field string) validation.Context {
	return validation.Context{FieldPath: field}
}

type counter struct {
	mu    sync.Mutex
	times []time.Time
}

func (c *counter) hit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.times = append(c.times, time.Now())
}

func (c *counter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.times)
}

func (c *counter) gaps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []time.Duration
	for i := 1; i < len(c.times); i++ {
		out = append(out, c.times[i].Sub(c.times[i-1]))
	}
	return out
}

func blocking(started chan<- struct{}) validation.Validator {
	return func(ctx context.Context, _ any, _ validation.Context) (validation.Result, error) {
		if started != nil {
			close(started)
		}
		<-ctx.Done()
		return validation.Result{}, ctx.Err()
	}
}

func TestController_Success(t *testing.T) {
	t.Parallel()

	c := asyncvalidate.New()
	res, err := c.ExecuteValidator(context.Background(), func(context.Context, any, validation.Context) (validation.Result, error) {
		return validation.PassWith("normalized"), nil
	}, "raw", fieldCtx("username"))
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "normalized", res.Data)
	assert.Zero(t, res.RetryAttempts)
	assert.False(t, res.Cancelled)
	assert.NotEqual(t, [16]byte{}, [16]byte(res.ValidationID))
	assert.Positive(t, res.Duration)
	assert.False(t, c.IsValidating("username"))
}

func TestController_ContractErrors(t *testing.T) {
	t.Parallel()

	c := asyncvalidate.New()
	_, err := c.ExecuteValidator(context.Background(), nil, "x", fieldCtx("f"))
	assert.ErrorIs(t, err, asyncvalidate.ErrNilValidator)

	_, err = c.ExecuteValidator(context.Background(), blocking(nil), "x", validation.Context{})
	assert.ErrorIs(t, err, asyncvalidate.ErrEmptyFieldID)
}

func TestController_ValidatorFailureIsNotRetried(t *testing.T) {
	t.Parallel()

	c := asyncvalidate.New()
	calls := &counter{}
	res, err := c.ExecuteValidator(context.Background(), func(_ context.Context, _ any, vctx validation.Context) (validation.Result, error) {
		calls.hit()
		return vctx.Fail("unique", nil), nil
	}, "taken", fieldCtx("username"), asyncvalidate.WithRetryDelay(time.Millisecond))
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, "unique", res.Errors[0].Code)
	assert.Equal(t, 1, calls.count())
}

func TestController_RetryBackoff(t *testing.T) {
	t.Parallel()

	c := asyncvalidate.New()
	calls := &counter{}
	res, err := c.ExecuteValidator(context.Background(), func(context.Context, any, validation.Context) (validation.Result, error) {
		calls.hit()
		return validation.Result{}, asyncvalidate.NewStatusError(503)
	}, "x", fieldCtx("email"),
		asyncvalidate.WithMaxRetries(2),
		asyncvalidate.WithRetryDelay(30*time.Millisecond),
		asyncvalidate.WithExponentialBackoff(true),
		asyncvalidate.WithMaxRetryDelay(time.Second),
	)
	require.NoError(t, err)

	assert.Equal(t, 3, calls.count())
	gaps := calls.gaps()
	require.Len(t, gaps, 2)
	assert.GreaterOrEqual(t, gaps[0], 30*time.Millisecond)
	assert.GreaterOrEqual(t, gaps[1], 60*time.Millisecond)

	assert.False(t, res.Success)
	assert.Equal(t, 2, res.RetryAttempts)
	require.Len(t, res.Errors, 1)
	e := res.Errors[0]
	assert.Equal(t, validation.CodeNetworkError, e.Code)
	assert.Equal(t, "email", e.Field)
	assert.Equal(t, "server", e.Params["errorType"])
	assert.Equal(t, 503, e.Params["statusCode"])
	assert.Equal(t, 2, e.Params["retryAttempts"])
}

func TestController_RetryRecovers(t *testing.T) {
	t.Parallel()

	c := asyncvalidate.New()
	var calls atomic.Int32
	res, err := c.ExecuteValidator(context.Background(), func(context.Context, any, validation.Context) (validation.Result, error) {
		if calls.Add(1) < 3 {
			return validation.Result{}, asyncvalidate.NewStatusError(429)
		}
		return validation.Pass(), nil
	}, "x", fieldCtx("email"), asyncvalidate.WithRetryDelay(time.Millisecond))
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 2, res.RetryAttempts)
}

func TestController_NonRetryableFaults(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		code string
	}{
		{"client status", asyncvalidate.NewStatusError(404), validation.CodeNetworkError},
		{"plain fault", errors.New("bad response body"), validation.CodeValidationError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := asyncvalidate.New()
			var calls atomic.Int32
			res, err := c.ExecuteValidator(context.Background(), func(context.Context, any, validation.Context) (validation.Result, error) {
				calls.Add(1)
				return validation.Result{}, tc.err
			}, "x", fieldCtx("f"), asyncvalidate.WithRetryDelay(time.Millisecond))
			require.NoError(t, err)

			assert.Equal(t, int32(1), calls.Load())
			assert.Zero(t, res.RetryAttempts)
			require.Len(t, res.Errors, 1)
			assert.Equal(t, tc.code, res.Errors[0].Code)
		})
	}
}

func TestController_PanicIsContained(t *testing.T) {
	t.Parallel()

	c := asyncvalidate.New()
	res, err := c.ExecuteValidator(context.Background(), func(context.Context, any, validation.Context) (validation.Result, error) {
		panic("boom")
	}, "x", fieldCtx("f"))
	require.NoError(t, err)
	assert.Equal(t, validation.CodeValidationError, res.Errors[0].Code)
}

func TestController_Timeout(t *testing.T) {
	t.Parallel()

	c := asyncvalidate.New()
	start := time.Now()
	res, err := c.ExecuteValidator(context.Background(), func(context.Context, any, validation.Context) (validation.Result, error) {
		select {}
	}, "x", fieldCtx("f"), asyncvalidate.WithTimeout(50*time.Millisecond), asyncvalidate.WithNoRetry())
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.True(t, res.TimedOut)
	assert.False(t, res.Success)
	assert.Equal(t, validation.CodeValidationTimeout, res.Errors[0].Code)
	assert.False(t, c.IsValidating("f"))
}

func TestController_TimeoutIsRetried(t *testing.T) {
	t.Parallel()

	c := asyncvalidate.New()
	calls := &counter{}
	res, err := c.ExecuteValidator(context.Background(), func(ctx context.Context, _ any, _ validation.Context) (validation.Result, error) {
		calls.hit()
		<-ctx.Done()
		return validation.Result{}, ctx.Err()
	}, "x", fieldCtx("f"),
		asyncvalidate.WithTimeout(20*time.Millisecond),
		asyncvalidate.WithMaxRetries(1),
		asyncvalidate.WithRetryDelay(time.Millisecond),
	)
	require.NoError(t, err)

	assert.Equal(t, 2, calls.count())
	assert.True(t, res.TimedOut)
	assert.Equal(t, 1, res.RetryAttempts)
}

func TestController_CancelValidation(t *testing.T) {
	t.Parallel()

	c := asyncvalidate.New()
	started := make(chan struct{})
	done := make(chan asyncvalidate.Result, 1)
	go func() {
		res, _ := c.ExecuteValidator(context.Background(), blocking(started), "x", fieldCtx("email"))
		done <- res
	}()

	<-started
	assert.True(t, c.IsValidating("email"))
	state, ok := c.State("email")
	require.True(t, ok)
	assert.Zero(t, state.CurrentAttempt)

	assert.True(t, c.CancelValidation("email"))
	assert.False(t, c.CancelValidation("email"))

	select {
	case res := <-done:
		assert.True(t, res.Cancelled)
		assert.True(t, res.Success)
		assert.Empty(t, res.Errors)
	case <-time.After(time.Second):
		t.Fatal("cancelled validation did not return")
	}
	assert.False(t, c.IsValidating("email"))
	assert.Empty(t, c.ActiveValidations())
}

func TestController_CancelDuringBackoff(t *testing.T) {
	t.Parallel()

	c := asyncvalidate.New()
	var calls atomic.Int32
	done := make(chan asyncvalidate.Result, 1)
	go func() {
		res, _ := c.ExecuteValidator(context.Background(), func(context.Context, any, validation.Context) (validation.Result, error) {
			calls.Add(1)
			return validation.Result{}, asyncvalidate.NewStatusError(500)
		}, "x", fieldCtx("f"), asyncvalidate.WithRetryDelay(time.Hour))
		done <- res
	}()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	require.True(t, c.CancelValidation("f"))

	select {
	case res := <-done:
		assert.True(t, res.Cancelled)
		assert.Empty(t, res.Errors)
	case <-time.After(time.Second):
		t.Fatal("sleep was not interrupted")
	}
}

func TestController_SingleFlight(t *testing.T) {
	t.Parallel()

	t.Run("new run cancels the previous one", func(t *testing.T) {
		t.Parallel()
		c := asyncvalidate.New()
		started := make(chan struct{})
		first := make(chan asyncvalidate.Result, 1)
		go func() {
			res, _ := c.ExecuteValidator(context.Background(), blocking(started), "a", fieldCtx("username"))
			first <- res
		}()
		<-started

		second, err := c.ExecuteValidator(context.Background(), func(context.Context, any, validation.Context) (validation.Result, error) {
			return validation.PassWith("b"), nil
		}, "b", fieldCtx("username"))
		require.NoError(t, err)
		assert.False(t, second.Cancelled)
		assert.Equal(t, "b", second.Data)

		res := <-first
		assert.True(t, res.Cancelled)
		assert.NotEqual(t, res.ValidationID, second.ValidationID)
		assert.False(t, c.IsValidating("username"))
	})

	t.Run("stale result is discarded without cancelPrevious", func(t *testing.T) {
		t.Parallel()
		c := asyncvalidate.New(asyncvalidate.WithDefaultPolicy(asyncvalidate.Policy{Timeout: time.Second}))
		release := make(chan struct{})
		started := make(chan struct{})
		first := make(chan asyncvalidate.Result, 1)
		go func() {
			res, _ := c.ExecuteValidator(context.Background(), func(context.Context, any, validation.Context) (validation.Result, error) {
				close(started)
				<-release
				return validation.Fail(validation.Error{Code: "stale"}), nil
			}, "a", fieldCtx("username"))
			first <- res
		}()
		<-started

		secondStarted := make(chan struct{})
		second := make(chan asyncvalidate.Result, 1)
		go func() {
			res, _ := c.ExecuteValidator(context.Background(), func(ctx context.Context, _ any, _ validation.Context) (validation.Result, error) {
				close(secondStarted)
				<-ctx.Done()
				return validation.Result{}, ctx.Err()
			}, "b", fieldCtx("username"))
			second <- res
		}()
		<-secondStarted

		close(release)
		res := <-first
		assert.True(t, res.Cancelled, "older run must not surface its result")
		assert.Empty(t, res.Errors)
		assert.True(t, c.IsValidating("username"), "newer run still owns the field")

		c.CancelValidation("username")
		assert.True(t, (<-second).Cancelled)
	})
}

func TestController_Scopes(t *testing.T) {
	t.Parallel()

	c := asyncvalidate.New()
	results := make(chan asyncvalidate.Result, 2)
	for _, scope := range []string{"s2", "s1"} {
		started := make(chan struct{})
		ctx := asyncvalidate.WithScope(context.Background(), scope)
		go func() {
			res, _ := c.ExecuteValidator(ctx, blocking(started), "x", fieldCtx("username"))
			results <- res
		}()
		<-started
	}

	assert.Equal(t, []string{"s1/username", "s2/username"}, c.ActiveValidations())
	assert.False(t, c.IsValidating("username"))
	assert.False(t, c.CancelValidation("username"), "field name alone does not reach scoped runs")

	assert.Equal(t, 2, c.CancelAllValidations())
	for range 2 {
		res := <-results
		assert.True(t, res.Cancelled)
	}
	assert.Empty(t, c.ActiveValidations())
}

func TestController_CancelAll(t *testing.T) {
	t.Parallel()

	c := asyncvalidate.New()
	var wg sync.WaitGroup
	for _, field := range []string{"c", "a", "b"} {
		started := make(chan struct{})
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.ExecuteValidator(context.Background(), blocking(started), "x", fieldCtx(field))
		}()
		<-started
	}

	assert.Equal(t, []string{"a", "b", "c"}, c.ActiveValidations())
	assert.Equal(t, 3, c.CancelAllValidations())
	wg.Wait()
	assert.Empty(t, c.ActiveValidations())
	assert.Zero(t, c.CancelAllValidations())
}

func TestController_ParentContextCancelled(t *testing.T) {
	t.Parallel()

	c := asyncvalidate.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := c.ExecuteValidator(ctx, blocking(nil), "x", fieldCtx("f"))
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.False(t, c.IsValidating("f"))
}

type recordingObserver struct {
	mu       sync.Mutex
	attempts []int
	results  []asyncvalidate.Result
}

func (o *recordingObserver) ObserveAttempt(_ string, attempt int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts = append(o.attempts, attempt)
}

func (o *recordingObserver) ObserveResult(_ string, res asyncvalidate.Result) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, res)
}

func TestController_Observer(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	c := asyncvalidate.New(asyncvalidate.WithObserver(obs))
	_, err := c.ExecuteValidator(context.Background(), func(context.Context, any, validation.Context) (validation.Result, error) {
		return validation.Result{}, asyncvalidate.NewStatusError(502)
	}, "x", fieldCtx("f"), asyncvalidate.WithMaxRetries(1), asyncvalidate.WithRetryDelay(time.Millisecond))
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, obs.attempts)
	require.Len(t, obs.results, 1)
	assert.False(t, obs.results[0].Success)
}

func TestController_Executor(t *testing.T) {
	t.Parallel()

	c := asyncvalidate.New()
	engine := validation.NewEngine(validation.NewRegistry(), validation.WithAsyncExecutor(c.Executor(asyncvalidate.WithNoRetry())))
	_ = engine.Registry().RegisterAsync("remote", func(_ context.Context, _ any, vctx validation.Context) (validation.Result, error) {
		return validation.Result{}, asyncvalidate.NewStatusError(503)
	})

	res := engine.ValidateField(context.Background(), "x",
		schemaField("remote"), validation.Context{FieldPath: "email"})
	require.Len(t, res.Errors, 1)
	assert.Equal(t, validation.CodeNetworkError, res.Errors[0].Code)
	assert.Zero(t, res.Errors[0].Params["retryAttempts"])

	out := c.Execute(context.Background(), func(context.Context, any, validation.Context) (validation.Result, error) {
		return validation.Pass(), nil
	}, nil, validation.Context{})
	assert.True(t, out.Result.Success)
	assert.False(t, out.Cancelled)
}
