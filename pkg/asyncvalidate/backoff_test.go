package asyncvalidate_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/validkit/pkg/asyncvalidate"
)

func TestExponential(t *testing.T) {
	t.Parallel()

	delay := asyncvalidate.Exponential(100*time.Millisecond, time.Second)
	assert.Equal(t, 100*time.Millisecond, delay(0))
	assert.Equal(t, 200*time.Millisecond, delay(1))
	assert.Equal(t, 800*time.Millisecond, delay(3))
	assert.Equal(t, time.Second, delay(4))
	assert.Equal(t, time.Second, delay(1000))

	t.Run("limit below base", func(t *testing.T) {
		t.Parallel()
		delay := asyncvalidate.Exponential(time.Second, 500*time.Millisecond)
		assert.Equal(t, 500*time.Millisecond, delay(0))
		assert.Equal(t, 500*time.Millisecond, delay(5))
	})

	t.Run("zero limit is unbounded", func(t *testing.T) {
		t.Parallel()
		delay := asyncvalidate.Exponential(time.Second, 0)
		assert.Equal(t, time.Second, delay(0))
		assert.Equal(t, 32*time.Second, delay(5))
		assert.Equal(t, time.Duration(math.MaxInt64), delay(1000))
	})
}

func TestLinear(t *testing.T) {
	t.Parallel()

	delay := asyncvalidate.Linear(time.Second, 3*time.Second)
	assert.Equal(t, time.Second, delay(0))
	assert.Equal(t, 2*time.Second, delay(1))
	assert.Equal(t, 3*time.Second, delay(5))

	assert.Equal(t, 10*time.Second, asyncvalidate.Linear(time.Second, 0)(9))
}

func TestConstant(t *testing.T) {
	t.Parallel()

	delay := asyncvalidate.Constant(50 * time.Millisecond)
	assert.Equal(t, 50*time.Millisecond, delay(0))
	assert.Equal(t, 50*time.Millisecond, delay(7))
	assert.Zero(t, asyncvalidate.Constant(-time.Second)(0))
}

func TestJittered(t *testing.T) {
	t.Parallel()

	delay := asyncvalidate.Jittered(asyncvalidate.Constant(time.Second), 0.1)
	for range 50 {
		d := delay(0)
		assert.GreaterOrEqual(t, d, 900*time.Millisecond)
		assert.LessOrEqual(t, d, 1100*time.Millisecond)
	}

	assert.Equal(t, time.Second, asyncvalidate.Jittered(asyncvalidate.Constant(time.Second), 0)(3))
}
