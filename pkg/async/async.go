package async

import (
	"context"
	"fmt"
	"time"
)

// Future holds the outcome of a function started by Go.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go runs fn in a new goroutine. fn is skipped when ctx is already done, and
// a panic in fn settles the Future with an error wrapping ErrPanic.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go f.run(ctx, fn)
	return f
}

func (f *Future[T]) run(ctx context.Context, fn func(context.Context) (T, error)) {
	defer close(f.done)
	defer func() {
		if r := recover(); r != nil {
			var zero T
			f.value, f.err = zero, fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	if f.err = ctx.Err(); f.err != nil {
		return
	}
	f.value, f.err = fn(ctx)
}

// Done is closed once the Future has settled.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Ready reports whether the Future has settled, without blocking.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Get blocks until the Future settles.
func (f *Future[T]) Get() (T, error) {
	<-f.done
	return f.value, f.err
}

// Wait blocks until the Future settles or ctx is done. Giving up on the wait
// does not stop fn; it only abandons its result.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// WaitTimeout is Wait bounded by d instead of a context; it fails with ErrTimeout.
func (f *Future[T]) WaitTimeout(d time.Duration) (T, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-f.done:
		return f.value, f.err
	case <-timer.C:
		var zero T
		return zero, ErrTimeout
	}
}
