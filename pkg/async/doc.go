// Package async runs a function in its own goroutine and hands back a
// generic Future, so a caller can race the result against a deadline.
//
// The async validation controller uses it to bound each validator attempt:
//
//	f := async.Go(attemptCtx, func(ctx context.Context) (validation.Result, error) {
//		return validation.Invoke(ctx, v, value, vctx)
//	})
//	res, err := f.Wait(attemptCtx)
//
// Wait returns the context error when ctx ends first and WaitTimeout returns
// ErrTimeout. Neither stops the goroutine; fn has to watch its context to
// return early. A panic in fn becomes an error wrapping ErrPanic.
package async
