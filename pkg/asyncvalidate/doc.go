// Package asyncvalidate runs validators under a bounded-latency policy: a
// per-attempt timeout, retries with backoff for network faults, and
// cancellation. It keeps at most one run per field identifier; starting a new
// run for a field supersedes the previous one, whose result is discarded even
// if it settles later.
//
//	ctrl := asyncvalidate.New(asyncvalidate.WithLogger(log))
//	res, err := ctrl.ExecuteValidator(ctx, checkUnique, "alice",
//		validation.Context{FieldPath: "username"},
//		asyncvalidate.WithTimeout(2*time.Second),
//		asyncvalidate.WithMaxRetries(2),
//	)
//	switch {
//	case err != nil:
//		// nil validator or empty field path
//	case res.Cancelled:
//		// superseded or cancelled; not a failure
//	case !res.Success:
//		// res.Errors holds the rule failure, validationTimeout or networkError
//	}
//
// Validators opt into retries by returning a *NetworkError (see NewStatusError)
// or a timeout or connection error. A failed Result is never retried.
//
// The Controller implements validation.AsyncExecutor through Execute and
// Executor, so an Engine can delegate async validators to it.
package asyncvalidate
