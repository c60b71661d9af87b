// Package unique provides the async "unique" validator and the stores it can
// ask: a remote HTTP service, a Redis set per scope, or a Postgres column.
//
//	checker := unique.NewCachedChecker(unique.NewRedisChecker(rdb, ""), 1024, time.Minute)
//	if err := unique.Register(reg, checker); err != nil {
//		return err
//	}
//	form := schema.NewBuilder().
//		Field("email").Required().Validate("email").
//		ValidateAsync("unique", schema.Params{"scope": "users.email"}).
//		Done().MustBuild()
//
// Checker errors are faults, not rule failures: the async controller
// classifies them (HTTP status, timeouts, refused connections) and retries
// the retryable ones.
package unique
