// Package redis connects to the Redis server that backs uniqueness lookups.
//
//	cfg, err := config.Load[redis.Config]()
//	if err != nil {
//		return err
//	}
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	checker := unique.NewRedisChecker(client, "")
//
// Connect pings the server until it answers, so callers get a live client or ErrUnavailable.
package redis
