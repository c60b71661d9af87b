// Package pg opens the pgx connection pool used by unique.PostgresChecker.
//
//	cfg, err := config.Load[pg.Config]()
//	if err != nil {
//		return err
//	}
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//	checker := unique.NewPostgresChecker(pool, unique.WithAllowedScopes("users.email"))
package pg
