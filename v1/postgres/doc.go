// Package postgres connects the orm to PostgreSQL.
//
// A *Postgres owns a GORM connection pool, keeps it healthy with a monitor
// and reconnect loop, and exposes an *orm.Database whose statements are
// compiled with dialect.Postgres. Driver errors returned through the
// executor carry the orm error classes, so callers can match
// orm.ErrDuplicateKey or ask orm.IsRetryable without importing pgx.
//
// Core Features:
//   - Connection pooling with package defaults for unset limits
//   - Health monitoring and automatic reconnection
//   - Optional native pgx pool for statement execution
//   - SQLSTATE based error classification for pgx and lib/pq errors
//   - fx module with lifecycle management
//
// Basic Usage:
//
//	pg, err := postgres.NewPostgres(postgres.Config{
//		Connection: postgres.Connection{
//			Host:     "localhost",
//			Port:     "5432",
//			User:     "postgres",
//			Password: "password",
//			DbName:   "mydb",
//		},
//	}, postgres.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	defer pg.GracefulShutdown()
//
//	if err := pg.CreateTables(ctx, users); err != nil {
//		return err
//	}
//	adults, err := orm.Select(pg.ORM(), users).Where(age.GreaterEquals(18)).All(ctx)
//
// Error Handling:
//
//	_, err := orm.Insert(pg.ORM(), signup).Single("ann", 42).Exec(ctx)
//	switch {
//	case errors.Is(err, orm.ErrDuplicateKey):
//		// already registered
//	case pg.IsRetryable(err):
//		// run the unit of work again
//	}
//
// FX Module Integration:
//
//	app := fx.New(
//		postgres.FXModule,
//		fx.Provide(func() postgres.Config { return loadConfig() }),
//		fx.Invoke(func(db *orm.Database) {
//			// use db
//		}),
//	)
//
// Thread Safety:
//
// All methods on *Postgres are safe for concurrent use. The GORM handle is
// swapped atomically on reconnect and the executor resolves it per
// statement.
package postgres
