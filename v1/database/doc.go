// Package database selects and manages the SQL backend behind the orm.
//
// # Philosophy
//
// The database package follows Go's "accept interfaces, return structs" principle:
//   - Applications depend on the database.Client interface or directly on
//     *orm.Database
//   - Implementations (postgres, mariadb, sqlite) return concrete types
//   - Concrete types implement the interface
//
// Because statements are built from schema models and compiled by the
// backend's dialect, switching databases is a configuration change.
//
// # Configuration
//
// Config names the backend and carries its section. It can be built with
// the helpers or read with LoadConfig from a YAML, JSON or TOML file plus
// ORM_* environment variables:
//
//	cfg, err := database.LoadConfig("config.yaml")
//	if err != nil {
//	    return err
//	}
//	client, err := database.NewClient(cfg, log)
//	if err != nil {
//	    return err
//	}
//	defer client.GracefulShutdown()
//
// # Usage with FX
//
//	app := fx.New(
//	    logger.FXModule,
//	    database.FXModule,
//	    fx.Provide(func() (database.Config, error) {
//	        return database.LoadConfig(os.Getenv("CONFIG_PATH"))
//	    }),
//	    fx.Invoke(func(db *orm.Database) {
//	        // ...
//	    }),
//	)
//
// For the networked backends the module also runs the connection monitor
// and reconnect loops for the lifetime of the application.
//
// # Error Handling
//
// Every backend attaches the orm error classes to driver errors, so the
// same checks work everywhere:
//
//	if errors.Is(err, orm.ErrDuplicateKey) { ... }
//	if client.IsRetryable(err) { ... }
package database
