// Package logger provides structured logging built on zap.
//
// *Logger satisfies orm.Logger, so the same instance logs application
// events, executed statements and transaction lifecycle events.
//
// Core Features:
//   - JSON output with ISO8601 timestamps, caller, pid and service name
//   - Levels debug, info, warning and error
//   - Trace and span IDs from OpenTelemetry on the *WithContext methods
//   - fx module that also provides orm.Logger
//
// # Direct Usage (Without FX)
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:         logger.Debug,
//		ServiceName:   "billing",
//		EnableTracing: true,
//	})
//
//	db, err := sqlite.NewSQLite(sqlite.Config{Path: "app.db"}, orm.WithLogger(log))
//
//	log.InfoWithContext(ctx, "invoice created", nil, map[string]interface{}{
//		"invoice_id": id,
//	})
//
// At debug level the orm reports every statement with its SQL text, the
// number of arguments and the transaction ID.
//
// # FX Integration
//
//	app := fx.New(
//		fx.Provide(func() logger.Config { return logger.Config{Level: logger.Info} }),
//		logger.FXModule,
//		database.FXModule,
//	)
package logger
