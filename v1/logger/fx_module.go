package logger

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/orm/v1/orm"
)

// FXModule defines the Fx module for the logger package.
// It provides *Logger and exposes it as orm.Logger, which the database
// modules pick up, and flushes the logger on shutdown.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    postgres.FXModule,
//	    // other modules...
//	)
//
// Dependencies required by this module:
// - A logger.Config instance must be available in the dependency injection container
var FXModule = fx.Module("logger",
	fx.Provide(
		NewLoggerClient,
		ProvideORMLogger,
	),
	fx.Invoke(RegisterLoggerLifecycle),
)

// ProvideORMLogger exposes the logger to the orm and the database modules.
func ProvideORMLogger(l *Logger) orm.Logger {
	return l
}

// RegisterLoggerLifecycle registers a shutdown hook that flushes buffered
// log entries.
func RegisterLoggerLifecycle(lc fx.Lifecycle, client *Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// Sync on stderr fails on some platforms; nothing is lost then.
			_ = client.Zap.Sync()
			return nil
		},
	})
}
