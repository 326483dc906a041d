package database

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/orm/v1/orm"
)

// FXModule provides database.Client and its *orm.Database via dependency
// injection. The implementation is selected by Config.Type.
//
// Usage:
//
//	app := fx.New(
//	    database.FXModule,
//	    fx.Provide(func() (database.Config, error) {
//	        return database.LoadConfig("config.yaml")
//	    }),
//	    fx.Invoke(func(db *orm.Database) {
//	        // Statements compile for whichever backend was configured.
//	    }),
//	)
var FXModule = fx.Module("database",
	fx.Provide(
		NewClientWithDI,
		ProvideORM,
	),
	fx.Invoke(RegisterDatabaseLifecycle),
)

// DatabaseParams groups the dependencies needed to create a database client
type DatabaseParams struct {
	fx.In

	Config     Config
	Logger     orm.Logger   `optional:"true"`
	ORMOptions []orm.Option `group:"orm_options"`
}

// DatabaseLifecycleParams groups the dependencies needed for database lifecycle management
type DatabaseLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    Client
	Logger    orm.Logger `optional:"true"`
}

// NewClientWithDI creates a database client using dependency injection.
func NewClientWithDI(params DatabaseParams) (Client, error) {
	return NewClient(params.Config, params.Logger, params.ORMOptions...)
}

// ProvideORM exposes the executor of the configured client.
func ProvideORM(c Client) *orm.Database {
	return c.ORM()
}

// RegisterDatabaseLifecycle starts the connection monitor of networked
// backends and shuts the client down on stop.
func RegisterDatabaseLifecycle(params DatabaseLifecycleParams) {
	log := params.Logger
	if log == nil {
		log = orm.NopLogger()
	}
	wg := &sync.WaitGroup{}
	ctx, cancel := context.WithCancel(context.Background())

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("database client initialized", nil)
			if m, ok := params.Client.(monitored); ok {
				wg.Add(2)
				go func() {
					defer wg.Done()
					m.MonitorConnection(ctx)
				}()
				go func() {
					defer wg.Done()
					m.RetryConnection(ctx)
				}()
			}
			return nil
		},
		OnStop: func(context.Context) error {
			log.Info("shutting down database client", nil)
			cancel()
			wg.Wait()
			return params.Client.GracefulShutdown()
		},
	})
}
