package postgres

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/orm/v1/orm"
)

// FXModule is an fx module that provides the Postgres database component.
// It provides *Postgres, the Client interface and the *orm.Database bound
// to the connection, and registers lifecycle hooks that monitor the
// connection and shut it down.
var FXModule = fx.Module("postgres",
	fx.Provide(
		NewPostgresClientWithDI,
		fx.Annotate(
			ProvideClient,
			fx.As(new(Client)),
		),
		ProvideORM,
	),
	fx.Invoke(RegisterPostgresLifecycle),
)

// ProvideClient wraps the concrete *Postgres and returns it as Client interface.
func ProvideClient(pg *Postgres) Client {
	return pg
}

// ProvideORM exposes the executor of the connection.
func ProvideORM(pg *Postgres) *orm.Database {
	return pg.ORM()
}

// PostgresParams groups the dependencies needed to create a Postgres Client via dependency injection.
// Logger and ORMOptions are optional.
type PostgresParams struct {
	fx.In

	Config     Config
	Logger     orm.Logger   `optional:"true"`
	ORMOptions []orm.Option `group:"orm_options"`
}

// NewPostgresClientWithDI creates a new Postgres Client using dependency injection.
//
// Example usage with fx:
//
//	app := fx.New(
//	    postgres.FXModule,
//	    fx.Provide(
//	        func() postgres.Config {
//	            return loadPostgresConfig() // Your config loading function
//	        },
//	    ),
//	)
func NewPostgresClientWithDI(params PostgresParams) (*Postgres, error) {
	return NewPostgres(params.Config,
		WithLogger(params.Logger),
		WithORMOptions(params.ORMOptions...),
	)
}

// PostgresLifeCycleParams groups the dependencies needed for Postgres lifecycle management.
type PostgresLifeCycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Postgres  *Postgres
}

// RegisterPostgresLifecycle registers lifecycle hooks for the Postgres database component.
// It sets up:
// 1. Connection monitoring on the application starts
// 2. Automatic reconnection mechanism on application start
// 3. Graceful shutdown of database connections on application stop
//
// The function uses a WaitGroup to ensure that all goroutines complete
// before the application terminates.
func RegisterPostgresLifecycle(params PostgresLifeCycleParams) {
	wg := &sync.WaitGroup{}
	ctx, cancel := context.WithCancel(context.Background())

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			wg.Add(2)
			go func() {
				defer wg.Done()
				params.Postgres.MonitorConnection(ctx)
			}()
			go func() {
				defer wg.Done()
				params.Postgres.RetryConnection(ctx)
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			params.Postgres.closeShutdownOnce.Do(func() {
				close(params.Postgres.shutdownSignal)
			})
			wg.Wait()
			return params.Postgres.GracefulShutdown()
		},
	})
}
