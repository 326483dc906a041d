package mariadb

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/orm/v1/orm"
)

// FXModule is an fx module that provides the MariaDB database component:
// *MariaDB, the Client interface and the *orm.Database bound to it. Its
// lifecycle hooks run the connection monitor and shut the pool down.
var FXModule = fx.Module("mariadb",
	fx.Provide(
		NewMariaDBClientWithDI,
		fx.Annotate(
			ProvideClient,
			fx.As(new(Client)),
		),
		ProvideORM,
	),
	fx.Invoke(RegisterMariaDBLifecycle),
)

// ProvideClient wraps the concrete *MariaDB and returns it as Client interface.
func ProvideClient(db *MariaDB) Client {
	return db
}

// ProvideORM exposes the executor of the connection.
func ProvideORM(db *MariaDB) *orm.Database {
	return db.ORM()
}

// MariaDBParams groups the dependencies needed to create a MariaDB Client via dependency injection.
type MariaDBParams struct {
	fx.In

	Config     Config
	Logger     orm.Logger   `optional:"true"`
	ORMOptions []orm.Option `group:"orm_options"`
}

// NewMariaDBClientWithDI creates a new MariaDB Client using dependency injection.
//
// Example usage with fx:
//
//	app := fx.New(
//	    mariadb.FXModule,
//	    fx.Provide(func() mariadb.Config { return loadMariaDBConfig() }),
//	)
func NewMariaDBClientWithDI(params MariaDBParams) (*MariaDB, error) {
	return NewMariaDB(params.Config,
		WithLogger(params.Logger),
		WithORMOptions(params.ORMOptions...),
	)
}

// MariaDBLifeCycleParams groups the dependencies needed for MariaDB lifecycle management.
type MariaDBLifeCycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	MariaDB   *MariaDB
}

// RegisterMariaDBLifecycle starts connection monitoring and reconnection
// on start and shuts the connection down on stop, waiting for both loops.
func RegisterMariaDBLifecycle(params MariaDBLifeCycleParams) {
	wg := &sync.WaitGroup{}
	ctx, cancel := context.WithCancel(context.Background())

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			wg.Add(2)
			go func() {
				defer wg.Done()
				params.MariaDB.MonitorConnection(ctx)
			}()
			go func() {
				defer wg.Done()
				params.MariaDB.RetryConnection(ctx)
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			wg.Wait()
			return params.MariaDB.GracefulShutdown()
		},
	})
}
